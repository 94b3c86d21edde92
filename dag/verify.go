package dag

import "github.com/pkg/errors"

// ErrInconsistent is the cause of every Verify failure.
var ErrInconsistent = errors.New("inconsistent braid")

// Verify checks the structure of a finished braid: arrival times never
// decrease, every block after genesis has a parent, and no parent of a block
// is an ancestor of another of its parents.
func (s *Store) Verify() error {
	for h := range s.blocks {
		b := &s.blocks[h]
		if b.NumParents != len(b.Parents) {
			return errors.Wrapf(ErrInconsistent, "block %d: num_parents %d, %d parents", h, b.NumParents, len(b.Parents))
		}
		if h == 0 {
			continue
		}
		if b.Time < s.blocks[h-1].Time {
			return errors.Wrapf(ErrInconsistent, "block %d arrives before block %d", h, h-1)
		}
		if len(b.Parents) == 0 {
			return errors.Wrapf(ErrInconsistent, "block %d has no parents", h)
		}
		for _, p := range b.Parents {
			for _, q := range b.Parents {
				if p < q && s.IsAncestor(p, q) {
					return errors.Wrapf(ErrInconsistent, "block %d: parent %d is an ancestor of parent %d", h, p, q)
				}
			}
		}
	}
	return nil
}
