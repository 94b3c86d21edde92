package dag

import (
	"braidsim/models"

	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
)

var (
	// ErrHeightMismatch is returned when a block does not extend the store by exactly one.
	ErrHeightMismatch = errors.New("block height does not extend the store")

	// ErrParentOutOfRange is returned for a parent that is not strictly older than its child.
	ErrParentOutOfRange = errors.New("parent height out of range")
)

// Store is the append-only record of every block of a run, indexed by height.
//
// Blocks are immutable once appended except for their cohort and sibling
// flags, which later blocks may set while the block is within finalityDepth
// of the tip. After that the block is final and flag writes are dropped and
// counted in LateWrites. A finalityDepth of zero or less defers finalization
// until FinalizeAll.
//
// The horizon is how far below the newest block a childless block still
// counts as a tip. Deeper childless blocks fell out of every later look-back
// window without being referenced; they and any block referenced only by
// them are orphans.
type Store struct {
	blocks        []models.Block
	finalityDepth int
	finalized     int // heights below this are final
	lateWrites    int
	horizon       int // zero treats every childless block as a tip
}

// NewStore returns an empty store with room for capacity blocks.
func NewStore(capacity, finalityDepth int) *Store {
	return &Store{
		blocks:        make([]models.Block, 0, capacity),
		finalityDepth: finalityDepth,
	}
}

// FromBlocks rebuilds a store from archived blocks. Children are recomputed
// from the parent lists and every block is final.
func FromBlocks(blocks []models.Block) (*Store, error) {
	s := NewStore(len(blocks), 0)
	for _, b := range blocks {
		b.Children = nil
		if err := s.Append(b); err != nil {
			return nil, err
		}
	}
	s.FinalizeAll()
	return s, nil
}

// Len returns the number of blocks, which is also the next height.
func (s *Store) Len() int {
	return len(s.blocks)
}

// Block returns a copy of the block at height h. The slices are shared.
func (s *Store) Block(h int) models.Block {
	return s.blocks[h]
}

// Blocks returns a copy of the blocks in [from, to).
func (s *Store) Blocks(from, to int) []models.Block {
	if from < 0 {
		from = 0
	}
	if to > len(s.blocks) {
		to = len(s.blocks)
	}
	if from >= to {
		return nil
	}
	out := make([]models.Block, to-from)
	copy(out, s.blocks[from:to])
	return out
}

// Arrival returns the timing data the visibility oracle needs for height h.
func (s *Store) Arrival(h int) Arrival {
	b := &s.blocks[h]
	return Arrival{Height: h, Time: b.Time, Latency: b.Latency}
}

// Time returns the arrival time of height h.
func (s *Store) Time(h int) float64 { return s.blocks[h].Time }

// Target returns the target x of height h.
func (s *Store) Target(h int) float64 { return s.blocks[h].Target }

// Parents returns the parents of height h. The slice is shared.
func (s *Store) Parents(h int) []int { return s.blocks[h].Parents }

// Children returns the blocks that list h as a parent. The slice is shared.
func (s *Store) Children(h int) []int { return s.blocks[h].Children }

// Cohort reports whether height h is flagged as a cohort block.
func (s *Store) Cohort(h int) bool { return s.blocks[h].Cohort }

// Sibling reports whether height h is flagged as a sibling.
func (s *Store) Sibling(h int) bool { return s.blocks[h].Sibling }

// Final reports whether the flags of height h can no longer change.
func (s *Store) Final(h int) bool { return s.blocks[h].Final }

// NumParents returns the parent count of height h.
func (s *Store) NumParents(h int) int { return s.blocks[h].NumParents }

// CohortRatio returns the Nb/Nc ratio observed when h was targeted.
func (s *Store) CohortRatio(h int) float64 { return s.blocks[h].CohortRatio }

// Append adds b at the next height and indexes it as a child of its parents.
func (s *Store) Append(b models.Block) error {
	h := len(s.blocks)
	if b.Height != h {
		return errors.Wrapf(ErrHeightMismatch, "got %d, want %d", b.Height, h)
	}
	for _, p := range b.Parents {
		if p < 0 || p >= h {
			return errors.Wrapf(ErrParentOutOfRange, "block %d parent %d", h, p)
		}
	}
	b.NumParents = len(b.Parents)
	b.Final = false
	s.blocks = append(s.blocks, b)
	for _, p := range b.Parents {
		s.blocks[p].Children = append(s.blocks[p].Children, h)
	}
	s.settle()
	return nil
}

// MarkSibling records that height h was mined concurrently with another block.
func (s *Store) MarkSibling(h int) {
	if s.frozen(h) {
		return
	}
	s.blocks[h].Sibling = true
}

// MarkCohort records that height h is a single-block generation.
func (s *Store) MarkCohort(h int) {
	if s.frozen(h) {
		return
	}
	s.blocks[h].Cohort = true
}

// FinalizeAll makes every block final. Called when a run completes.
func (s *Store) FinalizeAll() {
	for ; s.finalized < len(s.blocks); s.finalized++ {
		s.blocks[s.finalized].Final = true
	}
}

// LateWrites returns how many flag writes hit final blocks and were dropped.
func (s *Store) LateWrites() int {
	return s.lateWrites
}

// SetHorizon sets the tip horizon. A run uses its look-back plus buffer:
// no look-back scan reaches deeper than that below the block being built.
func (s *Store) SetHorizon(depth int) {
	s.horizon = depth
}

// Horizon returns the tip horizon.
func (s *Store) Horizon() int {
	return s.horizon
}

// cutoff is the lowest height that still counts as near the tip.
func (s *Store) cutoff() int {
	if s.horizon <= 0 || s.horizon >= len(s.blocks) {
		return 0
	}
	return len(s.blocks) - s.horizon
}

// Tips returns the childless heights within the horizon, in increasing order.
func (s *Store) Tips() []int {
	var tips []int
	for h := s.cutoff(); h < len(s.blocks); h++ {
		if len(s.blocks[h].Children) == 0 {
			tips = append(tips, h)
		}
	}
	return tips
}

// Orphans returns the blocks below the horizon that have no live child:
// childless blocks nothing referenced in time, and blocks referenced only
// by orphans.
func (s *Store) Orphans() *roaring.Bitmap {
	dead := roaring.New()
	for h := s.cutoff() - 1; h >= 0; h-- {
		live := false
		for _, c := range s.blocks[h].Children {
			if !dead.Contains(uint32(c)) {
				live = true
				break
			}
		}
		if !live {
			dead.Add(uint32(h))
		}
	}
	return dead
}

func (s *Store) frozen(h int) bool {
	if h < s.finalized {
		s.lateWrites++
		return true
	}
	return false
}

func (s *Store) settle() {
	if s.finalityDepth <= 0 {
		return
	}
	for ; s.finalized < len(s.blocks)-s.finalityDepth; s.finalized++ {
		s.blocks[s.finalized].Final = true
	}
}
