package dag

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
)

// ErrUnknownDirection is returned by ParseDirection.
var ErrUnknownDirection = errors.New("unknown cohort direction")

// Direction selects which way a cohort walk moves through the DAG.
type Direction int

const (
	// Forward walks from old blocks to new ones along child links.
	Forward Direction = iota
	// Backward walks from the tips towards genesis along parent links.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts "forward" or "backward". Empty means forward.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	}
	return Forward, errors.Wrap(ErrUnknownDirection, s)
}

// CohortIterator lazily enumerates cohorts. A cohort is a set of blocks that
// every block of the next generation has entirely in its ancestry, with no
// next-generation block depending on anything outside the cohort and the
// cohorts already produced.
//
// Forward walks treat the seed as the first candidate cohort. Backward walks
// treat the seed as the unconfirmed head: the group containing it is never
// returned. Neither direction returns a group whose next generation is empty,
// so tip blocks never appear in a cohort of a forward walk.
//
// Orphans (see Store.Orphans) are left out of the walk in both directions;
// they belong to no cohort and do not hold it back.
//
// The seed must be a cut: every block not yet produced must be reachable from
// it in the walk direction.
type CohortIterator struct {
	store     *Store
	dir       Direction
	orphans   *roaring.Bitmap
	prior     *roaring.Bitmap
	cohort    *roaring.Bitmap
	ancestors map[uint32]*roaring.Bitmap
	skipHead  bool
	done      bool
}

// Cohorts returns an iterator starting from seed in direction dir.
func (s *Store) Cohorts(seed []int, dir Direction) *CohortIterator {
	orphans := s.Orphans()
	cohort := roaring.New()
	for _, h := range seed {
		if !orphans.Contains(uint32(h)) {
			cohort.Add(uint32(h))
		}
	}
	return &CohortIterator{
		store:    s,
		dir:      dir,
		orphans:  orphans,
		prior:    roaring.New(),
		cohort:   cohort,
		skipHead: dir == Backward,
		done:     cohort.IsEmpty(),
	}
}

// Next returns the next cohort as ascending heights, or false when the walk
// has reached the end of the DAG.
func (it *CohortIterator) Next() ([]int, bool) {
	for !it.done {
		c, ok := it.step()
		if !ok {
			it.done = true
			break
		}
		if it.skipHead {
			it.skipHead = false
			continue
		}
		return c, true
	}
	return nil, false
}

// All drains the iterator, stopping early after limit cohorts when limit > 0.
func (it *CohortIterator) All(limit int) [][]int {
	var out [][]int
	for limit <= 0 || len(out) < limit {
		c, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// step grows the current candidate one generation at a time until every
// block of the following generation has the whole candidate as ancestors.
// Each round only looks at the blocks added by the previous one.
func (it *CohortIterator) step() ([]int, bool) {
	cohort := it.cohort
	it.ancestors = make(map[uint32]*roaring.Bitmap)

	fresh := cohort
	for {
		// A member nothing descends from can never be in every successor's ancestry.
		if it.deadEnd(fresh) {
			return nil, false
		}
		tail := it.generation(fresh, cohort)
		if tail.IsEmpty() {
			return nil, false
		}

		it.extend(cohort, tail)
		confirmed := cohort.Clone()
		tail.Iterate(func(b uint32) bool {
			confirmed.And(it.ancestors[b])
			return !confirmed.IsEmpty()
		})
		if confirmed.GetCardinality() == cohort.GetCardinality() {
			it.prior.Or(cohort)
			it.cohort = tail
			return toHeights(confirmed), true
		}
		cohort.Or(tail)
		fresh = tail
	}
}

// generation returns the unknown blocks one step past fresh whose upstream
// links all land in cohort or in earlier cohorts. A block becomes eligible
// only when its last unknown upstream block becomes known, so scanning the
// blocks added last is enough.
func (it *CohortIterator) generation(fresh, cohort *roaring.Bitmap) *roaring.Bitmap {
	next := roaring.New()
	fresh.Iterate(func(b uint32) bool {
		for _, c := range it.downstream(int(b)) {
			if !it.known(c, cohort) && it.upstreamKnown(c, cohort) {
				next.Add(uint32(c))
			}
		}
		return true
	})
	return next
}

func (it *CohortIterator) known(h int, cohort *roaring.Bitmap) bool {
	return cohort.Contains(uint32(h)) || it.prior.Contains(uint32(h))
}

func (it *CohortIterator) upstreamKnown(h int, cohort *roaring.Bitmap) bool {
	for _, p := range it.upstream(h) {
		if !it.known(p, cohort) {
			return false
		}
	}
	return true
}

// extend records, for every tail block, the members of cohort in its
// ancestry. Tail blocks only have upstream links into cohort and earlier
// cohorts, and every cohort member already has its set, so one pass is exact.
func (it *CohortIterator) extend(cohort, tail *roaring.Bitmap) {
	tail.Iterate(func(b uint32) bool {
		acc := roaring.New()
		for _, p := range it.upstream(int(b)) {
			up := uint32(p)
			if !cohort.Contains(up) {
				continue
			}
			acc.Add(up)
			if pa, ok := it.ancestors[up]; ok {
				acc.Or(pa)
			}
		}
		it.ancestors[b] = acc
		return true
	})
}

func (it *CohortIterator) deadEnd(members *roaring.Bitmap) bool {
	dead := false
	members.Iterate(func(b uint32) bool {
		dead = len(it.downstream(int(b))) == 0
		return !dead
	})
	return dead
}

func (it *CohortIterator) downstream(h int) []int {
	if it.dir == Backward {
		return it.store.Parents(h)
	}
	return it.children(h)
}

func (it *CohortIterator) upstream(h int) []int {
	if it.dir == Backward {
		return it.children(h)
	}
	return it.store.Parents(h)
}

// children returns the children of h that are not orphans.
func (it *CohortIterator) children(h int) []int {
	ch := it.store.Children(h)
	if it.orphans.IsEmpty() {
		return ch
	}
	live := make([]int, 0, len(ch))
	for _, c := range ch {
		if !it.orphans.Contains(uint32(c)) {
			live = append(live, c)
		}
	}
	return live
}

func toHeights(bm *roaring.Bitmap) []int {
	out := make([]int, 0, bm.GetCardinality())
	bm.Iterate(func(b uint32) bool {
		out = append(out, int(b))
		return true
	})
	return out
}
