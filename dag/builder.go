package dag

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
)

// ErrInsufficientHistory means the look-back scan reached genesis before it
// found enough visible blocks. It points at a look-back window or warm-up
// buffer that is too small for the concurrency of the run.
var ErrInsufficientHistory = errors.New("not enough visible history for look-back")

// Selection is the outcome of placing one block in the DAG.
type Selection struct {
	Parents  []int // unseen look-back blocks, newest first
	Lookback []int // the Nb visible blocks, newest first
	Depth    int   // blocks scanned, siblings included
	Sibling  bool  // the new block could not see at least one scanned block
}

// Builder assigns parents to new blocks from what they can see.
type Builder struct {
	store    *Store
	oracle   VisibilityOracle
	lookback int
}

// NewBuilder returns a builder that collects lookback visible blocks per new block.
func NewBuilder(store *Store, oracle VisibilityOracle, lookback int) *Builder {
	return &Builder{store: store, oracle: oracle, lookback: lookback}
}

// Build scans back from the pending block until it has seen lookback blocks.
//
// An invisible block and the pending block are both marked as siblings. For
// every visible block the block just below it becomes a cohort block unless
// it already had a sibling. Parents are the visible blocks that no other
// visible block reaches through its own ancestry.
//
// The flag writes go to earlier blocks in the store; the pending block's own
// sibling flag is returned in the Selection for the caller to append.
func (b *Builder) Build(pending Arrival) (*Selection, error) {
	h := pending.Height
	if h != b.store.Len() {
		return nil, errors.Wrapf(ErrHeightMismatch, "pending %d, store at %d", h, b.store.Len())
	}

	sel := &Selection{Lookback: make([]int, 0, b.lookback)}
	for k := 1; len(sel.Lookback) < b.lookback; k++ {
		s := h - k
		if s < 0 {
			return nil, errors.Wrapf(ErrInsufficientHistory,
				"height %d saw %d of %d blocks", h, len(sel.Lookback), b.lookback)
		}
		sel.Depth = k

		if !b.oracle.Visible(pending, b.store.Arrival(s)) {
			b.store.MarkSibling(s)
			sel.Sibling = true
			continue
		}
		if s > 0 && !b.store.Sibling(s-1) {
			b.store.MarkCohort(s - 1)
		}
		sel.Lookback = append(sel.Lookback, s)
	}

	seen := b.seen(sel.Lookback)
	for _, s := range sel.Lookback {
		if !seen.Contains(uint32(s)) {
			sel.Parents = append(sel.Parents, s)
		}
	}
	return sel, nil
}

// seen marks every look-back block that another look-back block already
// reaches. The walk stays inside the window.
func (b *Builder) seen(lookback []int) *roaring.Bitmap {
	seen := roaring.New()
	if len(lookback) == 0 {
		return seen
	}
	floor := lookback[len(lookback)-1]
	for _, s := range lookback {
		if seen.Contains(uint32(s)) {
			continue
		}
		seen.Or(b.store.Ancestors(s, floor))
	}
	return seen
}
