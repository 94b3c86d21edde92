package dag

import "github.com/RoaringBitmap/roaring"

// Ancestors returns every ancestor of h whose height is at least floor.
// The walk is a BFS over parent links and never descends below floor.
func (s *Store) Ancestors(h, floor int) *roaring.Bitmap {
	visited := roaring.New()
	queue := []int{h}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range s.blocks[cur].Parents {
			if p < floor || !visited.CheckedAdd(uint32(p)) {
				continue
			}
			queue = append(queue, p)
		}
	}
	return visited
}

// IsAncestor reports whether a is a strict ancestor of h.
func (s *Store) IsAncestor(a, h int) bool {
	if a >= h {
		return false
	}
	return s.Ancestors(h, a).Contains(uint32(a))
}
