package ebml

import "golang.org/x/exp/slices"

// orderedList keeps Elements sorted by their PosRelative key, mirroring
// the bisect-based SortedList the original engine's container uses for
// every child list and seek-entry index. Lookups are O(log n) via
// golang.org/x/exp/slices.BinarySearchFunc; mutation is O(n) (a slice
// insert/delete), which matches the original's assumption that
// containers hold at most a few dozen live children (Cluster contents
// are never materialized as Elements, see Placeholder).
type orderedList struct {
	items []Element
}

func keyOf(e Element) int64 { return e.PosRelative() }

// Len returns the number of elements.
func (l *orderedList) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *orderedList) At(i int) Element { return l.items[i] }

// All returns the elements in position order. The returned slice aliases
// internal storage and must not be mutated by the caller.
func (l *orderedList) All() []Element { return l.items }

func (l *orderedList) search(key int64) (int, bool) {
	return slices.BinarySearchFunc(l.items, key, func(e Element, k int64) int {
		ek := keyOf(e)
		switch {
		case ek < k:
			return -1
		case ek > k:
			return 1
		default:
			return 0
		}
	})
}

// Insert adds e in sorted position. When multiple elements share a key
// (two children momentarily at the same relative position mid-edit),
// Insert places the new one after existing equal-key entries (stable,
// lower-bound-from-the-right), matching SortedList.insert's semantics.
func (l *orderedList) Insert(e Element) {
	i, found := l.search(keyOf(e))
	if found {
		// advance past any run of equal keys
		for i < len(l.items) && keyOf(l.items[i]) == keyOf(e) {
			i++
		}
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = e
}

// Remove deletes the first occurrence of e (by identity), returning
// whether it was found.
func (l *orderedList) Remove(e Element) bool {
	for i, it := range l.items {
		if it == e {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// ReSort re-establishes sorted order after bulk external mutation of
// PosRelative (e.g. during rearrange, where many children move before
// any single comparison is meaningful again).
func (l *orderedList) ReSort() {
	slices.SortStableFunc(l.items, func(a, b Element) int {
		ak, bk := keyOf(a), keyOf(b)
		switch {
		case ak < bk:
			return -1
		case ak > bk:
			return 1
		default:
			return 0
		}
	})
}

// Find returns the element at exactly key, or nil.
func (l *orderedList) Find(key int64) Element {
	i, found := l.search(key)
	if !found {
		return nil
	}
	return l.items[i]
}

// IndexGE returns the index of the first element with key >= key, or
// Len() if none.
func (l *orderedList) IndexGE(key int64) int {
	i, _ := l.search(key)
	return i
}

// FindGE returns the first element with key >= key, or nil.
func (l *orderedList) FindGE(key int64) Element {
	i := l.IndexGE(key)
	if i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// IndexGT returns the index of the first element with key > key.
func (l *orderedList) IndexGT(key int64) int {
	i, found := l.search(key)
	if found {
		for i < len(l.items) && keyOf(l.items[i]) == key {
			i++
		}
	}
	return i
}

// FindGT returns the first element with key > key, or nil.
func (l *orderedList) FindGT(key int64) Element {
	i := l.IndexGT(key)
	if i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// IndexLE returns the index of the last element with key <= key, or -1.
func (l *orderedList) IndexLE(key int64) int {
	i := l.IndexGT(key)
	return i - 1
}

// FindLE returns the last element with key <= key, or nil.
func (l *orderedList) FindLE(key int64) Element {
	i := l.IndexLE(key)
	if i < 0 {
		return nil
	}
	return l.items[i]
}

// IndexLT returns the index of the last element with key < key, or -1.
func (l *orderedList) IndexLT(key int64) int {
	i := l.IndexGE(key)
	return i - 1
}

// FindLT returns the last element with key < key, or nil.
func (l *orderedList) FindLT(key int64) Element {
	i := l.IndexLT(key)
	if i < 0 {
		return nil
	}
	return l.items[i]
}
