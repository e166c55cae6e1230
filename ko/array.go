package ko

import "slices"

// ObservableArray is an Observable slice with in-place style operations. Each
// mutation replaces the slice with an edited copy, so beforeChange
// subscribers keep seeing the old contents.
type ObservableArray[T comparable] struct {
	*Observable[[]T]
}

func NewObservableArray[T comparable](rt *Runtime, items ...T) *ObservableArray[T] {
	return &ObservableArray[T]{NewObservable(rt, items)}
}

func (a *ObservableArray[T]) mutate(fn func(items []T) []T) {
	a.ValueWillMutate()
	a.latest = fn(slices.Clone(a.latest))
	a.ValueHasMutated()
}

// Len registers a dependency.
func (a *ObservableArray[T]) Len() int { return len(a.Value()) }

// At registers a dependency.
func (a *ObservableArray[T]) At(i int) T { return a.Value()[i] }

// IndexOf registers a dependency. It returns -1 when item is absent.
func (a *ObservableArray[T]) IndexOf(item T) int {
	return slices.Index(a.Value(), item)
}

// Push appends items and returns the new length.
func (a *ObservableArray[T]) Push(items ...T) int {
	a.mutate(func(s []T) []T { return append(s, items...) })
	return len(a.latest)
}

// Pop removes the last item.
func (a *ObservableArray[T]) Pop() (T, bool) {
	var item T
	var ok bool
	a.mutate(func(s []T) []T {
		if len(s) == 0 {
			return s
		}
		item, ok = s[len(s)-1], true
		return s[:len(s)-1]
	})
	return item, ok
}

// Shift removes the first item.
func (a *ObservableArray[T]) Shift() (T, bool) {
	var item T
	var ok bool
	a.mutate(func(s []T) []T {
		if len(s) == 0 {
			return s
		}
		item, ok = s[0], true
		return s[1:]
	})
	return item, ok
}

// Unshift prepends items and returns the new length.
func (a *ObservableArray[T]) Unshift(items ...T) int {
	a.mutate(func(s []T) []T { return slices.Insert(s, 0, items...) })
	return len(a.latest)
}

// Splice removes deleteCount items at start, inserts items there and returns
// the removed items. Out of range arguments are clamped.
func (a *ObservableArray[T]) Splice(start, deleteCount int, items ...T) []T {
	var removed []T
	a.mutate(func(s []T) []T {
		if start < 0 {
			start = max(len(s)+start, 0)
		}
		start = min(start, len(s))
		end := min(start+max(deleteCount, 0), len(s))

		removed = slices.Clone(s[start:end])
		s = slices.Delete(s, start, end)
		return slices.Insert(s, start, items...)
	})
	return removed
}

// Remove deletes every item equal to item and returns them. Nothing is
// notified when no item matches.
func (a *ObservableArray[T]) Remove(item T) []T {
	return a.RemoveFunc(func(v T) bool { return v == item })
}

func (a *ObservableArray[T]) RemoveFunc(match func(T) bool) []T {
	if !slices.ContainsFunc(a.latest, match) {
		return nil
	}
	var removed []T
	a.mutate(func(s []T) []T {
		return slices.DeleteFunc(s, func(v T) bool {
			if match(v) {
				removed = append(removed, v)
				return true
			}
			return false
		})
	})
	return removed
}

// RemoveAll deletes every occurrence of items.
func (a *ObservableArray[T]) RemoveAll(items ...T) []T {
	return a.RemoveFunc(func(v T) bool { return slices.Contains(items, v) })
}

// Clear deletes everything and returns what was removed.
func (a *ObservableArray[T]) Clear() []T {
	return a.RemoveFunc(func(T) bool { return true })
}

// Replace swaps the first occurrence of old for replacement.
func (a *ObservableArray[T]) Replace(old, replacement T) {
	i := slices.Index(a.latest, old)
	if i < 0 {
		return
	}
	a.mutate(func(s []T) []T {
		s[i] = replacement
		return s
	})
}

func (a *ObservableArray[T]) Reverse() {
	a.mutate(func(s []T) []T {
		slices.Reverse(s)
		return s
	})
}

// Sort orders the items with cmp, which follows the strings.Compare
// convention.
func (a *ObservableArray[T]) Sort(cmp func(x, y T) int) {
	a.mutate(func(s []T) []T {
		slices.SortStableFunc(s, cmp)
		return s
	})
}

// Sorted returns a sorted copy and registers a dependency.
func (a *ObservableArray[T]) Sorted(cmp func(x, y T) int) []T {
	s := slices.Clone(a.Value())
	slices.SortStableFunc(s, cmp)
	return s
}

// Reversed returns a reversed copy and registers a dependency.
func (a *ObservableArray[T]) Reversed() []T {
	s := slices.Clone(a.Value())
	slices.Reverse(s)
	return s
}
