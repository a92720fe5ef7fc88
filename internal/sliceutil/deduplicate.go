// Package sliceutil holds small generic slice helpers.
package sliceutil

// Deduplicate returns items with later repeats of a key dropped. The first
// item for each key wins and relative order is kept. The input is not
// modified; nil and empty inputs come back unchanged.
//
//	sliceutil.Deduplicate([]string{"lhc", "lecture hall", "lhc"}, strings.ToLower)
//	// ["lhc", "lecture hall"]
func Deduplicate[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) < 2 {
		return items
	}

	seen := make(map[K]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		k := key(it)
		if !seen[k] {
			seen[k] = true
			out = append(out, it)
		}
	}
	return out
}
