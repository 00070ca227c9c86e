// Package lock provides per-charging-point mutual exclusion for ledger writes.
package lock

import "sort"

// normalize sorts and dedupes ids so every caller acquires in the same global order.
func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
