package availability

import (
	"sort"
	"time"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// ComputeGaps returns the free intervals inside [from, to) that last at least
// minLen. Busy intervals may overlap each other or extend past the horizon.
func ComputeGaps(busy []domain.Interval, from, to time.Time, minLen time.Duration) []domain.Interval {
	sorted := make([]domain.Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var gaps []domain.Interval
	emit := func(start, end time.Time) {
		if end.Sub(start) >= minLen && end.After(start) {
			gaps = append(gaps, domain.Interval{Start: start, End: end})
		}
	}

	cursor := from
	for _, b := range sorted {
		if !cursor.Before(to) {
			break
		}
		if !b.End.After(cursor) {
			continue
		}
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(to) {
				end = to
			}
			emit(cursor, end)
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(to) {
		emit(cursor, to)
	}
	return gaps
}
