package clip

import "time"

// TimeWindow is the alert-centered half-open interval [Start, End) the final
// clip should cover.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow derives the target window from the alert instant and the
// configured look-back / look-ahead margins.
func NewTimeWindow(alertTime time.Time, before, after time.Duration) TimeWindow {
	return TimeWindow{
		Start: alertTime.Add(-before),
		End:   alertTime.Add(after),
	}
}

// Duration returns the total window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether the chunk's interval intersects the window.
// Both intervals are half-open, so a chunk exactly abutting the window
// boundary (chunk.End == window.Start or chunk.Start == window.End) is
// excluded.
func (w TimeWindow) Overlaps(c Chunk) bool {
	return !(!c.End.After(w.Start) || !c.Start.Before(w.End))
}

// SelectChunks filters the catalog to chunks overlapping the window,
// preserving the catalog's ascending time order. An empty result is the
// normal "no footage" outcome, not an error.
func SelectChunks(chunks []Chunk, w TimeWindow) []Chunk {
	var selected []Chunk
	for _, c := range chunks {
		if w.Overlaps(c) {
			selected = append(selected, c)
		}
	}
	return selected
}

// segmentBounds computes the in-chunk offset and duration covering the
// chunk's intersection with the window. Both values are non-negative and the
// caller guarantees the chunk overlaps the window.
func segmentBounds(c Chunk, w TimeWindow) (offset, duration time.Duration) {
	cutStart := c.Start
	if w.Start.After(cutStart) {
		cutStart = w.Start
	}
	cutEnd := c.End
	if w.End.Before(cutEnd) {
		cutEnd = w.End
	}
	return cutStart.Sub(c.Start), cutEnd.Sub(cutStart)
}
