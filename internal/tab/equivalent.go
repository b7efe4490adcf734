package tab

import "slices"

// Equivalent reports whether two songs carry the same music: the same
// tracks, measure and beat counts, notes, annotations and flags. Unlike
// [Song.Equal], a beat hole and a rest beat without annotation are the
// same thing here, because the text grammar does not distinguish them.
func (s *Song) Equivalent(other *Song) bool {
	if s == nil || other == nil {
		return s == other
	}

	if s.Tuning != other.Tuning || s.Annotation != other.Annotation || s.TrackCount() != other.TrackCount() {
		return false
	}

	for t := 1; t <= s.TrackCount(); t++ {
		if !s.Track(t).Equivalent(other.Track(t)) {
			return false
		}
	}

	return true
}

// Equivalent is [Song.Equivalent] for a single track.
func (t *Track) Equivalent(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}

	if t.Name != other.Name || t.MeasureCount() != other.MeasureCount() {
		return false
	}

	for m := 1; m <= t.MeasureCount(); m++ {
		if !t.Measure(m).Equivalent(other.Measure(m)) {
			return false
		}
	}

	return true
}

// Equivalent is [Song.Equivalent] for a single measure.
func (m *Measure) Equivalent(other *Measure) bool {
	if m == nil || other == nil {
		return m == other
	}

	if m.Annotation != other.Annotation ||
		m.PageBreak != other.PageBreak ||
		m.Repeat != other.Repeat ||
		m.BeatCount() != other.BeatCount() {
		return false
	}

	for b := 1; b <= m.BeatCount(); b++ {
		x, y := m.Beat(b), other.Beat(b)

		if beatAnnotation(x) != beatAnnotation(y) || !slices.Equal(x.Notes(), y.Notes()) {
			return false
		}
	}

	return true
}

func beatAnnotation(b *Beat) string {
	if b == nil {
		return ""
	}

	return b.Annotation
}
