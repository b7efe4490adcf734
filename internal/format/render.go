package format

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/calvinalkan/tabedit/internal/tab"
)

// DefaultWidth is the string-line width at which a rendered system wraps.
const DefaultWidth = 120

// cellWidth is the number of columns every beat occupies.
const cellWidth = 3

// Measure separators.
const (
	barPlain     = '|'
	barRepeat    = ':'
	barPageBreak = '/'
)

var articulationLead = map[tab.Articulation]byte{
	tab.Normal:  '-',
	tab.Hammer:  'h',
	tab.Pulloff: 'p',
	tab.Slide:   '/',
}

// Mark is a position to highlight in a rendering, usually the cursor.
type Mark struct {
	Track, Measure, Beat, String int
}

// RenderOptions controls [Render] and [RenderHTML].
type RenderOptions struct {
	// Width is the string-line width after which no further measure starts
	// on the same system. Zero means [DefaultWidth].
	Width int

	// From is the first measure rendered. Zero means 1.
	From int

	// Track limits rendering to one track. Zero renders all tracks.
	Track int

	// Mark, if set, draws '+' in place of the leading '-' of that cell.
	Mark *Mark
}

// System is one block of rendered lines: a measure-number header, an
// annotation line, a beat line and one line per string.
type System struct {
	Track int
	Lines []string
}

// TrackSystems groups the systems of one track.
type TrackSystems struct {
	Track   int
	Title   string // empty unless the song has several tracks or a named track
	Systems []System
}

// Render writes the human-readable tablature of song to w. The output is
// meant to be read, not parsed back.
func Render(w io.Writer, song *tab.Song, opts RenderOptions) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, song.Name)

	if song.Annotation != "" {
		fmt.Fprintln(bw, song.Annotation)
	}

	for _, ts := range Layout(song, opts) {
		if ts.Title != "" {
			fmt.Fprintln(bw, ts.Title)
		}

		for _, sys := range ts.Systems {
			for _, line := range sys.Lines {
				fmt.Fprintln(bw, line)
			}

			fmt.Fprintln(bw)
		}
	}

	return bw.Flush()
}

// Layout splits each track into systems without writing them.
func Layout(song *tab.Song, opts RenderOptions) []TrackSystems {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	from := max(opts.From, 1)
	first := song.Track(1)
	titled := song.TrackCount() > 1 || (first != nil && first.Name != "")

	var out []TrackSystems

	for t := 1; t <= song.TrackCount(); t++ {
		track := song.Track(t)
		if track == nil || (opts.Track != 0 && opts.Track != t) {
			continue
		}

		ts := TrackSystems{Track: t}

		if titled {
			ts.Title = fmt.Sprintf("Track %d", t)
			if track.Name != "" {
				ts.Title += ": " + track.Name
			}
		}

		m := from
		for m <= track.MeasureCount() {
			sys := newSystemBuilder(song.TuningInfo(), t, opts.Mark)
			m = sys.fill(track, m, width)
			ts.Systems = append(ts.Systems, System{Track: t, Lines: sys.lines()})
		}

		out = append(out, ts)
	}

	return out
}

// systemBuilder accumulates the lines of one system. offset is the display
// column where the next beat starts; annWidth is how far the annotation
// line has been written.
type systemBuilder struct {
	track    int
	mark     *Mark
	header   strings.Builder
	ann      strings.Builder
	beats    strings.Builder
	strs     [tab.NumStrings]strings.Builder
	offset   int
	annWidth int
}

func newSystemBuilder(tuning tab.Tuning, track int, mark *Mark) *systemBuilder {
	labelWidth := 0
	for _, l := range tuning.Labels {
		labelWidth = max(labelWidth, len(l))
	}

	pad := strings.Repeat(" ", labelWidth+1)

	sb := &systemBuilder{track: track, mark: mark, offset: labelWidth + 1}
	sb.header.WriteString(pad)
	sb.beats.WriteString(pad)

	for s := range tab.NumStrings {
		fmt.Fprintf(&sb.strs[s], "%-*s", labelWidth+1, tuning.Labels[s])
	}

	return sb
}

// fill renders measures starting at m until the system is wide enough, a
// page break is reached, or the track ends. It returns the next measure.
// A system always holds at least one measure, however narrow width is.
func (sb *systemBuilder) fill(track *tab.Track, m, width int) int {
	for first := true; m <= track.MeasureCount() && (first || sb.strs[0].Len() < width); first = false {
		measure := track.Measure(m)
		if measure == nil {
			sb.endMeasure(barPlain)

			m++

			continue
		}

		sb.annotate(measure.Annotation)

		for b := 1; b <= measure.BeatCount(); b++ {
			sb.beat(m, b, measure.Beat(b))
		}

		bar := byte(barPlain)

		switch {
		case measure.Repeat:
			bar = barRepeat
		case measure.PageBreak:
			bar = barPageBreak
		}

		sb.endMeasure(bar)

		m++

		if measure.PageBreak {
			break
		}
	}

	return m
}

func (sb *systemBuilder) beat(m, b int, beat *tab.Beat) {
	if beat != nil {
		sb.annotate(beat.Annotation)
	}

	for s := 1; s <= tab.NumStrings; s++ {
		sb.strs[s-1].WriteString(sb.cell(m, b, s, beat))
	}

	if b == 1 {
		fmt.Fprintf(&sb.header, "%-3d", m)
	} else {
		sb.header.WriteString("   ")
	}

	sb.beats.WriteString("  .")
	sb.offset += cellWidth
}

func (sb *systemBuilder) cell(m, b, s int, beat *tab.Beat) string {
	note, ok := beat.Note(s)

	lead := byte('-')
	if ok {
		lead = articulationLead[note.Articulation]
	}

	if mk := sb.mark; mk != nil && mk.Track == sb.track && mk.Measure == m && mk.Beat == b && mk.String == s {
		lead = '+'
	}

	switch {
	case !ok:
		return string(lead) + "--"
	case note.Fret > 9:
		return fmt.Sprintf("%c%2d", lead, note.Fret)
	default:
		return fmt.Sprintf("%c-%d", lead, note.Fret)
	}
}

// annotate writes text at the current beat column unless an earlier
// annotation already reaches past it.
func (sb *systemBuilder) annotate(text string) {
	if text == "" || sb.annWidth >= sb.offset {
		return
	}

	sb.ann.WriteString(strings.Repeat(" ", sb.offset-sb.annWidth))
	sb.ann.WriteString(text)
	sb.annWidth = sb.offset + runewidth.StringWidth(text)
}

func (sb *systemBuilder) endMeasure(bar byte) {
	for s := range sb.strs {
		sb.strs[s].WriteByte(bar)
	}

	sb.header.WriteByte(' ')
	sb.beats.WriteByte(' ')
	sb.offset++
}

func (sb *systemBuilder) lines() []string {
	out := []string{sb.header.String(), sb.ann.String(), sb.beats.String()}

	for s := range sb.strs {
		out = append(out, sb.strs[s].String())
	}

	return out
}
