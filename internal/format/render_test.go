package format_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/tab"
)

func twoBeatSong(t *testing.T) *tab.Song {
	t.Helper()

	song := tab.New("demo")
	require.NoError(t, song.Track(1).SetMeasure(1, tab.NewMeasure(2)))

	m := song.Track(1).Measure(1)
	m.Annotation = "Intro"
	require.NoError(t, m.Beat(1).SetNote(tab.Note{String: 1, Fret: 3}))
	require.NoError(t, m.Beat(2).SetNote(tab.Note{String: 6, Fret: 12, Articulation: tab.Hammer}))

	return song
}

func Test_Render_Draws_Measure_Header_Annotation_And_Strings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, format.Render(&buf, twoBeatSong(t), format.RenderOptions{}))

	want := strings.Join([]string{
		"demo",
		"  1      ",
		"  Intro",
		"    .  . ",
		"E --3---|",
		"B ------|",
		"G ------|",
		"D ------|",
		"A ------|",
		"E ---h12|",
		"",
		"",
	}, "\n")

	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func Test_Render_Marks_Cursor_Cell(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	opts := format.RenderOptions{Mark: &format.Mark{Track: 1, Measure: 1, Beat: 2, String: 1}}
	require.NoError(t, format.Render(&buf, twoBeatSong(t), opts))

	assert.Contains(t, buf.String(), "E --3+--|\n")
}

func Test_Render_Uses_Repeat_And_Page_Break_Separators(t *testing.T) {
	t.Parallel()

	song := tab.New("bars")
	track := song.Track(1)

	for range 3 {
		_, err := track.AppendMeasure(tab.NewMeasure(1))
		require.NoError(t, err)
	}

	track.Measure(1).Repeat = true
	track.Measure(2).PageBreak = true
	track.Measure(3).Repeat = true
	track.Measure(3).PageBreak = true

	systems := format.Layout(song, format.RenderOptions{})
	require.Len(t, systems, 1)
	require.Len(t, systems[0].Systems, 3, "each page break ends a system")

	first := systems[0].Systems[0].Lines
	assert.Equal(t, "E ---:---/", first[3])

	second := systems[0].Systems[1].Lines
	assert.Equal(t, "E ---:", second[3], "repeat wins over page break")

	third := systems[0].Systems[2].Lines
	assert.Equal(t, "E ---|", third[3])
	assert.Equal(t, "  4   ", third[0])
}

func Test_Render_Wraps_At_Width(t *testing.T) {
	t.Parallel()

	song := tab.New("wide")
	require.NoError(t, song.Track(1).SetMeasure(1, tab.NewMeasure(4)))

	for range 5 {
		_, err := song.Track(1).AppendMeasure(tab.NewMeasure(4))
		require.NoError(t, err)
	}

	// Each measure is 13 columns; a system starts a new measure only while
	// the string line is shorter than the width.
	systems := format.Layout(song, format.RenderOptions{Width: 30})
	require.Len(t, systems[0].Systems, 2)

	for _, sys := range systems[0].Systems {
		assert.Len(t, sys.Lines, 3+tab.NumStrings)
		assert.Equal(t, 2+3*13, len(sys.Lines[3]))
	}
}

func Test_Render_Places_One_Measure_Per_System_When_Width_Is_Tiny(t *testing.T) {
	t.Parallel()

	song := tab.New("narrow")

	for range 2 {
		_, err := song.Track(1).AppendMeasure(tab.NewMeasure(1))
		require.NoError(t, err)
	}

	systems := format.Layout(song, format.RenderOptions{Width: 2})
	require.Len(t, systems, 1)
	require.Len(t, systems[0].Systems, 3)

	var buf bytes.Buffer

	require.NoError(t, format.Render(&buf, song, format.RenderOptions{Width: 1}))
	assert.Equal(t, 3, strings.Count(buf.String(), "B ---|"))
}

func Test_Render_Shows_Track_Titles_When_Song_Has_Several_Tracks(t *testing.T) {
	t.Parallel()

	song := tab.New("duo")
	_, err := song.AppendTrack(tab.NewTrack("Bass"))
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, format.Render(&buf, song, format.RenderOptions{}))

	out := buf.String()
	assert.Contains(t, out, "\nTrack 1\n")
	assert.Contains(t, out, "\nTrack 2: Bass\n")
}

func Test_Render_Labels_Strings_From_Tuning(t *testing.T) {
	t.Parallel()

	song := tab.New("low")

	idx, err := tab.LookupTuning("halfdown")
	require.NoError(t, err)

	song.Tuning = idx

	systems := format.Layout(song, format.RenderOptions{})
	lines := systems[0].Systems[0].Lines

	assert.Equal(t, "   1   ", lines[0])
	assert.Equal(t, "Eb ---|", lines[3])
	assert.Equal(t, "Bb ---|", lines[4])
}

func Test_RenderHTML_Escapes_Text_And_Wraps_Systems(t *testing.T) {
	t.Parallel()

	song := twoBeatSong(t)
	song.Name = "a<b"
	song.Annotation = "x & y"

	var buf bytes.Buffer

	require.NoError(t, format.RenderHTML(&buf, song, format.RenderOptions{}))

	out := buf.String()
	assert.Contains(t, out, "<title>a&lt;b</title>")
	assert.Contains(t, out, "x &amp; y")
	assert.Contains(t, out, "Tuning: STANDARD (E B G D A E)")
	assert.Equal(t, 1, strings.Count(out, `<pre class="system">`))
	assert.Contains(t, out, "E --3---|\nB ------|")
}
