package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/fs"
	"github.com/calvinalkan/tabedit/internal/store"
	"github.com/calvinalkan/tabedit/internal/tab"
)

func riff(t *testing.T) *tab.Song {
	t.Helper()

	song := tab.New("riff")
	song.Annotation = "Verse"

	measure := song.Track(1).Measure(1)

	_, err := measure.EnsureBeat(2)
	require.NoError(t, err)

	require.NoError(t, measure.Beat(1).SetNote(tab.Note{String: 6, Fret: 3}))
	require.NoError(t, measure.Beat(2).SetNote(tab.Note{String: 5, Fret: 5, Articulation: tab.Hammer}))

	m3, err := song.Track(1).EnsureMeasure(3)
	require.NoError(t, err)

	_, err = m3.EnsureBeat(1)
	require.NoError(t, err)

	return song
}

func newStore(t *testing.T) (*store.Store, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "songs")

	return store.New(fs.NewReal(), dir, nil), dir
}

func Test_Save_Then_Load_Returns_Equivalent_Song_Named_After_File(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	song := riff(t)

	require.NoError(t, s.Save(song))
	assert.FileExists(t, filepath.Join(dir, "riff.tab"))

	loaded, err := s.Load("riff")
	require.NoError(t, err)

	assert.Equal(t, "riff", loaded.Name)
	assert.True(t, song.Equivalent(loaded), "loaded song differs from saved song")
}

func Test_Load_Reports_Missing_Song(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)

	_, err := s.Load("nothing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.LoadSnapshot("nothing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func Test_Load_Reports_Parse_Errors_With_Path_And_Line(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.tab"), []byte("v1.0\nm1b1 s9f1\n"), 0o644))

	_, err := s.Load("bad")
	require.ErrorIs(t, err, tab.ErrStringRange)

	var perr *format.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Contains(t, err.Error(), filepath.Join(dir, "bad.tab"))
}

func Test_Snapshot_Save_Then_Load_Is_Lossless(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	song := riff(t)

	require.NoError(t, s.SaveSnapshot(song))
	assert.FileExists(t, filepath.Join(dir, "riff.tabsnap"))

	loaded, err := s.LoadSnapshot("riff")
	require.NoError(t, err)

	assert.True(t, song.Equal(loaded), "snapshot lost information")
	assert.Equal(t, 3, loaded.Track(1).MeasureCount())
	assert.Nil(t, loaded.Track(1).Measure(2), "measure hole survives")
}

func Test_LoadSnapshot_Reports_Corrupt_File(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	require.NoError(t, s.SaveSnapshot(riff(t)))

	path := filepath.Join(dir, "riff.tabsnap")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

	_, err = s.LoadSnapshot("riff")
	require.ErrorIs(t, err, format.ErrCorrupt)
}

func Test_ValidateName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "Plain", input: "riff", ok: true},
		{name: "SpacesAndUnicode", input: "Für Elise 2", ok: true},
		{name: "Empty", input: ""},
		{name: "LeadingDot", input: ".hidden"},
		{name: "Slash", input: "a/b"},
		{name: "Backslash", input: `a\b`},
		{name: "ControlChar", input: "a\tb"},
		{name: "TooLong", input: strings.Repeat("x", 201)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := store.ValidateName(tc.input)
			if tc.ok {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, store.ErrInvalidName)
		})
	}
}

func Test_Save_Rejects_Invalid_Name_Without_Touching_Disk(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	song := riff(t)
	song.Name = "../escape"

	require.ErrorIs(t, s.Save(song), store.ErrInvalidName)
	assert.NoDirExists(t, dir)
}

func Test_NameFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "riff", store.NameFromPath("/songs/riff.tab"))
	assert.Equal(t, "riff", store.NameFromPath("riff.tabsnap"))
	assert.Equal(t, "riff.txt", store.NameFromPath("a/riff.txt"))
}

func Test_List_Groups_Files_By_Song(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries, "missing directory holds no songs")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.tab"), 0o755))

	for _, name := range []string{"riff.tab", "riff.tabsnap", "solo.tab", "notes.md", ".hidden.tab", "riff.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("v1.0\n"), 0o644))
	}

	entries, err = s.List()
	require.NoError(t, err)

	type row struct {
		Name        string
		HasText     bool
		HasSnapshot bool
	}

	got := make([]row, 0, len(entries))
	for _, e := range entries {
		got = append(got, row{Name: e.Name, HasText: e.HasText, HasSnapshot: e.HasSnapshot})
		assert.False(t, e.Modified.IsZero())
	}

	want := []row{
		{Name: "riff", HasText: true, HasSnapshot: true},
		{Name: "solo", HasText: true},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func Test_Export_Writes_Text_And_HTML_Next_To_Song(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	song := riff(t)

	path, err := s.Export(song, store.ExportText, format.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "riff.txt"), path)

	text, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), "riff\n"), "export starts with the song name: %q", text)
	assert.Contains(t, string(text), "Verse")

	path, err = s.Export(song, store.ExportHTML, format.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "riff.html"), path)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), `<pre class="system">`)
}

func Test_Save_Failure_Keeps_Previous_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	faulty := fs.NewFaulty(fs.NewReal())
	s := store.New(faulty, dir, nil)

	song := riff(t)
	require.NoError(t, s.Save(song))

	before, err := os.ReadFile(filepath.Join(dir, "riff.tab"))
	require.NoError(t, err)

	faulty.Fail(fs.OpWriteFileAtomic, errors.New("disk full"))

	song.Annotation = "changed"
	err = s.Save(song)
	require.ErrorIs(t, err, store.ErrCannotOpen)
	assert.True(t, fs.IsInjected(err))

	after, err := os.ReadFile(filepath.Join(dir, "riff.tab"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func Test_Save_Fails_While_Another_Writer_Holds_Lock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	realFS := &fs.Real{LockTimeout: 30 * time.Millisecond}
	s := store.New(realFS, dir, nil)

	held, err := realFS.Lock(filepath.Join(dir, "riff.tab"))
	require.NoError(t, err)

	defer func() { _ = held.Close() }()

	err = s.Save(riff(t))
	require.ErrorIs(t, err, store.ErrCannotOpen)
	require.ErrorIs(t, err, fs.ErrLockTimeout)
	assert.NoFileExists(t, filepath.Join(dir, "riff.tab"))
}

func Test_Read_Errors_Other_Than_Missing_Are_CannotOpen(t *testing.T) {
	t.Parallel()

	faulty := fs.NewFaulty(fs.NewReal())
	s := store.New(faulty, t.TempDir(), nil)

	faulty.Fail(fs.OpReadFile, os.ErrPermission)

	_, err := s.Load("riff")
	require.ErrorIs(t, err, store.ErrCannotOpen)
	require.ErrorIs(t, err, os.ErrPermission)
}
