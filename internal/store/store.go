// Package store maps song names to files in a song directory.
//
// A song named "riff" lives in <dir>/riff.tab (text grammar) and optionally
// <dir>/riff.tabsnap (binary snapshot). Exports go to riff.txt and
// riff.html. Every write is atomic and runs under an exclusive lock on the
// target file.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/calvinalkan/tabedit/internal/format"
	"github.com/calvinalkan/tabedit/internal/fs"
	"github.com/calvinalkan/tabedit/internal/tab"
)

// File extensions, including the dot.
const (
	ExtText     = ".tab"
	ExtSnapshot = ".tabsnap"
	ExtExport   = ".txt"
	ExtHTML     = ".html"
)

const (
	filePerms   = 0o644
	dirPerms    = 0o755
	maxNameSize = 200
)

// Store reads and writes songs in one directory.
type Store struct {
	fs  fs.FS
	dir string
	log *slog.Logger
}

// New returns a store rooted at dir. A nil logger discards log output.
func New(fsys fs.FS, dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{fs: fsys, dir: filepath.Clean(dir), log: logger}
}

// Dir returns the song directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for name with extension ext.
func (s *Store) Path(name, ext string) string {
	return filepath.Join(s.dir, name+ext)
}

// ValidateName reports whether name can be used as a song name.
// Names are plain file names: no separators, no leading dot, no control
// characters.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > maxNameSize:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameSize)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidName, name)
		}
	}

	return nil
}

// NameFromPath derives a song name from a file path by dropping the
// directory and a known extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)

	for _, ext := range []string{ExtSnapshot, ExtText} {
		if name, ok := strings.CutSuffix(base, ext); ok {
			return name
		}
	}

	return base
}

// Exists reports whether the text file for name exists.
func (s *Store) Exists(name string) (bool, error) {
	err := ValidateName(name)
	if err != nil {
		return false, err
	}

	return s.fs.Exists(s.Path(name, ExtText))
}

// Load reads <name>.tab. The returned song is named after the file.
func (s *Store) Load(name string) (*tab.Song, error) {
	data, err := s.read(name, ExtText)
	if err != nil {
		return nil, err
	}

	song, err := format.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path(name, ExtText), err)
	}

	song.Name = name
	s.log.Debug("loaded song", "path", s.Path(name, ExtText), "tracks", song.TrackCount())

	return song, nil
}

// Save writes song to <song.Name>.tab, creating the directory if needed.
func (s *Store) Save(song *tab.Song) error {
	data, err := format.Marshal(song)
	if err != nil {
		return fmt.Errorf("encode %s: %w", song.Name, err)
	}

	return s.write(song.Name, ExtText, data)
}

// LoadSnapshot reads <name>.tabsnap. A damaged snapshot reports
// [format.ErrCorrupt].
func (s *Store) LoadSnapshot(name string) (*tab.Song, error) {
	data, err := s.read(name, ExtSnapshot)
	if err != nil {
		return nil, err
	}

	song, err := format.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path(name, ExtSnapshot), err)
	}

	song.Name = name
	s.log.Debug("loaded snapshot", "path", s.Path(name, ExtSnapshot), "bytes", len(data))

	return song, nil
}

// SaveSnapshot writes song to <song.Name>.tabsnap.
func (s *Store) SaveSnapshot(song *tab.Song) error {
	return s.write(song.Name, ExtSnapshot, format.MarshalSnapshot(song))
}

// ExportKind selects the export format.
type ExportKind int

// Export formats.
const (
	ExportText ExportKind = iota
	ExportHTML
)

// Ext returns the file extension of the export kind.
func (k ExportKind) Ext() string {
	if k == ExportHTML {
		return ExtHTML
	}

	return ExtExport
}

// Export renders song and writes it next to the song file. It returns the
// path written.
func (s *Store) Export(song *tab.Song, kind ExportKind, opts format.RenderOptions) (string, error) {
	var buf bytes.Buffer

	var err error
	if kind == ExportHTML {
		err = format.RenderHTML(&buf, song, opts)
	} else {
		err = format.Render(&buf, song, opts)
	}

	if err != nil {
		return "", fmt.Errorf("render %s: %w", song.Name, err)
	}

	err = s.write(song.Name, kind.Ext(), buf.Bytes())
	if err != nil {
		return "", err
	}

	return s.Path(song.Name, kind.Ext()), nil
}

// Entry describes one song in the directory.
type Entry struct {
	Name        string
	HasText     bool
	HasSnapshot bool
	Modified    time.Time
}

// List returns the songs in the directory sorted by name. A missing
// directory holds no songs.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrCannotOpen, s.dir, err)
	}

	byName := map[string]*Entry{}

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		base := de.Name()

		var name string

		var snapshot bool

		switch {
		case strings.HasSuffix(base, ExtSnapshot):
			name, snapshot = strings.TrimSuffix(base, ExtSnapshot), true
		case strings.HasSuffix(base, ExtText):
			name = strings.TrimSuffix(base, ExtText)
		default:
			continue
		}

		if ValidateName(name) != nil {
			continue
		}

		entry, ok := byName[name]
		if !ok {
			entry = &Entry{Name: name}
			byName[name] = entry
		}

		if snapshot {
			entry.HasSnapshot = true
		} else {
			entry.HasText = true
		}

		info, infoErr := de.Info()
		if infoErr == nil && info.ModTime().After(entry.Modified) {
			entry.Modified = info.ModTime()
		}
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, *e)
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })

	return entries, nil
}

func (s *Store) read(name, ext string) ([]byte, error) {
	err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	path := s.Path(name, ext)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrCannotOpen, path, err)
	}

	return data, nil
}

func (s *Store) write(name, ext string, data []byte) (err error) {
	err = ValidateName(name)
	if err != nil {
		return err
	}

	path := s.Path(name, ext)

	err = s.fs.MkdirAll(s.dir, dirPerms)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrCannotOpen, s.dir, err)
	}

	lock, err := s.fs.Lock(path)
	if err != nil {
		return fmt.Errorf("%w: lock %s: %w", ErrCannotOpen, path, err)
	}

	defer func() {
		closeErr := lock.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, closeErr)
		}
	}()

	err = s.fs.WriteFileAtomic(path, data, filePerms)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrCannotOpen, path, err)
	}

	s.log.Debug("wrote file", "path", path, "bytes", len(data))

	return nil
}
