package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// Real FS Tests
//
// Passthroughs to the os package are not tested here. These tests cover:
//   - Exists() - the not-found convenience
//   - WriteFileAtomic() - the atomic replace wrapper
//   - Lock() - the flock based lock with timeout
// =============================================================================

// -----------------------------------------------------------------------------
// Exists() Tests
// -----------------------------------------------------------------------------

func TestReal_Exists_ReturnsFalseForNonExistent(t *testing.T) {
	t.Parallel()

	fsys := NewReal()

	exists, err := fsys.Exists(filepath.Join(t.TempDir(), "missing.tab"))
	if err != nil {
		t.Fatalf("err=%v, want nil", err)
	}

	if exists {
		t.Fatal("exists=true, want false")
	}
}

func TestReal_Exists_ReturnsTrueForFileAndDirectory(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "riff.tab")

	if err := os.WriteFile(path, []byte("v1.0\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	for _, p := range []string{path, dir} {
		exists, err := fsys.Exists(p)
		if err != nil {
			t.Fatalf("Exists(%s) err=%v", p, err)
		}

		if !exists {
			t.Fatalf("Exists(%s)=false, want true", p)
		}
	}
}

// -----------------------------------------------------------------------------
// WriteFileAtomic() Tests
// -----------------------------------------------------------------------------

func TestReal_WriteFileAtomic_ReplacesContentAndAppliesPerm(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	path := filepath.Join(t.TempDir(), "riff.tab")

	if err := fsys.WriteFileAtomic(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}

	if err := fsys.WriteFileAtomic(path, []byte("new content"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(got) != "new content" {
		t.Fatalf("content=%q, want=%q", got, "new content")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if got, want := info.Mode().Perm(), os.FileMode(0o600); got != want {
		t.Fatalf("perm=%v, want=%v", got, want)
	}
}

func TestReal_WriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	dir := t.TempDir()

	for range 3 {
		if err := fsys.WriteFileAtomic(filepath.Join(dir, "riff.tab"), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}

	if len(entries) != 1 || entries[0].Name() != "riff.tab" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}

		t.Fatalf("entries=%v, want [riff.tab]", names)
	}
}

func TestReal_WriteFileAtomic_FailsWhenDirectoryMissing(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	path := filepath.Join(t.TempDir(), "nope", "riff.tab")

	if err := fsys.WriteFileAtomic(path, []byte("x"), 0o644); err == nil {
		t.Fatal("err=nil, want error for missing directory")
	}
}

// -----------------------------------------------------------------------------
// Lock() Tests
// -----------------------------------------------------------------------------

func TestReal_Lock_CreatesLockFileInLocksDir(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	dir := t.TempDir()

	lock, err := fsys.Lock(filepath.Join(dir, "riff.tab"))
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	defer func() { _ = lock.Close() }()

	if _, err := os.Stat(filepath.Join(dir, LocksDir, "riff.tab.lock")); err != nil {
		t.Fatalf("lock file: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "riff.tab")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("locked path was created: err=%v", err)
	}
}

func TestReal_Lock_TimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	fsys := &Real{LockTimeout: 50 * time.Millisecond}
	path := filepath.Join(t.TempDir(), "riff.tab")

	held, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	defer func() { _ = held.Close() }()

	start := time.Now()

	_, err = fsys.Lock(path)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("err=%v, want ErrLockTimeout", err)
	}

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("returned after %v, want at least the timeout", elapsed)
	}
}

func TestReal_Lock_CanBeReacquiredAfterClose(t *testing.T) {
	t.Parallel()

	fsys := &Real{LockTimeout: 50 * time.Millisecond}
	path := filepath.Join(t.TempDir(), "riff.tab")

	first, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("second close: %v, want nil", err)
	}

	second, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}

	_ = second.Close()
}

func TestReal_Lock_WaitsForRelease(t *testing.T) {
	t.Parallel()

	fsys := &Real{LockTimeout: 2 * time.Second}
	path := filepath.Join(t.TempDir(), "riff.tab")

	held, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)

		_ = held.Close()
	}()

	second, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("waiting lock: %v", err)
	}

	_ = second.Close()
}

// -----------------------------------------------------------------------------
// Faulty Tests
// -----------------------------------------------------------------------------

func TestFaulty_FailsRegisteredOpAndPassesOthers(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	fsys := NewFaulty(NewReal())
	dir := t.TempDir()
	path := filepath.Join(dir, "riff.tab")

	fsys.Fail(OpWriteFileAtomic, boom)

	err := fsys.WriteFileAtomic(path, []byte("x"), 0o644)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want wrapping %v", err, boom)
	}

	if !IsInjected(err) {
		t.Fatalf("IsInjected(%v)=false", err)
	}

	if _, err := fsys.ReadDir(dir); err != nil {
		t.Fatalf("ReadDir passthrough: %v", err)
	}

	fsys.Fail(OpWriteFileAtomic, nil)

	if err := fsys.WriteFileAtomic(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("cleared fault still fails: %v", err)
	}

	if got := fsys.Calls(OpWriteFileAtomic); got != 2 {
		t.Fatalf("calls=%d, want 2", got)
	}

	if IsInjected(nil) {
		t.Fatal("IsInjected(nil)=true")
	}
}
