// Package fs is the filesystem seam used by the song store.
//
// The main types are:
//   - [FS]: the operations the store needs
//   - [Real]: production implementation (atomic writes, flock locking)
//   - [Faulty]: test wrapper that makes chosen operations fail
//
// Example usage:
//
//	fsys := fs.NewReal()
//
//	lock, err := fsys.Lock("songs/riff.tab")
//	if err != nil {
//	    return err
//	}
//	defer lock.Close()
//
//	err = fsys.WriteFileAtomic("songs/riff.tab", data, 0o644)
package fs

import (
	"io"
	"os"
)

// Locker represents a held file lock.
// Call [Locker.Close] to release the lock.
type Locker interface {
	io.Closer
}

// FS defines the filesystem operations used to read, write and list songs.
//
// All methods mirror their [os] package equivalents except
// [FS.WriteFileAtomic], [FS.Exists] and [FS.Lock].
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic replaces path with data in one step. Readers see
	// either the old content or the new content, never a partial file.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Lock acquires an exclusive lock guarding path, waiting a bounded time.
	// The lock lives in a separate file so path itself can be replaced by
	// [FS.WriteFileAtomic] while the lock is held.
	Lock(path string) (Locker, error)
}
