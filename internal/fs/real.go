package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// ErrLockTimeout is returned by [Real.Lock] when another process holds the
// lock for longer than the lock timeout.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// LocksDir is the directory, next to the locked file, that holds lock files.
const LocksDir = ".locks"

const (
	defaultLockTimeout = 2 * time.Second
	lockRetryInterval  = 10 * time.Millisecond
	lockPerms          = 0o644
	dirPerms           = 0o755
)

// Real implements [FS] using the real filesystem.
//
// Reads and directory operations are passthroughs to the [os] package.
// [Real.WriteFileAtomic] writes through a temp file and rename, and
// [Real.Lock] takes flock(2) on a lock file in [LocksDir].
type Real struct {
	// LockTimeout bounds how long Lock waits. Zero means two seconds.
	LockTimeout time.Duration
}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes data to a temp file in the same directory and
// renames it over path. perm is applied to the new file.
func (r *Real) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return err
	}

	return os.Chmod(path, perm)
}

// A passthrough wrapper for [os.ReadDir].
func (r *Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// A passthrough wrapper for [os.MkdirAll].
func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// A passthrough wrapper for [os.Stat].
func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists checks if a file exists using [os.Stat].
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// A passthrough wrapper for [os.Remove].
func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

// realLock holds an exclusive flock on an open lock file.
type realLock struct {
	file *os.File
}

func (l *realLock) Close() error {
	if l.file == nil {
		return nil
	}

	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking: %w", unlockErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// Lock takes an exclusive lock on <dir>/.locks/<base>.lock. It polls with
// LOCK_NB until the timeout expires. The lock file is never removed, so a
// lock taken on an open descriptor always guards the path.
func (r *Real) Lock(path string) (Locker, error) {
	locksDir := filepath.Join(filepath.Dir(path), LocksDir)
	lockPath := filepath.Join(locksDir, filepath.Base(path)+".lock")

	err := os.MkdirAll(locksDir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("create locks dir: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockPerms)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	timeout := r.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}

	deadline := time.Now().Add(timeout)

	for {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &realLock{file: file}, nil
		}

		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = file.Close()

			return nil, fmt.Errorf("flock %s: %w", lockPath, err)
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}

		time.Sleep(lockRetryInterval)
	}
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
