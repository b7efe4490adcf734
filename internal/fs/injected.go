package fs

import (
	"errors"
	"os"
	"sync"
)

// Op names an [FS] method for fault injection.
type Op string

// Operations that [Faulty] can fail.
const (
	OpReadFile        Op = "ReadFile"
	OpWriteFileAtomic Op = "WriteFileAtomic"
	OpReadDir         Op = "ReadDir"
	OpMkdirAll        Op = "MkdirAll"
	OpStat            Op = "Stat"
	OpRemove          Op = "Remove"
	OpLock            Op = "Lock"
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op  Op
	Err error
}

// Error returns the operation and the underlying error's message.
func (e *InjectedError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by
// [Faulty]. Returns false if err is nil.
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Faulty wraps an [FS] and fails the operations registered with
// [Faulty.Fail]. Everything else passes through. It is safe for concurrent
// use.
type Faulty struct {
	FS

	mu    sync.Mutex
	fails map[Op]error
	calls map[Op]int
}

// NewFaulty wraps inner.
func NewFaulty(inner FS) *Faulty {
	return &Faulty{FS: inner, fails: map[Op]error{}, calls: map[Op]int{}}
}

// Fail makes every later call of op return err wrapped in [InjectedError].
// A nil err clears the fault.
func (f *Faulty) Fail(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		delete(f.fails, op)

		return
	}

	f.fails[op] = err
}

// Calls returns how often op was called, failed calls included.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *Faulty) check(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	if err, ok := f.fails[op]; ok {
		return &InjectedError{Op: op, Err: err}
	}

	return nil
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile); err != nil {
		return nil, err
	}

	return f.FS.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWriteFileAtomic); err != nil {
		return err
	}

	return f.FS.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) ReadDir(path string) ([]os.DirEntry, error) {
	if err := f.check(OpReadDir); err != nil {
		return nil, err
	}

	return f.FS.ReadDir(path)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll); err != nil {
		return err
	}

	return f.FS.MkdirAll(path, perm)
}

func (f *Faulty) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat); err != nil {
		return nil, err
	}

	return f.FS.Stat(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove); err != nil {
		return err
	}

	return f.FS.Remove(path)
}

func (f *Faulty) Lock(path string) (Locker, error) {
	if err := f.check(OpLock); err != nil {
		return nil, err
	}

	return f.FS.Lock(path)
}

// Compile-time interface check.
var _ FS = (*Faulty)(nil)
