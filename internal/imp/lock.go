package imp

import (
	"fmt"
	"sync"

	"github.com/petermattis/goid"
)

// ImportLock serializes import activity across goroutines.
//
// Acquire blocks until the caller owns the lock; the owner may acquire it
// again. Release fails with ErrLockNotHeld when the caller does not hold
// it. There is no timeout and no cancellation.
type ImportLock interface {
	Acquire()
	Release() error
	Held() bool
}

// NewImportLock returns a reentrant lock, or a no-op lock when threaded is
// false or threading support is compiled out.
func NewImportLock(threaded bool) ImportLock {
	if !threadingSupported || !threaded {
		return noLock{}
	}
	return newRLock()
}

// IsNoLock reports whether lock is the no-op lock. Imports under it must
// stay on one goroutine.
func IsNoLock(lock ImportLock) bool {
	_, ok := lock.(noLock)
	return ok
}

var (
	globalLockOnce sync.Once
	globalLock     ImportLock
)

// GlobalLock returns the process-wide import lock.
func GlobalLock() ImportLock {
	globalLockOnce.Do(func() {
		globalLock = NewImportLock(true)
	})
	return globalLock
}

// rlock is a reentrant mutex keyed by goroutine id.
type rlock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64
	depth int
}

func newRLock() *rlock {
	l := &rlock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *rlock) Acquire() {
	me := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.depth > 0 && l.owner != me {
		l.cond.Wait()
	}
	l.owner = me
	l.depth++
}

func (l *rlock) Release() error {
	me := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth == 0 {
		return ErrLockNotHeld
	}
	if l.owner != me {
		return fmt.Errorf("%w by this goroutine", ErrLockNotHeld)
	}
	l.depth--
	if l.depth == 0 {
		l.owner = 0
		l.cond.Signal()
	}
	return nil
}

func (l *rlock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth > 0
}

// noLock is the import lock of single-threaded embeddings.
type noLock struct{}

func (noLock) Acquire()       {}
func (noLock) Release() error { return nil }
func (noLock) Held() bool     { return false }
