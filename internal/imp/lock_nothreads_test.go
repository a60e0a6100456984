//go:build funxyboot_nothreads

package imp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewImportLock_ThreadingCompiledOut(t *testing.T) {
	lock := NewImportLock(true)
	assert.IsType(t, noLock{}, lock)

	lock.Acquire()
	assert.False(t, lock.Held())
	assert.NoError(t, lock.Release())
	assert.NoError(t, lock.Release())
}

func TestGlobalLock_ThreadingCompiledOut(t *testing.T) {
	assert.IsType(t, noLock{}, GlobalLock())
}
