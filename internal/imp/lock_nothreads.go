//go:build funxyboot_nothreads

package imp

const threadingSupported = false
