package imp

import (
	"github.com/funvibe/funxyboot/internal/object"
	"github.com/funvibe/funxyboot/internal/vm"
)

// ExtensionSuffixes lists file suffixes of loadable native extensions.
// Native extensions are not supported, so the list is empty.
func ExtensionSuffixes() []string {
	return []string{}
}

// FixCoFilename would rewrite the source path of code relocated to path.
// It does nothing.
func FixCoFilename(code *vm.Code, path string) {}

// SourceHash would key cached bytecode by a hash of its source.
// It returns nil.
func SourceHash(key uint64, source []byte) object.Object {
	return object.NIL
}
