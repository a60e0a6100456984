package config

// FrozenSourcePrefix is prepended to a frozen module's name to form the
// source path of the code object handed out by the frozen store.
const FrozenSourcePrefix = "frozen "

// ImpModuleName is the name under which the import core registers itself
// as a builtin module.
const ImpModuleName = "_imp"

// BundleFileExt is the conventional extension of a serialized frozen bundle
const BundleFileExt = ".fxf"

// ManifestFileNames are the recognized manifest file names, in lookup order
var ManifestFileNames = []string{"funxyboot.yaml", "funxyboot.yml"}

// Builtin module names
const (
	SysModuleName  = "sys"
	MathModuleName = "math"
)

// Log levels accepted in the manifest
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
