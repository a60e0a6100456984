package vm

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"sort"
)

func init() {
	// Register bundle types for gob serialization
	gob.Register(&FrozenBundle{})
	gob.Register(&FrozenModule{})
	gob.Register(map[string]*FrozenModule{})
}

// FrozenBundle is a set of precompiled modules shipped with the runtime.
// It is the serialized form of the frozen store.
type FrozenBundle struct {
	// Modules maps module name -> precompiled module
	Modules map[string]*FrozenModule
}

// FrozenModule is a single precompiled module in a bundle.
type FrozenModule struct {
	// Code is the compiled module body
	Code *Code

	// IsPackage marks modules that act as packages for dotted submodules
	IsPackage bool
}

// bundleFormatVersion is the current frozen bundle format
const bundleFormatVersion byte = 0x01

// bundleMagic prefixes every serialized bundle
var bundleMagic = [4]byte{'F', 'X', 'Y', 'Z'}

// selfContainedMagic is the footer magic for binaries carrying a bundle
var selfContainedMagic = [4]byte{'F', 'X', 'Z', 'S'}

// selfContainedFooterSize is the size of the self-contained footer:
// 8 bytes (bundle size) + 4 bytes (magic)
const selfContainedFooterSize = 12

// NewFrozenBundle creates an empty bundle
func NewFrozenBundle() *FrozenBundle {
	return &FrozenBundle{Modules: make(map[string]*FrozenModule)}
}

// Add stores a module in the bundle, replacing any previous entry
func (b *FrozenBundle) Add(name string, code *Code, isPackage bool) {
	b.Modules[name] = &FrozenModule{Code: code, IsPackage: isPackage}
}

// Names returns sorted module names
func (b *FrozenBundle) Names() []string {
	names := make([]string, 0, len(b.Modules))
	for name := range b.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serialize converts a bundle to binary format.
// Format:
// - Magic number (4 bytes): "FXYZ"
// - Version (1 byte)
// - Gob-encoded bundle data
func (b *FrozenBundle) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(bundleMagic[:])
	buf.WriteByte(bundleFormatVersion)

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("bundle gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeBundle reads data produced by Serialize
func DeserializeBundle(data []byte) (*FrozenBundle, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("bundle data too short")
	}
	if !bytes.Equal(data[:4], bundleMagic[:]) {
		return nil, fmt.Errorf("invalid magic number, expected FXYZ")
	}

	version := data[4]
	if version != bundleFormatVersion {
		return nil, fmt.Errorf(
			"unsupported bundle version: %d (this binary supports version %d)",
			version, bundleFormatVersion)
	}

	var bundle FrozenBundle
	if err := gob.NewDecoder(bytes.NewReader(data[5:])).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("bundle gob decoding failed: %w", err)
	}
	if bundle.Modules == nil {
		bundle.Modules = make(map[string]*FrozenModule)
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("bundle validation failed: %w", err)
	}
	return &bundle, nil
}

// Validate checks the structural integrity of a bundle.
func (b *FrozenBundle) Validate() error {
	for name, mod := range b.Modules {
		if name == "" {
			return fmt.Errorf("module with empty name")
		}
		if mod == nil || mod.Code == nil {
			return fmt.Errorf("module %q has nil code", name)
		}
		if len(mod.Code.Code) == 0 {
			return fmt.Errorf("module %q has empty bytecode", name)
		}
	}
	return nil
}

// PackSelfContained appends a serialized bundle to a host binary.
// Output format: [hostBinary][bundleData][8-byte bundleSize LE][4-byte "FXZS"]
func PackSelfContained(hostBinary []byte, bundle *FrozenBundle) ([]byte, error) {
	bundleData, err := bundle.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bundle: %w", err)
	}

	out := make([]byte, 0, len(hostBinary)+len(bundleData)+selfContainedFooterSize)
	out = append(out, hostBinary...)
	out = append(out, bundleData...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(bundleData)))
	out = append(out, selfContainedMagic[:]...)
	return out, nil
}

// ExtractEmbeddedBundle reads a binary and extracts the appended bundle,
// if present. Returns nil, nil if no bundle is found.
func ExtractEmbeddedBundle(binaryData []byte) (*FrozenBundle, error) {
	size := len(binaryData)
	if size < selfContainedFooterSize {
		return nil, nil
	}
	if !bytes.Equal(binaryData[size-4:], selfContainedMagic[:]) {
		return nil, nil
	}

	footerStart := size - selfContainedFooterSize
	bundleSize := binary.LittleEndian.Uint64(binaryData[footerStart : footerStart+8])
	if bundleSize == 0 || bundleSize > uint64(footerStart) {
		return nil, fmt.Errorf("invalid embedded bundle size: %d", bundleSize)
	}

	bundleStart := uint64(footerStart) - bundleSize
	return DeserializeBundle(binaryData[bundleStart:footerStart])
}

// GetHostBinarySize returns the size of the host binary without any
// appended bundles. Strips all layers (handles double-pack).
func GetHostBinarySize(binaryData []byte) int64 {
	size := int64(len(binaryData))

	for size >= selfContainedFooterSize {
		footerStart := size - selfContainedFooterSize
		if !bytes.Equal(binaryData[footerStart+8:size], selfContainedMagic[:]) {
			break
		}
		bundleSize := binary.LittleEndian.Uint64(binaryData[footerStart : footerStart+8])
		if bundleSize == 0 || bundleSize > uint64(footerStart) {
			break
		}
		size = footerStart - int64(bundleSize)
	}
	return size
}
