package vm

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/funvibe/funxyboot/internal/object"
)

func haltCode(name string) *Code {
	code := NewCode(name)
	code.WriteOp(OP_HALT, 1)
	return code
}

func TestBundle_SerializeDeserializeRoundtrip(t *testing.T) {
	code := NewCode("_bootstrap")
	code.WriteConstant(&object.String{Value: "1.0"}, 1)
	code.WriteOpIndex(OP_SET_GLOBAL, code.AddConstant(&object.String{Value: "version"}), 1)
	code.WriteOp(OP_HALT, 2)

	bundle := NewFrozenBundle()
	bundle.Add("_bootstrap", code, true)
	bundle.Add("_helpers", haltCode("_helpers"), false)

	data, err := bundle.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	restored, err := DeserializeBundle(data)
	if err != nil {
		t.Fatalf("DeserializeBundle failed: %v", err)
	}

	if len(restored.Modules) != 2 {
		t.Fatalf("Modules count: got %d, want 2", len(restored.Modules))
	}
	boot := restored.Modules["_bootstrap"]
	if boot == nil || !boot.IsPackage {
		t.Fatalf("_bootstrap: got %+v, want package module", boot)
	}
	if len(boot.Code.Code) != len(code.Code) {
		t.Errorf("Code length: got %d, want %d", len(boot.Code.Code), len(code.Code))
	}
	if s, ok := boot.Code.Constants[0].(*object.String); !ok || s.Value != "1.0" {
		t.Errorf("Constants[0]: got %v", boot.Code.Constants[0])
	}
	if restored.Modules["_helpers"].IsPackage {
		t.Error("_helpers should not be a package")
	}
}

func TestDeserializeBundle_TooShort(t *testing.T) {
	_, err := DeserializeBundle([]byte{0x01})
	if err == nil {
		t.Fatal("Expected error for too short data")
	}
	if !contains(err.Error(), "too short") {
		t.Errorf("Expected 'too short' in error, got: %v", err)
	}
}

func TestDeserializeBundle_InvalidMagic(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00}
	_, err := DeserializeBundle(data)
	if err == nil {
		t.Fatal("Expected error for invalid magic")
	}
	if !contains(err.Error(), "magic") {
		t.Errorf("Expected 'magic' in error, got: %v", err)
	}
}

func TestDeserializeBundle_UnknownVersion(t *testing.T) {
	data := []byte{'F', 'X', 'Y', 'Z', 0xFF, 0x00}
	_, err := DeserializeBundle(data)
	if err == nil {
		t.Fatal("Expected error for unknown version")
	}
	if !contains(err.Error(), "version") {
		t.Errorf("Expected 'version' in error, got: %v", err)
	}
}

func TestDeserializeBundle_CorruptedGob(t *testing.T) {
	data := []byte{'F', 'X', 'Y', 'Z', 0x01}
	data = append(data, []byte{0x00, 0x01, 0x02, 0xff, 0xfe}...)
	if _, err := DeserializeBundle(data); err == nil {
		t.Error("Expected error for corrupted gob")
	}
}

func TestBundle_ValidateEmptyBytecode(t *testing.T) {
	bundle := NewFrozenBundle()
	bundle.Add("broken", NewCode("broken"), false)

	err := bundle.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !contains(err.Error(), "broken") {
		t.Errorf("Expected module name in error, got: %v", err)
	}
}

func TestPackSelfContained_ExtractRoundtrip(t *testing.T) {
	host := []byte("fake host binary data")
	bundle := NewFrozenBundle()
	bundle.Add("_bootstrap", haltCode("_bootstrap"), true)

	packed, err := PackSelfContained(host, bundle)
	if err != nil {
		t.Fatalf("PackSelfContained failed: %v", err)
	}

	extracted, err := ExtractEmbeddedBundle(packed)
	if err != nil {
		t.Fatalf("ExtractEmbeddedBundle failed: %v", err)
	}
	if extracted == nil {
		t.Fatal("ExtractEmbeddedBundle returned nil")
	}
	if mod := extracted.Modules["_bootstrap"]; mod == nil || !mod.IsPackage {
		t.Errorf("_bootstrap: got %+v", mod)
	}
}

func TestExtractEmbeddedBundle_NoMagic(t *testing.T) {
	extracted, err := ExtractEmbeddedBundle([]byte("just a regular binary"))
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if extracted != nil {
		t.Error("Expected nil bundle when no magic")
	}
}

func TestExtractEmbeddedBundle_CorruptedFooterSize(t *testing.T) {
	// Magic in place, but bundleSize > file size
	data := append([]byte("host"), make([]byte, 20)...)
	footer := []byte{0xFF, 0xFF, 0x0F, 0x00, 0x00, 0x00, 0x00, 0x00, 'F', 'X', 'Z', 'S'}
	packed := append(data, footer...)

	if _, err := ExtractEmbeddedBundle(packed); err == nil {
		t.Error("Expected error for corrupted footer size")
	}
}

func TestGetHostBinarySize(t *testing.T) {
	host := []byte("fake host binary data")
	bundle := NewFrozenBundle()
	bundle.Add("m", haltCode("m"), false)

	packed, err := PackSelfContained(host, bundle)
	if err != nil {
		t.Fatalf("PackSelfContained failed: %v", err)
	}
	// Double pack strips both layers
	packed, err = PackSelfContained(packed, bundle)
	if err != nil {
		t.Fatalf("PackSelfContained failed: %v", err)
	}
	if got := GetHostBinarySize(packed); got != int64(len(host)) {
		t.Errorf("GetHostBinarySize: got %d, want %d", got, len(host))
	}
}

func TestGetHostBinarySize_RegularBinary(t *testing.T) {
	data := []byte("no bundle")
	if got := GetHostBinarySize(data); got != int64(len(data)) {
		t.Errorf("GetHostBinarySize on regular binary: got %d, want %d", got, len(data))
	}
}

func TestGetHostBinarySize_OversizedFooter(t *testing.T) {
	// A size with the high bit set must not be read as a negative length
	data := []byte("host binary bytes, then a bogus footer")
	data = binary.LittleEndian.AppendUint64(data, ^uint64(0)-100)
	data = append(data, 'F', 'X', 'Z', 'S')

	if got := GetHostBinarySize(data); got != int64(len(data)) {
		t.Errorf("GetHostBinarySize with oversized footer: got %d, want %d", got, len(data))
	}
	if _, err := ExtractEmbeddedBundle(data); err == nil {
		t.Error("Expected error for oversized footer size")
	}
}

func TestBundle_Names(t *testing.T) {
	bundle := NewFrozenBundle()
	bundle.Add("zeta", haltCode("zeta"), false)
	bundle.Add("alpha", haltCode("alpha"), false)

	names := bundle.Names()
	if strings.Join(names, ",") != "alpha,zeta" {
		t.Errorf("Names: got %v", names)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
