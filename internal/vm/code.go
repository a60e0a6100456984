package vm

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/funvibe/funxyboot/internal/object"
)

func init() {
	// Constant pool entries are stored as interfaces
	gob.Register(&object.String{})
	gob.Register(&object.Integer{})
	gob.Register(&object.Float{})
	gob.Register(&object.Boolean{})
	gob.Register(&object.Bytes{})
}

// Code is a compiled module body: bytecode plus the metadata needed to run
// it and to report errors against it.
type Code struct {
	// Code is the bytecode instructions
	Code []byte

	// Constants pool - literals and names referenced by the bytecode
	Constants []object.Object

	// Lines maps bytecode offset to source line number (for errors)
	Lines []int

	// Name is the module name the code was compiled for
	Name string

	// SourcePath is the file the code came from, or a synthetic label
	// such as "frozen <name>" for bundled modules
	SourcePath string
}

// NewCode creates a new empty code object
func NewCode(name string) *Code {
	return &Code{
		Code:      make([]byte, 0, 64),
		Constants: make([]object.Object, 0, 16),
		Lines:     make([]int, 0, 64),
		Name:      name,
	}
}

func (c *Code) Type() object.ObjectType { return object.CODE_OBJ }
func (c *Code) Inspect() string {
	return fmt.Sprintf("<code %s, file %q>", c.Name, c.SourcePath)
}

// Clone returns a copy that shares nothing mutable with c.
// Constants are immutable scalars and are shared.
func (c *Code) Clone() *Code {
	clone := &Code{
		Code:       append([]byte(nil), c.Code...),
		Constants:  append([]object.Object(nil), c.Constants...),
		Lines:      append([]int(nil), c.Lines...),
		Name:       c.Name,
		SourcePath: c.SourcePath,
	}
	return clone
}

// Write adds a byte to the code with line info
func (c *Code) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp writes an opcode
func (c *Code) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// AddConstant adds a constant to the pool and returns its index
func (c *Code) AddConstant(value object.Object) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// WriteOpIndex writes op followed by a 2-byte constant index
func (c *Code) WriteOpIndex(op Opcode, idx int, line int) {
	c.WriteOp(op, line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx), line)
}

// WriteConstant writes OP_CONST followed by the constant index
func (c *Code) WriteConstant(value object.Object, line int) {
	c.WriteOpIndex(OP_CONST, c.AddConstant(value), line)
}

// ReadConstantIndex reads a 2-byte constant index at offset
func (c *Code) ReadConstantIndex(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// LineAt returns the source line for a bytecode offset, or 0 if unknown
func (c *Code) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// EncodeCode gob-encodes a single code object
func EncodeCode(c *Code) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("code gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCode decodes a code object produced by EncodeCode
func DecodeCode(data []byte) (*Code, error) {
	var c Code
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("code gob decoding failed: %w", err)
	}
	return &c, nil
}
