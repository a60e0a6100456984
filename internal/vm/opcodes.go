// Package vm implements the code object and the minimal bytecode executor
// used to run frozen module bodies.
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	OP_CONST      Opcode = iota // Push constant from pool (2-byte index)
	OP_NIL                      // Push nil
	OP_POP                      // Discard top of stack
	OP_SET_GLOBAL               // Pop value into module attribute named by constant (2-byte index)
	OP_IMPORT                   // Import module named by constant (2-byte index), push it
	OP_HALT                     // Stop execution
)

var opcodeNames = map[Opcode]string{
	OP_CONST:      "CONST",
	OP_NIL:        "NIL",
	OP_POP:        "POP",
	OP_SET_GLOBAL: "SET_GLOBAL",
	OP_IMPORT:     "IMPORT",
	OP_HALT:       "HALT",
}

// String returns the opcode name
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// operandWidth returns the number of operand bytes following op
func (op Opcode) operandWidth() int {
	switch op {
	case OP_CONST, OP_SET_GLOBAL, OP_IMPORT:
		return 2
	}
	return 0
}
