package vm

import (
	"fmt"

	"github.com/funvibe/funxyboot/internal/object"
)

// Importer resolves OP_IMPORT. The host import algorithm implements it.
type Importer interface {
	Import(name string) (*object.Module, error)
}

// RuntimeError is an execution failure located in a code object
type RuntimeError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Exec runs code as the body of mod. Globals set by the body become module
// attributes. Imports are delegated to imp, which may be nil for code that
// imports nothing.
func Exec(code *Code, mod *object.Module, imp Importer) error {
	stack := make([]object.Object, 0, 8)
	ip := 0

	fail := func(offset int, err error, format string, args ...any) error {
		return &RuntimeError{
			File: code.SourcePath,
			Line: code.LineAt(offset),
			Msg:  fmt.Sprintf(format, args...),
			Err:  err,
		}
	}

	for ip < len(code.Code) {
		offset := ip
		op := Opcode(code.Code[ip])
		ip++

		if width := op.operandWidth(); ip+width > len(code.Code) {
			return fail(offset, nil, "truncated operand for %s", op)
		}

		switch op {
		case OP_CONST:
			idx := code.ReadConstantIndex(ip)
			ip += 2
			if idx >= len(code.Constants) {
				return fail(offset, nil, "constant index %d out of range", idx)
			}
			stack = append(stack, code.Constants[idx])

		case OP_NIL:
			stack = append(stack, object.NIL)

		case OP_POP:
			if len(stack) == 0 {
				return fail(offset, nil, "stack underflow")
			}
			stack = stack[:len(stack)-1]

		case OP_SET_GLOBAL:
			name, err := constantName(code, code.ReadConstantIndex(ip))
			ip += 2
			if err != nil {
				return fail(offset, err, "bad global name")
			}
			if len(stack) == 0 {
				return fail(offset, nil, "stack underflow")
			}
			mod.Set(name, stack[len(stack)-1])
			stack = stack[:len(stack)-1]

		case OP_IMPORT:
			name, err := constantName(code, code.ReadConstantIndex(ip))
			ip += 2
			if err != nil {
				return fail(offset, err, "bad import name")
			}
			if imp == nil {
				return fail(offset, nil, "import of %s without an importer", name)
			}
			dep, err := imp.Import(name)
			if err != nil {
				return fail(offset, err, "importing %s", name)
			}
			stack = append(stack, dep)

		case OP_HALT:
			return nil

		default:
			return fail(offset, nil, "unknown opcode %d", byte(op))
		}
	}
	return nil
}

func constantName(code *Code, idx int) (string, error) {
	if idx >= len(code.Constants) {
		return "", fmt.Errorf("constant index %d out of range", idx)
	}
	s, ok := code.Constants[idx].(*object.String)
	if !ok {
		return "", fmt.Errorf("constant %d is %s, not STRING", idx, code.Constants[idx].Type())
	}
	return s.Value, nil
}
