package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/object"
)

// Assemble compiles a manifest module definition into a code object.
// Imports run first, in declaration order, each bound under the last
// dotted segment of its name. Attributes follow in sorted key order.
func Assemble(def config.ModuleDef) (*Code, error) {
	code := NewCode(def.Name)
	line := 1

	for _, name := range def.Imports {
		code.WriteOpIndex(OP_IMPORT, code.AddConstant(&object.String{Value: name}), line)
		binding := name[strings.LastIndex(name, ".")+1:]
		code.WriteOpIndex(OP_SET_GLOBAL, code.AddConstant(&object.String{Value: binding}), line)
		line++
	}

	keys := make([]string, 0, len(def.Attrs))
	for key := range def.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val, err := object.FromGo(def.Attrs[key])
		if err != nil {
			return nil, fmt.Errorf("module %s: attr %s: %w", def.Name, key, err)
		}
		if val == object.NIL {
			code.WriteOp(OP_NIL, line)
		} else {
			code.WriteConstant(val, line)
		}
		code.WriteOpIndex(OP_SET_GLOBAL, code.AddConstant(&object.String{Value: key}), line)
		line++
	}

	code.WriteOp(OP_HALT, line)
	return code, nil
}

// Disassemble renders code as one instruction per line
func Disassemble(code *Code) string {
	var sb strings.Builder
	for ip := 0; ip < len(code.Code); {
		op := Opcode(code.Code[ip])
		fmt.Fprintf(&sb, "%04d %4d %-10s", ip, code.LineAt(ip), op)
		if op.operandWidth() == 2 && ip+2 < len(code.Code) {
			idx := code.ReadConstantIndex(ip + 1)
			if idx < len(code.Constants) {
				fmt.Fprintf(&sb, " %d (%s)", idx, code.Constants[idx].Inspect())
			} else {
				fmt.Fprintf(&sb, " %d", idx)
			}
		}
		sb.WriteByte('\n')
		ip += 1 + op.operandWidth()
	}
	return sb.String()
}
