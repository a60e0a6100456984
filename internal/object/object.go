// Package object defines the runtime values the import core hands to and
// receives from the interpreter: modules, builtin functions and scalars.
package object

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type ObjectType string

const (
	INTEGER_OBJ = "INTEGER"
	FLOAT_OBJ   = "FLOAT"
	NIL_OBJ     = "NIL"
	BOOLEAN_OBJ = "BOOLEAN"
	STRING_OBJ  = "STRING"
	BYTES_OBJ   = "BYTES"
	LIST_OBJ    = "LIST"
	BUILTIN_OBJ = "BUILTIN"
	MODULE_OBJ  = "MODULE"
	CODE_OBJ    = "CODE"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Nil
type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

// NIL is the shared nil value. It is also the "not found" result of
// create_builtin at script level.
var NIL = &Nil{}

// Boolean
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// Bool returns the shared boolean object for v
func Bool(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

// Integer
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return fmt.Sprintf("%d", i.Value) }

// Float
type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return fmt.Sprintf("%g", f.Value) }

// String
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return fmt.Sprintf("%q", s.Value) }

// Bytes
type Bytes struct {
	Value []byte
}

func (b *Bytes) Type() ObjectType { return BYTES_OBJ }
func (b *Bytes) Inspect() string  { return fmt.Sprintf("b%q", b.Value) }

// List
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewStringList builds a List of String objects
func NewStringList(values []string) *List {
	elems := make([]Object, len(values))
	for i, v := range values {
		elems[i] = &String{Value: v}
	}
	return &List{Elements: elems}
}

// BuiltinFunction is the Go signature of a script-callable builtin
type BuiltinFunction func(args ...Object) (Object, error)

// Builtin wraps a Go function as a script value
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "<builtin " + b.Name + ">" }

// Call invokes the builtin with args
func (b *Builtin) Call(args ...Object) (Object, error) {
	return b.Fn(args...)
}

// Module is an initialized module namespace.
// Attributes may be written while the module body executes and read
// concurrently by other goroutines once it is published in the module cache.
type Module struct {
	Name string
	File string

	mu    sync.RWMutex
	attrs map[string]Object
}

// NewModule creates an empty module
func NewModule(name string) *Module {
	return &Module{Name: name, attrs: make(map[string]Object)}
}

func (m *Module) Type() ObjectType { return MODULE_OBJ }
func (m *Module) Inspect() string  { return "<module " + m.Name + ">" }

// Get returns an attribute and a presence flag
func (m *Module) Get(name string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.attrs[name]
	return obj, ok
}

// Set stores an attribute
func (m *Module) Set(name string, value Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[name] = value
}

// AttrNames returns attribute names in sorted order
func (m *Module) AttrNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.attrs))
	for name := range m.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func registers a builtin function attribute
func (m *Module) Func(name string, fn BuiltinFunction) {
	m.Set(name, &Builtin{Name: m.Name + "." + name, Fn: fn})
}
