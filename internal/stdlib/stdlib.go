// Package stdlib holds the builtin modules compiled into the runtime.
package stdlib

import (
	"fmt"
	"math"
	"runtime"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/imp"
	"github.com/funvibe/funxyboot/internal/object"
)

// Version is reported as sys.version.
// Can be set at build time using: -ldflags "-X github.com/funvibe/funxyboot/internal/stdlib.Version=..."
var Version = "dev"

// factories lists every builtin module by name
var factories = map[string]imp.Factory{
	config.ImpModuleName:  imp.NewModule,
	config.SysModuleName:  newSysModule,
	config.MathModuleName: newMathModule,
}

// Register adds the builtin modules to reg, skipping names in disabled.
func Register(reg *imp.Registry, disabled ...string) error {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		if _, ok := factories[name]; !ok {
			return fmt.Errorf("cannot disable unknown builtin module %q", name)
		}
		skip[name] = true
	}
	for name, f := range factories {
		if skip[name] {
			continue
		}
		if err := reg.Register(name, f); err != nil {
			return err
		}
	}
	return nil
}

// namedModules is implemented by module caches that can list their entries
type namedModules interface {
	Names() []string
}

func newSysModule(in imp.Interp) *object.Module {
	st := in.State()
	mod := object.NewModule(config.SysModuleName)
	mod.Set("version", &object.String{Value: Version})
	mod.Set("platform", &object.String{Value: runtime.GOOS})
	mod.Set("builtin_module_names", object.NewStringList(st.Builtins.Names()))
	mod.Set("frozen_module_names", object.NewStringList(st.Frozen.Names()))

	mod.Func("loaded_modules", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("loaded_modules", args, 0); err != nil {
			return nil, err
		}
		if named, ok := in.Modules().(namedModules); ok {
			return object.NewStringList(named.Names()), nil
		}
		return object.NewStringList(nil), nil
	})
	return mod
}

func newMathModule(in imp.Interp) *object.Module {
	mod := object.NewModule(config.MathModuleName)
	mod.Set("pi", &object.Float{Value: math.Pi})
	mod.Set("e", &object.Float{Value: math.E})

	mod.Func("sqrt", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("sqrt", args, 1); err != nil {
			return nil, err
		}
		switch x := args[0].(type) {
		case *object.Integer:
			return &object.Float{Value: math.Sqrt(float64(x.Value))}, nil
		case *object.Float:
			return &object.Float{Value: math.Sqrt(x.Value)}, nil
		}
		return nil, fmt.Errorf("sqrt() argument must be a number, got %s", args[0].Type())
	})
	return mod
}
