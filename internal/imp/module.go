package imp

import (
	"fmt"

	"github.com/funvibe/funxyboot/internal/config"
	"github.com/funvibe/funxyboot/internal/object"
	"github.com/funvibe/funxyboot/internal/vm"
)

// NewModule builds the script-visible "_imp" module over the interpreter's
// import state. It is registered as a builtin like any other.
func NewModule(in Interp) *object.Module {
	st := in.State()
	mod := object.NewModule(config.ImpModuleName)

	mod.Func("extension_suffixes", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("extension_suffixes", args, 0); err != nil {
			return nil, err
		}
		return object.NewStringList(ExtensionSuffixes()), nil
	})

	mod.Func("acquire_lock", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("acquire_lock", args, 0); err != nil {
			return nil, err
		}
		st.Lock.Acquire()
		return object.NIL, nil
	})

	mod.Func("release_lock", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("release_lock", args, 0); err != nil {
			return nil, err
		}
		if err := st.Lock.Release(); err != nil {
			return nil, err
		}
		return object.NIL, nil
	})

	mod.Func("lock_held", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("lock_held", args, 0); err != nil {
			return nil, err
		}
		return object.Bool(st.Lock.Held()), nil
	})

	mod.Func("is_builtin", nameQuery("is_builtin", func(name string) (object.Object, error) {
		return object.Bool(st.Builtins.IsBuiltin(name)), nil
	}))

	mod.Func("is_frozen", nameQuery("is_frozen", func(name string) (object.Object, error) {
		return object.Bool(st.Frozen.IsFrozen(name)), nil
	}))

	mod.Func("create_builtin", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("create_builtin", args, 1); err != nil {
			return nil, err
		}
		spec, err := specFromObject(args[0])
		if err != nil {
			return nil, err
		}
		if created, ok := st.Builtins.CreateBuiltin(in, spec); ok {
			return created, nil
		}
		return object.NIL, nil
	})

	mod.Func("exec_builtin", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("exec_builtin", args, 1); err != nil {
			return nil, err
		}
		target, ok := args[0].(*object.Module)
		if !ok {
			return nil, fmt.Errorf("exec_builtin() argument 1 must be MODULE, got %s", args[0].Type())
		}
		return &object.Integer{Value: int64(st.Builtins.ExecBuiltin(target))}, nil
	})

	mod.Func("get_frozen_object", nameQuery("get_frozen_object", func(name string) (object.Object, error) {
		code, err := st.Frozen.GetFrozenObject(name)
		if err != nil {
			return nil, err
		}
		return code, nil
	}))

	mod.Func("init_frozen", nameQuery("init_frozen", func(name string) (object.Object, error) {
		initialized, err := st.Frozen.InitFrozen(in, name)
		if err != nil {
			return nil, err
		}
		return initialized, nil
	}))

	mod.Func("is_frozen_package", nameQuery("is_frozen_package", func(name string) (object.Object, error) {
		pkg, err := st.Frozen.IsFrozenPackage(name)
		if err != nil {
			return nil, err
		}
		return object.Bool(pkg), nil
	}))

	mod.Func("_fix_co_filename", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("_fix_co_filename", args, 2); err != nil {
			return nil, err
		}
		code, ok := args[0].(*vm.Code)
		if !ok {
			return nil, fmt.Errorf("_fix_co_filename() argument 1 must be CODE, got %s", args[0].Type())
		}
		path, err := object.StringArg("_fix_co_filename", args, 1)
		if err != nil {
			return nil, err
		}
		FixCoFilename(code, path)
		return object.NIL, nil
	})

	mod.Func("source_hash", func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity("source_hash", args, 2); err != nil {
			return nil, err
		}
		key, err := object.IntArg("source_hash", args, 0)
		if err != nil {
			return nil, err
		}
		source, ok := args[1].(*object.Bytes)
		if !ok {
			return nil, fmt.Errorf("source_hash() argument 2 must be BYTES, got %s", args[1].Type())
		}
		return SourceHash(uint64(key), source.Value), nil
	})

	return mod
}

// nameQuery adapts a function of one module name to a builtin
func nameQuery(fn string, query func(name string) (object.Object, error)) object.BuiltinFunction {
	return func(args ...object.Object) (object.Object, error) {
		if err := object.CheckArity(fn, args, 1); err != nil {
			return nil, err
		}
		name, err := object.StringArg(fn, args, 0)
		if err != nil {
			return nil, err
		}
		return query(name)
	}
}

// specFromObject reads the name attribute of a script-level module spec
func specFromObject(obj object.Object) (ModuleSpec, error) {
	ns, ok := obj.(*object.Module)
	if !ok {
		return ModuleSpec{}, fmt.Errorf("create_builtin() spec must be a namespace with a name, got %s", obj.Type())
	}
	nameObj, ok := ns.Get("name")
	if !ok {
		return ModuleSpec{}, fmt.Errorf("create_builtin() spec has no attribute 'name'")
	}
	name, ok := nameObj.(*object.String)
	if !ok {
		return ModuleSpec{}, fmt.Errorf("create_builtin() spec name must be String, got %s", nameObj.Type())
	}
	return ModuleSpec{Name: name.Value}, nil
}
