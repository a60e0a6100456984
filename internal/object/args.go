package object

import "fmt"

// CheckArity fails unless exactly n arguments were passed
func CheckArity(fn string, args []Object, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s() takes %d argument(s), got %d", fn, n, len(args))
	}
	return nil
}

// StringArg extracts args[i] as a Go string
func StringArg(fn string, args []Object, i int) (string, error) {
	s, ok := args[i].(*String)
	if !ok {
		return "", fmt.Errorf("%s() argument %d must be String, got %s", fn, i+1, args[i].Type())
	}
	return s.Value, nil
}

// IntArg extracts args[i] as a Go int64
func IntArg(fn string, args []Object, i int) (int64, error) {
	n, ok := args[i].(*Integer)
	if !ok {
		return 0, fmt.Errorf("%s() argument %d must be Integer, got %s", fn, i+1, args[i].Type())
	}
	return n.Value, nil
}

// FromGo converts a scalar Go value to an Object
func FromGo(v any) (Object, error) {
	switch val := v.(type) {
	case nil:
		return NIL, nil
	case bool:
		return Bool(val), nil
	case int:
		return &Integer{Value: int64(val)}, nil
	case int64:
		return &Integer{Value: val}, nil
	case float64:
		return &Float{Value: val}, nil
	case string:
		return &String{Value: val}, nil
	case []byte:
		return &Bytes{Value: val}, nil
	}
	return nil, fmt.Errorf("cannot convert %T to an object", v)
}
