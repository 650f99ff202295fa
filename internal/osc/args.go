package osc

// Float returns args[i] as float64 when it is any numeric type.
func Float(args []any, i int) (float64, bool) {
	if i < 0 || i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns args[i] as int. Floats are accepted only when integral.
func Int(args []any, i int) (int, bool) {
	if i < 0 || i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float32:
		if float32(int(v)) == v {
			return int(v), true
		}
	case float64:
		if float64(int(v)) == v {
			return int(v), true
		}
	}
	return 0, false
}

// String returns args[i] when it is a string.
func String(args []any, i int) (string, bool) {
	if i < 0 || i >= len(args) {
		return "", false
	}
	s, ok := args[i].(string)
	return s, ok
}

// Bool interprets args[i] as a boolean. Live sends booleans as 0/1 ints.
func Bool(args []any, i int) (bool, bool) {
	if i < 0 || i >= len(args) {
		return false, false
	}
	if b, ok := args[i].(bool); ok {
		return b, true
	}
	n, ok := Int(args, i)
	if !ok {
		return false, false
	}
	return n != 0, true
}
