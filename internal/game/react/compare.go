package react

import (
	"fmt"
	"strconv"
	"strings"
)

// Properties exposes named values to condition paths.
type Properties interface {
	Property(name string) (any, bool)
}

// Lookup walks a dotted path. Intermediate values may be Properties or
// map[string]any. Missing segments yield nil.
func Lookup(root any, path string) any {
	if root == nil {
		return nil
	}
	current := root
	for _, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case nil:
			return nil
		case Properties:
			next, ok := v.Property(part)
			if !ok {
				return nil
			}
			current = next
		case map[string]any:
			current = v[part]
		default:
			return nil
		}
	}
	return current
}

// ToNumber converts common scalar types to float64.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToInt converts v to an int, treating unknown values as zero.
func ToInt(v any) int {
	f, ok := ToNumber(v)
	if !ok {
		return 0
	}
	return int(f)
}

// Compare applies op to left and right. Equality is numeric when both sides
// are numeric, otherwise it compares string forms.
func Compare(op Operator, left, right any) bool {
	switch op {
	case OpEq:
		return equal(left, right)
	case OpNeq:
		return !equal(left, right)
	case OpGt, OpGte, OpLt, OpLte:
		l, lok := ToNumber(left)
		r, rok := ToNumber(right)
		if !lok || !rok {
			return false
		}
		switch op {
		case OpGt:
			return l > r
		case OpGte:
			return l >= r
		case OpLt:
			return l < r
		default:
			return l <= r
		}
	case OpContains:
		switch l := left.(type) {
		case []string:
			for _, item := range l {
				if equal(item, right) {
					return true
				}
			}
			return false
		case []any:
			for _, item := range l {
				if equal(item, right) {
					return true
				}
			}
			return false
		case string:
			return strings.Contains(l, fmt.Sprint(right))
		default:
			return false
		}
	default:
		return false
	}
}

func equal(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	l, lok := ToNumber(left)
	r, rok := ToNumber(right)
	if lok && rok {
		return l == r
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}
