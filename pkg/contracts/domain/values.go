package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// normalize maps Go numeric kinds onto the two numeric representations atoms carry.
// Unsigned values beyond int64 become float64.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return unsigned(uint64(n))
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return unsigned(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func unsigned(n uint64) any {
	if n > math.MaxInt64 {
		return float64(n)
	}
	return int64(n)
}

// ToFloat converts a scalar value to float64. Numeric strings are parsed.
func ToFloat(v any) (float64, bool) {
	switch n := normalize(v).(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
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

func isNumber(v any) bool {
	switch v.(type) {
	case float64, int64:
		return true
	}
	return false
}

// EqualValues compares two scalar values; int64 and float64 compare numerically.
func EqualValues(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if isNumber(a) && isNumber(b) {
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	return a == b
}

// CompareValues orders two scalar values of the same family.
// Numbers compare numerically, strings lexically (timestamps sort correctly
// in TimestampLayout), false sorts before true.
func CompareValues(a, b any) (int, error) {
	a, b = normalize(a), normalize(b)
	if isNumber(a) && isNumber(b) {
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}
