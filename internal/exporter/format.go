package exporter

import (
	"fmt"
	"strconv"
)

// FormatValue renders a field value as a cell. Nil is the empty string and
// floats keep their shortest exact form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(x)
	case int64:
		return formatInt(x)
	case int:
		return formatInt(int64(x))
	case bool:
		return formatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
