package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatValue renders a value scanned back from a store as display text.
//
// Drivers do not agree on scan types (sqlite returns []byte for some text,
// mssql returns time.Time for datetimes); this keeps display consistent
// across backends. nil renders as "".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
