package merge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// canonical renders a scalar so that values read from different sources
// compare equal: 7, int64(7) and 7.0 all become "n:7".
func canonical(v any, trim, fold bool) string {
	switch t := v.(type) {
	case nil:
		return "z:"
	case string:
		if trim {
			t = strings.TrimSpace(t)
		}
		if fold {
			t = strings.ToLower(t)
		}
		return "s:" + t
	case bool:
		return "b:" + strconv.FormatBool(t)
	case int:
		return "n:" + strconv.FormatInt(int64(t), 10)
	case int32:
		return "n:" + strconv.FormatInt(int64(t), 10)
	case int64:
		return "n:" + strconv.FormatInt(t, 10)
	case uint:
		return "n:" + strconv.FormatUint(uint64(t), 10)
	case uint32:
		return "n:" + strconv.FormatUint(uint64(t), 10)
	case uint64:
		return "n:" + strconv.FormatUint(t, 10)
	case float32:
		return canonicalFloat(float64(t))
	case float64:
		return canonicalFloat(t)
	default:
		return "x:" + fmt.Sprint(t)
	}
}

func canonicalFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// tupleKey joins canonical parts, each prefixed with its length, so no two
// distinct tuples share a key whatever bytes their strings hold.
func tupleKey(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
