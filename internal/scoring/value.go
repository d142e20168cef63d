package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxParseRounds caps how many times a JSON-looking string is re-decoded.
const maxParseRounds = 3

// SafeParse decodes JSON-encoded strings, at most maxParseRounds times.
// Values that are not strings, do not look like JSON, or fail to decode are
// returned unchanged.
func SafeParse(v any) any {
	for i := 0; i < maxParseRounds; i++ {
		s, ok := v.(string)
		if !ok {
			return v
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || !looksLikeJSON(trimmed) {
			return v
		}
		var out any
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return v
		}
		v = out
	}
	return v
}

func looksLikeJSON(s string) bool {
	switch s[0] {
	case '{', '[', '"':
		return true
	}
	return false
}

// stringify renders any decoded JSON value as text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := stringify(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// display is the text stored on a Detail row.
func display(v any) string {
	return strings.TrimSpace(stringify(SafeParse(v)))
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		for _, el := range t {
			if !isEmpty(el) {
				return false
			}
		}
		return true
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func isScalar(v any) bool {
	switch v.(type) {
	case []any, []string, map[string]any:
		return false
	}
	return true
}

func asMap(v any) map[string]any {
	switch t := SafeParse(v).(type) {
	case map[string]any:
		return t
	case AnswerBag:
		return t
	}
	return nil
}

func asSlice(v any) []any {
	switch t := SafeParse(v).(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

// lookupKey finds key in m, ignoring case and surrounding space.
func lookupKey(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	want := strings.ToLower(strings.TrimSpace(key))
	for _, k := range sortedKeys(m) {
		if strings.ToLower(strings.TrimSpace(k)) == want {
			return m[k], true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case float64:
		return t != 0
	}
	return false
}

// sortedKeys returns the map keys in natural order ("q2" before "q10").
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
	return keys
}

// naturalLess compares strings chunk by chunk, numerically where both
// chunks are digit runs.
func naturalLess(a, b string) bool {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		if x == y {
			continue
		}
		xn, xerr := strconv.Atoi(x)
		yn, yerr := strconv.Atoi(y)
		if xerr == nil && yerr == nil {
			if xn != yn {
				return xn < yn
			}
			return x < y
		}
		return x < y
	}
	if len(ca) != len(cb) {
		return len(ca) < len(cb)
	}
	return a < b
}

func chunks(s string) []string {
	var out []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[i-1]) {
			out = append(out, s[start:i])
			start = i
		}
	}
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
