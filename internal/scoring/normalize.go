package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText lowercases v, strips diacritics, drops punctuation and
// symbols, and collapses whitespace. It is idempotent.
func NormalizeText(v any) string {
	s := strings.ToLower(stringify(v))
	if s == "" {
		return ""
	}

	// transform.Chain keeps internal state, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// variantSeparators in priority order.
var variantSeparators = []string{"|", "/", ";", ","}

var groupedNumeral = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`)

const commaMask = "\x00"

// ExplodeVariants splits an accepted-answer value into its variants. Arrays
// are taken element-wise. Strings are split on the highest-priority
// separator present and each piece is split again on the lower ones. A comma
// inside a thousands-grouped numeral is not a separator.
func ExplodeVariants(raw any) []string {
	switch t := SafeParse(raw).(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s := strings.TrimSpace(stringify(SafeParse(el))); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		masked := groupedNumeral.ReplaceAllStringFunc(stringify(t), func(m string) string {
			return strings.ReplaceAll(m, ",", commaMask)
		})
		return splitVariants(masked, 0)
	}
}

func splitVariants(s string, from int) []string {
	for i := from; i < len(variantSeparators); i++ {
		sep := variantSeparators[i]
		if !strings.Contains(s, sep) {
			continue
		}
		var out []string
		for _, piece := range strings.Split(s, sep) {
			out = append(out, splitVariants(piece, i+1)...)
		}
		return out
	}
	v := strings.TrimSpace(strings.ReplaceAll(s, commaMask, ","))
	if v == "" {
		return nil
	}
	return []string{v}
}

// MatchAnswer reports whether any variant of student equals any variant of
// expected after normalization, or both parse to the same number.
func MatchAnswer(student, expected any) bool {
	got := ExplodeVariants(student)
	want := ExplodeVariants(expected)
	if len(got) == 0 || len(want) == 0 {
		return false
	}

	accepted := make(map[string]struct{}, len(want))
	for _, w := range want {
		if n := NormalizeText(w); n != "" {
			accepted[n] = struct{}{}
		}
	}
	for _, g := range got {
		n := NormalizeText(g)
		if n == "" {
			continue
		}
		if _, ok := accepted[n]; ok {
			return true
		}
	}

	for _, g := range got {
		gv, ok := ParseNumberWord(g)
		if !ok {
			continue
		}
		for _, w := range want {
			if wv, ok := ParseNumberWord(w); ok && math.Abs(gv-wv) < 1e-9 {
				return true
			}
		}
	}
	return false
}
