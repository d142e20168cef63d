package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var smallNumbers = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensNumbers = map[string]float64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var scaleWords = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
}

var (
	plainNumeral   = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
	groupedDecimal = regexp.MustCompile(`^[+-]?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// ParseNumberWord parses English cardinal phrases ("twenty five thousand")
// and digit numerals ("25,000", "25 thousand"). Words combine left to right.
// The second result is false when text is not a number.
func ParseNumberWord(text string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}
	if n, ok := parseNumeral(s); ok {
		return n, true
	}

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})

	var total, current float64
	seen := false
	for _, tok := range tokens {
		if tok == "and" {
			continue
		}
		if n, ok := parseNumeral(tok); ok {
			current += n
			seen = true
			continue
		}
		if n, ok := smallNumbers[tok]; ok {
			current += n
			seen = true
			continue
		}
		if n, ok := tensNumbers[tok]; ok {
			current += n
			seen = true
			continue
		}
		if tok == "hundred" {
			if current == 0 {
				current = 1
			}
			current *= 100
			seen = true
			continue
		}
		if scale, ok := scaleWords[tok]; ok {
			if current == 0 {
				current = 1
			}
			total += current * scale
			current = 0
			seen = true
			continue
		}
		return 0, false
	}
	if !seen {
		return 0, false
	}
	return total + current, true
}

func parseNumeral(s string) (float64, bool) {
	switch {
	case plainNumeral.MatchString(s):
	case groupedDecimal.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
