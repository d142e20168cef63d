package scoring

import (
	"strconv"
	"strings"
)

type tokenMatch int

const (
	matchNone tokenMatch = iota
	matchWeak
	matchStrong
)

// resolveTokenScan searches every key for numeric tokens that encode the
// lookup. A strong match ends in the pair (number, blank); a weak match names
// the number alone. A key whose only matching token is the blank index never
// matches, so questions sharing blank 0 stay isolated.
func resolveTokenScan(r *Resolver, l Lookup) (any, bool) {
	if l.Number <= 0 {
		return nil, false
	}

	weak := ""
	for _, key := range r.keys {
		switch classifyKey(key, l.Number, l.Blank) {
		case matchStrong:
			if v, ok := r.value(key); ok {
				return v, true
			}
		case matchWeak:
			if weak != "" {
				continue
			}
			if _, ok := r.value(key); ok {
				weak = key
			}
		}
	}
	if weak == "" {
		return nil, false
	}
	return r.value(weak)
}

// classifyKey grades how specifically key encodes (number, blank). A key
// carrying a single numeric token names a question number only when it is
// bare or prefixed like a question ("q3", "question-3", "answer_3"); with two
// or more tokens the last one is a blank index and the one before it the
// number.
func classifyKey(key string, number, blank int) tokenMatch {
	tokens := numericTokens(key)
	n := len(tokens)
	if n == 0 {
		return matchNone
	}
	last := tokens[n-1]
	paired := n >= 2 && tokens[n-2] == number
	named := n == 1 && last == number && namesQuestion(key)

	if blank < 0 {
		switch {
		case named:
			return matchStrong
		case paired && last == 0:
			return matchWeak
		}
		return matchNone
	}

	switch {
	case paired && last == blank:
		return matchStrong
	case blank == 0 && named:
		return matchWeak
	}
	return matchNone
}

var questionPrefixes = map[string]struct{}{
	"": {}, "q": {}, "question": {}, "answer": {}, "ans": {},
}

// namesQuestion reports whether the text before key's first digit is empty
// or a question prefix, ignoring separators.
func namesQuestion(key string) bool {
	prefix := strings.ToLower(key)
	if i := strings.IndexFunc(prefix, func(r rune) bool { return r >= '0' && r <= '9' }); i >= 0 {
		prefix = prefix[:i]
	}
	_, ok := questionPrefixes[strings.Trim(prefix, " _-.:")]
	return ok
}

// numericTokens returns every digit run in key, in order.
func numericTokens(key string) []int {
	var out []int
	for _, m := range numeral.FindAllString(key, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func containsToken(tokens []int, n int) bool {
	if n <= 0 {
		return false
	}
	for _, t := range tokens {
		if t == n {
			return true
		}
	}
	return false
}
