package scoring

import (
	"strings"
)

func matchSingle(env *Env, q Question) []Detail {
	if c := q.QuestionNumber.Count(); c > 1 {
		return matchBlanks(env, q, c)
	}
	num := env.claim(q, 1)[0]
	student, _ := env.Resolver.Resolve(env.single(num))
	expected := q.expected()
	return []Detail{env.detail(num, student, expected, MatchAnswer(student, expected))}
}

func matchChoice(env *Env, q Question) []Detail {
	num := env.claim(q, 1)[0]
	student, _ := env.Resolver.Resolve(env.single(num))
	expected := q.expected()
	return []Detail{env.detail(num, student, expected, choiceCorrect(student, expected, q.Options))}
}

// choiceCorrect compares a choice answer. Single option letters are turned
// into the option text before comparing.
func choiceCorrect(student, expected any, options []Item) bool {
	if isEmpty(student) || isEmpty(expected) {
		return false
	}
	if MatchAnswer(student, expected) {
		return true
	}
	return MatchAnswer(optionText(student, options), optionText(expected, options))
}

// optionText resolves a single letter to its option's text. Other values
// come back unchanged.
func optionText(v any, options []Item) any {
	s := strings.TrimSpace(stringify(SafeParse(v)))
	idx, ok := letterIndex(s)
	if !ok {
		return v
	}
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.ID), s) {
			return opt.Body()
		}
	}
	if idx < len(options) {
		return options[idx].Body()
	}
	return v
}

// letterIndex maps "A".."Z" (any case) to 0..25.
func letterIndex(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	case c >= 'a' && c <= 'z':
		return int(c - 'a'), true
	}
	return 0, false
}
