package scoring

import (
	"regexp"
)

var (
	blankToken    = regexp.MustCompile(`(?i)\[\s*blank\s*\]`)
	ellipsisToken = regexp.MustCompile(`…+|\.{2,}`)
)

func matchCloze(env *Env, q Question) []Detail {
	slots := len(blankToken.FindAllStringIndex(q.body(), -1))
	if slots == 0 {
		slots = len(q.Blanks)
	}
	if slots == 0 {
		if c := q.QuestionNumber.Count(); c > 1 {
			slots = c
		}
	}
	if slots == 0 {
		return matchSingle(env, q)
	}
	return matchBlanks(env, q, slots)
}

func matchParagraph(env *Env, q Question) []Detail {
	slots := len(ellipsisToken.FindAllStringIndex(q.body(), -1))
	if slots == 0 {
		slots = len(q.Blanks)
	}
	if slots == 0 {
		slots = 1
	}
	return matchBlanks(env, q, slots)
}

// matchBlanks scores slots fill-in blanks. Every slot derives its keys from
// the question's first authored numeral, so a grouped "11,12,130" reads
// q_11_0..q_11_2 even when the running counter has moved past 11.
func matchBlanks(env *Env, q Question, slots int) []Detail {
	nums := env.claim(q, slots)
	base := keyBase(q, nums)
	rows := make([]Detail, 0, slots)
	for i, num := range nums {
		student, _ := env.Resolver.Resolve(env.slot(base, i, num))
		expected := q.blankExpected(i, slots)
		rows = append(rows, env.detail(num, student, expected, MatchAnswer(student, expected)))
	}
	return rows
}
