package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

var notesBlank = regexp.MustCompile(`(\d+)\s*[_…]+`)

// formSlot is one blank of a form or notes question.
type formSlot struct {
	key      string
	number   int
	expected any
}

func matchForm(env *Env, q Question) []Detail {
	slots := formSlots(q)
	if len(slots) == 0 {
		return matchSingle(env, q)
	}

	rows := make([]Detail, 0, len(slots))
	base := 0
	for i, s := range slots {
		desired := s.number
		if i == 0 && desired == 0 {
			desired = q.desiredNumber()
		}
		num := env.Numbers.Take(desired)
		if i == 0 {
			base = keyBase(q, []int{num})
		}

		var student any
		found := false
		if s.number > 0 {
			student, found = env.Resolver.Resolve(Lookup{Number: num, Blank: -1, Seq: num, PartIndex: env.PartIndex})
		}
		if !found {
			student, _ = env.Resolver.ResolveItem(env.slot(base, i, num), s.key)
		}
		rows = append(rows, env.detail(num, student, s.expected, MatchAnswer(student, s.expected)))
	}
	return rows
}

// formSlots lists the blanks of a form question from the answers map, an
// answers array, the blank rows or the numbered gaps in its notes, in that
// order of preference.
func formSlots(q Question) []formSlot {
	answers := SafeParse(q.Answers)

	if m := asMap(answers); len(m) > 0 {
		keys := sortedKeys(m)
		slots := make([]formSlot, 0, len(keys))
		for _, k := range keys {
			slots = append(slots, formSlot{key: k, number: labelNumber(k), expected: m[k]})
		}
		return slots
	}

	if arr := asSlice(answers); len(arr) > 0 {
		slots := make([]formSlot, 0, len(arr))
		for i, v := range arr {
			slots = append(slots, formSlot{key: strconv.Itoa(i), expected: v})
		}
		return slots
	}

	var slots []formSlot
	for _, row := range q.FormRows {
		if !row.IsBlank {
			continue
		}
		slots = append(slots, formSlot{
			key:      row.Label,
			number:   row.QuestionNumber.Base(),
			expected: row.Expected(),
		})
	}
	if len(slots) > 0 {
		return slots
	}

	gaps := notesBlank.FindAllStringSubmatch(q.NotesText, -1)
	for i, m := range gaps {
		n, _ := strconv.Atoi(m[1])
		slots = append(slots, formSlot{key: m[1], number: n, expected: q.blankExpected(i, len(gaps))})
	}
	return slots
}

// labelNumber reads a purely numeric label such as "12" or "q12".
func labelNumber(label string) int {
	label = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(label)), "q")
	label = strings.TrimPrefix(label, "_")
	n, err := strconv.Atoi(label)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
