package scoring

import (
	"sort"
	"strconv"
	"strings"
)

const defaultRequiredAnswers = 2

// matchMultiSelect scores a "choose N" question. It claims N numbers and
// every row shares the single set comparison.
func matchMultiSelect(env *Env, q Question) []Detail {
	required := int(q.RequiredAnswers)
	if required <= 0 {
		required = defaultRequiredAnswers
	}

	expected := q.CorrectAnswer
	if isEmpty(expected) {
		expected = q.Answers
	}

	nums := env.claim(q, required)
	student := studentSelection(env, keyBase(q, nums), nums)

	want := selectionSet(expected, q.Options)
	got := selectionSet(student, q.Options)
	ok := len(want) > 0 && sameSet(want, got)

	shownStudent := displaySelection(got)
	shownExpected := displaySelection(want)
	rows := make([]Detail, 0, required)
	for _, num := range nums {
		row := env.detail(num, nil, nil, ok)
		row.StudentAnswer = shownStudent
		row.CorrectAnswer = shownExpected
		rows = append(rows, row)
	}
	return rows
}

// studentSelection reads the whole selection when it is stored under the
// question's key base, else collects one value per slot.
func studentSelection(env *Env, base int, nums []int) any {
	if v, ok := env.Resolver.Resolve(env.single(base)); ok {
		if !isScalar(v) || len(ExplodeVariants(v)) > 1 {
			return v
		}
	}

	picked := make([]any, 0, len(nums))
	for i, num := range nums {
		if v, ok := env.Resolver.Resolve(env.slot(base, i, num)); ok {
			picked = append(picked, v)
		}
	}
	return picked
}

// selectionSet reduces a selection to 0-based option indices. Letters map to
// their alphabet position, numerals are taken as indices, option text maps to
// its position and anything else is kept as normalized text.
func selectionSet(v any, options []Item) map[string]struct{} {
	set := make(map[string]struct{})
	var values []any
	switch t := SafeParse(v).(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			values = append(values, t[k])
		}
	case []any:
		values = t
	default:
		values = []any{t}
	}

	for _, val := range values {
		for _, token := range ExplodeVariants(val) {
			if key := selectionKey(token, options); key != "" {
				set[key] = struct{}{}
			}
		}
	}
	return set
}

func selectionKey(token string, options []Item) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		return "#" + strconv.Itoa(n)
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.ID), token) {
			return "#" + strconv.Itoa(i)
		}
	}
	if idx, ok := letterIndex(token); ok {
		return "#" + strconv.Itoa(idx)
	}
	text := NormalizeText(token)
	if text == "" {
		return ""
	}
	for i, opt := range options {
		if text == NormalizeText(opt.Body()) {
			return "#" + strconv.Itoa(i)
		}
	}
	return "t:" + text
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// displaySelection renders indices as letters, in order: "B, D".
func displaySelection(set map[string]struct{}) string {
	keys := sortedKeys(set)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if idx, err := strconv.Atoi(strings.TrimPrefix(k, "#")); err == nil && strings.HasPrefix(k, "#") {
			if idx < 26 {
				out = append(out, string(rune('A'+idx)))
				continue
			}
			out = append(out, strconv.Itoa(idx))
			continue
		}
		out = append(out, strings.TrimPrefix(k, "t:"))
	}
	sort.SliceStable(out, func(i, j int) bool { return naturalLess(out[i], out[j]) })
	return strings.Join(out, ", ")
}
