package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// romanNumerals is the fixed heading label table, 1-based.
var romanNumerals = []string{
	"i", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x",
	"xi", "xii", "xiii", "xiv", "xv", "xvi", "xvii", "xviii", "xix", "xx",
	"xxi", "xxii", "xxiii", "xxiv", "xxv",
}

var romanSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(romanNumerals))
	for _, r := range romanNumerals {
		m[r] = struct{}{}
	}
	return m
}()

var leadingRoman = regexp.MustCompile(`^([ivx]+)[.):\s-]`)

func isRoman(s string) bool {
	_, ok := romanSet[s]
	return ok
}

type matchItem struct {
	id       string
	expected any
}

func matchMatching(env *Env, q Question) []Detail {
	items := matchingItems(q)
	if len(items) == 0 {
		return matchSingle(env, q)
	}

	nums := env.claim(q, len(items))
	base := keyBase(q, nums)
	rows := make([]Detail, 0, len(items))
	for i, it := range items {
		student, _ := env.Resolver.ResolveItem(env.slot(base, i, nums[i]), it.id)
		rows = append(rows, env.detail(nums[i], student, it.expected, labelsMatch(student, it.expected, q)))
	}
	return rows
}

// matchingItems lists the sub-questions of a matching question: paragraphs
// first, else the keys of the answers map, else the left-hand items.
func matchingItems(q Question) []matchItem {
	expected := asMap(q.Answers)
	if expected == nil {
		expected = asMap(q.CorrectAnswer)
	}

	switch {
	case len(q.Paragraphs) > 0:
		items := make([]matchItem, 0, len(q.Paragraphs))
		for _, p := range q.Paragraphs {
			it := matchItem{id: p.Label(), expected: p.CorrectAnswer}
			if v, ok := lookupKey(expected, it.id); ok && expected != nil {
				it.expected = v
			}
			items = append(items, it)
		}
		return items

	case len(expected) > 0:
		keys := sortedKeys(expected)
		items := make([]matchItem, 0, len(keys))
		for _, k := range keys {
			items = append(items, matchItem{id: k, expected: expected[k]})
		}
		return items
	}

	left := q.LeftItems
	if len(left) == 0 {
		left = q.Items
	}
	positional := asSlice(q.Answers)
	if positional == nil {
		positional = asSlice(q.CorrectAnswer)
	}
	items := make([]matchItem, 0, len(left))
	for i, it := range left {
		mi := matchItem{id: it.ID, expected: it.CorrectAnswer}
		if isEmpty(mi.expected) && i < len(positional) {
			mi.expected = positional[i]
		}
		items = append(items, mi)
	}
	return items
}

// labelsMatch compares a matching answer. Headings compare by roman label,
// right-hand items by their id, anything else as text.
func labelsMatch(student, expected any, q Question) bool {
	if isEmpty(student) || isEmpty(expected) {
		return false
	}
	if len(q.Headings) > 0 {
		got := toLabel(student, q.Headings)
		return got != "" && got == toLabel(expected, q.Headings)
	}
	if len(q.RightItems) > 0 {
		got := itemLabel(student, q.RightItems)
		if got != "" && got == itemLabel(expected, q.RightItems) {
			return true
		}
	}
	return MatchAnswer(student, expected)
}

// toLabel turns a heading answer into its roman label. Roman input is kept.
// A bare numeral indexes headings 0-based, then 1-based, then the fixed
// roman table 1-based. Heading text resolves to that heading's label.
func toLabel(v any, headings []Item) string {
	s := strings.ToLower(strings.TrimSpace(stringify(SafeParse(v))))
	if s == "" {
		return ""
	}
	if isRoman(s) {
		return s
	}
	if n, err := strconv.Atoi(s); err == nil {
		switch {
		case n >= 0 && n < len(headings):
			return headingLabel(headings[n])
		case n >= 1 && n <= len(headings):
			return headingLabel(headings[n-1])
		case n >= 1 && n <= len(romanNumerals):
			return romanNumerals[n-1]
		}
		return s
	}

	text := NormalizeText(s)
	for _, h := range headings {
		if text == NormalizeText(h.Text) || text == NormalizeText(h.Body()) {
			return headingLabel(h)
		}
	}
	if m := leadingRoman.FindStringSubmatch(s); m != nil && isRoman(m[1]) {
		return m[1]
	}
	return text
}

func headingLabel(h Item) string {
	if id := strings.ToLower(strings.TrimSpace(h.ID)); id != "" {
		return id
	}
	text := strings.ToLower(strings.TrimSpace(h.Text))
	if isRoman(text) {
		return text
	}
	if m := leadingRoman.FindStringSubmatch(text); m != nil && isRoman(m[1]) {
		return m[1]
	}
	return NormalizeText(text)
}

// itemLabel maps an answer to a right-hand item's label: by id, by 0-based
// index, or by text.
func itemLabel(v any, items []Item) string {
	s := strings.TrimSpace(stringify(SafeParse(v)))
	if s == "" {
		return ""
	}
	for _, it := range items {
		if strings.EqualFold(it.Label(), s) {
			return strings.ToLower(it.Label())
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(items) {
		return strings.ToLower(items[n].Label())
	}
	text := NormalizeText(s)
	for _, it := range items {
		if text == NormalizeText(it.Text) || text == NormalizeText(it.Body()) {
			return strings.ToLower(it.Label())
		}
	}
	return ""
}
