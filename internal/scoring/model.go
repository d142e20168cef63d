package scoring

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Variant selects the band table used for a test.
type Variant string

const (
	VariantReading   Variant = "reading"
	VariantListening Variant = "listening"
)

// ParseVariant maps a free-form tag to a Variant. Anything that is not
// "listening" scores against the reading table.
func ParseVariant(s string) Variant {
	if strings.EqualFold(strings.TrimSpace(s), string(VariantListening)) {
		return VariantListening
	}
	return VariantReading
}

// Source records which walk of the test definition produced the details.
type Source string

const (
	SourceStructured Source = "structured"
	SourceFlat       Source = "flat"
	SourceLegacy     Source = "legacy"
)

// TestDefinition is the authored test: parts containing sections containing
// typed questions. Questions and Groups hold the two older stored layouts.
type TestDefinition struct {
	Title     string                `json:"title,omitempty"`
	Variant   string                `json:"variant,omitempty"`
	Parts     []Part                `json:"parts,omitempty"`
	Questions []Question            `json:"questions,omitempty"`
	Groups    map[string][]Question `json:"groups,omitempty"`
}

var legacyGroupKey = regexp.MustCompile(`(?i)^(part|passage|section)_?\d+$`)

// UnmarshalJSON decodes the definition and lifts top-level keys such as
// "part1" or "passage2" into Groups.
func (t *TestDefinition) UnmarshalJSON(data []byte) error {
	type plain TestDefinition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		for key, value := range raw {
			if !legacyGroupKey.MatchString(key) {
				continue
			}
			var qs []Question
			if err := json.Unmarshal(value, &qs); err != nil || len(qs) == 0 {
				continue
			}
			if p.Groups == nil {
				p.Groups = make(map[string][]Question)
			}
			if _, exists := p.Groups[key]; !exists {
				p.Groups[key] = qs
			}
		}
	}

	*t = TestDefinition(p)
	return nil
}

// Part is a titled group of sections.
type Part struct {
	Title       string    `json:"title,omitempty"`
	Instruction string    `json:"instruction,omitempty"`
	Sections    []Section `json:"sections,omitempty"`
}

// Section is a run of same-type questions sharing a numbering rule.
type Section struct {
	Title                  string     `json:"title,omitempty"`
	QuestionType           string     `json:"questionType,omitempty"`
	StartingQuestionNumber FlexInt    `json:"startingQuestionNumber,omitempty"`
	Instruction            string     `json:"instruction,omitempty"`
	Questions              []Question `json:"questions,omitempty"`
}

// Question carries every shape a stored question may take. Which fields
// matter depends on the section's effective Kind.
type Question struct {
	ID              string         `json:"id,omitempty"`
	QuestionNumber  QuestionNumber `json:"questionNumber,omitempty"`
	QuestionType    string         `json:"questionType,omitempty"`
	Type            string         `json:"type,omitempty"`
	Text            string         `json:"text,omitempty"`
	QuestionText    string         `json:"questionText,omitempty"`
	CorrectAnswer   any            `json:"correctAnswer,omitempty"`
	Answers         any            `json:"answers,omitempty"`
	Options         ItemList       `json:"options,omitempty"`
	Blanks          []Blank        `json:"blanks,omitempty"`
	FormRows        []FormRow      `json:"formRows,omitempty"`
	LeftItems       ItemList       `json:"leftItems,omitempty"`
	RightItems      ItemList       `json:"rightItems,omitempty"`
	Items           ItemList       `json:"items,omitempty"`
	Paragraphs      ItemList       `json:"paragraphs,omitempty"`
	Headings        ItemList       `json:"headings,omitempty"`
	RequiredAnswers FlexInt        `json:"requiredAnswers,omitempty"`
	NotesText       string         `json:"notesText,omitempty"`
	GlobalNumber    FlexInt        `json:"globalNumber,omitempty"`
	PartIndex       FlexInt        `json:"partIndex,omitempty"`
	SectionIndex    FlexInt        `json:"sectionIndex,omitempty"`
}

func (q Question) body() string {
	if q.Text != "" {
		return q.Text
	}
	return q.QuestionText
}

func (q Question) kindTag() string {
	if q.QuestionType != "" {
		return q.QuestionType
	}
	return q.Type
}

// desiredNumber is the number the question asks for, 0 when it carries none.
func (q Question) desiredNumber() int {
	if n := q.QuestionNumber.Base(); n > 0 {
		return n
	}
	return int(q.GlobalNumber)
}

// expected returns the flat expected answer of a single-slot question.
func (q Question) expected() any {
	if !isEmpty(q.CorrectAnswer) {
		return q.CorrectAnswer
	}
	v := SafeParse(q.Answers)
	switch v.(type) {
	case map[string]any:
		return nil
	}
	return v
}

// blankExpected returns the expected value for blank i of a question with
// the given number of slots.
func (q Question) blankExpected(i, slots int) any {
	if i < len(q.Blanks) {
		if v := q.Blanks[i].Expected(); !isEmpty(v) {
			return v
		}
	}
	whole := SafeParse(q.CorrectAnswer)
	if arr, ok := whole.([]any); ok {
		if slots > 1 || len(arr) > 1 {
			if i < len(arr) {
				return arr[i]
			}
			return nil
		}
	}
	if slots == 1 || len(q.Blanks) == 0 {
		return q.CorrectAnswer
	}
	return nil
}

// FlexInt decodes numbers that may be stored as JSON numbers or numeric
// strings. Anything else decodes to zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*n = 0
		return nil
	}
	switch t := v.(type) {
	case float64:
		*n = FlexInt(int(t))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			*n = 0
			return nil
		}
		*n = FlexInt(i)
	default:
		*n = 0
	}
	return nil
}

// QuestionNumber is a question's stored number. It may be a plain number or
// a grouped string such as "11,12,130".
type QuestionNumber string

var numeral = regexp.MustCompile(`\d+`)

// UnmarshalJSON implements json.Unmarshaler.
func (qn *QuestionNumber) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*qn = ""
		return nil
	}
	switch t := v.(type) {
	case float64:
		*qn = QuestionNumber(strconv.Itoa(int(t)))
	case string:
		*qn = QuestionNumber(strings.TrimSpace(t))
	default:
		*qn = ""
	}
	return nil
}

// Base returns the first numeral, the only one used for key derivation.
func (qn QuestionNumber) Base() int {
	m := numeral.FindString(string(qn))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Count returns how many numerals the grouped form lists.
func (qn QuestionNumber) Count() int {
	return len(numeral.FindAllString(string(qn), -1))
}

// Item is an option, heading, paragraph or matching item. Stored data uses
// both bare strings and objects.
type Item struct {
	ID            string `json:"id,omitempty"`
	Text          string `json:"text,omitempty"`
	CorrectAnswer any    `json:"correctAnswer,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (it *Item) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*it = itemFromValue("", v)
	return nil
}

func itemFromValue(id string, v any) Item {
	switch t := v.(type) {
	case map[string]any:
		it := Item{
			ID:            firstString(t, "id", "letter", "key", "value"),
			Text:          firstString(t, "text", "label", "content", "title", "heading", "option"),
			CorrectAnswer: firstValue(t, "correctAnswer", "answer", "correct"),
		}
		if it.ID == "" {
			it.ID = id
		}
		return it
	case nil:
		return Item{ID: id}
	default:
		return Item{ID: id, Text: stringify(t)}
	}
}

// Label is the item's identifier: its id, else its trimmed text.
func (it Item) Label() string {
	if id := strings.TrimSpace(it.ID); id != "" {
		return id
	}
	return strings.TrimSpace(it.Text)
}

var leadingLabel = regexp.MustCompile(`^\s*[A-Za-z][.)]\s+`)

// Body is the item text without a leading "A." or "b)" label.
func (it Item) Body() string {
	return strings.TrimSpace(leadingLabel.ReplaceAllString(it.Text, ""))
}

// ItemList decodes from either a JSON array or an object keyed by id.
type ItemList []Item

// UnmarshalJSON implements json.Unmarshaler.
func (l *ItemList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case []any:
		items := make([]Item, 0, len(t))
		for _, el := range t {
			items = append(items, itemFromValue("", el))
		}
		*l = items
	case map[string]any:
		keys := sortedKeys(t)
		items := make([]Item, 0, len(keys))
		for _, k := range keys {
			items = append(items, itemFromValue(k, t[k]))
		}
		*l = items
	default:
		*l = nil
	}
	return nil
}

// Blank is one fill-in slot.
type Blank struct {
	ID            string `json:"id,omitempty"`
	CorrectAnswer any    `json:"correctAnswer,omitempty"`
	Answer        any    `json:"answer,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Blank) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case map[string]any:
		*b = Blank{
			ID:            firstString(t, "id"),
			CorrectAnswer: firstValue(t, "correctAnswer", "correct"),
			Answer:        firstValue(t, "answer", "answers"),
		}
	case nil:
		*b = Blank{}
	default:
		*b = Blank{CorrectAnswer: t}
	}
	return nil
}

// Expected returns the accepted answer for the blank.
func (b Blank) Expected() any {
	if !isEmpty(b.CorrectAnswer) {
		return b.CorrectAnswer
	}
	return b.Answer
}

// FormRow is one row of a form-completion table.
type FormRow struct {
	Label          string         `json:"label,omitempty"`
	IsBlank        bool           `json:"isBlank,omitempty"`
	CorrectAnswer  any            `json:"correctAnswer,omitempty"`
	Answer         any            `json:"answer,omitempty"`
	Correct        any            `json:"correct,omitempty"`
	QuestionNumber QuestionNumber `json:"questionNumber,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *FormRow) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m, ok := v.(map[string]any)
	if !ok {
		*r = FormRow{}
		return nil
	}
	row := FormRow{
		Label:         firstString(m, "label", "text"),
		IsBlank:       truthy(m["isBlank"]),
		CorrectAnswer: m["correctAnswer"],
		Answer:        m["answer"],
		Correct:       m["correct"],
	}
	if n, ok := m["questionNumber"]; ok {
		row.QuestionNumber = QuestionNumber(stringify(n))
	}
	*r = row
	return nil
}

// Expected returns the first populated of correctAnswer, answer, correct.
func (r FormRow) Expected() any {
	for _, v := range []any{r.CorrectAnswer, r.Answer, r.Correct} {
		if !isEmpty(v) {
			return v
		}
	}
	return nil
}

// AnswerBag is a learner's submitted answers keyed by whatever scheme the
// client used when it was stored.
type AnswerBag map[string]any

// Detail is the outcome of one logical sub-question.
type Detail struct {
	QuestionNumber int    `json:"questionNumber"`
	PartIndex      int    `json:"partIndex"`
	SectionIndex   int    `json:"sectionIndex"`
	QuestionType   string `json:"questionType"`
	StudentAnswer  string `json:"studentAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// ScoreResult is the aggregate outcome of scoring one submission.
type ScoreResult struct {
	CorrectCount int      `json:"correctCount"`
	TotalCount   int      `json:"totalCount"`
	Percentage   float64  `json:"percentage"`
	Band         float64  `json:"band"`
	Details      []Detail `json:"details"`
	Source       Source   `json:"source,omitempty"`
}

// Scorable reports whether any sub-question could be scored.
func (r ScoreResult) Scorable() bool {
	return r.TotalCount > 0
}
