package scoring

import (
	"strings"
)

// Kind is the closed set of question kinds the engine can score.
type Kind int

const (
	KindSingle Kind = iota
	KindChoice
	KindMatching
	KindCloze
	KindParagraph
	KindForm
	KindMultiSelect
)

var kindNames = map[Kind]string{
	KindSingle:      "single",
	KindChoice:      "multiple-choice",
	KindMatching:    "matching",
	KindCloze:       "cloze",
	KindParagraph:   "paragraph-matching",
	KindForm:        "form-completion",
	KindMultiSelect: "multi-select",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindSingle]
}

// kindTags maps every tag seen in stored tests to its Kind. Tags are
// compared after canonicalTag.
var kindTags = map[string]Kind{
	"":                     KindSingle,
	"default":              KindSingle,
	"fill":                 KindSingle,
	"single":               KindSingle,
	"short-answer":         KindSingle,
	"true-false-not-given": KindSingle,
	"yes-no-not-given":     KindSingle,

	"multiple-choice":     KindChoice,
	"mcq":                 KindChoice,
	"sentence-completion": KindChoice,

	"matching":                  KindMatching,
	"matching-headings":         KindMatching,
	"matching-information":      KindMatching,
	"matching-features":         KindMatching,
	"matching-sentence-endings": KindMatching,

	"cloze":              KindCloze,
	"cloze-test":         KindCloze,
	"summary-completion": KindCloze,
	"gap-fill":           KindCloze,

	"paragraph-matching": KindParagraph,

	"form-completion":  KindForm,
	"notes-completion": KindForm,
	"note-completion":  KindForm,
	"table-completion": KindForm,

	"multi-select":    KindMultiSelect,
	"multiple-select": KindMultiSelect,
	"multiple-answer": KindMultiSelect,
	"choose-two":      KindMultiSelect,
	"choose-three":    KindMultiSelect,
}

// canonicalTag lowercases a tag and joins words with hyphens.
func canonicalTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.Join(strings.FieldsFunc(tag, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	}), "-")
}

// ParseKind maps a stored questionType tag to a Kind. Unknown tags score
// as single-answer questions.
func ParseKind(tag string) Kind {
	if k, ok := kindTags[canonicalTag(tag)]; ok {
		return k
	}
	return KindSingle
}

// sectionKind is the section's effective kind. Older tests tag several
// shapes as "fill", so those are sniffed from the first question.
func sectionKind(sec Section) Kind {
	if canonicalTag(sec.QuestionType) == "fill" && len(sec.Questions) > 0 {
		if k, ok := sniffKind(sec.Questions[0]); ok {
			return k
		}
	}
	return ParseKind(sec.QuestionType)
}

// questionKind is the effective kind of a question scored outside a section.
func questionKind(q Question) Kind {
	if canonicalTag(q.kindTag()) == "fill" {
		if k, ok := sniffKind(q); ok {
			return k
		}
	}
	return ParseKind(q.kindTag())
}

func sniffKind(q Question) (Kind, bool) {
	switch {
	case len(q.FormRows) > 0:
		return KindForm, true
	case len(q.LeftItems) > 0 || len(q.Items) > 0:
		return KindMatching, true
	case strings.TrimSpace(q.NotesText) != "":
		return KindForm, true
	}
	return KindSingle, false
}
