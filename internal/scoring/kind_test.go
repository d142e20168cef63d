package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"", KindSingle},
		{"fill", KindSingle},
		{"Multiple Choice", KindChoice},
		{"sentence_completion", KindChoice},
		{"MATCHING_HEADINGS", KindMatching},
		{"cloze-test", KindCloze},
		{"summary completion", KindCloze},
		{"paragraph-matching", KindParagraph},
		{"notes-completion", KindForm},
		{"choose_two", KindMultiSelect},
		{"something-new", KindSingle},
	}
	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseKind(tc.tag))
		})
	}
}

func TestSectionKindSniffsFill(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want Kind
	}{
		{"form rows", Question{FormRows: []FormRow{{IsBlank: true}}}, KindForm},
		{"left items", Question{LeftItems: ItemList{{ID: "1"}}}, KindMatching},
		{"items", Question{Items: ItemList{{ID: "1"}}}, KindMatching},
		{"notes", Question{NotesText: "Time: 3 ___"}, KindForm},
		{"plain", Question{CorrectAnswer: "x"}, KindSingle},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sec := Section{QuestionType: "Fill", Questions: []Question{tc.q}}
			assert.Equal(t, tc.want, sectionKind(sec))
		})
	}

	declared := Section{QuestionType: "cloze", Questions: []Question{{FormRows: []FormRow{{IsBlank: true}}}}}
	assert.Equal(t, KindCloze, sectionKind(declared))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "multi-select", KindMultiSelect.String())
	assert.Equal(t, "single", Kind(99).String())
}
