package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"diacritics and punctuation", "Café!", "cafe"},
		{"whitespace collapsed", "  The   quick\tfox ", "the quick fox"},
		{"symbols dropped", "£25 + tax", "25 tax"},
		{"number", 42.0, "42"},
		{"nil", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeText(tc.in))
		})
	}

	assert.Equal(t, NormalizeText("cafe"), NormalizeText("Café!"))
}

func TestNormalizeTextIsIdempotent(t *testing.T) {
	for _, in := range []string{"Café!", "Ñandú, São Paulo", "  A -- B  ", "naïve résumé", "10,000"} {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), in)
	}
}

func TestExplodeVariants(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"mixed separators", "a|b/c", []string{"a", "b", "c"}},
		{"thousands comma kept", "10,000", []string{"10,000"}},
		{"plain comma splits", "red, blue", []string{"red", "blue"}},
		{"pipe before comma", "1,500|one thousand five hundred", []string{"1,500", "one thousand five hundred"}},
		{"semicolon", "car; automobile", []string{"car", "automobile"}},
		{"empties dropped", "a||b| ", []string{"a", "b"}},
		{"array taken as is", []any{"x", " y ", ""}, []string{"x", "y"}},
		{"json array string", `["x","y"]`, []string{"x", "y"}},
		{"nil", nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExplodeVariants(tc.in))
		})
	}
}

func TestParseNumberWord(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"five hundred", 500, true},
		{"twenty five thousand", 25000, true},
		{"twenty-five", 25, true},
		{"one hundred and five", 105, true},
		{"25,000", 25000, true},
		{"25 thousand", 25000, true},
		{"two million", 2e6, true},
		{"3.5", 3.5, true},
		{"banana", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseNumberWord(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestMatchAnswer(t *testing.T) {
	tests := []struct {
		name     string
		student  any
		expected any
		want     bool
	}{
		{"number words", "five hundred", "500", true},
		{"grouped numeral", "25000", "25,000", true},
		{"variant list", "automobile", "car/automobile", true},
		{"case and accents", "CAFÉ", "cafe", true},
		{"numeric value", 12.0, "twelve", true},
		{"wrong", "bus", "car/automobile", false},
		{"empty student", "", "car", false},
		{"empty expected", "car", nil, false},
		{"unparseable json stays text", "{broken", "{broken", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchAnswer(tc.student, tc.expected))
		})
	}
}
