package scoring

// Matcher scores one question of a given kind and returns one row per
// logical sub-question. Implementations must not fail on missing data; they
// mark such rows incorrect.
type Matcher interface {
	Match(env *Env, q Question) []Detail
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(env *Env, q Question) []Detail

// Match implements Matcher.
func (f MatcherFunc) Match(env *Env, q Question) []Detail {
	return f(env, q)
}

// Env is what a matcher sees of the walk: where the question sits, how to
// resolve answers and how to claim numbers.
type Env struct {
	Section      Section
	PartIndex    int
	SectionIndex int
	Kind         Kind
	Resolver     *Resolver
	Numbers      *Numbering
	// Aliases are legacy keys for the current question.
	Aliases []string
	// Tag is the declared question type, reported on every row.
	Tag string
}

// claim reserves slots consecutive numbers for q. The first honours the
// question's own number when that does not run backwards.
func (e *Env) claim(q Question, slots int) []int {
	nums := make([]int, slots)
	for i := range nums {
		desired := 0
		if i == 0 {
			desired = q.desiredNumber()
		}
		nums[i] = e.Numbers.Take(desired)
	}
	return nums
}

// keyBase is the number a grouped question's keys derive from: the first
// numeral it was authored with, else the first number claimed for it.
func keyBase(q Question, nums []int) int {
	if n := q.QuestionNumber.Base(); n > 0 {
		return n
	}
	return nums[0]
}

// single builds the lookup for a one-slot question numbered num.
func (e *Env) single(num int) Lookup {
	return Lookup{Number: num, Blank: -1, Seq: num, PartIndex: e.PartIndex, Aliases: e.Aliases}
}

// slot builds the lookup for slot i of a question whose keys derive from base.
func (e *Env) slot(base, i, seq int) Lookup {
	l := Lookup{Number: base, Blank: i, Seq: seq, PartIndex: e.PartIndex}
	if i == 0 {
		l.Aliases = e.Aliases
	}
	return l
}

func (e *Env) detail(num int, student, expected any, correct bool) Detail {
	tag := e.Tag
	if tag == "" {
		tag = e.Kind.String()
	}
	return Detail{
		QuestionNumber: num,
		PartIndex:      e.PartIndex,
		SectionIndex:   e.SectionIndex,
		QuestionType:   tag,
		StudentAnswer:  display(student),
		CorrectAnswer:  display(expected),
		IsCorrect:      correct,
	}
}

func defaultMatchers() map[Kind]Matcher {
	return map[Kind]Matcher{
		KindSingle:      MatcherFunc(matchSingle),
		KindChoice:      MatcherFunc(matchChoice),
		KindMatching:    MatcherFunc(matchMatching),
		KindCloze:       MatcherFunc(matchCloze),
		KindParagraph:   MatcherFunc(matchParagraph),
		KindForm:        MatcherFunc(matchForm),
		KindMultiSelect: MatcherFunc(matchMultiSelect),
	}
}
