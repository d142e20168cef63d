// Package scoring evaluates a learner's answers against a stored test and
// produces per-question details, totals and a band.
//
// The engine is pure: it performs no I/O and keeps no state between calls,
// so one Engine may score any number of submissions concurrently.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

// Engine scores submissions. The zero value is not usable; build one with New.
type Engine struct {
	matchers map[Kind]Matcher
	variant  Variant
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug traces of a walk.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l.With().Str("component", "scoring_engine").Logger()
	}
}

// WithMatcher replaces the matcher registered for kind.
func WithMatcher(kind Kind, m Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matchers[kind] = m
		}
	}
}

// WithDefaultVariant sets the band table used when the test does not name one.
func WithDefaultVariant(v Variant) Option {
	return func(e *Engine) {
		e.variant = v
	}
}

// New builds an Engine with the built-in matchers.
func New(opts ...Option) *Engine {
	e := &Engine{
		matchers: defaultMatchers(),
		variant:  VariantReading,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// ScoreTest scores answers against test with the default engine.
func ScoreTest(test TestDefinition, answers AnswerBag) ScoreResult {
	return defaultEngine.Score(test, answers)
}

// walk is one way of reading a test definition.
type walk struct {
	source Source
	run    func(e *Engine, test TestDefinition, r *Resolver) []Detail
}

var walks = []walk{
	{source: SourceStructured, run: (*Engine).walkParts},
	{source: SourceFlat, run: (*Engine).walkFlat},
	{source: SourceLegacy, run: (*Engine).walkLegacy},
}

// Score walks the structured parts first, then the flat and legacy layouts.
// The first walk yielding any detail row is used. A result with TotalCount
// zero means the test could not be scored.
func (e *Engine) Score(test TestDefinition, answers AnswerBag) ScoreResult {
	r := NewResolver(answers)
	variant := e.variant
	if test.Variant != "" {
		variant = ParseVariant(test.Variant)
	}

	for _, w := range walks {
		rows := e.runWalk(w, test, r)
		if len(rows) == 0 {
			e.log.Debug().Str("source", string(w.source)).Msg("walk produced no rows")
			continue
		}
		res := summarize(rows, variant)
		res.Source = w.source
		e.log.Debug().
			Str("source", string(w.source)).
			Int("correct", res.CorrectCount).
			Int("total", res.TotalCount).
			Msg("test scored")
		return res
	}

	e.log.Debug().Msg("test not scorable")
	return ScoreResult{Details: []Detail{}}
}

// runWalk isolates a walk so a failing custom matcher only loses that walk.
func (e *Engine) runWalk(w walk, test TestDefinition, r *Resolver) (rows []Detail) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().
				Str("source", string(w.source)).
				Str("panic", fmt.Sprint(rec)).
				Msg("walk aborted")
			rows = nil
		}
	}()
	return w.run(e, test, r)
}

func (e *Engine) matcher(k Kind) Matcher {
	if m, ok := e.matchers[k]; ok {
		return m
	}
	return e.matchers[KindSingle]
}

func (e *Engine) walkParts(test TestDefinition, r *Resolver) []Detail {
	var rows []Detail
	numbers := NewNumbering()
	for pi, part := range test.Parts {
		for si, sec := range part.Sections {
			kind := sectionKind(sec)
			numbers.Begin(int(sec.StartingQuestionNumber))
			for _, q := range sec.Questions {
				k, tag := kind, sec.QuestionType
				if sec.QuestionType == "" && q.kindTag() != "" {
					k, tag = questionKind(q), q.kindTag()
				}
				env := &Env{
					Section:      sec,
					PartIndex:    pi,
					SectionIndex: si,
					Kind:         k,
					Tag:          tag,
					Resolver:     r,
					Numbers:      numbers,
				}
				rows = append(rows, e.matcher(k).Match(env, q)...)
			}
		}
	}
	return rows
}

func (e *Engine) walkFlat(test TestDefinition, r *Resolver) []Detail {
	flat := make([]Question, 0, len(test.Questions))
	for _, q := range test.Questions {
		if q.GlobalNumber > 0 {
			flat = append(flat, q)
		}
	}
	sortByGlobalNumber(flat)

	var rows []Detail
	numbers := NewNumbering()
	for _, q := range flat {
		numbers.Begin(int(q.GlobalNumber))
		k := questionKind(q)
		env := &Env{
			PartIndex:    int(q.PartIndex),
			SectionIndex: int(q.SectionIndex),
			Kind:         k,
			Tag:          q.kindTag(),
			Resolver:     r,
			Numbers:      numbers,
		}
		rows = append(rows, e.matcher(k).Match(env, q)...)
	}
	return rows
}

func (e *Engine) walkLegacy(test TestDefinition, r *Resolver) []Detail {
	var rows []Detail
	numbers := NewNumbering()
	for gi, key := range sortedKeys(test.Groups) {
		for qi, q := range test.Groups[key] {
			k := questionKind(q)
			env := &Env{
				PartIndex: gi,
				Kind:      k,
				Tag:       q.kindTag(),
				Resolver:  r,
				Numbers:   numbers,
				Aliases:   []string{fmt.Sprintf("%s_%d", key, qi)},
			}
			rows = append(rows, e.matcher(k).Match(env, q)...)
		}
	}
	return rows
}

func sortByGlobalNumber(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].GlobalNumber < qs[j].GlobalNumber })
}

func summarize(rows []Detail, variant Variant) ScoreResult {
	correct := 0
	for _, d := range rows {
		if d.IsCorrect {
			correct++
		}
	}
	total := len(rows)
	return ScoreResult{
		CorrectCount: correct,
		TotalCount:   total,
		Percentage:   math.Round(float64(correct)/float64(total)*10000) / 100,
		Band:         BandFromCorrect(correct, variant),
		Details:      rows,
	}
}
