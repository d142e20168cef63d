package scoring

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup identifies one logical sub-question to resolve.
type Lookup struct {
	// Number is the question number keys are derived from. Grouped
	// questions use their first number for every slot.
	Number int
	// Blank is the slot index within the question, -1 for single-slot
	// questions.
	Blank int
	// Seq is the canonical running number of this slot.
	Seq       int
	PartIndex int
	// Aliases are extra legacy keys known to the caller, such as
	// "<partKey>_<index>".
	Aliases []string
}

// strategy resolves a lookup or reports that it could not.
type strategy struct {
	name    string
	resolve func(r *Resolver, l Lookup) (any, bool)
}

// Resolver locates submitted values in an AnswerBag across the key schemes
// clients have used over time. It never mutates the bag.
type Resolver struct {
	bag        AnswerBag
	keys       []string
	lower      map[string]string
	strategies []strategy
}

// NewResolver indexes bag for lookups.
func NewResolver(bag AnswerBag) *Resolver {
	keys := sortedKeys(map[string]any(bag))
	lower := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, exists := lower[lk]; !exists {
			lower[lk] = k
		}
	}
	return &Resolver{
		bag:   bag,
		keys:  keys,
		lower: lower,
		strategies: []strategy{
			{name: "exact", resolve: resolveExact},
			{name: "legacy", resolve: resolveLegacy},
			{name: "token-scan", resolve: resolveTokenScan},
		},
	}
}

// Resolve runs the strategies in order and returns the first non-empty value.
func (r *Resolver) Resolve(l Lookup) (any, bool) {
	for _, s := range r.strategies {
		if v, ok := s.resolve(r, l); ok {
			return v, true
		}
	}
	return nil, false
}

// ResolveItem resolves a lettered or id-keyed item of a question, such as
// paragraph "C" of a matching question. Empty id falls back to Resolve.
func (r *Resolver) ResolveItem(l Lookup, id string) (any, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return r.Resolve(l)
	}

	for _, key := range numberKeys(l.Number) {
		if m := asMap(r.raw(key)); m != nil {
			if v, ok := lookupKey(m, id); ok && !isEmpty(SafeParse(v)) {
				return SafeParse(v), true
			}
		}
	}
	if v, ok := r.first(
		fmt.Sprintf("q%d_%s", l.Number, id),
		fmt.Sprintf("q_%d_%s", l.Number, id),
	); ok {
		return v, true
	}
	if v, ok := r.first(
		fmt.Sprintf("q_%d_%d", l.Number, l.Blank),
		fmt.Sprintf("q%d_%d", l.Number, l.Blank),
	); ok && l.Blank >= 0 {
		return v, true
	}
	for _, key := range numberKeys(l.Seq) {
		if v, ok := r.value(key); ok && isScalar(v) {
			return v, true
		}
	}
	if v, ok := r.nested(id, l); ok {
		return v, true
	}
	return r.Resolve(Lookup{Number: l.Seq, Blank: -1, Seq: l.Seq, PartIndex: l.PartIndex})
}

// raw returns the stored value for key, matched case-insensitively.
func (r *Resolver) raw(key string) any {
	if v, ok := r.bag[key]; ok {
		return v
	}
	if k, ok := r.lower[strings.ToLower(key)]; ok {
		return r.bag[k]
	}
	return nil
}

// value returns the parsed, non-empty value stored under key.
func (r *Resolver) value(key string) (any, bool) {
	v := SafeParse(r.raw(key))
	if isEmpty(v) {
		return nil, false
	}
	return v, true
}

func (r *Resolver) first(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r.value(k); ok {
			return v, true
		}
	}
	return nil, false
}

// nested searches object values for id. Only keys that mention the
// question's number or the slot's own number are searched, so a container
// answered for one question never fills another that shares item ids.
func (r *Resolver) nested(id string, l Lookup) (any, bool) {
	for _, key := range r.keys {
		tokens := numericTokens(key)
		if !containsToken(tokens, l.Number) && !containsToken(tokens, l.Seq) {
			continue
		}
		m := asMap(r.bag[key])
		if m == nil {
			continue
		}
		if v, ok := lookupKey(m, id); ok && !isEmpty(SafeParse(v)) {
			return SafeParse(v), true
		}
	}
	return nil, false
}

func numberKeys(n int) []string {
	if n <= 0 {
		return nil
	}
	return []string{fmt.Sprintf("q%d", n), fmt.Sprintf("q_%d", n)}
}

// resolveExact tries the modern key shapes: q_<N>_<b>, q<N>_<b>, the
// question container q<N> indexed by blank, then the slot's own q<Seq>.
func resolveExact(r *Resolver, l Lookup) (any, bool) {
	if l.Number <= 0 {
		return nil, false
	}
	if l.Blank < 0 {
		return r.first(numberKeys(l.Number)...)
	}

	if v, ok := r.first(
		fmt.Sprintf("q_%d_%d", l.Number, l.Blank),
		fmt.Sprintf("q%d_%d", l.Number, l.Blank),
	); ok {
		return v, true
	}

	for _, key := range numberKeys(l.Number) {
		v, ok := r.value(key)
		if !ok {
			continue
		}
		if el, ok := pickSlot(v, l); ok {
			return el, true
		}
	}

	if l.Seq > 0 && l.Seq != l.Number {
		for _, key := range numberKeys(l.Seq) {
			if v, ok := r.value(key); ok && isScalar(v) {
				return v, true
			}
		}
	}
	return nil, false
}

// pickSlot selects a slot's value out of a question-level container.
func pickSlot(v any, l Lookup) (any, bool) {
	switch t := v.(type) {
	case []any:
		if l.Blank < len(t) {
			el := SafeParse(t[l.Blank])
			return el, !isEmpty(el)
		}
		return nil, false
	case map[string]any:
		for _, k := range []string{strconv.Itoa(l.Blank), strconv.Itoa(l.Seq)} {
			if el, ok := lookupKey(t, k); ok {
				el = SafeParse(el)
				return el, !isEmpty(el)
			}
		}
		return nil, false
	default:
		return v, l.Blank == 0
	}
}

// resolveLegacy tries flat keys used by older clients.
func resolveLegacy(r *Resolver, l Lookup) (any, bool) {
	n := l.Number
	if l.Blank >= 0 && l.Seq > 0 {
		n = l.Seq
	}
	if n <= 0 {
		return nil, false
	}

	keys := make([]string, 0, len(l.Aliases)+5)
	if l.Blank <= 0 {
		keys = append(keys, l.Aliases...)
	}
	keys = append(keys,
		fmt.Sprintf("passage%d_%d", l.PartIndex+1, n),
		fmt.Sprintf("question%d", n),
		fmt.Sprintf("question_%d", n),
		fmt.Sprintf("answer_%d", n),
		strconv.Itoa(n),
	)
	return r.first(keys...)
}
