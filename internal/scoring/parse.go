package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyPayload  = errors.New("payload is empty")
	ErrNestedTooDeep = errors.New("payload is still a JSON string after the maximum number of decode rounds")
	ErrNotAnObject   = errors.New("payload is not a JSON object")
)

// decodeRounds unmarshals data into dst, first unwrapping up to
// maxParseRounds layers of JSON string encoding.
func decodeRounds(data []byte, dst any) error {
	raw := bytes.TrimSpace(data)
	for i := 0; i <= maxParseRounds; i++ {
		if len(raw) == 0 {
			return ErrEmptyPayload
		}
		if raw[0] != '"' {
			return json.Unmarshal(raw, dst)
		}
		if i == maxParseRounds {
			break
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = bytes.TrimSpace([]byte(s))
	}
	return ErrNestedTooDeep
}

// ParseTestDefinition decodes a stored test definition, tolerating
// doubly-encoded JSON.
func ParseTestDefinition(data []byte) (TestDefinition, error) {
	var def TestDefinition
	if err := decodeRounds(data, &def); err != nil {
		return TestDefinition{}, fmt.Errorf("decode test definition: %w", err)
	}
	return def, nil
}

// ParseAnswerBag decodes a submitted answer map, tolerating doubly-encoded
// JSON. Individual values are left as stored and re-parsed lazily.
func ParseAnswerBag(data []byte) (AnswerBag, error) {
	var v any
	if err := decodeRounds(data, &v); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if v == nil {
		return AnswerBag{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode answers: %w", ErrNotAnObject)
	}
	return AnswerBag(m), nil
}

// AnswerBagFromStrings builds a bag from a flat string map such as a Redis
// hash.
func AnswerBagFromStrings(m map[string]string) AnswerBag {
	bag := make(AnswerBag, len(m))
	for k, v := range m {
		bag[k] = v
	}
	return bag
}

// Merge returns a new bag holding b's entries overlaid with other's.
func (b AnswerBag) Merge(other AnswerBag) AnswerBag {
	out := make(AnswerBag, len(b)+len(other))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
