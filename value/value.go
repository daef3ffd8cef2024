// Package value decodes raw gateway payloads into typed values and renders
// them for display.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a payload does not have the shape its type
// tag promises, e.g. an odd-length sorted set.
var ErrMalformed = errors.New("malformed payload")

// KeyType is the gateway's type tag for a key.
type KeyType string

const (
	TypeString    KeyType = "string"
	TypeList      KeyType = "list"
	TypeSet       KeyType = "set"
	TypeSortedSet KeyType = "zset"
	TypeHash      KeyType = "hash"
	// TypeNone is what TYPE reports for a key that does not exist.
	TypeNone KeyType = "none"
)

func (t KeyType) Known() bool {
	switch t {
	case TypeString, TypeList, TypeSet, TypeSortedSet, TypeHash:
		return true
	}
	return false
}

// Label is a short tag suitable for listings.
func (t KeyType) Label() string {
	switch t {
	case TypeString:
		return "STR"
	case TypeList:
		return "LIST"
	case TypeSet:
		return "SET"
	case TypeSortedSet:
		return "ZSET"
	case TypeHash:
		return "HASH"
	case "":
		return "?"
	}
	return string(t)
}

func (t KeyType) Description() string {
	switch t {
	case TypeString:
		return "String value"
	case TypeList:
		return "Ordered list of values"
	case TypeSet:
		return "Unordered set of unique values"
	case TypeSortedSet:
		return "Set of members ordered by score"
	case TypeHash:
		return "Map of fields to values"
	case TypeNone:
		return "Key does not exist"
	}
	return "Unknown type"
}

// Value is a decoded key value. The variants are String, List, Set,
// SortedSet, Hash and Raw.
type Value interface {
	Type() KeyType
	isValue()
}

type String string

type List []string

type Set []string

type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

type SortedSet []ScoredMember

type Hash map[string]string

// Raw holds a payload whose type tag was not recognised. Text is an indented
// JSON rendering of Data.
type Raw struct {
	Tag  KeyType
	Data any
	Text string
}

func (String) Type() KeyType    { return TypeString }
func (List) Type() KeyType      { return TypeList }
func (Set) Type() KeyType       { return TypeSet }
func (SortedSet) Type() KeyType { return TypeSortedSet }
func (Hash) Type() KeyType      { return TypeHash }
func (r Raw) Type() KeyType     { return r.Tag }

func (String) isValue()    {}
func (List) isValue()      {}
func (Set) isValue()       {}
func (SortedSet) isValue() {}
func (Hash) isValue()      {}
func (Raw) isValue()       {}

// Len is the number of elements in v; a string counts its bytes.
func Len(v Value) int {
	switch v := v.(type) {
	case String:
		return len(v)
	case List:
		return len(v)
	case Set:
		return len(v)
	case SortedSet:
		return len(v)
	case Hash:
		return len(v)
	}
	return 0
}

// Decode turns a raw gateway payload into the Value for t. Unrecognised tags
// never fail and fall back to Raw.
func Decode(t KeyType, raw any) (Value, error) {
	switch t {
	case TypeString:
		s, err := scalar(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: string: %w", ErrMalformed, err)
		}
		return String(s), nil
	case TypeList:
		items, err := toStrings(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: list: %w", ErrMalformed, err)
		}
		return List(items), nil
	case TypeSet:
		items, err := toStrings(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: set: %w", ErrMalformed, err)
		}
		return Set(items), nil
	case TypeSortedSet:
		return decodeSortedSet(raw)
	case TypeHash:
		return decodeHash(raw)
	}
	return Raw{Tag: t, Data: raw, Text: pretty(raw)}, nil
}

func decodeSortedSet(raw any) (Value, error) {
	if pairs, ok := raw.([]ScoredMember); ok {
		return SortedSet(pairs), nil
	}
	if items, ok := raw.([]any); ok && len(items) > 0 {
		if _, isMap := items[0].(map[string]any); isMap {
			return sortedSetFromObjects(items)
		}
	}

	flat, err := toStrings(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: zset: %w", ErrMalformed, err)
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: zset: odd number of elements (%d)", ErrMalformed, len(flat))
	}
	out := make(SortedSet, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		score, err := strconv.ParseFloat(flat[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: zset: score %q for member %q", ErrMalformed, flat[i+1], flat[i])
		}
		out = append(out, ScoredMember{Member: flat[i], Score: score})
	}
	return out, nil
}

func sortedSetFromObjects(items []any) (Value, error) {
	out := make(SortedSet, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: zset: mixed pair encoding", ErrMalformed)
		}
		member, err := scalar(m["member"])
		if err != nil {
			return nil, fmt.Errorf("%w: zset: %w", ErrMalformed, err)
		}
		s, err := scalar(m["score"])
		if err != nil {
			return nil, fmt.Errorf("%w: zset: %w", ErrMalformed, err)
		}
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: zset: score %q for member %q", ErrMalformed, s, member)
		}
		out = append(out, ScoredMember{Member: member, Score: score})
	}
	return out, nil
}

func decodeHash(raw any) (Value, error) {
	switch m := raw.(type) {
	case map[string]string:
		out := make(Hash, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	case map[string]any:
		out := make(Hash, len(m))
		for k, v := range m {
			s, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("%w: hash field %q: %w", ErrMalformed, k, err)
			}
			out[k] = s
		}
		return out, nil
	case map[any]any:
		out := make(Hash, len(m))
		for k, v := range m {
			s, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("%w: hash field %v: %w", ErrMalformed, k, err)
			}
			out[fmt.Sprint(k)] = s
		}
		return out, nil
	}

	flat, err := toStrings(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: hash: %w", ErrMalformed, err)
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: hash: odd number of elements (%d)", ErrMalformed, len(flat))
	}
	out := make(Hash, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		out[flat[i]] = flat[i+1]
	}
	return out, nil
}

// toStrings accepts the sequence shapes produced by go-redis and by JSON
// decoding.
func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, it := range v {
			s, err := scalar(it)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a sequence, got %T", raw)
}

func scalar(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("expected a scalar, got %T", raw)
}

func pretty(raw any) string {
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(b)
}

// DetectStructured reports whether s holds a JSON object or array and, if
// so, returns an indented rendering of it. s itself is never modified.
func DetectStructured(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return "", false
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(b), true
}
