package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	NilMarker         = "(nil)"
	EmptyStringMarker = "(empty string)"
	EmptyListMarker   = "(empty list)"
)

// Reply is a command result converted once into a finite tree, so rendering
// never has to inspect dynamic types.
type Reply interface {
	isReply()
}

type (
	Nil   struct{}
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Array []Reply
	// Map keeps entries sorted by field.
	Map []MapEntry
)

type MapEntry struct {
	Field string
	Value Reply
}

func (Nil) isReply()   {}
func (Str) isReply()   {}
func (Int) isReply()   {}
func (Float) isReply() {}
func (Bool) isReply()  {}
func (Array) isReply() {}
func (Map) isReply()   {}

// ToReply converts a result as produced by go-redis or by JSON decoding.
func ToReply(raw any) Reply {
	switch v := raw.(type) {
	case nil:
		return Nil{}
	case Reply:
		return v
	case string:
		return Str(v)
	case []byte:
		return Str(v)
	case int64:
		return Int(v)
	case int:
		return Int(v)
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return Float(f)
		}
		return Str(v.String())
	case []any:
		out := make(Array, len(v))
		for i, it := range v {
			out[i] = ToReply(it)
		}
		return out
	case []string:
		out := make(Array, len(v))
		for i, it := range v {
			out[i] = Str(it)
		}
		return out
	case map[string]any:
		out := make(Map, 0, len(v))
		for k, it := range v {
			out = append(out, MapEntry{Field: k, Value: ToReply(it)})
		}
		return sortMap(out)
	case map[string]string:
		out := make(Map, 0, len(v))
		for k, it := range v {
			out = append(out, MapEntry{Field: k, Value: Str(it)})
		}
		return sortMap(out)
	case map[any]any:
		out := make(Map, 0, len(v))
		for k, it := range v {
			out = append(out, MapEntry{Field: fmt.Sprint(k), Value: ToReply(it)})
		}
		return sortMap(out)
	case error:
		return Str(v.Error())
	}
	return Str(fmt.Sprint(raw))
}

func sortMap(m Map) Map {
	sort.Slice(m, func(i, j int) bool { return m[i].Field < m[j].Field })
	return m
}

// FormatReply renders r the way redis-cli does: numbered list entries,
// "field => value" map entries, and explicit markers for nil and empty
// strings.
func FormatReply(r Reply) string {
	var b strings.Builder
	writeReply(&b, r, "")
	return b.String()
}

func writeReply(b *strings.Builder, r Reply, indent string) {
	switch v := r.(type) {
	case nil, Nil:
		b.WriteString(NilMarker)
	case Str:
		if v == "" {
			b.WriteString(EmptyStringMarker)
			return
		}
		b.WriteString(string(v))
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 64))
	case Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Array:
		if len(v) == 0 {
			b.WriteString(EmptyListMarker)
			return
		}
		width := len(strconv.Itoa(len(v)))
		for i, it := range v {
			if i > 0 {
				b.WriteString("\n")
				b.WriteString(indent)
			}
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			b.WriteString(prefix)
			writeReply(b, it, indent+strings.Repeat(" ", len(prefix)))
		}
	case Map:
		if len(v) == 0 {
			b.WriteString(EmptyListMarker)
			return
		}
		for i, e := range v {
			if i > 0 {
				b.WriteString("\n")
				b.WriteString(indent)
			}
			prefix := e.Field + " => "
			b.WriteString(prefix)
			writeReply(b, e.Value, indent+"  ")
		}
	}
}
