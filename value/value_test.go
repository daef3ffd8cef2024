package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		t    KeyType
		raw  any
		want Value
	}{
		{"string", TypeString, "hello", String("hello")},
		{"empty string", TypeString, "", String("")},
		{"list keeps order", TypeList, []string{"c", "a", "b"}, List{"c", "a", "b"}},
		{"list from json", TypeList, []any{"a", json.Number("2")}, List{"a", "2"}},
		{"set", TypeSet, []any{"x", "y"}, Set{"x", "y"}},
		{"zset pairs", TypeSortedSet, []any{"a", "1", "b", "2"}, SortedSet{{"a", 1}, {"b", 2}}},
		{"zset objects", TypeSortedSet, []any{
			map[string]any{"member": "a", "score": json.Number("1.5")},
		}, SortedSet{{"a", 1.5}}},
		{"hash flat, last duplicate wins", TypeHash, []string{"f", "1", "g", "2", "f", "3"}, Hash{"f": "3", "g": "2"}},
		{"hash mapping", TypeHash, map[string]any{"f": "v"}, Hash{"f": "v"}},
		{"empty list", TypeList, nil, List{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.t, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.t, got.Type())
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		t    KeyType
		raw  any
	}{
		{"odd zset", TypeSortedSet, []any{"a", "1", "b"}},
		{"bad score", TypeSortedSet, []string{"a", "high"}},
		{"odd hash", TypeHash, []string{"f"}},
		{"list of maps", TypeList, []any{map[string]any{}}},
		{"string from list", TypeString, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.t, tt.raw)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_UnknownTypeFallsBackToRaw(t *testing.T) {
	v, err := Decode("stream", map[string]any{"a": 1})
	require.NoError(t, err)

	raw, ok := v.(Raw)
	require.True(t, ok)
	assert.Equal(t, KeyType("stream"), raw.Type())
	assert.Equal(t, "{\n  \"a\": 1\n}", raw.Text)
	assert.Equal(t, 0, Len(v))
}

func TestDetectStructured(t *testing.T) {
	pretty, ok := DetectStructured(` {"name":"ada","tags":["x"]} `)
	require.True(t, ok)
	assert.Equal(t, "{\n  \"name\": \"ada\",\n  \"tags\": [\n    \"x\"\n  ]\n}", pretty)

	_, ok = DetectStructured("plain text")
	assert.False(t, ok)

	_, ok = DetectStructured("{not json")
	assert.False(t, ok)

	_, ok = DetectStructured("42")
	assert.False(t, ok)
}

func TestKeyType(t *testing.T) {
	assert.True(t, TypeSortedSet.Known())
	assert.False(t, TypeNone.Known())
	assert.Equal(t, "ZSET", TypeSortedSet.Label())
	assert.Equal(t, "Map of fields to values", TypeHash.Description())
	assert.Equal(t, "Unknown type", KeyType("stream").Description())
}

func TestLen(t *testing.T) {
	assert.Equal(t, 5, Len(String("hello")))
	assert.Equal(t, 2, Len(SortedSet{{"a", 1}, {"b", 2}}))
	assert.Equal(t, 1, Len(Hash{"f": "v"}))
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:               "0 Bytes",
		512:             "512 Bytes",
		1024:            "1 KB",
		1536:            "1.5 KB",
		1048576:         "1 MB",
		5 * 1073741824:  "5 GB",
		1234567:         "1.18 MB",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatBytes(in), "FormatBytes(%d)", in)
	}
}

func TestFormatTTL(t *testing.T) {
	assert.Equal(t, "No expiration", FormatTTL(-1))
	assert.Equal(t, "Expired", FormatTTL(-2))
	assert.Equal(t, "1 second", FormatTTL(1))
	assert.Equal(t, "90 seconds (1m 30s)", FormatTTL(90))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "1h 5s", FormatDuration(time.Hour+5*time.Second))
	assert.Equal(t, "1d 2h 3m 4s", FormatDuration(26*time.Hour+3*time.Minute+4*time.Second))
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "1.23", FormatRatio("1.234"))
	assert.Equal(t, "2.00", FormatRatio("2"))
	assert.Equal(t, "n/a", FormatRatio("n/a"))
}
