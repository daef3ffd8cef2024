package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/himakhaitan/redislens/value"
)

// printRecords writes console transcript records, coloured by kind.
func printRecords(recs []engine.Record) {
	for _, r := range recs {
		switch r.Kind {
		case engine.KindCommand:
			output.Prompt(r.Text)
		case engine.KindError:
			output.Error(r.Text)
		case engine.KindInfo:
			output.Dim(r.Text)
		case engine.KindSystem:
			output.Success(r.Text)
		default:
			output.Plain(r.Text)
		}
	}
}

// printDetails shows a loaded key: a summary block followed by its value.
func printDetails(st engine.DetailState) {
	d := st.Details
	output.Heading(d.Name)
	output.Pairs([][2]string{
		{"type", fmt.Sprintf("%s (%s)", d.Type, d.Type.Description())},
		{"ttl", d.TTLText()},
		{"size", d.SizeText()},
		{"length", strconv.Itoa(value.Len(d.Value))},
	})
	if st.Structured != "" {
		output.Plain(st.Structured)
		return
	}
	output.Plain(renderValue(d.Value))
}

func renderValue(v value.Value) string {
	switch v := v.(type) {
	case value.String:
		if v == "" {
			return value.EmptyStringMarker
		}
		return string(v)
	case value.List:
		return numbered([]string(v))
	case value.Set:
		members := append([]string(nil), v...)
		sort.Strings(members)
		return numbered(members)
	case value.SortedSet:
		lines := make([]string, len(v))
		for i, m := range v {
			lines[i] = fmt.Sprintf("%s (%s)", m.Member, strconv.FormatFloat(m.Score, 'f', -1, 64))
		}
		return numbered(lines)
	case value.Hash:
		fields := make([]string, 0, len(v))
		for f := range v {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		var b strings.Builder
		for i, f := range fields {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s => %s", f, v[f])
		}
		if b.Len() == 0 {
			return value.EmptyListMarker
		}
		return b.String()
	case value.Raw:
		return v.Text
	}
	return value.NilMarker
}

func numbered(items []string) string {
	if len(items) == 0 {
		return value.EmptyListMarker
	}
	width := len(strconv.Itoa(len(items)))
	var b strings.Builder
	for i, s := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d) %s", width, i+1, s)
	}
	return b.String()
}
