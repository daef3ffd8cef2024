// Package monitor turns Redis INFO replies into summaries, dashboard
// sections and Prometheus metrics.
package monitor

import (
	"bufio"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

const versionKey = "redis_version"

var ErrNoVersion = errors.New("server did not report a version")

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Section is one "# Name" block of an INFO reply, in reply order.
type Section struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Info is a parsed INFO reply. Sections is empty when Info was built from
// an already flattened field map.
type Info struct {
	Sections []Section
	fields   map[string]string
}

// ParseInfo reads the text of an INFO reply. Fields that appear before the
// first header land in an unnamed section.
func ParseInfo(text string) Info {
	info := Info{fields: make(map[string]string)}
	var cur *Section

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			info.Sections = append(info.Sections, Section{Name: strings.TrimSpace(strings.TrimLeft(line, "#"))})
			cur = &info.Sections[len(info.Sections)-1]
			continue
		}

		name, val, _ := strings.Cut(line, ":")
		name, val = strings.TrimSpace(name), strings.TrimSpace(val)
		if cur == nil {
			info.Sections = append(info.Sections, Section{})
			cur = &info.Sections[len(info.Sections)-1]
		}
		cur.Fields = append(cur.Fields, Field{Name: name, Value: val})
		info.fields[name] = val
	}
	return info
}

// NewInfo wraps a flat field map, as returned by gateway.ServerInfo.
func NewInfo(fields map[string]string) Info {
	m := make(map[string]string, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Info{fields: m}
}

func (i Info) Get(name string) string {
	return i.fields[name]
}

func (i Info) Has(name string) bool {
	_, ok := i.fields[name]
	return ok
}

// Fields returns a copy of every field/value pair.
func (i Info) Fields() map[string]string {
	m := make(map[string]string, len(i.fields))
	for k, v := range i.fields {
		m[k] = v
	}
	return m
}

// Section looks up a section by name, ignoring case.
func (i Info) Section(name string) (Section, bool) {
	for _, s := range i.Sections {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Section{}, false
}

// Version parses redis_version. Versions with more than three dotted parts
// are truncated to major.minor.patch.
func (i Info) Version() (*semver.Version, error) {
	v := i.Get(versionKey)
	if v == "" {
		return nil, ErrNoVersion
	}
	if parts := strings.Split(v, "."); len(parts) > 3 {
		v = strings.Join(parts[:3], ".")
	}
	return semver.NewVersion(v)
}

// Keyspace returns the per-database key counts from "dbN:keys=..,expires=.."
// lines, keyed by database number.
func (i Info) Keyspace() map[int]int64 {
	out := make(map[int]int64)
	for name, val := range i.fields {
		if !strings.HasPrefix(name, "db") {
			continue
		}
		db, err := strconv.Atoi(strings.TrimPrefix(name, "db"))
		if err != nil {
			continue
		}
		for _, kv := range strings.Split(val, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if ok && k == "keys" {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					out[db] = n
				}
			}
		}
	}
	return out
}

// databases returns the keyspace database numbers in ascending order.
func databases(ks map[int]int64) []int {
	dbs := make([]int, 0, len(ks))
	for db := range ks {
		dbs = append(dbs, db)
	}
	sort.Ints(dbs)
	return dbs
}
