package builder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
)

// entry is one non empty cell with its dealiased, grouped header path.
type entry struct {
	path   []string
	value  string
	header string
}

// record is one sheet row after header processing. num is the workbook row
// number, header row included.
type record struct {
	num     int
	entries []entry
}

func (r *record) get(path ...string) string {
	for _, e := range r.entries {
		if pathEqual(e.path, path) {
			return e.value
		}
	}
	return ""
}

func (r *record) has(key string) bool {
	for _, e := range r.entries {
		if e.path[0] == key {
			return true
		}
	}
	return false
}

func (r *record) set(value string, path ...string) {
	for i, e := range r.entries {
		if pathEqual(e.path, path) {
			r.entries[i].value = value
			return
		}
	}
	r.entries = append(r.entries, entry{path: path, value: value, header: strings.Join(path, "::")})
}

func (r *record) remove(key string) string {
	var value string
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.path[0] == key {
			if len(e.path) == 1 {
				value = e.value
			}
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return value
}

// text collects the per language values stored under key.
func (r *record) text(key ...string) survey.Text {
	var t survey.Text
	for _, e := range r.entries {
		if len(e.path) < len(key) || !pathEqual(e.path[:len(key)], key) {
			continue
		}
		lang := strings.Join(e.path[len(key):], "::")
		if t == nil {
			t = survey.Text{}
		}
		t[lang] = e.value
	}
	return t
}

// group collects the attributes stored under key, e.g. bind::relevant.
func (r *record) group(key string) map[string]string {
	var m map[string]string
	for _, e := range r.entries {
		if e.path[0] != key || len(e.path) < 2 {
			continue
		}
		if m == nil {
			m = map[string]string{}
		}
		m[strings.Join(e.path[1:], "::")] = e.value
	}
	return m
}

func (r *record) String() string {
	parts := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		parts = append(parts, "'"+strings.Join(e.path, "::")+"': '"+e.value+"'")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var smartQuotes = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)

var spaceRun = regexp.MustCompile(` +`)

type cleaner func(string) string

func replaceSmartQuotes(s string) string {
	return smartQuotes.Replace(s)
}

func cleanText(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(smartQuotes.Replace(s)), " ")
}

// splitHeader splits a column header into its grouping tokens. Without "::"
// anywhere in the workbook, single colons group, keeping jr:x together.
func splitHeader(header string, doubleColons bool) []string {
	sep := ":"
	if doubleColons {
		sep = "::"
	}
	tokens := strings.Split(header, sep)
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	if doubleColons {
		return tokens
	}
	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i] == "jr" {
			tokens[i] = "jr:" + tokens[i+1]
			tokens = append(tokens[:i+1], tokens[i+2:]...)
			break
		}
	}
	return tokens
}

// groupSheet dealiases and groups the headers of every row.
func groupSheet(rows []Row, table map[string][]string, doubleColons bool, clean cleaner) []*record {
	out := make([]*record, 0, len(rows))
	for i, row := range rows {
		rec := &record{num: i + 2}
		headers := make([]string, 0, len(row))
		for h := range row {
			headers = append(headers, h)
		}
		sort.Strings(headers)
		for _, h := range headers {
			tokens := splitHeader(h, doubleColons)
			path := aliases.Dealias(table, strings.Join(tokens, "::"))
			flattenCell(rec, h, path, row[h], clean)
		}
		out = append(out, rec)
	}
	return out
}

func flattenCell(rec *record, header string, path []string, v any, clean cleaner) {
	if r, ok := v.(Row); ok {
		v = map[string]any(r)
	}
	if m, ok := v.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sub := append(append([]string(nil), path...), k)
			if k == survey.DefaultLanguageKey && len(path) > 0 && isTranslatable(path[len(path)-1]) {
				sub = path
			}
			flattenCell(rec, header+"::"+k, sub, m[k], clean)
		}
		return
	}
	s, ok := cellString(v)
	if !ok {
		return
	}
	if clean != nil {
		s = clean(s)
	}
	if s == "" {
		return
	}
	rec.entries = append(rec.entries, entry{path: path, value: s, header: header})
}

// isTranslatable reports whether key holds per language text, so that a
// nested "default" key stands for the untranslated value.
func isTranslatable(key string) bool {
	for _, k := range aliases.SurveyTranslatable {
		if k == key {
			return true
		}
	}
	return false
}
