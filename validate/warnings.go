package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Warnings collects non fatal findings in the order they were made.
type Warnings struct {
	list []string
	seen map[string]bool
}

// Add records a warning.
func (w *Warnings) Add(format string, args ...any) {
	w.list = append(w.list, fmt.Sprintf(format, args...))
}

// AddRow records a warning bound to a survey row.
func (w *Warnings) AddRow(row int, format string, args ...any) {
	w.list = append(w.list, fmt.Sprintf("[row : %d] ", row)+fmt.Sprintf(format, args...))
}

// AddOnce records a warning unless an identical one was already recorded.
func (w *Warnings) AddOnce(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.seen == nil {
		w.seen = map[string]bool{}
	}
	if w.seen[msg] {
		return
	}
	w.seen[msg] = true
	w.list = append(w.list, msg)
}

// Merge appends other's warnings.
func (w *Warnings) Merge(other []string) {
	w.list = append(w.list, other...)
}

// List returns the collected warnings.
func (w *Warnings) List() []string {
	return w.list
}

// Len reports the number of warnings.
func (w *Warnings) Len() int {
	return len(w.list)
}

const suppressSpelling = " If you do not mean to include a sheet, to suppress this message, " +
	"prefix the sheet name with an underscore. For example 'setting' becomes '_setting'."

// SheetMisspellings describes workbook sheets whose name is within edit distance 2
// of key. It returns "" when there are none. Supported and underscore prefixed
// sheets are never suspects.
func SheetMisspellings(key string, sheets []string, supported []string) string {
	var candidates []string
	for _, name := range sheets {
		if strings.HasPrefix(name, "_") || contains(supported, name) {
			continue
		}
		if fuzzy.LevenshteinDistance(strings.ToLower(name), key) <= 2 {
			candidates = append(candidates, "'"+name+"'")
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return fmt.Sprintf("When looking for a sheet named '%s', the following sheets with similar names were found: %s.",
		key, strings.Join(candidates, ", "))
}

// SheetMisspellingWarning is SheetMisspellings with the suppression hint appended.
func SheetMisspellingWarning(key string, sheets []string, supported []string) string {
	msg := SheetMisspellings(key, sheets, supported)
	if msg == "" {
		return ""
	}
	return msg + suppressSpelling
}

// Suggest returns the known names within edit distance 2 of target, closest
// first, at most limit.
func Suggest(target string, known []string, limit int) []string {
	known = append([]string(nil), known...)
	sort.Strings(known)
	target = strings.ToLower(target)
	var ranks fuzzy.Ranks
	for _, name := range known {
		if d := fuzzy.LevenshteinDistance(target, strings.ToLower(name)); d <= 2 {
			ranks = append(ranks, fuzzy.Rank{Source: target, Target: name, Distance: d})
		}
	}
	sort.Stable(ranks)
	var out []string
	for _, r := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, r.Target)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
