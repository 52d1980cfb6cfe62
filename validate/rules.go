package validate

import (
	"fmt"
	"strings"

	"github.com/mbolis/quick-xform/expression"
)

// OrOtherWarning is reported when or_other is used in a translated form.
const OrOtherWarning = "This form uses or_other and translations, which is not recommended. " +
	"An untranslated input question label and choice label is generated for 'other'. " +
	"Learn more: https://xlsform.org/en/#specify-other)."

const identifierRule = "must begin with a letter, colon, or underscore. " +
	"Other characters can include numbers, dashes, and periods."

// Sibling is one child name within a scope.
type Sibling struct {
	Name string
	Row  int
}

// UniqueNames fails on an exact duplicate among siblings of scope and warns about
// names that differ only by case.
func UniqueNames(scope string, siblings []Sibling, w *Warnings) error {
	exact := make(map[string]bool, len(siblings))
	folded := make(map[string]string, len(siblings))
	for _, s := range siblings {
		if exact[s.Name] {
			return &Error{
				Code:    ErrDuplicateName,
				Row:     s.Row,
				Message: fmt.Sprintf("There are more than one survey elements named '%s' in the section named '%s'.", s.Name, scope),
			}
		}
		exact[s.Name] = true
		lower := strings.ToLower(s.Name)
		if prev, ok := folded[lower]; ok && w != nil {
			w.Add("The survey elements named '%s' and '%s' in the section named '%s' differ only by case.",
				prev, s.Name, scope)
			continue
		}
		folded[lower] = s.Name
	}
	return nil
}

// RepeatNames fails when a repeat shares its name with another repeat or with the
// survey root.
func RepeatNames(root string, repeats []Sibling) error {
	seen := make(map[string]bool, len(repeats))
	for _, r := range repeats {
		if r.Name == root {
			return &Error{
				Code: ErrDuplicateName,
				Row:  r.Row,
				Message: fmt.Sprintf("The name '%s' is the same as the form name. Use a different section name "+
					"(or change the form name in the 'name' column of the settings sheet).", r.Name),
			}
		}
		if seen[r.Name] {
			return &Error{
				Code:    ErrDuplicateName,
				Row:     r.Row,
				Message: fmt.Sprintf("There are two sections with the name %s.", r.Name),
			}
		}
		seen[r.Name] = true
	}
	return nil
}

// Name fails when name is not usable as an XML element name.
func Name(name string, row int) error {
	if expression.IsNCName(name) {
		return nil
	}
	return RowErrorf(ErrInvalidName, row, "Invalid question name '%s'. Names %s", name, identifierRule)
}

// IdentifierRule is the human readable NCName rule.
func IdentifierRule() string {
	return identifierRule
}

// DuplicateChoices describes the repeated option names of list, or returns ""
// when there are none or duplicates are allowed.
func DuplicateChoices(list string, names []string, allow bool) string {
	if allow {
		return ""
	}
	count := make(map[string]int, len(names))
	var dupes []string
	for _, n := range names {
		count[n]++
		if count[n] == 2 {
			dupes = append(dupes, "'"+n+"'")
		}
	}
	if len(dupes) == 0 {
		return ""
	}
	return fmt.Sprintf("The name column for the '%s' choice list contains these duplicates: %s. "+
		"Duplicate names will be impossible to identify in analysis unless a previous value in a "+
		"cascading select differentiates them. If this is intentional, you can set the "+
		"allow_choice_duplicates setting to 'yes'. Learn more: https://xlsform.org/#choice-names.",
		list, strings.Join(dupes, ", "))
}

// MissingTranslation formats the warning for one (sheet, language, column) gap.
func MissingTranslation(sheet, lang, column string, names []string) string {
	noun := "elements"
	if len(names) == 1 {
		noun = "element"
	}
	return fmt.Sprintf("Language '%s' is missing the %s %s column (%d %s: %s).",
		lang, sheet, column, len(names), noun, strings.Join(names, ", "))
}

// UnknownHeaders lists top level keys of row that are neither known nor grouped.
func UnknownHeaders(row map[string]any, known map[string]bool) []string {
	var out []string
	for key := range row {
		if known[key] || strings.HasPrefix(key, "_") {
			continue
		}
		out = append(out, key)
	}
	return out
}
