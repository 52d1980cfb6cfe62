// Package itext assembles the multilingual text bundle of a resolved survey
// and decides, per text kind, whether text is inlined or referenced by id.
package itext

import (
	"strconv"

	"github.com/mbolis/quick-xform/survey"
)

// FallbackLanguage names the language of untranslated text when the survey
// declares none and no text is translated.
const FallbackLanguage = "default"

// Value forms. Long text has no form.
const (
	FormLong     = ""
	FormGuidance = "guidance"
	FormImage    = "image"
	FormBigImage = "big-image"
	FormAudio    = "audio"
	FormVideo    = "video"
)

// Placeholder stands for a translation the workbook does not supply.
const Placeholder = "-"

// Value is one form of an entry in one language.
type Value struct {
	Form string
	Text string
	// Markup is set when Text holds XML markup, such as output elements.
	Markup bool
}

// Entry is a text id with its values per language.
type Entry struct {
	ID     string
	Values map[string][]Value
}

// Table is the translation table of a survey.
type Table struct {
	// Default is the default language. Untranslated text belongs to it.
	Default string
	// Languages lists the languages with entries, the default first.
	Languages []string
	Entries   []*Entry
	// Lists names the choice lists emitted as secondary instances, in order
	// of first use.
	Lists []string

	byID        map[string]*Entry
	choiceItext map[string]bool
}

func newTable(def string) *Table {
	return &Table{Default: def, byID: map[string]*Entry{}, choiceItext: map[string]bool{}}
}

// TextID returns the id of the text of kind on the element at path.
func TextID(path, kind string) string {
	switch kind {
	case KindGuidanceHint:
		kind = KindHint
	case KindConstraintMessage:
		kind = "jr:constraintMsg"
	case KindRequiredMessage:
		kind = "jr:requiredMsg"
	}
	return path + ":" + kind
}

// ChoiceID returns the id of the i-th option of list.
func ChoiceID(list string, i int) string {
	return list + "-" + strconv.Itoa(i)
}

// Ref returns the jr:itext() call for id, or "" when id has no entry.
func (t *Table) Ref(id string) string {
	if _, ok := t.byID[id]; !ok {
		return ""
	}
	return "jr:itext('" + id + "')"
}

// Has reports whether id has an entry.
func (t *Table) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// Lookup returns the entry for id.
func (t *Table) Lookup(id string) (*Entry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// Empty reports whether the survey needs no itext block.
func (t *Table) Empty() bool {
	return len(t.Entries) == 0
}

// ChoicesUseItext reports whether the options of list are labelled by id.
func (t *Table) ChoicesUseItext(list string) bool {
	return t.choiceItext[list]
}

// UsesInstance reports whether list is emitted as a secondary instance.
func (t *Table) UsesInstance(list string) bool {
	for _, l := range t.Lists {
		if l == list {
			return true
		}
	}
	return false
}

// Inline returns the value of text shown when it is not referenced by id.
func (t *Table) Inline(text survey.Text) string {
	if v, ok := text.Value(t.Default, t.Default); ok {
		return v
	}
	for _, lang := range t.Languages {
		if v, ok := text[lang]; ok {
			return v
		}
	}
	return text.Any()
}

func (t *Table) entry(id string) *Entry {
	if e, ok := t.byID[id]; ok {
		return e
	}
	e := &Entry{ID: id, Values: map[string][]Value{}}
	t.byID[id] = e
	t.Entries = append(t.Entries, e)
	return e
}

// set stores v in lang, replacing a value of the same form.
func (e *Entry) set(lang string, v Value) {
	for i, old := range e.Values[lang] {
		if old.Form == v.Form {
			e.Values[lang][i] = v
			return
		}
	}
	e.Values[lang] = append(e.Values[lang], v)
}

// Get returns the value of form in lang.
func (e *Entry) Get(lang, form string) (Value, bool) {
	for _, v := range e.Values[lang] {
		if v.Form == form {
			return v, true
		}
	}
	return Value{}, false
}
