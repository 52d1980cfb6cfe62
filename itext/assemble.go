package itext

import (
	"sort"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

// Translatable text kinds.
const (
	KindLabel             = "label"
	KindHint              = "hint"
	KindGuidanceHint      = "guidance_hint"
	KindConstraintMessage = "constraint_message"
	KindRequiredMessage   = "required_message"
)

var (
	surveyKinds = append([]string{KindLabel, KindHint, KindGuidanceHint, KindConstraintMessage, KindRequiredMessage},
		aliases.MediaKinds...)
	choiceKinds = append([]string{KindLabel}, aliases.MediaKinds...)
)

var mediaPrefix = map[string]string{
	FormImage:    "jr://images/",
	FormBigImage: "jr://images/",
	FormAudio:    "jr://audio/",
	FormVideo:    "jr://video/",
}

var formOrder = map[string]int{
	FormLong:     0,
	FormGuidance: 1,
	FormImage:    2,
	FormBigImage: 3,
	FormAudio:    4,
	FormVideo:    5,
}

// item is a translatable source: a survey element or a choice option.
type item struct {
	sheet  string
	name   string
	path   string
	list   string
	index  int
	texts  map[string]survey.Text
	markup map[string]survey.Text
	// kinds written to the table
	itext map[string]bool
}

func (it *item) emitted(kinds ...string) {
	if it.itext == nil {
		it.itext = map[string]bool{}
	}
	for _, kind := range kinds {
		if len(it.texts[kind]) > 0 {
			it.itext[kind] = true
		}
	}
}

func (it *item) media() bool {
	for _, kind := range aliases.MediaKinds {
		if len(it.texts[kind]) > 0 {
			return true
		}
	}
	return false
}

type assembler struct {
	s       *survey.Survey
	t       *Table
	items   []*item
	seen    map[string]map[string]bool
	dynamic map[string]bool
	langs   []string
}

// Assemble builds the translation table of a resolved survey. The returned
// warnings name the translations the workbook leaves out.
func Assemble(s *survey.Survey) (*Table, []string) {
	a := &assembler{s: s, seen: map[string]map[string]bool{}, dynamic: map[string]bool{}}
	lists := a.collect()
	a.t = newTable(a.defaultLanguage())
	a.t.Lists = lists
	a.choiceMedia()
	for _, it := range a.items {
		for _, kind := range a.kinds(it) {
			key := it.sheet + "/" + kind
			if a.seen[key] == nil {
				a.seen[key] = map[string]bool{}
			}
			for _, lang := range languages(it.texts[kind], a.t.Default) {
				a.seen[key][lang] = true
			}
			if it.markup[kind] != nil {
				a.dynamic[key] = true
			}
		}
	}
	for _, it := range a.items {
		if it.sheet == aliases.SheetChoices {
			a.option(it)
		} else {
			a.element(it)
		}
	}
	a.fill()

	var w validate.Warnings
	a.missing(&w, aliases.SheetSurvey)
	a.missing(&w, aliases.SheetChoices)
	return a.t, w.List()
}

func (a *assembler) kinds(it *item) []string {
	if it.sheet == aliases.SheetChoices {
		return choiceKinds
	}
	return surveyKinds
}

// collect gathers the translatable items in document order, choice options
// of the lists in use first. It returns the lists needing an instance.
func (a *assembler) collect() []string {
	var (
		order    []string
		versions = map[string]*survey.ChoiceList{}
		lists    []string
		filtered = map[string]bool{}
	)
	var elements []*item
	for _, e := range a.s.Elements() {
		switch e.(type) {
		case *survey.EntityDeclaration, *survey.ExternalInstance:
			continue
		}
		b := e.Node()
		it := &item{
			sheet: aliases.SheetSurvey,
			name:  b.Name,
			path:  b.Path(),
			texts: map[string]survey.Text{
				KindLabel:             b.Label,
				KindHint:              b.Hint,
				KindGuidanceHint:      b.GuidanceHint,
				KindConstraintMessage: b.ConstraintMessage,
				KindRequiredMessage:   b.RequiredMessage,
			},
			markup: b.Resolved.Text,
		}
		for kind, t := range b.Media {
			it.texts[kind] = t
		}
		elements = append(elements, it)

		q, ok := e.(*survey.Question)
		if !ok || q.Choices == nil || !q.Control.IsSelect() {
			continue
		}
		name := q.Choices.Name
		prev, known := versions[name]
		if !known {
			order = append(order, name)
		}
		if !known || len(q.Choices.Options) > len(prev.Options) {
			versions[name] = q.Choices
		}
		if (q.ChoiceFilter != "" || q.Parameters["randomize"] == "true") && !filtered[name] {
			filtered[name] = true
			lists = append(lists, name)
		}
	}

	for _, name := range order {
		labels := a.s.ChoiceLabels[name]
		for i, o := range versions[name].Options {
			it := &item{
				sheet: aliases.SheetChoices,
				name:  o.Name,
				list:  name,
				index: i,
				texts: map[string]survey.Text{KindLabel: o.Label},
			}
			for kind, t := range o.Media {
				it.texts[kind] = t
			}
			if i < len(labels) && labels[i] != nil {
				it.markup = map[string]survey.Text{KindLabel: labels[i]}
			}
			a.items = append(a.items, it)
		}
	}
	a.items = append(a.items, elements...)
	return lists
}

// defaultLanguage is the declared default language, else the first language
// met in the workbook.
func (a *assembler) defaultLanguage() string {
	if a.s.DefaultLanguage != "" {
		return a.s.DefaultLanguage
	}
	for _, it := range a.items {
		for _, kind := range a.kinds(it) {
			if langs := it.texts[kind].Languages(); len(langs) > 0 {
				return langs[0]
			}
		}
	}
	return FallbackLanguage
}

// choiceMedia marks the choice lists whose options need itext whatever
// the languages in use.
func (a *assembler) choiceMedia() {
	for _, it := range a.items {
		if it.sheet == aliases.SheetChoices && (it.media() || it.markup != nil) {
			a.t.choiceItext[it.list] = true
		}
	}
}

// languages returns the languages t has a value for. The untranslated value
// counts for def unless def is given explicitly.
func languages(t survey.Text, def string) []string {
	var out []string
	if _, ok := t[""]; ok {
		if _, explicit := t[def]; !explicit {
			out = append(out, def)
		}
	}
	return append(out, t.Languages()...)
}

// indirect reports whether every value of kind on sheet is referenced by id.
func (a *assembler) indirect(sheet, kind string) bool {
	key := sheet + "/" + kind
	return kind == KindGuidanceHint || len(a.seen[key]) > 1 || a.dynamic[key]
}

func (a *assembler) element(it *item) {
	media := it.media()
	if media || (len(it.texts[KindLabel]) > 0 && a.indirect(it.sheet, KindLabel)) {
		e := a.t.entry(TextID(it.path, KindLabel))
		a.long(e, it, KindLabel, FormLong)
		a.media(e, it)
		it.emitted(KindLabel)
		it.emitted(aliases.MediaKinds...)
	}
	guidance := len(it.texts[KindGuidanceHint]) > 0
	if guidance || (len(it.texts[KindHint]) > 0 && a.indirect(it.sheet, KindHint)) {
		e := a.t.entry(TextID(it.path, KindHint))
		a.long(e, it, KindHint, FormLong)
		a.long(e, it, KindGuidanceHint, FormGuidance)
		it.emitted(KindHint, KindGuidanceHint)
	}
	for _, kind := range []string{KindConstraintMessage, KindRequiredMessage} {
		if len(it.texts[kind]) > 0 && a.indirect(it.sheet, kind) {
			a.long(a.t.entry(TextID(it.path, kind)), it, kind, FormLong)
			it.emitted(kind)
		}
	}
}

func (a *assembler) option(it *item) {
	if a.indirect(it.sheet, KindLabel) {
		a.t.choiceItext[it.list] = true
	}
	if !a.t.choiceItext[it.list] {
		return
	}
	e := a.t.entry(ChoiceID(it.list, it.index))
	a.long(e, it, KindLabel, FormLong)
	a.media(e, it)
	it.emitted(KindLabel)
	it.emitted(aliases.MediaKinds...)
}

func (a *assembler) long(e *Entry, it *item, kind, form string) {
	src := it.texts[kind]
	markup := it.markup[kind]
	for _, lang := range languages(src, a.t.Default) {
		if m, ok := markup.Value(lang, a.t.Default); ok {
			e.set(lang, Value{Form: form, Text: m, Markup: true})
		} else {
			v, _ := src.Value(lang, a.t.Default)
			e.set(lang, Value{Form: form, Text: v})
		}
		a.language(lang)
	}
}

func (a *assembler) media(e *Entry, it *item) {
	for _, kind := range aliases.MediaKinds {
		src := it.texts[kind]
		for _, lang := range languages(src, a.t.Default) {
			v, _ := src.Value(lang, a.t.Default)
			if v == "" || v == Placeholder {
				continue
			}
			e.set(lang, Value{Form: kind, Text: mediaPrefix[kind] + v})
			a.language(lang)
		}
	}
}

func (a *assembler) language(lang string) {
	for _, l := range a.langs {
		if l == lang {
			return
		}
	}
	a.langs = append(a.langs, lang)
}

// fill sets the placeholder on every text form an entry has in one language
// but lacks in another. Media are left out.
func (a *assembler) fill() {
	if len(a.t.Entries) == 0 {
		return
	}
	langs := []string{a.t.Default}
	for _, l := range a.langs {
		if l != a.t.Default {
			langs = append(langs, l)
		}
	}
	a.t.Languages = langs

	for _, e := range a.t.Entries {
		forms := map[string]bool{}
		for _, values := range e.Values {
			for _, v := range values {
				if v.Form == FormLong || v.Form == FormGuidance {
					forms[v.Form] = true
				}
			}
		}
		for _, lang := range langs {
			for _, form := range []string{FormLong, FormGuidance} {
				if !forms[form] {
					continue
				}
				if _, ok := e.Get(lang, form); !ok {
					e.set(lang, Value{Form: form, Text: Placeholder})
				}
			}
			values := e.Values[lang]
			sort.SliceStable(values, func(i, j int) bool {
				return formOrder[values[i].Form] < formOrder[values[j].Form]
			})
		}
	}
}

// missing reports, per language and column of sheet, the items whose column
// went to the translation table without a value in that language.
func (a *assembler) missing(w *validate.Warnings, sheet string) {
	if len(a.t.Languages) < 2 {
		return
	}
	kinds := surveyKinds
	if sheet == aliases.SheetChoices {
		kinds = choiceKinds
	}
	for _, lang := range a.t.Languages {
		for _, kind := range kinds {
			var names []string
			for _, it := range a.items {
				if it.sheet != sheet || !it.itext[kind] {
					continue
				}
				if _, ok := it.texts[kind].Value(lang, a.t.Default); !ok {
					names = append(names, it.name)
				}
			}
			if len(names) > 0 {
				w.Add("%s", validate.MissingTranslation(sheet, lang, kind, names))
			}
		}
	}
}
