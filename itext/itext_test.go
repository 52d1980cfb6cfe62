package itext

import (
	"reflect"
	"testing"

	"github.com/mbolis/quick-xform/builder"
	"github.com/mbolis/quick-xform/resolve"
)

type row = builder.Row

func assemble(t *testing.T, wb builder.Workbook) (*Table, []string) {
	t.Helper()
	s, _, err := builder.Build(wb, builder.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := resolve.Resolve(s); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return Assemble(s)
}

func value(t *testing.T, table *Table, id, lang, form string) Value {
	t.Helper()
	e, ok := table.Lookup(id)
	if !ok {
		t.Fatalf("Lookup(%q) missing", id)
	}
	v, ok := e.Get(lang, form)
	if !ok {
		t.Fatalf("%s has no %q form in %q: %v", id, form, lang, e.Values)
	}
	return v
}

func TestMissingTranslations(t *testing.T) {
	table, warnings := assemble(t, builder.Workbook{"survey": {
		{"type": "text", "name": "a", "label": map[string]any{"en": "A", "fr": "Ah"}},
		{"type": "text", "name": "b", "label": "B"},
	}})
	if !reflect.DeepEqual(table.Languages, []string{"en", "fr"}) {
		t.Fatalf("Languages = %v, want [en fr]", table.Languages)
	}
	tests := []struct {
		id, lang, want string
	}{
		{"/data/a:label", "en", "A"},
		{"/data/a:label", "fr", "Ah"},
		{"/data/b:label", "en", "B"},
		{"/data/b:label", "fr", "-"},
	}
	for _, tt := range tests {
		if got := value(t, table, tt.id, tt.lang, FormLong).Text; got != tt.want {
			t.Fatalf("%s[%s] = %q, want %q", tt.id, tt.lang, got, tt.want)
		}
	}
	want := []string{"Language 'fr' is missing the survey label column (1 element: b)."}
	if !reflect.DeepEqual(warnings, want) {
		t.Fatalf("warnings = %q, want %q", warnings, want)
	}
}

func TestMonolingual(t *testing.T) {
	table, warnings := assemble(t, builder.Workbook{"survey": {
		{"type": "text", "name": "a", "label": "A", "hint": "H"},
		{"type": "integer", "name": "b", "label": "B", "constraint": ". > 0", "constraint_message": "Positive"},
	}})
	if !table.Empty() {
		t.Fatalf("Entries = %v, want none", table.Entries)
	}
	if table.Default != FallbackLanguage {
		t.Fatalf("Default = %q, want %q", table.Default, FallbackLanguage)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %q, want none", warnings)
	}
	if got := table.Ref(TextID("/data/a", KindLabel)); got != "" {
		t.Fatalf("Ref() = %q, want empty", got)
	}
}

func TestSingleExplicitLanguageIsInlined(t *testing.T) {
	table, _ := assemble(t, builder.Workbook{"survey": {
		{"type": "text", "name": "a", "label::en": "A"},
		{"type": "text", "name": "b", "label": "B"},
	}})
	if !table.Empty() || table.Default != "en" {
		t.Fatalf("Default = %q, Entries = %d, want en and none", table.Default, len(table.Entries))
	}
	if got := table.Inline(map[string]string{"": "B"}); got != "B" {
		t.Fatalf("Inline() = %q, want B", got)
	}
}

func TestDynamicTextUsesItext(t *testing.T) {
	table, _ := assemble(t, builder.Workbook{"survey": {
		{"type": "text", "name": "a", "label": "A"},
		{"type": "text", "name": "b", "label": "Hi ${a} & bye", "hint": "plain"},
	}})
	v := value(t, table, "/data/b:label", FallbackLanguage, FormLong)
	if want := `Hi <output value="../a"/> &amp; bye`; v.Text != want || !v.Markup {
		t.Fatalf("b label = %+v, want markup %q", v, want)
	}
	if got := value(t, table, "/data/a:label", FallbackLanguage, FormLong); got.Text != "A" || got.Markup {
		t.Fatalf("a label = %+v, want plain A", got)
	}
	if table.Has("/data/b:hint") {
		t.Fatal("static hint was indirected")
	}
	if got, want := table.Ref("/data/b:label"), "jr:itext('/data/b:label')"; got != want {
		t.Fatalf("Ref() = %q, want %q", got, want)
	}
}

func TestMediaAndGuidance(t *testing.T) {
	table, _ := assemble(t, builder.Workbook{"survey": {
		{"type": "note", "name": "a", "label": "A", "image": "a.png", "audio": "a.mp3"},
		{"type": "text", "name": "b", "label": "B", "hint": "H", "guidance_hint": "More"},
		{"type": "text", "name": "c", "label": "C"},
	}})
	tests := []struct {
		id, form, want string
	}{
		{"/data/a:label", FormLong, "A"},
		{"/data/a:label", FormImage, "jr://images/a.png"},
		{"/data/a:label", FormAudio, "jr://audio/a.mp3"},
		{"/data/b:hint", FormLong, "H"},
		{"/data/b:hint", FormGuidance, "More"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.form, func(t *testing.T) {
			if got := value(t, table, tt.id, FallbackLanguage, tt.form).Text; got != tt.want {
				t.Fatalf("value = %q, want %q", got, tt.want)
			}
		})
	}
	forms := func(id string) []string {
		e, _ := table.Lookup(id)
		var out []string
		for _, v := range e.Values[FallbackLanguage] {
			out = append(out, v.Form)
		}
		return out
	}
	if got := forms("/data/a:label"); !reflect.DeepEqual(got, []string{FormLong, FormImage, FormAudio}) {
		t.Fatalf("forms = %q", got)
	}
	for _, id := range []string{"/data/b:label", "/data/c:label"} {
		if table.Has(id) {
			t.Fatalf("Has(%q) = true, want inline label", id)
		}
	}
}

func TestMessages(t *testing.T) {
	table, warnings := assemble(t, builder.Workbook{"survey": {
		{"type": "integer", "name": "a", "label::en": "A", "label::fr": "A",
			"constraint": ". > 0", "constraint_message::en": "Positive", "constraint_message::fr": "Positif",
			"required": "yes", "required_message::en": "Needed"},
	}})
	if got := value(t, table, "/data/a:jr:constraintMsg", "fr", FormLong).Text; got != "Positif" {
		t.Fatalf("constraint message = %q", got)
	}
	if table.Has("/data/a:jr:requiredMsg") {
		t.Fatal("single language required message was indirected")
	}
	// the inline required message has no placeholder to warn about
	if len(warnings) != 0 {
		t.Fatalf("warnings = %q, want none", warnings)
	}
}

func TestChoices(t *testing.T) {
	tests := []struct {
		name      string
		wb        builder.Workbook
		itext     bool
		lists     []string
		itemLabel string
	}{
		{
			name: "static",
			wb: builder.Workbook{
				"survey":  {{"type": "select_one yn", "name": "q", "label": "Q"}},
				"choices": {{"list_name": "yn", "name": "y", "label": "Yes"}, {"list_name": "yn", "name": "n", "label": "No"}},
			},
		},
		{
			name: "filtered",
			wb: builder.Workbook{
				"survey": {
					{"type": "text", "name": "a", "label": "A"},
					{"type": "select_one yn", "name": "q", "label": "Q", "choice_filter": "cat = ${a}"},
					{"type": "select_one yn", "name": "r", "label": "R", "choice_filter": "cat != ${a}"},
				},
				"choices": {{"list_name": "yn", "name": "y", "label": "Yes", "cat": "1"}},
			},
			lists: []string{"yn"},
		},
		{
			name: "translated",
			wb: builder.Workbook{
				"survey":  {{"type": "select_one yn", "name": "q", "label": "Q"}},
				"choices": {{"list_name": "yn", "name": "y", "label::en": "Yes", "label::fr": "Oui"}},
			},
			itext:     true,
			itemLabel: "Oui",
		},
		{
			name: "media",
			wb: builder.Workbook{
				"survey":  {{"type": "select_one yn", "name": "q", "label": "Q"}},
				"choices": {{"list_name": "yn", "name": "y", "label": "Yes", "image": "y.png"}},
			},
			itext:     true,
			itemLabel: "Yes",
		},
		{
			name: "dynamic",
			wb: builder.Workbook{
				"survey": {
					{"type": "text", "name": "a", "label": "A"},
					{"type": "select_one yn", "name": "q", "label": "Q"},
				},
				"choices": {{"list_name": "yn", "name": "y", "label": "Is ${a}"}},
			},
			itext:     true,
			itemLabel: `Is <output value="/data/a"/>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, _ := assemble(t, tt.wb)
			if got := table.ChoicesUseItext("yn"); got != tt.itext {
				t.Fatalf("ChoicesUseItext() = %v, want %v", got, tt.itext)
			}
			if !reflect.DeepEqual(table.Lists, tt.lists) {
				t.Fatalf("Lists = %v, want %v", table.Lists, tt.lists)
			}
			if !tt.itext {
				return
			}
			lang := table.Languages[len(table.Languages)-1]
			if got := value(t, table, ChoiceID("yn", 0), lang, FormLong).Text; got != tt.itemLabel {
				t.Fatalf("yn-0 = %q, want %q", got, tt.itemLabel)
			}
		})
	}
}

func TestChoiceMissingTranslation(t *testing.T) {
	_, warnings := assemble(t, builder.Workbook{
		"survey": {{"type": "select_one yn", "name": "q", "label::en": "Q", "label::fr": "Q"}},
		"choices": {
			{"list_name": "yn", "name": "y", "label::en": "Yes", "label::fr": "Oui"},
			{"list_name": "yn", "name": "n", "label::en": "No"},
		},
	})
	want := []string{"Language 'fr' is missing the choices label column (1 element: n)."}
	if !reflect.DeepEqual(warnings, want) {
		t.Fatalf("warnings = %q, want %q", warnings, want)
	}
}

func TestWarningsFollowItext(t *testing.T) {
	table, warnings := assemble(t, builder.Workbook{
		"survey": {
			{"type": "select_one c", "name": "s1", "label": "S1"},
			{"type": "text", "name": "s2", "label": "S2"},
		},
		"choices": {
			{"list_name": "c", "name": "a", "label::en": "A", "label::fr": "Ah"},
			{"list_name": "c", "name": "b", "label::en": "B"},
		},
	})
	for _, id := range []string{"/data/s1:label", "/data/s2:label"} {
		if table.Has(id) {
			t.Fatalf("Has(%q) = true, want inline label", id)
		}
	}
	if got := value(t, table, ChoiceID("c", 1), "fr", FormLong).Text; got != Placeholder {
		t.Fatalf("c-1[fr] = %q, want %q", got, Placeholder)
	}
	want := []string{"Language 'fr' is missing the choices label column (1 element: b)."}
	if !reflect.DeepEqual(warnings, want) {
		t.Fatalf("warnings = %q, want %q", warnings, want)
	}
}

func TestDefaultLanguageSetting(t *testing.T) {
	table, warnings := assemble(t, builder.Workbook{
		"survey": {
			{"type": "text", "name": "a", "label::en": "A", "label::fr": "Ah"},
			{"type": "text", "name": "b", "label": "Bé"},
		},
		"settings": {{"default_language": "fr"}},
	})
	if !reflect.DeepEqual(table.Languages, []string{"fr", "en"}) {
		t.Fatalf("Languages = %v, want [fr en]", table.Languages)
	}
	if got := value(t, table, "/data/b:label", "fr", FormLong).Text; got != "Bé" {
		t.Fatalf("b[fr] = %q, want Bé", got)
	}
	want := []string{"Language 'en' is missing the survey label column (1 element: b)."}
	if !reflect.DeepEqual(warnings, want) {
		t.Fatalf("warnings = %q, want %q", warnings, want)
	}
}

func TestTextID(t *testing.T) {
	tests := []struct {
		kind, want string
	}{
		{KindLabel, "/data/a:label"},
		{KindHint, "/data/a:hint"},
		{KindGuidanceHint, "/data/a:hint"},
		{KindConstraintMessage, "/data/a:jr:constraintMsg"},
		{KindRequiredMessage, "/data/a:jr:requiredMsg"},
	}
	for _, tt := range tests {
		if got := TextID("/data/a", tt.kind); got != tt.want {
			t.Fatalf("TextID(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
