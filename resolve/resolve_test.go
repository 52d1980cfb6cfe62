package resolve

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-xform/builder"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

type row = builder.Row

func build(t *testing.T, wb builder.Workbook) *survey.Survey {
	t.Helper()
	s, _, err := builder.Build(wb, builder.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func resolved(t *testing.T, wb builder.Workbook) *survey.Survey {
	t.Helper()
	s := build(t, wb)
	if err := Resolve(s); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return s
}

func element(s *survey.Survey, name string) *survey.Base {
	for _, e := range s.Elements() {
		if e.Node().Name == name {
			return e.Node()
		}
	}
	return nil
}

func TestPaths(t *testing.T) {
	tests := []struct {
		name string
		rows []row
		at   string
		attr string
		want string
	}{
		{
			"top level sibling",
			[]row{
				{"type": "integer", "name": "a", "label": "A"},
				{"type": "text", "name": "b", "label": "B", "relevant": "${a} > 1"},
			},
			"b", "relevant", "../a > 1",
		},
		{
			"self",
			[]row{{"type": "integer", "name": "b", "label": "B", "constraint": ". > 0 and ${b} < 10"}},
			"b", "constraint", ". > 0 and . < 10",
		},
		{
			"into a group",
			[]row{
				{"type": "begin group", "name": "g", "label": "G"},
				{"type": "integer", "name": "a", "label": "A"},
				{"type": "end group"},
				{"type": "text", "name": "b", "label": "B", "relevant": "${a} > 1"},
			},
			"b", "relevant", "../g/a > 1",
		},
		{
			"same repeat",
			[]row{
				{"type": "begin repeat", "name": "r", "label": "R"},
				{"type": "integer", "name": "a", "label": "A"},
				{"type": "begin group", "name": "g", "label": "G"},
				{"type": "text", "name": "b", "label": "B", "relevant": "${a} > 1"},
				{"type": "end group"},
				{"type": "end repeat"},
			},
			"b", "relevant", "../../a > 1",
		},
		{
			"out of a repeat",
			[]row{
				{"type": "integer", "name": "a", "label": "A"},
				{"type": "begin repeat", "name": "r", "label": "R"},
				{"type": "text", "name": "b", "label": "B", "relevant": "${a} > 1"},
				{"type": "end repeat"},
			},
			"b", "relevant", "/data/a > 1",
		},
		{
			"into a repeat",
			[]row{
				{"type": "begin repeat", "name": "r", "label": "R"},
				{"type": "integer", "name": "a", "label": "A"},
				{"type": "end repeat"},
				{"type": "calculate", "name": "b", "calculation": "sum(${a})"},
			},
			"b", "calculate", "sum(/data/r/a)",
		},
		{
			"enclosing repeat from a nested repeat",
			[]row{
				{"type": "begin repeat", "name": "r1", "label": "R1"},
				{"type": "integer", "name": "a", "label": "A"},
				{"type": "begin repeat", "name": "r2", "label": "R2"},
				{"type": "text", "name": "b", "label": "B", "relevant": "${a} > 1"},
				{"type": "end repeat"},
				{"type": "end repeat"},
			},
			"b", "relevant", "../../a > 1",
		},
		{
			"repeat from inside itself",
			[]row{
				{"type": "begin repeat", "name": "r", "label": "R"},
				{"type": "calculate", "name": "n", "calculation": "count(${r})"},
				{"type": "end repeat"},
			},
			"n", "calculate", "count(/data/r)",
		},
		{
			"last saved",
			[]row{
				{"type": "begin repeat", "name": "r", "label": "R"},
				{"type": "integer", "name": "a", "label": "A", "default": "${last-saved#a}"},
				{"type": "end repeat"},
				{"type": "integer", "name": "b", "label": "B", "constraint": ". > ${last-saved#b}"},
			},
			"b", "constraint", ". > instance('__last-saved')/data/b",
		},
		{
			"indexed-repeat",
			[]row{
				{"type": "integer", "name": "n", "label": "N"},
				{"type": "begin repeat", "name": "r", "label": "R"},
				{"type": "integer", "name": "x", "label": "X"},
				{"type": "end repeat"},
				{"type": "calculate", "name": "c", "calculation": "indexed-repeat(${x}, ${r}, ${n})"},
			},
			"c", "calculate", "indexed-repeat(/data/r/x, /data/r, ../n)",
		},
		{
			"instance predicate",
			[]row{
				{"type": "text", "name": "a", "label": "A"},
				{"type": "calculate", "name": "c", "calculation": "instance('towns')/root/item[name=${a}]/label"},
			},
			"c", "calculate", "instance('towns')/root/item[name=current()/../a]/label",
		},
		{
			"yes shorthand",
			[]row{{"type": "text", "name": "a", "label": "A", "required": "yes"}},
			"a", "required", "true()",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := resolved(t, builder.Workbook{"survey": tt.rows})
			e := element(s, tt.at)
			if got := e.Resolved.Bind[tt.attr]; got != tt.want {
				t.Fatalf("Resolved.Bind[%q] = %q, want %q", tt.attr, got, tt.want)
			}
		})
	}
}

func TestLastSavedFlag(t *testing.T) {
	s := resolved(t, builder.Workbook{"survey": {
		{"type": "integer", "name": "a", "label": "A", "default": "${last-saved#a}"},
	}})
	if !s.LastSaved {
		t.Fatal("LastSaved = false")
	}
	if got := element(s, "a").Resolved.Default; got != "instance('__last-saved')/data/a" {
		t.Fatalf("Resolved.Default = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	s := resolved(t, builder.Workbook{"survey": {
		{"type": "date", "name": "d", "label": "D", "default": "today()"},
		{"type": "date", "name": "fixed", "label": "F", "default": "2020-01-31"},
		{"type": "integer", "name": "n", "label": "N", "default": "5"},
		{"type": "text", "name": "t", "label": "T", "default": "${n} * 2"},
	}})
	tests := []struct {
		name string
		want string
	}{
		{"d", "today()"},
		{"fixed", ""},
		{"n", ""},
		{"t", "../n * 2"},
	}
	for _, tt := range tests {
		if got := element(s, tt.name).Resolved.Default; got != tt.want {
			t.Fatalf("%s Resolved.Default = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSelects(t *testing.T) {
	s := resolved(t, builder.Workbook{
		"survey": {
			{"type": "integer", "name": "s", "label": "S"},
			{"type": "begin repeat", "name": "r", "label": "R", "repeat_count": "${s}"},
			{"type": "text", "name": "a", "label": "A"},
			{"type": "select_one c", "name": "q", "label": "Q", "choice_filter": "cat = ${a}",
				"parameters": "randomize=true seed=${s}"},
			{"type": "end repeat"},
			{"type": "select_one ${a}", "name": "prev", "label": "P"},
			{"type": "select_one ${a}", "name": "filtered", "label": "F", "choice_filter": "${a} != 'x'"},
		},
		"choices": {
			{"list_name": "c", "name": "x", "label": "X", "cat": "1"},
		},
	})
	q := element(s, "q")
	if q.Resolved.ChoiceFilter != "cat = current()/../a" {
		t.Fatalf("q ChoiceFilter = %q", q.Resolved.ChoiceFilter)
	}
	if q.Resolved.Seed != "/data/s" {
		t.Fatalf("q Seed = %q", q.Resolved.Seed)
	}
	if got := element(s, "r").Resolved.Control["jr:count"]; got != "/data/s" {
		t.Fatalf("jr:count = %q", got)
	}
	prev := element(s, "prev")
	if prev.Resolved.ItemsetPath != "/data/r/a" || prev.Resolved.ChoiceFilter != "./a != ''" {
		t.Fatalf("prev = %q, %q", prev.Resolved.ItemsetPath, prev.Resolved.ChoiceFilter)
	}
	if got := element(s, "filtered").Resolved.ChoiceFilter; got != "./a != 'x'" {
		t.Fatalf("filtered ChoiceFilter = %q", got)
	}
}

func TestTextMarkup(t *testing.T) {
	s := resolved(t, builder.Workbook{
		"survey": {
			{"type": "text", "name": "a", "label": "A"},
			{"type": "note", "name": "n", "label::en": "Hi ${a} & <b>", "label::fr": "Salut", "hint": "plain"},
			{"type": "select_one c", "name": "q", "label": "Q"},
		},
		"choices": {
			{"list_name": "c", "name": "x", "label": "Is ${a}"},
			{"list_name": "c", "name": "y", "label": "Y"},
		},
	})
	n := element(s, "n")
	if got := n.Resolved.Text["label"]["en"]; got != `Hi <output value="../a"/> &amp; &lt;b&gt;` {
		t.Fatalf("label markup = %q", got)
	}
	if got := n.Resolved.Text["label"]["fr"]; got != "Salut" {
		t.Fatalf("fr label markup = %q", got)
	}
	if _, ok := n.Resolved.Text["hint"]; ok {
		t.Fatal("static hint has markup")
	}
	labels := s.ChoiceLabels["c"]
	if len(labels) != 2 || labels[0].Plain() != `Is <output value="/data/a"/>` || labels[1] != nil {
		t.Fatalf("ChoiceLabels = %v", labels)
	}
}

func TestTriggers(t *testing.T) {
	s := resolved(t, builder.Workbook{"survey": {
		{"type": "text", "name": "a", "label": "A"},
		{"type": "calculate", "name": "b", "calculation": "concat(${a}, '!')", "trigger": "${a}"},
		{"type": "dateTime", "name": "c", "label": "C", "trigger": "${a}"},
	}})
	a := element(s, "a")
	want := []survey.Setvalue{
		{Ref: "/data/b", Value: "concat(., '!')", Event: EventValueChanged},
		{Ref: "/data/c", Event: EventValueChanged},
	}
	if !reflect.DeepEqual(a.Resolved.Triggers, want) {
		t.Fatalf("Triggers = %+v, want %+v", a.Resolved.Triggers, want)
	}
	if _, ok := element(s, "b").Resolved.Bind["calculate"]; ok {
		t.Fatal("triggered calculation kept in bind")
	}
}

func TestEntities(t *testing.T) {
	tests := []struct {
		name string
		wb   builder.Workbook
		want map[string]string
	}{
		{
			"update",
			builder.Workbook{
				"survey": {
					{"type": "text", "name": "tree_id", "label": "Tree"},
					{"type": "text", "name": "l", "label": "L"},
					{"type": "integer", "name": "h", "label": "H", "save_to": "height"},
				},
				"entities": {{"list_name": "trees", "entity_id": "${tree_id}", "label": "${l}", "update_if": "${h} > 0"}},
			},
			map[string]string{
				EntityUpdate:       "../../../h > 0",
				EntityID:           "../../../tree_id",
				EntityBaseVersion:  "instance('trees')/root/item[name=current()/../../../tree_id]/__version",
				EntityTrunkVersion: "instance('trees')/root/item[name=current()/../../../tree_id]/__trunkVersion",
				EntityBranchID:     "instance('trees')/root/item[name=current()/../../../tree_id]/__branchId",
				EntityLabel:        "../../../l",
			},
		},
		{
			"create in repeat",
			builder.Workbook{
				"survey": {
					{"type": "begin repeat", "name": "trees", "label": "Trees"},
					{"type": "text", "name": "species", "label": "Species", "save_to": "species"},
					{"type": "end repeat"},
				},
				"entities": {{"list_name": "trees", "label": "${species}", "repeat": "${trees}", "create_if": "${species} != ''"}},
			},
			map[string]string{
				EntityCreate: "../../../species != ''",
				EntityLabel:  "../../../species",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := resolved(t, tt.wb)
			if got := s.Entity.Resolved.Entity; !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Resolved.Entity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		wb   builder.Workbook
		code validate.ErrorCode
		msg  string
	}{
		{
			"unknown name",
			builder.Workbook{"survey": {
				{"type": "text", "name": "a", "label": "A"},
				{"type": "text", "name": "b", "label": "B", "relevant": "${zz} = 1"},
			}},
			validate.ErrReferenceNotFound,
			"[row : 3] On the 'survey' sheet, the 'relevant' value is invalid. " +
				"Reference variables must refer to a question name. Could not find 'zz'.",
		},
		{
			"unknown last saved",
			builder.Workbook{"survey": {
				{"type": "text", "name": "a", "label": "A", "default": "${last-saved#zz}"},
			}},
			validate.ErrLastSavedNotFound,
			"[row : 2] On the 'survey' sheet, the 'default' value is invalid. " +
				"Reference variables must refer to a question name. Could not find 'zz' for the last-saved instance.",
		},
		{
			"ambiguous",
			builder.Workbook{"survey": {
				{"type": "begin group", "name": "g", "label": "G"},
				{"type": "text", "name": "a", "label": "A"},
				{"type": "end group"},
				{"type": "text", "name": "a", "label": "A"},
				{"type": "calculate", "name": "c", "calculation": "${a}"},
			}},
			validate.ErrReferenceAmbiguous,
			"[row : 6] There has been a problem trying to replace ${a} with the XPath to the survey element " +
				"named 'a'. There are multiple survey elements with this name.",
		},
		{
			"trigger on hidden field",
			builder.Workbook{"survey": {
				{"type": "calculate", "name": "c", "calculation": "1"},
				{"type": "calculate", "name": "d", "calculation": "2", "trigger": "${c}"},
			}},
			validate.ErrTrigger,
			"[row : 3] The question ${c} is not user-visible so it can't be used as a calculation trigger for question ${d}.",
		},
		{
			"trigger not a reference",
			builder.Workbook{"survey": {
				{"type": "text", "name": "a", "label": "A", "trigger": "${a} and ${a}"},
			}},
			validate.ErrTrigger,
			"[row : 2] Only references to other fields are allowed in the 'trigger' column.",
		},
		{
			"last saved instance clash",
			builder.Workbook{"survey": {
				{"type": "select_one_from_file __last-saved.csv", "name": "a", "label": "A"},
				{"type": "text", "name": "b", "label": "B", "default": "${last-saved#b}"},
			}},
			validate.ErrInstance,
			"The instance name '__last-saved' is reserved for the last saved submission and cannot be used " +
				"for another instance.",
		},
		{
			"last saved external instance clash",
			builder.Workbook{"survey": {
				{"type": "xml-external", "name": "__last-saved"},
				{"type": "integer", "name": "foo", "label": "Foo"},
				{"type": "calculate", "name": "bar", "calculation": "${last-saved#foo} + 4"},
			}},
			validate.ErrInstance,
			"The instance name '__last-saved' is reserved for the last saved submission and cannot be used " +
				"for another instance.",
		},
		{
			"entity id",
			builder.Workbook{
				"survey":   {{"type": "text", "name": "a", "label": "A"}},
				"entities": {{"list_name": "trees", "entity_id": "${zz}", "label": "${a}"}},
			},
			validate.ErrReferenceNotFound,
			"[row : 2] On the 'entities' sheet, the 'entity_id' value is invalid. " +
				"Reference variables must refer to a question name. Could not find 'zz'.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Resolve(build(t, tt.wb))
			if err == nil {
				t.Fatal("Resolve() error = nil")
			}
			if !errors.Is(err, validate.ErrorOf(tt.code)) {
				t.Fatalf("Resolve() error = %v, want code %s", err, tt.code)
			}
			if err.Error() != tt.msg {
				t.Fatalf("Resolve() error = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestErrorsAreCollected(t *testing.T) {
	err := Resolve(build(t, builder.Workbook{"survey": {
		{"type": "text", "name": "a", "label": "A ${x}"},
		{"type": "text", "name": "b", "label": "B", "relevant": "${y}"},
	}}))
	if err == nil {
		t.Fatal("Resolve() error = nil")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "Could not find 'x'.") || !strings.HasSuffix(lines[1], "Could not find 'y'.") {
		t.Fatalf("Resolve() error = %q", err.Error())
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	s := build(t, builder.Workbook{
		"survey": {
			{"type": "text", "name": "a", "label": "A"},
			{"type": "begin repeat", "name": "r", "label": "R ${a}"},
			{"type": "text", "name": "b", "label": "B", "relevant": "${a} != ''", "default": "${last-saved#b}"},
			{"type": "calculate", "name": "c", "calculation": "${b}", "trigger": "${b}"},
			{"type": "end repeat"},
		},
	})
	if err := Resolve(s); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	first := snapshot(s)
	if err := Resolve(s); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if second := snapshot(s); !reflect.DeepEqual(first, second) {
		t.Fatalf("second Resolve() = %+v, want %+v", second, first)
	}
	if element(s, "b").Bind["relevant"] != "${a} != ''" {
		t.Fatal("Resolve() rewrote the source expression")
	}
}

func snapshot(s *survey.Survey) []survey.Resolved {
	var out []survey.Resolved
	for _, e := range s.Elements() {
		out = append(out, e.Node().Resolved)
	}
	return out
}
