package survey

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestTextJSON(t *testing.T) {
	tests := []struct {
		name string
		text Text
		want string
	}{
		{"plain", PlainText("A"), `"A"`},
		{"translated", Text{"en": "A", "fr": "Ah"}, `{"en":"A","fr":"Ah"}`},
		{"mixed", Text{"": "A", "fr": "Ah"}, `{"default":"A","fr":"Ah"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.text)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Fatalf("Marshal() = %s, want %s", data, tt.want)
			}
			var back Text
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(back) != len(tt.text) {
				t.Fatalf("Unmarshal() = %v, want %v", back, tt.text)
			}
			for k, v := range tt.text {
				if back[k] != v {
					t.Fatalf("Unmarshal()[%q] = %q, want %q", k, back[k], v)
				}
			}
		})
	}
}

func TestTextValue(t *testing.T) {
	text := Text{"": "plain", "en": "explicit", "fr": "fr"}
	tests := []struct {
		lang, def string
		want      string
		ok        bool
	}{
		{"en", "en", "explicit", true},
		{"fr", "en", "fr", true},
		{"de", "de", "plain", true},
		{"de", "en", "", false},
	}
	for _, tt := range tests {
		got, ok := text.Value(tt.lang, tt.def)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Value(%q, %q) = %q, %v, want %q, %v", tt.lang, tt.def, got, ok, tt.want, tt.ok)
		}
	}
	if langs := text.Languages(); strings.Join(langs, ",") != "en,fr" {
		t.Fatalf("Languages() = %v, want [en fr]", langs)
	}
}

func tree() (*Survey, *Question, *Question) {
	s := &Survey{Section: Section{Base: Base{Fields: Fields{Name: "data"}}, Kind: KindSurvey}}
	rep := &Section{Base: Base{Fields: Fields{Type: TypeRepeat, Name: "r"}}, Kind: KindRepeat}
	grp := &Section{Base: Base{Fields: Fields{Type: TypeGroup, Name: "g"}}, Kind: KindGroup}
	a := &Question{Base: Base{Fields: Fields{Type: "text", Name: "a", Label: PlainText("A")}}, Control: ControlInput}
	b := &Question{Base: Base{Fields: Fields{Type: "integer", Name: "b", Label: PlainText("B")}}, Control: ControlInput}
	s.Add(a)
	s.Add(rep)
	rep.Add(grp)
	grp.Add(b)
	return s, a, b
}

func TestPaths(t *testing.T) {
	s, a, b := tree()
	if got := a.Path(); got != "/data/a" {
		t.Fatalf("Path() = %q, want /data/a", got)
	}
	if got := b.Path(); got != "/data/r/g/b" {
		t.Fatalf("Path() = %q, want /data/r/g/b", got)
	}
	if got := strings.Join(b.Segments(), "/"); got != "data/r/g/b" {
		t.Fatalf("Segments() = %q", got)
	}
	if NearestRepeat(a) != nil {
		t.Fatal("NearestRepeat(a) != nil")
	}
	if r := NearestRepeat(b); r == nil || r.Name != "r" {
		t.Fatalf("NearestRepeat(b) = %v, want r", r)
	}
	var names []string
	for _, e := range s.Elements() {
		names = append(names, e.Node().Name)
	}
	if got := strings.Join(names, " "); got != "a r g b" {
		t.Fatalf("Elements() = %q, want %q", got, "a r g b")
	}
}

func TestHasControl(t *testing.T) {
	tests := []struct {
		name string
		q    *Question
		want bool
	}{
		{"input", &Question{Control: ControlInput}, true},
		{"calculate", &Question{Control: ControlNone}, false},
		{"labelled calculate input", &Question{
			Base:    Base{Fields: Fields{Label: PlainText("x"), Bind: map[string]string{"calculate": "1"}}},
			Control: ControlInput,
		}, true},
		{"unlabelled trigger target", &Question{
			Base:    Base{Fields: Fields{Trigger: "${a}"}},
			Control: ControlInput,
		}, false},
		{"action", &Question{Control: ControlAction}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.HasControl(); got != tt.want {
				t.Fatalf("HasControl() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToDef(t *testing.T) {
	s, _, _ := tree()
	s.IDString = "form"
	s.Choices = map[string]*ChoiceList{"yn": {Name: "yn", Options: []Option{{Name: "y", Label: PlainText("Yes")}}}}
	d := s.ToDef()
	if d.Type != TypeSurvey || d.IDString != "form" {
		t.Fatalf("ToDef() = %+v", d)
	}
	if len(d.Children) != 2 || d.Children[1].Type != TypeRepeat || d.Children[1].Children[0].Type != TypeGroup {
		t.Fatalf("ToDef() children = %+v", d.Children)
	}
	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	back, err := ParseDef(data)
	if err != nil {
		t.Fatalf("ParseDef() error = %v", err)
	}
	if back.Choices["yn"][0].Label.Plain() != "Yes" {
		t.Fatalf("ParseDef() choices = %+v", back.Choices)
	}
	clone := back.Clone()
	clone.Children[0].Label[""] = "changed"
	if back.Children[0].Label.Plain() != "A" {
		t.Fatal("Clone() shares label maps")
	}
}
