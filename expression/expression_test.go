package expression

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func kinds(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == KindWhitespace {
			continue
		}
		parts = append(parts, t.Kind.String())
	}
	return strings.Join(parts, " ")
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"reference", "${age} > 18", "PYXFORM_REF OPS_COMP NUMBER"},
		{"last saved", "${last-saved#age}", "PYXFORM_REF"},
		{"function", "concat(${a}, 'x')", "FUNC_CALL PYXFORM_REF COMMA SYSTEM_LITERAL CLOSE_PAREN"},
		{"date", "2020-01-31", "DATE"},
		{"datetime", "2020-01-31T10:00:00Z", "DATETIME"},
		{"time", "10:11:12", "TIME"},
		{"decimal", "-1.5 + .5", "NUMBER OPS_MATH NUMBER"},
		{"word operators", "a mod 2 = 0 and b or c", "NAME OPS_MATH NUMBER OPS_COMP NUMBER OPS_BOOL NAME OPS_BOOL NAME"},
		{"operator prefix of name", "model order", "NAME NAME"},
		{"paths", "../a/b", "PARENT_REF PATH_SEP NAME PATH_SEP NAME"},
		{"self", ".", "SELF_REF"},
		{"predicate", "item[name = 'x']", "XPATH_PRED_START NAME OPS_COMP SYSTEM_LITERAL XPATH_PRED_END"},
		{"uri", "jr://images/a.png", "URI_SCHEME NAME PATH_SEP NAME"},
		{"union", "a | b", "NAME OPS_UNION NAME"},
		{"comparison", "a <= b", "NAME OPS_COMP NAME"},
		{"unterminated", "${abc", "UNPARSED"},
		{"invalid name", "${1abc} + 1", "UNPARSED OPS_MATH NUMBER"},
		{"other", "@#", "OTHER OTHER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kinds(Tokenize(tt.text)); got != tt.want {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeOffsetsCoverInput(t *testing.T) {
	text := "if(${a} != '', ${b} * 2, é)"
	var b strings.Builder
	pos := 0
	for _, tok := range Tokenize(text) {
		if tok.Start != pos {
			t.Fatalf("token %q starts at %d, want %d", tok.Value, tok.Start, pos)
		}
		b.WriteString(tok.Value)
		pos = tok.End
	}
	if b.String() != text {
		t.Fatalf("joined tokens = %q, want %q", b.String(), text)
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []string
		wantErr bool
	}{
		{"none", "1 + 2", nil, false},
		{"two", "${a} + ${last-saved#b}", []string{"a", "last-saved#b"}, false},
		{"inside literal", "'${a}'", []string{"a"}, false},
		{"unterminated", "${a} + ${b", nil, true},
		{"space", "${a b}", nil, true},
		{"bad start", "${1a}", nil, true},
		{"empty", "${}", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := References(tt.text)
			if tt.wantErr {
				var syntaxErr *SyntaxError
				if !errors.As(err, &syntaxErr) {
					t.Fatalf("References(%q) error = %v, want *SyntaxError", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("References(%q) error = %v", tt.text, err)
			}
			var got []string
			for _, r := range refs {
				name := r.Name
				if r.LastSaved {
					name = LastSavedPrefix + name
				}
				got = append(got, name)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("References(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestReplace(t *testing.T) {
	got, err := Replace("${a} + ${b}", func(r Reference) (string, error) {
		return "/data/" + r.Name, nil
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if want := "/data/a + /data/b"; got != want {
		t.Fatalf("Replace() = %q, want %q", got, want)
	}
}

func TestIsDynamic(t *testing.T) {
	tests := []struct {
		value    string
		dataType string
		want     bool
	}{
		{"", "string", false},
		{"hello", "string", false},
		{"12", "int", false},
		{"today()", "date", true},
		{"2020-01-01", "date", false},
		{"1 - 2", "int", true},
		{"-1.5 -2", "geopoint", false},
		{"${a}", "string", true},
		{"a | b", "string", true},
		{"x[1]", "string", true},
		{"'a' mod", "string", true},
	}
	for _, tt := range tests {
		if got := IsDynamic(tt.value, tt.dataType); got != tt.want {
			t.Errorf("IsDynamic(%q, %q) = %v, want %v", tt.value, tt.dataType, got, tt.want)
		}
	}
}

func TestIsSingleReference(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"${a}", true},
		{" ${a} ", true},
		{"${a} + 1", false},
		{"a", false},
		{"${a", false},
	}
	for _, tt := range tests {
		if got := IsSingleReference(tt.text); got != tt.want {
			t.Errorf("IsSingleReference(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsNCName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a", true},
		{"_a.b-c1", true},
		{"été", true},
		{"1a", false},
		{"a b", false},
		{"a:b", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsNCName(tt.name); got != tt.want {
			t.Errorf("IsNCName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.Tokenize("a")
	c.Tokenize("b")
	c.Tokenize("a")
	c.Tokenize("c")
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.entries["b"]; ok {
		t.Fatal("entry b still cached, want evicted")
	}
	if _, ok := c.entries["a"]; !ok {
		t.Fatal("entry a evicted, want cached")
	}
}

func TestCacheConcurrentUse(t *testing.T) {
	c := NewCache(8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("${q%d} + 1", i%4)
			if got := kinds(c.Tokenize(text)); got != "PYXFORM_REF OPS_MATH NUMBER" {
				t.Errorf("Tokenize(%q) = %q", text, got)
			}
		}(i)
	}
	wg.Wait()
}

func TestSetDefaultCacheSizeWhileTokenizing(t *testing.T) {
	defer SetDefaultCacheSize(DefaultCacheSize)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			SetDefaultCacheSize(4 + i)
		}(i)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("${q%d} + 1", i)
			if got := kinds(Tokenize(text)); got != "PYXFORM_REF OPS_MATH NUMBER" {
				t.Errorf("Tokenize(%q) = %q", text, got)
			}
		}(i)
	}
	wg.Wait()
	SetDefaultCacheSize(2)
	Tokenize("a")
	Tokenize("b")
	Tokenize("c")
	if got := sharedCache().Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestPulldata(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"pulldata('fruits', 'name', 'id', ${f})", "fruits"},
		{"pulldata( \"a\", 'x', 'y', 1) + pulldata('b', 'x', 'y', 2)", "a b"},
		{"pulldata(${f}, 'x', 'y', 1)", ""},
		{"concat('pulldata', 1)", ""},
	}
	for _, tt := range tests {
		if got := strings.Join(Pulldata(tt.text), " "); got != tt.want {
			t.Fatalf("Pulldata(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
