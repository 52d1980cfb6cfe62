package validate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no row", Errorf(ErrStructure, "bad %s", "thing"), "bad thing"},
		{"row", RowErrorf(ErrInvalidName, 4, "Invalid"), "[row : 4] Invalid"},
		{"structural without row", StructuralError(0, "Missing"), "Missing"},
		{
			"unresolved",
			UnresolvedReferenceError("survey", "relevant", 3, "x"),
			"[row : 3] On the 'survey' sheet, the 'relevant' value is invalid. " +
				"Reference variables must refer to a question name. Could not find 'x'.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIsThroughWrapping(t *testing.T) {
	err := pkgerrors.Wrap(UnresolvedReferenceError("survey", "calculate", 2, "a"), "resolve")
	if !errors.Is(err, ErrorOf(ErrReferenceNotFound)) {
		t.Fatalf("errors.Is(%v, not found) = false, want true", err)
	}
	if errors.Is(err, ErrorOf(ErrLastSavedNotFound)) {
		t.Fatalf("errors.Is(%v, last saved) = true, want false", err)
	}
	var verr *Error
	if !errors.As(err, &verr) || verr.Column != "calculate" {
		t.Fatalf("errors.As() = %+v, want column calculate", verr)
	}
}

func TestFlatten(t *testing.T) {
	if err := Flatten(nil); err != nil {
		t.Fatalf("Flatten(nil) = %v, want nil", err)
	}
	one := Errorf(ErrChoices, "one")
	if err := Flatten(Append(nil, one)); err != one {
		t.Fatalf("Flatten(single) = %v, want %v", err, one)
	}
	all := Append(nil, one)
	all = Append(all, nil)
	all = Append(all, Errorf(ErrChoices, "two"))
	if got := Flatten(all).Error(); got != "one\ntwo" {
		t.Fatalf("Flatten(two).Error() = %q, want %q", got, "one\ntwo")
	}
}

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		name     string
		siblings []Sibling
		wantErr  bool
		warnings int
	}{
		{"distinct", []Sibling{{"a", 2}, {"b", 3}}, false, 0},
		{"exact duplicate", []Sibling{{"a", 2}, {"a", 3}}, true, 0},
		{"case only", []Sibling{{"Age", 2}, {"age", 3}}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w Warnings
			err := UniqueNames("data", tt.siblings, &w)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UniqueNames() err = %v, wantErr %v", err, tt.wantErr)
			}
			if w.Len() != tt.warnings {
				t.Fatalf("UniqueNames() warnings = %v, want %d", w.List(), tt.warnings)
			}
			if err != nil && !errors.Is(err, ErrorOf(ErrDuplicateName)) {
				t.Fatalf("UniqueNames() err code = %v, want %s", err, ErrDuplicateName)
			}
		})
	}
}

func TestRepeatNames(t *testing.T) {
	tests := []struct {
		name    string
		repeats []Sibling
		want    string
	}{
		{"ok", []Sibling{{"r1", 2}, {"r2", 5}}, ""},
		{"root name", []Sibling{{"data", 2}}, "is the same as the form name"},
		{"twice", []Sibling{{"r", 2}, {"r", 7}}, "There are two sections with the name r."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RepeatNames("data", tt.repeats)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("RepeatNames() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("RepeatNames() = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	for _, ok := range []string{"a", "_a", "a.b-c", "é"} {
		if err := Name(ok, 2); err != nil {
			t.Fatalf("Name(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"1a", "a b", "-a", "ns:a", ""} {
		if err := Name(bad, 2); err == nil {
			t.Fatalf("Name(%q) = nil, want error", bad)
		}
	}
}

func TestDuplicateChoices(t *testing.T) {
	if msg := DuplicateChoices("yn", []string{"y", "n", "y", "y"}, true); msg != "" {
		t.Fatalf("DuplicateChoices(allowed) = %q, want none", msg)
	}
	if msg := DuplicateChoices("yn", []string{"y", "n"}, false); msg != "" {
		t.Fatalf("DuplicateChoices(unique) = %q, want none", msg)
	}
	msg := DuplicateChoices("yn", []string{"y", "n", "y", "n", "y"}, false)
	if !strings.Contains(msg, "contains these duplicates: 'y', 'n'.") {
		t.Fatalf("DuplicateChoices() = %q", msg)
	}
}

func TestMissingTranslation(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{[]string{"b"}, "Language 'fr' is missing the survey label column (1 element: b)."},
		{[]string{"b", "c"}, "Language 'fr' is missing the survey label column (2 elements: b, c)."},
	}
	for _, tt := range tests {
		if got := MissingTranslation("survey", "fr", "label", tt.names); got != tt.want {
			t.Fatalf("MissingTranslation() = %q, want %q", got, tt.want)
		}
	}
}

func TestWarnings(t *testing.T) {
	var w Warnings
	w.AddRow(3, "Group has no label")
	w.AddOnce("x")
	w.AddOnce("x")
	w.Merge([]string{"y"})
	want := []string{"[row : 3] Group has no label", "x", "y"}
	got := w.List()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("List() = %q, want %q", got, want)
	}
}

func TestSheetMisspellings(t *testing.T) {
	supported := []string{"survey", "choices", "settings", "entities"}
	tests := []struct {
		name   string
		key    string
		sheets []string
		want   string
	}{
		{"close", "entities", []string{"survey", "entitoes"}, "'entitoes'"},
		{"underscore ignored", "entities", []string{"_entitoes"}, ""},
		{"far", "entities", []string{"other"}, ""},
		{"two sorted", "settings", []string{"settins", "Setting"}, "'Setting', 'settins'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SheetMisspellings(tt.key, tt.sheets, supported)
			if tt.want == "" {
				if got != "" {
					t.Fatalf("SheetMisspellings() = %q, want empty", got)
				}
				return
			}
			if !strings.HasSuffix(got, "were found: "+tt.want+".") {
				t.Fatalf("SheetMisspellings() = %q, want candidates %s", got, tt.want)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	known := []string{"integer", "text", "decimal", "add text prompt", "date", "note"}
	tests := []struct {
		target string
		want   []string
	}{
		{"intger", []string{"integer"}},
		{"textt", []string{"text"}},
		{"Txet", []string{"text"}},
		{"dat", []string{"date"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := Suggest(tt.target, known, 3); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Suggest(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}
