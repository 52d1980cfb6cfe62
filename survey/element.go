// Package survey holds the typed element tree built from a workbook and its
// serialisable definition form.
package survey

import (
	"strings"

	"github.com/mbolis/quick-xform/aliases"
)

// Control selects the body control a question is rendered with.
type Control int

const (
	ControlNone Control = iota
	ControlInput
	ControlSelectOne
	ControlSelectMany
	ControlRank
	ControlUpload
	ControlOsm
	ControlTrigger
	ControlRange
	ControlAction
)

// Tag returns the body element name, or "" for controls without one.
func (c Control) Tag() string {
	switch c {
	case ControlInput:
		return aliases.TagInput
	case ControlSelectOne:
		return aliases.TagSelect1
	case ControlSelectMany:
		return aliases.TagSelect
	case ControlRank:
		return aliases.TagRank
	case ControlUpload, ControlOsm:
		return aliases.TagUpload
	case ControlTrigger:
		return aliases.TagTrigger
	case ControlRange:
		return aliases.TagRange
	}
	return ""
}

// IsSelect reports whether the control renders choices.
func (c Control) IsSelect() bool {
	return c == ControlSelectOne || c == ControlSelectMany || c == ControlRank
}

// ControlOf maps a question type description onto its control.
func ControlOf(qt aliases.QuestionType) Control {
	switch qt.Tag {
	case aliases.TagInput:
		return ControlInput
	case aliases.TagSelect1:
		return ControlSelectOne
	case aliases.TagSelect:
		return ControlSelectMany
	case aliases.TagRank:
		return ControlRank
	case aliases.TagUpload:
		if qt.MediaType == "osm/*" {
			return ControlOsm
		}
		return ControlUpload
	case aliases.TagTrigger:
		return ControlTrigger
	case aliases.TagRange:
		return ControlRange
	case aliases.TagAction:
		return ControlAction
	}
	return ControlNone
}

// SectionKind tells groups, repeats and the survey root apart.
type SectionKind int

const (
	KindGroup SectionKind = iota
	KindRepeat
	KindSurvey
)

// Element is any node of the survey tree.
type Element interface {
	Node() *Base
}

// Setvalue is a setvalue action nested in a control or a repeat.
type Setvalue struct {
	Ref   string
	Value string
	Event string
}

// Resolved holds the expressions of an element with every reference rewritten
// to a path. Text entries are XML markup and only present when the source
// text had references.
type Resolved struct {
	Bind         map[string]string
	Control      map[string]string
	Instance     map[string]string
	Text         map[string]Text
	Default      string
	ChoiceFilter string
	Seed         string
	ItemsetPath  string
	Triggers     []Setvalue
	Entity       map[string]string
}

// Base is embedded by every element.
type Base struct {
	Fields
	Resolved Resolved

	parent *Section
}

func (b *Base) Node() *Base {
	return b
}

// Parent returns the enclosing section, nil for the root.
func (b *Base) Parent() *Section {
	return b.parent
}

// Path returns the absolute instance path of the element.
func (b *Base) Path() string {
	names := []string{b.Name}
	for p := b.parent; p != nil; p = p.parent {
		names = append(names, p.Name)
	}
	var sb strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(names[i])
	}
	return sb.String()
}

// Segments returns the names from the root down to the element.
func (b *Base) Segments() []string {
	var names []string
	for p := b; p != nil; {
		names = append(names, p.Name)
		if p.parent == nil {
			break
		}
		p = &p.parent.Base
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// Labelled reports whether the element has a label, hint or media.
func (b *Base) Labelled() bool {
	return len(b.Label) > 0 || len(b.Hint) > 0 || len(b.Media) > 0
}

// Question is a leaf element bound to one instance node.
type Question struct {
	Base
	Control   Control
	MediaType string
	Action    *aliases.Action
	Choices   *ChoiceList
	Tags      []Tag
}

// HasControl reports whether the question gets a body control.
func (q *Question) HasControl() bool {
	if q.Control == ControlNone || q.Control == ControlAction {
		return false
	}
	if _, ok := q.Bind["calculate"]; ok || q.Trigger != "" {
		return q.Labelled()
	}
	return true
}

// ChoiceList is a named ordered list of options shared by selects.
type ChoiceList struct {
	Name    string
	Options []Option
}

// Section is a group, a repeat or the survey root.
type Section struct {
	Base
	Kind     SectionKind
	Children []Element
}

// Add appends e to the section's children.
func (s *Section) Add(e Element) {
	e.Node().parent = s
	s.Children = append(s.Children, e)
}

// EntityDeclaration describes the entity a submission creates or updates.
type EntityDeclaration struct {
	Base
	Dataset  string
	EntityID string
	CreateIf string
	UpdateIf string
	Label    string
	Repeat   string
}

// Creates reports whether the declaration can create an entity.
func (e *EntityDeclaration) Creates() bool {
	return e.EntityID == "" || e.CreateIf != ""
}

// Updates reports whether the declaration can update an entity.
func (e *EntityDeclaration) Updates() bool {
	return e.EntityID != ""
}

// ExternalInstance declares a secondary instance loaded from a form
// attachment. It has no instance node, bind or control.
type ExternalInstance struct {
	Base
	Format string
}

// Src is the attachment URI of the instance.
func (e *ExternalInstance) Src() string {
	if e.Format == "csv" {
		return "jr://file-csv/" + e.Name + ".csv"
	}
	return "jr://file/" + e.Name + "." + e.Format
}

// Survey is the root section.
type Survey struct {
	Section
	IDString        string
	Title           string
	DefaultLanguage string
	Version         string
	Settings        map[string]string
	Choices         map[string]*ChoiceList
	Entity          *EntityDeclaration

	// LastSaved is set by the resolver when a last-saved reference is used.
	LastSaved bool
	// ChoiceLabels holds resolved option label markup per list, for labels
	// with references.
	ChoiceLabels map[string][]Text
}

// Setting returns the named settings value.
func (s *Survey) Setting(key string) string {
	return s.Settings[key]
}

// NearestRepeat returns the closest enclosing repeat of e, e itself included,
// or nil.
func NearestRepeat(e Element) *Section {
	if s, ok := e.(*Section); ok && s.Kind == KindRepeat {
		return s
	}
	for p := e.Node().parent; p != nil; p = p.parent {
		if p.Kind == KindRepeat {
			return p
		}
	}
	return nil
}

// InRepeat reports whether e has a repeat ancestor.
func InRepeat(e Element) bool {
	for p := e.Node().parent; p != nil; p = p.parent {
		if p.Kind == KindRepeat {
			return true
		}
	}
	return false
}

// Walk visits e and its descendants in document order until fn returns false.
func Walk(e Element, fn func(Element) bool) {
	stack := []Element{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			return
		}
		var children []Element
		switch s := cur.(type) {
		case *Section:
			children = s.Children
		case *Survey:
			children = s.Children
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// Elements returns every element below root, root excluded, in document order.
func (s *Survey) Elements() []Element {
	var out []Element
	Walk(s, func(e Element) bool {
		if e != Element(s) {
			out = append(out, e)
		}
		return true
	})
	return out
}
