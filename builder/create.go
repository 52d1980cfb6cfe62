package builder

import (
	"fmt"
	"strings"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

// creator turns a definition tree into typed elements.
type creator struct {
	opts      Options
	types     aliases.Table
	w         *validate.Warnings
	s         *survey.Survey
	including map[string]bool
}

type work struct {
	def    *survey.Def
	parent *survey.Section
}

func create(def *survey.Def, opts Options, w *validate.Warnings) (*survey.Survey, error) {
	if def.Type != survey.TypeSurvey {
		return nil, validate.StructuralError(0, "The definition root must be a survey, got '%s'.", def.Type)
	}
	c := &creator{opts: opts, types: opts.types(), w: w, including: map[string]bool{}}
	s := &survey.Survey{
		Section:         survey.Section{Base: survey.Base{Fields: def.Fields.Clone()}, Kind: survey.KindSurvey},
		IDString:        def.IDString,
		Title:           def.Title,
		DefaultLanguage: def.DefaultLanguage,
		Version:         def.Version,
		Settings:        map[string]string{},
		Choices:         map[string]*survey.ChoiceList{},
	}
	for k, v := range def.Settings {
		s.Settings[k] = v
	}
	if s.Title == "" {
		s.Title = s.Name
	}
	for name, opts := range def.Choices {
		s.Choices[name] = &survey.ChoiceList{Name: name, Options: opts}
	}
	c.s = s

	if err := validate.Name(s.Name, 0); err != nil {
		return nil, err
	}
	if err := c.children(def.Children, &s.Section); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// children creates defs and their subtrees under parent, in document order.
func (c *creator) children(defs []*survey.Def, parent *survey.Section) error {
	stack := make([]work, 0, len(defs))
	push := func(defs []*survey.Def, parent *survey.Section) {
		for i := len(defs) - 1; i >= 0; i-- {
			stack = append(stack, work{defs[i], parent})
		}
	}
	push(defs, parent)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := cur.def
		switch d.Type {
		case survey.TypeLoop:
			d = expandLoop(d)
			fallthrough
		case survey.TypeGroup, survey.TypeRepeat:
			kind := survey.KindGroup
			if d.Type == survey.TypeRepeat {
				kind = survey.KindRepeat
			}
			if err := validate.Name(d.Name, d.Row); err != nil {
				return err
			}
			sec := &survey.Section{Base: survey.Base{Fields: d.Fields.Clone()}, Kind: kind}
			sec.Type = d.Type
			if err := checkMedia(&sec.Base); err != nil {
				return err
			}
			cur.parent.Add(sec)
			push(d.Children, sec)
		case survey.TypeInclude:
			defs, err := c.include(d)
			if err != nil {
				return err
			}
			push(defs, cur.parent)
		case survey.TypeEntity:
			e := entityDeclaration(d)
			cur.parent.Add(e)
			c.s.Entity = e
		default:
			if qt, ok := c.types.Lookup(d.Type); ok && qt.External != "" {
				if err := validate.Name(d.Name, d.Row); err != nil {
					return err
				}
				cur.parent.Add(&survey.ExternalInstance{Base: survey.Base{Fields: d.Fields.Clone()}, Format: qt.External})
				continue
			}
			q, err := c.question(d)
			if err != nil {
				return err
			}
			cur.parent.Add(q)
		}
	}
	return nil
}

func entityDeclaration(d *survey.Def) *survey.EntityDeclaration {
	p := d.Parameters
	e := &survey.EntityDeclaration{
		Base:     survey.Base{Fields: d.Fields.Clone()},
		Dataset:  p["dataset"],
		EntityID: p["entity_id"],
		CreateIf: p["create_if"],
		UpdateIf: p["update_if"],
		Label:    p["label"],
		Repeat:   p["repeat"],
	}
	e.Type = survey.TypeEntity
	if e.Name == "" {
		e.Name = "entity"
	}
	return e
}

func (c *creator) question(d *survey.Def) (*survey.Question, error) {
	if err := validate.Name(d.Name, d.Row); err != nil {
		return nil, err
	}
	qt, ok := c.types.Lookup(d.Type)
	if !ok {
		msg := fmt.Sprintf("Unknown question type '%s'.", d.Type)
		if similar := validate.Suggest(d.Type, c.types.Names(), 3); len(similar) > 0 {
			msg += " Did you mean: " + quoted(similar) + "?"
		}
		return nil, validate.StructuralError(d.Row, "%s", msg)
	}

	q := &survey.Question{
		Base:      survey.Base{Fields: d.Fields.Clone()},
		Control:   survey.ControlOf(qt),
		MediaType: qt.MediaType,
		Action:    qt.Action,
	}
	if len(qt.Bind) > 0 {
		bind := make(map[string]string, len(qt.Bind)+len(q.Bind))
		for k, v := range qt.Bind {
			bind[k] = v
		}
		for k, v := range q.Bind {
			bind[k] = v
		}
		q.Bind = bind
	}
	if q.Hint == nil && qt.Hint != "" {
		q.Hint = survey.PlainText(qt.Hint)
	}
	for _, tag := range d.Tags {
		q.Tags = append(q.Tags, survey.Tag{Name: tag.Name, Label: tag.Label.Clone(), Options: tag.Options})
	}

	if q.Control.IsSelect() && q.Itemset == "" && q.ListName != "" {
		q.Itemset = q.ListName
	}
	if q.ListName != "" {
		list, ok := c.s.Choices[q.ListName]
		if !ok {
			return nil, validate.StructuralError(d.Row, "List name not in choices sheet: %s", q.ListName)
		}
		q.Choices = c.extendChoices(q, list)
	}

	if err := checkLabel(q); err != nil {
		return nil, err
	}
	if err := checkMedia(&q.Base); err != nil {
		return nil, err
	}
	return q, nil
}

// extendChoices returns list, or a copy of it with the or_other and
// add_none_option choices when the question asks for them.
func (c *creator) extendChoices(q *survey.Question, list *survey.ChoiceList) *survey.ChoiceList {
	var extra []survey.Option
	if q.OrOther {
		extra = append(extra, survey.Option{Name: "other", Label: survey.PlainText("Other")})
	}
	if q.Type == aliases.SelectMultiple && yes(c.s.Settings, "add_none_option") {
		extra = append(extra, survey.Option{Name: "none", Label: survey.PlainText("None")})
	}
	var add []survey.Option
	for _, o := range extra {
		present := false
		for _, existing := range list.Options {
			if existing.Name == o.Name {
				present = true
				break
			}
		}
		if !present {
			add = append(add, o)
		}
	}
	if len(add) == 0 {
		return list
	}
	opts := make([]survey.Option, 0, len(list.Options)+len(add))
	opts = append(opts, list.Options...)
	return &survey.ChoiceList{Name: list.Name, Options: append(opts, add...)}
}

func checkLabel(q *survey.Question) error {
	if !q.HasControl() || aliases.LabelOptional[q.Type] || q.Fields.Control["appearance"] == "label" {
		return nil
	}
	if !q.Labelled() {
		return &validate.Error{Code: validate.ErrMissingLabel, Sheet: aliases.SheetSurvey, Row: q.Row,
			Message: fmt.Sprintf("The survey element named '%s' has no label or hint.", q.Name)}
	}
	return nil
}

func checkMedia(b *survey.Base) error {
	_, image := b.Media["image"]
	if _, big := b.Media["big-image"]; big && !image {
		return validate.StructuralError(b.Row,
			"To use big-image, you must also specify an image for the survey element named %s.", b.Name)
	}
	return nil
}

// include returns the children of the named included workbook and merges its
// choice lists.
func (c *creator) include(d *survey.Def) ([]*survey.Def, error) {
	wb, ok := c.opts.Included[d.Name]
	if !ok {
		return nil, validate.StructuralError(d.Row, "This section has not been included: %s", d.Name)
	}
	if c.including[d.Name] {
		return nil, validate.StructuralError(d.Row, "The included section '%s' includes itself.", d.Name)
	}
	c.including[d.Name] = true
	defer delete(c.including, d.Name)

	opts := c.opts
	opts.FormName = d.Name
	def, err := readRows(wb, opts, c.w)
	if err != nil {
		return nil, err
	}
	for name, opts := range def.Choices {
		if existing, ok := c.s.Choices[name]; ok {
			if !sameOptions(existing.Options, opts) {
				return nil, &validate.Error{Code: validate.ErrChoices, Sheet: aliases.SheetChoices, Message: fmt.Sprintf(
					"The choice list '%s' of the included section '%s' differs from the list of the same name in this form.",
					name, d.Name)}
			}
			continue
		}
		c.s.Choices[name] = &survey.ChoiceList{Name: name, Options: opts}
	}
	var children []*survey.Def
	for _, child := range def.Children {
		if child.Type == survey.TypeGroup && child.Name == "meta" && child.Bodyless {
			continue
		}
		children = append(children, child)
	}
	return c.expandIncludes(children)
}

// expandIncludes replaces nested include nodes of an included section while
// its name is still on the include chain.
func (c *creator) expandIncludes(defs []*survey.Def) ([]*survey.Def, error) {
	out := make([]*survey.Def, 0, len(defs))
	for _, d := range defs {
		if d.Type == survey.TypeInclude {
			sub, err := c.include(d)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if len(d.Children) > 0 {
			children, err := c.expandIncludes(d.Children)
			if err != nil {
				return nil, err
			}
			d.Children = children
		}
		out = append(out, d)
	}
	return out, nil
}

func sameOptions(a, b []survey.Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !sameText(a[i].Label, b[i].Label) {
			return false
		}
	}
	return true
}

func sameText(a, b survey.Text) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// expandLoop turns a loop into a group holding one group per column, each
// with the loop body templated on the column name and label.
func expandLoop(d *survey.Def) *survey.Def {
	g := &survey.Def{Fields: d.Fields.Clone()}
	g.Type = survey.TypeGroup
	for _, col := range d.Columns {
		if col.Name == "none" {
			continue
		}
		cg := &survey.Def{Fields: survey.Fields{
			Type:  survey.TypeGroup,
			Name:  col.Name,
			Label: col.Label.Clone(),
			Row:   d.Row,
		}}
		for kind, t := range col.Media {
			if cg.Media == nil {
				cg.Media = map[string]survey.Text{}
			}
			cg.Media[kind] = t.Clone()
		}
		for _, child := range d.Children {
			body := child.Clone()
			substitute(body, col)
			cg.Children = append(cg.Children, body)
		}
		g.Children = append(g.Children, cg)
	}
	return g
}

// substitute replaces %(name)s and %(label)s throughout d. Translated text uses
// the column label of the same language.
func substitute(d *survey.Def, col survey.Option) {
	label := col.Label.Any()
	plain := strings.NewReplacer("%(name)s", col.Name, "%(label)s", label)
	text := func(t survey.Text) survey.Text {
		return t.Map(func(lang, value string) string {
			l := label
			if v, ok := col.Label[lang]; ok {
				l = v
			}
			return strings.NewReplacer("%(name)s", col.Name, "%(label)s", l).Replace(value)
		})
	}
	strs := func(m map[string]string) {
		for k, v := range m {
			m[k] = plain.Replace(v)
		}
	}

	f := &d.Fields
	f.Name = plain.Replace(f.Name)
	f.Default = plain.Replace(f.Default)
	f.Trigger = plain.Replace(f.Trigger)
	f.ChoiceFilter = plain.Replace(f.ChoiceFilter)
	f.Label = text(f.Label)
	f.Hint = text(f.Hint)
	f.GuidanceHint = text(f.GuidanceHint)
	f.ConstraintMessage = text(f.ConstraintMessage)
	f.RequiredMessage = text(f.RequiredMessage)
	for kind, t := range f.Media {
		f.Media[kind] = text(t)
	}
	strs(f.Bind)
	strs(f.Control)
	strs(f.Instance)
	for _, child := range d.Children {
		substitute(child, col)
	}
}

// check runs the whole tree rules: sibling and repeat names.
func (c *creator) check() error {
	var repeats []validate.Sibling
	var err error
	survey.Walk(c.s, func(e survey.Element) bool {
		var sec *survey.Section
		switch e := e.(type) {
		case *survey.Survey:
			sec = &e.Section
		case *survey.Section:
			sec = e
			if e.Kind == survey.KindRepeat {
				repeats = append(repeats, validate.Sibling{Name: e.Name, Row: e.Row})
			}
		default:
			return true
		}
		siblings := make([]validate.Sibling, len(sec.Children))
		for i, child := range sec.Children {
			siblings[i] = validate.Sibling{Name: child.Node().Name, Row: child.Node().Row}
		}
		if err = validate.UniqueNames(sec.Name, siblings, c.w); err != nil {
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	return validate.RepeatNames(c.s.Name, repeats)
}
