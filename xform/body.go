package xform

import (
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/mbolis/quick-xform/itext"
	"github.com/mbolis/quick-xform/resolve"
	"github.com/mbolis/quick-xform/survey"
)

// Item references of select_*_from_file lists.
var fileItemRefs = map[string][2]string{
	".csv":     {"name", "label"},
	".xml":     {"name", "label"},
	".geojson": {"id", "title"},
}

// controls writes the body controls of the children of sec.
func (g *generator) controls(parent *etree.Element, sec *survey.Section) {
	for _, child := range sec.Children {
		switch e := child.(type) {
		case *survey.Section:
			if e.Bodyless {
				continue
			}
			if e.Kind == survey.KindRepeat {
				g.repeat(parent, e)
			} else {
				g.group(parent, e)
			}
		case *survey.Question:
			if e.HasControl() {
				g.question(parent, e)
			}
		}
	}
}

func (g *generator) group(parent *etree.Element, sec *survey.Section) {
	el := parent.CreateElement("group")
	el.CreateAttr("ref", sec.Path())
	setSorted(el, sec.Resolved.Control)
	if len(sec.Label) > 0 || len(sec.Media) > 0 {
		g.label(el, &sec.Base)
	}
	g.controls(el, sec)
}

// repeat writes a repeat wrapped in a group holding its label. Dynamic
// defaults below it run on first load and for each new repeat.
func (g *generator) repeat(parent *etree.Element, sec *survey.Section) {
	el := parent.CreateElement("group")
	el.CreateAttr("ref", sec.Path())
	if len(sec.Label) > 0 || len(sec.Media) > 0 {
		g.label(el, &sec.Base)
	}
	rep := el.CreateElement("repeat")
	rep.CreateAttr("nodeset", sec.Path())
	setSorted(rep, sec.Resolved.Control)
	g.controls(rep, sec)

	event := resolve.EventFirstLoad + " " + resolve.EventNewRepeat
	var defaults func(s *survey.Section)
	defaults = func(s *survey.Section) {
		for _, child := range s.Children {
			b := child.Node()
			if b.Resolved.Default != "" {
				setvalue(rep, b.Path(), event, b.Resolved.Default)
			}
			switch c := child.(type) {
			case *survey.Section:
				if c.Kind != survey.KindRepeat {
					defaults(c)
				}
			case *survey.EntityDeclaration:
				if c.Creates() {
					setvalue(rep, c.Path()+"/@"+resolve.EntityID, event, "uuid()")
				}
			}
		}
	}
	defaults(sec)
}

func (g *generator) question(parent *etree.Element, q *survey.Question) {
	el := parent.CreateElement(q.Control.Tag())
	el.CreateAttr("ref", q.Path())
	setSorted(el, q.Resolved.Control)
	switch q.Control {
	case survey.ControlUpload, survey.ControlOsm:
		el.CreateAttr("mediatype", q.MediaType)
	case survey.ControlRange:
		for _, k := range []string{"start", "end", "step"} {
			if v, ok := q.Parameters[k]; ok {
				el.CreateAttr(k, v)
			}
		}
	}
	g.labelAndHint(el, q)
	switch {
	case q.Control.IsSelect():
		g.choices(el, q)
	case q.Control == survey.ControlOsm:
		g.tags(el, q)
	}
	for _, sv := range q.Resolved.Triggers {
		setvalue(el, sv.Ref, sv.Event, sv.Value)
	}
}

// labelAndHint writes the label, then the hint. A hint needs a label
// element, which may be empty.
func (g *generator) labelAndHint(el *etree.Element, q *survey.Question) {
	hint := len(q.Hint) > 0 || len(q.GuidanceHint) > 0
	if q.Labelled() || hint {
		g.label(el, &q.Base)
	}
	if !hint {
		return
	}
	h := el.CreateElement("hint")
	if ref := g.t.Ref(itext.TextID(q.Path(), itext.KindHint)); ref != "" {
		h.CreateAttr("ref", ref)
		return
	}
	h.SetText(g.t.Inline(q.Hint))
}

func (g *generator) label(el *etree.Element, b *survey.Base) {
	l := el.CreateElement("label")
	if ref := g.t.Ref(itext.TextID(b.Path(), itext.KindLabel)); ref != "" {
		l.CreateAttr("ref", ref)
		return
	}
	if len(b.Label) > 0 {
		l.SetText(g.t.Inline(b.Label))
	}
}

func (g *generator) choices(el *etree.Element, q *survey.Question) {
	switch {
	case q.Resolved.ItemsetPath != "":
		nodeset := path.Dir(q.Resolved.ItemsetPath)
		name := path.Base(q.Resolved.ItemsetPath)
		g.itemset(el, q, nodeset+"["+q.Resolved.ChoiceFilter+"]", name, name)
	case q.Choices == nil:
		file, ok := fromFile(q.Itemset)
		if !ok {
			return
		}
		ext := path.Ext(file)
		refs := fileItemRefs[ext]
		value, label := refs[0], refs[1]
		if v, ok := q.Parameters["value"]; ok {
			value = v
		}
		if v, ok := q.Parameters["label"]; ok {
			label = v
		}
		g.itemset(el, q, filtered("instance('"+strings.TrimSuffix(file, ext)+"')/root/item", q.Resolved.ChoiceFilter), value, label)
	case g.t.UsesInstance(q.Choices.Name):
		label := "label"
		if g.t.ChoicesUseItext(q.Choices.Name) {
			label = "jr:itext(itextId)"
		}
		g.itemset(el, q, filtered("instance('"+q.Choices.Name+"')/root/item", q.Resolved.ChoiceFilter), "name", label)
	default:
		g.items(el, q.Choices)
	}
}

func filtered(nodeset, filter string) string {
	if filter == "" {
		return nodeset
	}
	return nodeset + "[" + filter + "]"
}

// itemset writes an itemset, shuffled when the randomize parameter is set.
func (g *generator) itemset(el *etree.Element, q *survey.Question, nodeset, value, label string) {
	if q.Parameters["randomize"] == "true" {
		if q.Resolved.Seed != "" {
			nodeset = "randomize(" + nodeset + ", " + q.Resolved.Seed + ")"
		} else {
			nodeset = "randomize(" + nodeset + ")"
		}
	}
	is := el.CreateElement("itemset")
	is.CreateAttr("nodeset", nodeset)
	is.CreateElement("value").CreateAttr("ref", value)
	is.CreateElement("label").CreateAttr("ref", label)
}

func (g *generator) items(el *etree.Element, list *survey.ChoiceList) {
	useItext := g.t.ChoicesUseItext(list.Name)
	for i, o := range list.Options {
		item := el.CreateElement("item")
		l := item.CreateElement("label")
		if useItext {
			l.CreateAttr("ref", "jr:itext('"+itext.ChoiceID(list.Name, i)+"')")
		} else {
			l.SetText(g.t.Inline(o.Label))
		}
		item.CreateElement("value").SetText(o.Name)
	}
}

// tags writes the osm tags of an osm question.
func (g *generator) tags(el *etree.Element, q *survey.Question) {
	for _, tag := range q.Tags {
		t := el.CreateElement("tag")
		t.CreateAttr("key", tag.Name)
		t.CreateElement("label").SetText(g.t.Inline(tag.Label))
		for _, o := range tag.Options {
			item := t.CreateElement("item")
			item.CreateElement("label").SetText(g.t.Inline(o.Label))
			item.CreateElement("value").SetText(o.Name)
		}
	}
}

// setValue fills an itext value, parsing output markup into elements.
func setValue(el *etree.Element, v itext.Value) error {
	if !v.Markup {
		el.SetText(v.Text)
		return nil
	}
	frag := etree.NewDocument()
	if err := frag.ReadFromString("<v>" + v.Text + "</v>"); err != nil {
		return err
	}
	for _, tok := range append([]etree.Token(nil), frag.Root().Child...) {
		el.AddChild(tok)
	}
	return nil
}
