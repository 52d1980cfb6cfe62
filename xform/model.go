package xform

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/itext"
	"github.com/mbolis/quick-xform/resolve"
	"github.com/mbolis/quick-xform/survey"
)

const readonly = "true()"

func (g *generator) model(model *etree.Element) error {
	model.CreateAttr("odk:xforms-version", XFormsVersion)
	if g.s.Entity != nil {
		model.CreateAttr("entities:entities-version", EntitiesVersion)
	}
	g.submission(model)
	if !g.t.Empty() {
		if err := g.itext(model.CreateElement("itext")); err != nil {
			return err
		}
	}
	g.primaryInstance(model.CreateElement("instance"))
	if err := g.secondaryInstances(model); err != nil {
		return err
	}
	for _, e := range g.s.Elements() {
		g.binds(model, e)
	}
	for _, e := range g.s.Elements() {
		q, ok := e.(*survey.Question)
		if !ok || q.Action == nil {
			continue
		}
		action := model.CreateElement(q.Action.Name)
		action.CreateAttr("ref", q.Path())
		action.CreateAttr("event", q.Action.Event)
	}
	return nil
}

func (g *generator) submission(model *etree.Element) {
	var attrs [][2]string
	if url := g.s.Setting("submission_url"); url != "" {
		attrs = append(attrs, [2]string{"action", url}, [2]string{"method", "post"})
	}
	if key := g.s.Setting("public_key"); key != "" {
		attrs = append(attrs, [2]string{"base64RsaPublicKey", key})
	}
	if v := g.s.Setting("auto_send"); v != "" {
		attrs = append(attrs, [2]string{"orx:auto-send", v})
	}
	if v := g.s.Setting("auto_delete"); v != "" {
		attrs = append(attrs, [2]string{"orx:auto-delete", v})
	}
	if yes, _ := aliases.YesNo(g.s.Setting("client_editable")); yes {
		attrs = append(attrs, [2]string{"odk:client-editable", "true"})
	}
	if len(attrs) == 0 {
		return
	}
	sub := model.CreateElement("submission")
	for _, a := range attrs {
		sub.CreateAttr(a[0], a[1])
	}
}

func (g *generator) itext(el *etree.Element) error {
	for _, lang := range g.t.Languages {
		tr := el.CreateElement("translation")
		tr.CreateAttr("lang", lang)
		if lang == g.t.Default {
			tr.CreateAttr("default", "true()")
		}
		for _, entry := range g.t.Entries {
			text := tr.CreateElement("text")
			text.CreateAttr("id", entry.ID)
			for _, v := range entry.Values[lang] {
				value := text.CreateElement("value")
				if v.Form != itext.FormLong {
					value.CreateAttr("form", v.Form)
				}
				if err := setValue(value, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// binds writes the bind of e, with its model setvalue actions.
func (g *generator) binds(model *etree.Element, e survey.Element) {
	switch e := e.(type) {
	case *survey.EntityDeclaration:
		g.entityBinds(model, e)
		return
	case *survey.ExternalInstance:
		return
	}
	b := e.Node()
	attrs := map[string]string{}
	for k, v := range b.Resolved.Bind {
		attrs[k] = v
	}
	if msg := g.message(b, itext.KindConstraintMessage, b.ConstraintMessage); msg != "" {
		attrs["jr:constraintMsg"] = msg
	}
	if msg := g.message(b, itext.KindRequiredMessage, b.RequiredMessage); msg != "" {
		attrs["jr:requiredMsg"] = msg
	}
	if len(attrs) > 0 {
		bind(model, b.Path(), attrs)
	}
	if b.Resolved.Default != "" && !survey.InRepeat(e) {
		setvalue(model, b.Path(), resolve.EventFirstLoad, b.Resolved.Default)
	}
}

func (g *generator) message(b *survey.Base, kind string, text survey.Text) string {
	if len(text) == 0 {
		return ""
	}
	if ref := g.t.Ref(itext.TextID(b.Path(), kind)); ref != "" {
		return ref
	}
	return g.t.Inline(text)
}

// bind writes a bind element: nodeset, type, then the other attributes by
// name.
func bind(model *etree.Element, nodeset string, attrs map[string]string) {
	el := model.CreateElement("bind")
	el.CreateAttr("nodeset", nodeset)
	if t, ok := attrs["type"]; ok {
		el.CreateAttr("type", t)
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k != "type" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		el.CreateAttr(k, attrs[k])
	}
}

func setvalue(parent *etree.Element, ref, event, value string) {
	el := parent.CreateElement("setvalue")
	el.CreateAttr("ref", ref)
	el.CreateAttr("event", event)
	if value != "" {
		el.CreateAttr("value", value)
	}
}

// entityBinds writes the binds of the entity attributes. Outside a repeat
// the new entity id is set on first load.
func (g *generator) entityBinds(model *etree.Element, e *survey.EntityDeclaration) {
	base := e.Path()
	calc := e.Resolved.Entity
	computed := func(node, expr string) {
		bind(model, base+"/"+node, map[string]string{"calculate": expr, "readonly": readonly, "type": "string"})
	}
	for _, attr := range []string{resolve.EntityCreate, resolve.EntityUpdate,
		resolve.EntityBaseVersion, resolve.EntityTrunkVersion, resolve.EntityBranchID} {
		if expr, ok := calc[attr]; ok {
			computed("@"+attr, expr)
		}
	}
	id := map[string]string{"readonly": readonly, "type": "string"}
	if expr, ok := calc[resolve.EntityID]; ok {
		id["calculate"] = expr
	}
	bind(model, base+"/@"+resolve.EntityID, id)
	if e.Creates() && !survey.InRepeat(e) {
		setvalue(model, base+"/@"+resolve.EntityID, resolve.EventFirstLoad, "uuid()")
	}
	if expr, ok := calc[resolve.EntityLabel]; ok {
		computed(resolve.EntityLabel, expr)
	}
}
