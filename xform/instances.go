package xform

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/mbolis/quick-xform/expression"
	"github.com/mbolis/quick-xform/itext"
	"github.com/mbolis/quick-xform/resolve"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

const lastSavedSrc = "jr://instance/last-saved"

// Bind attributes whose pulldata() calls name an external csv instance.
var pulldataBinds = []string{"calculate", "constraint", "readonly", "required", "relevant"}

type secondary struct {
	kind    string
	id      string
	src     string
	context string
	choices *survey.ChoiceList
}

// secondaryInstances writes the external, last-saved and choice instances.
// An id may be reused only with the same source.
func (g *generator) secondaryInstances(model *etree.Element) error {
	instances := g.collectInstances()
	if err := uniqueExternals(instances); err != nil {
		return err
	}
	seen := map[string]secondary{}
	for _, in := range instances {
		prior, ok := seen[in.id]
		if ok && prior.src != in.src {
			return validate.Errorf(validate.ErrInstance,
				"The same instance id will be generated for different external instance source URIs. "+
					"Please check the form. Instance name: '%s', Existing type: '%s', Existing URI: '%s', "+
					"Duplicate type: '%s', Duplicate URI: '%s', Duplicate context: '%s'.",
				in.id, prior.kind, prior.src, in.kind, in.src, in.context)
		}
		if ok {
			continue
		}
		seen[in.id] = in
		el := model.CreateElement("instance")
		el.CreateAttr("id", in.id)
		if in.src != "" {
			el.CreateAttr("src", in.src)
		}
		if in.choices != nil {
			g.choiceInstance(el.CreateElement("root"), in.choices)
		}
	}
	return nil
}

func (g *generator) collectInstances() []secondary {
	var out []secondary
	for _, e := range g.s.Elements() {
		b := e.Node()
		context := fmt.Sprintf("[type: %s, name: %s]", parentType(b), parentName(b))
		if ext, ok := e.(*survey.ExternalInstance); ok {
			out = append(out, secondary{kind: "external", id: ext.Name, src: ext.Src(), context: context})
			continue
		}
		exprs := []string{b.ChoiceFilter, b.Default}
		for _, k := range pulldataBinds {
			exprs = append(exprs, b.Bind[k])
		}
		for _, ex := range exprs {
			for _, name := range expression.Pulldata(ex) {
				out = append(out, secondary{kind: "pulldata", id: name, src: "jr://file-csv/" + name + ".csv", context: context})
			}
		}
		if q, ok := e.(*survey.Question); ok && q.Control.IsSelect() && q.Choices == nil {
			if file, ok := fromFile(q.Itemset); ok {
				out = append(out, secondary{kind: "file", id: strings.TrimSuffix(file, path.Ext(file)), src: fileSrc(file), context: context})
			}
		}
	}
	if g.s.LastSaved {
		out = append(out, secondary{kind: "instance", id: resolve.LastSavedInstance, src: lastSavedSrc})
	}
	for _, name := range g.t.Lists {
		out = append(out, secondary{kind: "choice", id: name, choices: g.choiceList(name)})
	}
	return out
}

// uniqueExternals rejects external instances declared twice under one name,
// wherever they are in the form.
func uniqueExternals(instances []secondary) error {
	var (
		order  []string
		copies = map[string][]secondary{}
	)
	for _, in := range instances {
		if in.kind != "external" {
			continue
		}
		if _, ok := copies[in.id]; !ok {
			order = append(order, in.id)
		}
		copies[in.id] = append(copies[in.id], in)
	}
	var msgs []string
	for _, id := range order {
		if len(copies[id]) < 2 {
			continue
		}
		contexts := make([]string, len(copies[id]))
		for i, in := range copies[id] {
			contexts[i] = in.context + "(" + in.kind + ")"
		}
		msgs = append(msgs, fmt.Sprintf("Instance names must be unique within a form. "+
			"The name '%s' was found %d time(s), under these contexts: %s",
			id, len(copies[id]), strings.Join(contexts, ", ")))
	}
	if len(msgs) > 0 {
		return validate.Errorf(validate.ErrInstance, "%s", strings.Join(msgs, "\n"))
	}
	return nil
}

func parentType(b *survey.Base) string {
	if p := b.Parent(); p != nil {
		return p.Type
	}
	return ""
}

func parentName(b *survey.Base) string {
	if p := b.Parent(); p != nil {
		return p.Name
	}
	return ""
}

var fileExtensions = map[string]bool{".csv": true, ".xml": true, ".geojson": true}

// fromFile reports whether itemset names an external choices file.
func fromFile(itemset string) (string, bool) {
	return itemset, itemset != "" && fileExtensions[path.Ext(itemset)] && !expression.HasReference(itemset)
}

func fileSrc(file string) string {
	if ext := path.Ext(file); ext == ".csv" {
		return "jr://file-csv/" + file
	}
	return "jr://file/" + file
}

// choiceList returns the longest version of the named list among the
// selects using it. Versions differ only by appended options.
func (g *generator) choiceList(name string) *survey.ChoiceList {
	var best *survey.ChoiceList
	for _, e := range g.s.Elements() {
		q, ok := e.(*survey.Question)
		if !ok || q.Choices == nil || q.Choices.Name != name {
			continue
		}
		if best == nil || len(q.Choices.Options) > len(best.Options) {
			best = q.Choices
		}
	}
	if best == nil {
		return g.s.Choices[name]
	}
	return best
}

func (g *generator) choiceInstance(root *etree.Element, list *survey.ChoiceList) {
	useItext := g.t.ChoicesUseItext(list.Name)
	for i, o := range list.Options {
		item := root.CreateElement("item")
		if useItext {
			item.CreateElement("itextId").SetText(itext.ChoiceID(list.Name, i))
		}
		item.CreateElement("name").SetText(o.Name)
		if !useItext && len(o.Label) > 0 {
			item.CreateElement("label").SetText(g.t.Inline(o.Label))
		}
		keys := make([]string, 0, len(o.Extra))
		for k := range o.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			item.CreateElement(k).SetText(o.Extra[k])
		}
	}
}
