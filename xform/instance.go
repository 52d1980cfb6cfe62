package xform

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/mbolis/quick-xform/resolve"
	"github.com/mbolis/quick-xform/survey"
)

// copyKind tells apart the copies of a repeat in the primary instance.
type copyKind int

const (
	// copyTop is outside any repeat: repeats get a template then a copy.
	copyTop copyKind = iota
	// copyData is inside the data copy of a repeat.
	copyData
	// copyTemplate is inside a repeat template.
	copyTemplate
)

// primaryInstance writes the survey root node and its subtree.
func (g *generator) primaryInstance(parent *etree.Element) {
	s := g.s
	root := parent.CreateElement(s.Name)
	setSorted(root, s.Resolved.Instance)
	root.CreateAttr("id", s.IDString)
	if ns := s.Setting("instance_xmlns"); ns != "" {
		root.CreateAttr("xmlns", ns)
	}
	if s.Version != "" {
		root.CreateAttr("version", s.Version)
	}
	if prefix := s.Setting("prefix"); prefix != "" {
		root.CreateAttr("odk:prefix", prefix)
	}
	if delimiter := s.Setting("delimiter"); delimiter != "" {
		root.CreateAttr("odk:delimiter", delimiter)
	}
	g.instanceChildren(root, s.Children, copyTop)
}

func (g *generator) instanceChildren(parent *etree.Element, children []survey.Element, kind copyKind) {
	for _, child := range children {
		if _, ok := child.(*survey.ExternalInstance); ok {
			continue
		}
		sec, ok := child.(*survey.Section)
		if !ok || sec.Kind != survey.KindRepeat {
			g.instanceNode(parent, child, kind)
			continue
		}
		switch kind {
		case copyTop:
			g.instanceNode(parent, sec, copyTemplate).CreateAttr("jr:template", "")
			g.instanceNode(parent, sec, copyData)
		case copyTemplate:
			g.instanceNode(parent, sec, copyTemplate).CreateAttr("jr:template", "")
		default:
			g.instanceNode(parent, sec, copyData)
		}
	}
}

func (g *generator) instanceNode(parent *etree.Element, e survey.Element, kind copyKind) *etree.Element {
	b := e.Node()
	el := parent.CreateElement(b.Name)
	switch e := e.(type) {
	case *survey.Section:
		setSorted(el, b.Resolved.Instance)
		g.instanceChildren(el, e.Children, kind)
	case *survey.Question:
		setSorted(el, b.Resolved.Instance)
		if b.Default != "" && b.Resolved.Default == "" {
			el.SetText(b.Default)
		}
	case *survey.EntityDeclaration:
		g.entityInstance(el, e)
	}
	return el
}

// entityInstance writes the entity attributes and optional label node.
func (g *generator) entityInstance(el *etree.Element, e *survey.EntityDeclaration) {
	el.CreateAttr(resolve.EntityDataset, e.Dataset)
	if e.Creates() {
		el.CreateAttr(resolve.EntityCreate, "1")
	}
	if e.Updates() {
		el.CreateAttr(resolve.EntityUpdate, "1")
		for _, attr := range []string{resolve.EntityBaseVersion, resolve.EntityTrunkVersion, resolve.EntityBranchID} {
			el.CreateAttr(attr, "")
		}
	}
	el.CreateAttr(resolve.EntityID, "")
	if e.Label != "" {
		el.CreateElement(resolve.EntityLabel)
	}
}

func setSorted(el *etree.Element, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		el.CreateAttr(k, attrs[k])
	}
}
