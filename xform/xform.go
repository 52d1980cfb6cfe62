// Package xform renders a resolved survey and its translation table as an
// XForm document.
package xform

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-xform/itext"
	"github.com/mbolis/quick-xform/survey"
)

// Versions declared on the model.
const (
	XFormsVersion   = "1.0.0"
	EntitiesVersion = "2024.1.0"
)

// Namespaces of the html root, in declaration order.
var Namespaces = [][2]string{
	{"xmlns", "http://www.w3.org/2002/xforms"},
	{"xmlns:h", "http://www.w3.org/1999/xhtml"},
	{"xmlns:ev", "http://www.w3.org/2001/xml-events"},
	{"xmlns:xsd", "http://www.w3.org/2001/XMLSchema"},
	{"xmlns:jr", "http://openrosa.org/javarosa"},
	{"xmlns:orx", "http://openrosa.org/xforms"},
	{"xmlns:odk", "http://www.opendatakit.org/xforms"},
}

// EntitiesNamespace is declared when the survey has an entity.
const EntitiesNamespace = "http://www.opendatakit.org/xforms/entities"

// Options tune the rendering.
type Options struct {
	// Indent is the indentation unit of pretty output. Empty disables
	// pretty printing.
	Indent string
}

// DefaultOptions pretty prints with two spaces.
var DefaultOptions = Options{Indent: "  "}

type generator struct {
	s *survey.Survey
	t *itext.Table
}

// Generate builds the XForm of s. The survey must have been resolved and t
// assembled from it.
func Generate(s *survey.Survey, t *itext.Table, opts Options) (*etree.Document, error) {
	g := &generator{s: s, t: t}
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	doc.CreateProcInst("xml", `version="1.0"`)
	if opts.Indent != "" {
		doc.CreateText("\n")
	}

	html := doc.CreateElement("h:html")
	for _, ns := range g.namespaces() {
		html.CreateAttr(ns[0], ns[1])
	}
	head := html.CreateElement("h:head")
	head.CreateElement("h:title").SetText(s.Title)
	if err := g.model(head.CreateElement("model")); err != nil {
		return nil, errors.Wrap(err, "model")
	}
	body := html.CreateElement("h:body")
	if style := s.Setting("style"); style != "" {
		body.CreateAttr("class", style)
	}
	g.controls(body, &s.Section)

	if opts.Indent != "" {
		indent(html, 0, opts.Indent)
	}
	return doc, nil
}

// Bytes renders doc.
func Bytes(doc *etree.Document) ([]byte, error) {
	b, err := doc.WriteToBytes()
	return b, errors.Wrap(err, "write xform")
}

// namespaces returns the root declarations: the standard ones, entities
// when needed, then those of the namespaces setting.
func (g *generator) namespaces() [][2]string {
	out := append([][2]string(nil), Namespaces...)
	declared := map[string]bool{}
	for _, ns := range out {
		declared[ns[0]] = true
	}
	extra := g.s.Setting("namespaces")
	if g.s.Entity != nil {
		extra += " entities=" + EntitiesNamespace
	}
	for _, decl := range strings.Fields(extra) {
		prefix, uri, ok := strings.Cut(decl, "=")
		if !ok || prefix == "" {
			continue
		}
		key := "xmlns:" + prefix
		if declared[key] {
			continue
		}
		declared[key] = true
		out = append(out, [2]string{key, strings.Trim(uri, `"'`)})
	}
	return out
}

// indent lays e out with one child element per line. Mixed content is kept
// as is, so output markup in text values does not gain whitespace.
func indent(e *etree.Element, depth int, unit string) {
	children := e.ChildElements()
	if len(children) == 0 || mixed(e) {
		return
	}
	for _, tok := range append([]etree.Token(nil), e.Child...) {
		e.RemoveChild(tok)
	}
	for _, c := range children {
		e.CreateText("\n" + strings.Repeat(unit, depth+1))
		e.AddChild(c)
		indent(c, depth+1, unit)
	}
	e.CreateText("\n" + strings.Repeat(unit, depth))
}

func mixed(e *etree.Element) bool {
	for _, tok := range e.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return true
		}
	}
	return false
}
