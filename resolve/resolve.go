// Package resolve rewrites the ${name} references of a built survey into
// instance paths. Results are stored on each element's Resolved annotations;
// the source fields are left untouched, so resolving twice is harmless.
package resolve

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/expression"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

// Events of the setvalue actions the resolver emits.
const (
	EventValueChanged = "xforms-value-changed"
	EventFirstLoad    = "odk-instance-first-load"
	EventNewRepeat    = "odk-new-repeat"
)

// site locates an expression in the workbook for error messages.
type site struct {
	sheet  string
	column string
	row    int
}

type mode struct {
	// absolute forces absolute paths.
	absolute bool
	// current prefixes relative paths with current().
	current bool
	// output wraps paths in <output/> markup and escapes the text.
	output bool
}

type resolver struct {
	s     *survey.Survey
	index map[string][]survey.Element
	errs  error
	fails int
}

// Resolve annotates every element of s with its resolved expressions. All
// reference errors found are returned together.
func Resolve(s *survey.Survey) error {
	r := &resolver{s: s, index: map[string][]survey.Element{}}
	elements := s.Elements()
	for _, e := range elements {
		e.Node().Resolved = survey.Resolved{}
		switch e.(type) {
		case *survey.EntityDeclaration, *survey.ExternalInstance:
			continue
		}
		name := e.Node().Name
		r.index[name] = append(r.index[name], e)
	}
	s.LastSaved = false
	s.ChoiceLabels = nil

	for _, e := range elements {
		r.element(e)
	}
	r.choiceLabels()
	r.checkInstances()
	return validate.Flatten(r.errs)
}

func (r *resolver) fail(err error) {
	r.errs = validate.Append(r.errs, err)
	r.fails++
}

func (r *resolver) lookup(ref expression.Reference, at site) (survey.Element, error) {
	found := r.index[ref.Name]
	switch {
	case len(found) == 0 && ref.LastSaved:
		return nil, validate.InvalidReferenceError(at.sheet, at.column, at.row, ref.Name)
	case len(found) == 0:
		return nil, validate.UnresolvedReferenceError(at.sheet, at.column, at.row, ref.Name)
	case len(found) > 1:
		token := "${" + ref.Name + "}"
		if ref.LastSaved {
			token = "${" + expression.LastSavedPrefix + ref.Name + "}"
		}
		return nil, &validate.Error{
			Code:   validate.ErrReferenceAmbiguous,
			Sheet:  at.sheet,
			Row:    at.row,
			Column: at.column,
			Message: fmt.Sprintf("There has been a problem trying to replace %s with the XPath to the survey "+
				"element named '%s'. There are multiple survey elements with this name.", token, ref.Name),
		}
	}
	return found[0], nil
}

// path returns the path a reference in text stands for when evaluated in ctx.
// A nil ctx gives absolute paths.
func (r *resolver) path(text string, ref expression.Reference, ctx *scope, at site, m mode) (string, error) {
	target, err := r.lookup(ref, at)
	if err != nil {
		return "", err
	}
	abs := target.Node().Path()
	if ref.LastSaved {
		r.s.LastSaved = true
		return lastSavedRoot + abs, nil
	}
	if ctx == nil || m.absolute || inIndexedRepeatPath(text, ref) || !ctx.sameChain(enclosingRepeat(target)) {
		return abs, nil
	}
	rel := ctx.relative(target.Node().Segments())
	if m.current || inInstancePredicate(text, ref) {
		return "current()/" + rel, nil
	}
	return rel, nil
}

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// rewrite replaces every reference in text. Errors are recorded and the
// source text is returned in their place.
func (r *resolver) rewrite(text string, ctx *scope, at site, m mode) string {
	if !expression.HasReference(text) {
		return text
	}
	src := text
	if m.output {
		src = markupEscaper.Replace(text)
	}
	out, err := expression.Replace(src, func(ref expression.Reference) (string, error) {
		p, err := r.path(src, ref, ctx, at, m)
		if err != nil || !m.output {
			return p, err
		}
		return `<output value="` + p + `"/>`, nil
	})
	if err != nil {
		if _, ok := err.(*expression.SyntaxError); ok {
			err = validate.ReferenceSyntaxError(at.sheet, at.column, at.row)
		}
		r.fail(err)
		return text
	}
	return out
}

// markup returns the output markup of t, or nil when no value of t has a
// reference.
func (r *resolver) markup(t survey.Text, ctx *scope, at site) survey.Text {
	dynamic := false
	for _, v := range t {
		if expression.HasReference(v) {
			dynamic = true
			break
		}
	}
	if !dynamic {
		return nil
	}
	return t.Map(func(_, v string) string {
		return r.rewrite(v, ctx, at, mode{output: true})
	})
}

// columns maps attribute keys back to the survey sheet headers they come from.
var columns = map[string]string{
	"calculate":       "calculation",
	"jr:count":        "repeat_count",
	"entities:saveto": "save_to",
}

func column(key string) string {
	if c, ok := columns[key]; ok {
		return c
	}
	return key
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *resolver) element(e survey.Element) {
	switch e := e.(type) {
	case *survey.EntityDeclaration:
		r.entity(e)
		return
	case *survey.ExternalInstance:
		return
	}
	b := e.Node()
	ctx := scopeOf(e)
	at := func(col string) site { return site{aliases.SheetSurvey, col, b.Row} }
	res := &b.Resolved

	if len(b.Bind) > 0 {
		res.Bind = make(map[string]string, len(b.Bind))
		for _, k := range sortedKeys(b.Bind) {
			if k == "calculate" && b.Trigger != "" {
				continue
			}
			v := aliases.BindingConversion(k, b.Bind[k])
			if k != "entities:saveto" {
				v = r.rewrite(v, ctx, at(column(k)), mode{})
			}
			res.Bind[k] = v
		}
	}
	if len(b.Control) > 0 {
		res.Control = make(map[string]string, len(b.Control))
		for _, k := range sortedKeys(b.Control) {
			res.Control[k] = r.rewrite(b.Control[k], ctx, at(column(k)), mode{absolute: k == "jr:count"})
		}
	}
	if len(b.Instance) > 0 {
		res.Instance = make(map[string]string, len(b.Instance))
		for _, k := range sortedKeys(b.Instance) {
			res.Instance[k] = r.rewrite(b.Instance[k], ctx, at(k), mode{})
		}
	}
	for _, kt := range []struct {
		kind string
		text survey.Text
	}{
		{"label", b.Label},
		{"hint", b.Hint},
		{"guidance_hint", b.GuidanceHint},
		{"constraint_message", b.ConstraintMessage},
		{"required_message", b.RequiredMessage},
	} {
		if m := r.markup(kt.text, ctx, at(kt.kind)); m != nil {
			if res.Text == nil {
				res.Text = map[string]survey.Text{}
			}
			res.Text[kt.kind] = m
		}
	}
	if expression.IsDynamic(b.Default, b.Bind["type"]) {
		res.Default = r.rewrite(b.Default, ctx, at("default"), mode{})
	}
	if q, ok := e.(*survey.Question); ok {
		r.question(q, ctx)
	}
}

func (r *resolver) question(q *survey.Question, ctx *scope) {
	at := func(col string) site { return site{aliases.SheetSurvey, col, q.Row} }
	res := &q.Resolved

	if q.Trigger != "" {
		r.trigger(q, at("trigger"))
	}
	if !q.Control.IsSelect() {
		return
	}
	if q.ListName == "" && expression.HasReference(q.Itemset) {
		r.previousAnswers(q, ctx, at)
	} else if q.ChoiceFilter != "" {
		res.ChoiceFilter = r.rewrite(q.ChoiceFilter, ctx, at("choice_filter"), mode{current: true})
	}
	if seed, ok := q.Parameters["seed"]; ok {
		res.Seed = seed
		if strings.HasPrefix(seed, "${") {
			res.Seed = r.rewrite(seed, ctx, at("parameters"), mode{})
		}
	}
}

// previousAnswers resolves a select whose choices are the answers given to
// a question in a repeat. Filter paths into the repeat become relative to
// the repeat instance being offered.
func (r *resolver) previousAnswers(q *survey.Question, ctx *scope, at func(string) site) {
	refs, err := expression.References(q.Itemset)
	if err != nil || len(refs) != 1 {
		r.fail(validate.ReferenceSyntaxError(aliases.SheetSurvey, "type", q.Row))
		return
	}
	target, err := r.lookup(refs[0], at("type"))
	if err != nil {
		r.fail(err)
		return
	}
	res := &q.Resolved
	res.ItemsetPath = target.Node().Path()
	nodeset := path.Dir(res.ItemsetPath)
	if q.ChoiceFilter == "" {
		res.ChoiceFilter = "./" + target.Node().Name + " != ''"
		return
	}
	filter := r.rewrite(q.ChoiceFilter, ctx, at("choice_filter"), mode{current: true})
	filter = strings.ReplaceAll(filter, "current()/"+nodeset+"/", "./")
	res.ChoiceFilter = strings.ReplaceAll(filter, nodeset+"/", "./")
}

// trigger attaches a setvalue for q to the control named by its trigger.
func (r *resolver) trigger(q *survey.Question, at site) {
	refs, err := expression.References(q.Trigger)
	if err != nil || len(refs) != 1 || refs[0].LastSaved || !expression.IsSingleReference(q.Trigger) {
		r.fail(validate.RowErrorf(validate.ErrTrigger, q.Row,
			"Only references to other fields are allowed in the 'trigger' column."))
		return
	}
	source, err := r.lookup(refs[0], at)
	if err != nil {
		r.fail(err)
		return
	}
	sq, ok := source.(*survey.Question)
	if !ok || !sq.HasControl() {
		r.fail(validate.RowErrorf(validate.ErrTrigger, q.Row,
			"The question ${%s} is not user-visible so it can't be used as a calculation trigger for question ${%s}.",
			source.Node().Name, q.Name))
		return
	}
	value := ""
	if calc := q.Bind["calculate"]; calc != "" {
		value = r.rewrite(calc, scopeOf(sq), site{aliases.SheetSurvey, "calculation", q.Row}, mode{})
	}
	sq.Resolved.Triggers = append(sq.Resolved.Triggers, survey.Setvalue{
		Ref:   q.Path(),
		Value: value,
		Event: EventValueChanged,
	})
}

// checkInstances rejects a user instance that takes the last-saved id.
func (r *resolver) checkInstances() {
	if !r.s.LastSaved {
		return
	}
	clash := false
	for _, e := range r.s.Elements() {
		if ext, ok := e.(*survey.ExternalInstance); ok && ext.Name == LastSavedInstance {
			clash = true
		}
		q, ok := e.(*survey.Question)
		if !ok {
			continue
		}
		if strings.TrimSuffix(q.Itemset, path.Ext(q.Itemset)) == LastSavedInstance {
			clash = true
		}
		for _, v := range q.Bind {
			for _, name := range expression.Pulldata(v) {
				if name == LastSavedInstance {
					clash = true
				}
			}
		}
	}
	if clash {
		r.fail(validate.Errorf(validate.ErrInstance,
			"The instance name '%s' is reserved for the last saved submission and cannot be used "+
				"for another instance.", LastSavedInstance))
	}
}
