package resolve

import (
	"regexp"
	"strings"

	"github.com/mbolis/quick-xform/expression"
	"github.com/mbolis/quick-xform/survey"
)

const (
	// LastSavedInstance is the id of the instance holding the last saved
	// submission.
	LastSavedInstance = "__last-saved"
	lastSavedRoot     = "instance('" + LastSavedInstance + "')"
)

// scope is the evaluation context of an expression: the path segments of the
// node it is evaluated against and that node's nearest repeat.
type scope struct {
	segments []string
	repeat   *survey.Section
}

func scopeOf(e survey.Element) *scope {
	return &scope{segments: e.Node().Segments(), repeat: survey.NearestRepeat(e)}
}

// child returns the scope of a node below s that is not a survey element,
// such as an entity attribute.
func (s *scope) child(name string) *scope {
	segs := make([]string, len(s.segments), len(s.segments)+1)
	copy(segs, s.segments)
	return &scope{segments: append(segs, name), repeat: s.repeat}
}

// enclosingRepeat returns the nearest repeat strictly above e. A reference to
// a repeat names all of its instances, so it is placed by its parent.
func enclosingRepeat(e survey.Element) *survey.Section {
	p := e.Node().Parent()
	if p == nil {
		return nil
	}
	return survey.NearestRepeat(p)
}

// sameChain reports whether target is addressed from s without leaving the
// current repeat instance: both share the nearest repeat, or the target's
// repeat encloses the context's.
func (s *scope) sameChain(target *survey.Section) bool {
	if target == s.repeat {
		return true
	}
	if target == nil || s.repeat == nil {
		return false
	}
	for p := s.repeat.Parent(); p != nil; p = p.Parent() {
		if p == target {
			return true
		}
	}
	return false
}

// relative returns the path from s to segments through their common
// ancestor.
func (s *scope) relative(segments []string) string {
	common := 0
	for common < len(s.segments) && common < len(segments) && s.segments[common] == segments[common] {
		common++
	}
	ups := len(s.segments) - common
	rest := segments[common:]
	if ups == 0 && len(rest) == 0 {
		return "."
	}
	parts := make([]string, 0, ups+len(rest))
	for i := 0; i < ups; i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, rest...)
	return strings.Join(parts, "/")
}

var (
	instanceCallRe  = regexp.MustCompile(`instance\([^)]+.+`)
	bracketRe       = regexp.MustCompile(`\[([^\]]+)\]`)
	indexedRepeatRe = regexp.MustCompile(`indexed-repeat\([^)]+\)`)
)

// inInstancePredicate reports whether ref sits in a predicate of an
// expression that reads a secondary instance. Such predicates are evaluated
// against the instance items, so form nodes are reached through current().
func inInstancePredicate(text string, ref expression.Reference) bool {
	if !instanceCallRe.MatchString(text) {
		return false
	}
	for _, m := range bracketRe.FindAllStringIndex(text, -1) {
		if ref.Start >= m[0] && ref.End <= m[1] {
			return true
		}
	}
	return false
}

// indexedRepeatArgs are the indexed-repeat() arguments naming nodes rather
// than positions: the target and the repeats.
var indexedRepeatArgs = map[int]bool{0: true, 1: true, 3: true, 5: true}

// inIndexedRepeatPath reports whether ref is a node argument of an
// indexed-repeat() call, which must stay absolute.
func inIndexedRepeatPath(text string, ref expression.Reference) bool {
	for _, m := range indexedRepeatRe.FindAllStringIndex(text, -1) {
		if ref.Start < m[0] || ref.End > m[1] {
			continue
		}
		pos := m[0] + len("indexed-repeat(")
		for i, arg := range strings.Split(text[pos:m[1]-1], ",") {
			end := pos + len(arg)
			if ref.Start >= pos && ref.End <= end {
				return indexedRepeatArgs[i]
			}
			pos = end + 1
		}
	}
	return false
}
