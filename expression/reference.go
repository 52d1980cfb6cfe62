package expression

import (
	"fmt"
	"regexp"
	"strings"
)

const LastSavedPrefix = "last-saved#"

// Reference is one ${name} or ${last-saved#name} occurrence.
type Reference struct {
	Name      string
	LastSaved bool
	Start     int
	End       int
}

// SyntaxError reports a "${" that does not form a valid reference.
type SyntaxError struct {
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid reference syntax in %q", e.Text)
}

var (
	refSpanRe  = regexp.MustCompile(`\$\{(.*?)\}`)
	refInnerRe = regexp.MustCompile(`^(` + regexp.QuoteMeta(LastSavedPrefix) + `)?(` + ncName + `)$`)
)

// HasReference reports whether text contains anything that looks like a reference.
func HasReference(text string) bool {
	return strings.Contains(text, "${")
}

// References returns every reference in text in source order. Text inside
// string literals is included. A malformed reference yields a *SyntaxError.
func References(text string) ([]Reference, error) {
	if !HasReference(text) {
		return nil, nil
	}
	var refs []Reference
	last := 0
	for _, m := range refSpanRe.FindAllStringSubmatchIndex(text, -1) {
		if strings.Contains(text[last:m[0]], "${") {
			return nil, &SyntaxError{text}
		}
		inner := text[m[2]:m[3]]
		sub := refInnerRe.FindStringSubmatch(inner)
		if sub == nil {
			return nil, &SyntaxError{text}
		}
		refs = append(refs, Reference{
			Name:      sub[2],
			LastSaved: sub[1] != "",
			Start:     m[0],
			End:       m[1],
		})
		last = m[1]
	}
	if strings.Contains(text[last:], "${") {
		return nil, &SyntaxError{text}
	}
	return refs, nil
}

// Replace rewrites every reference in text with the value returned by fn.
func Replace(text string, fn func(Reference) (string, error)) (string, error) {
	refs, err := References(text)
	if err != nil || len(refs) == 0 {
		return text, err
	}
	var b strings.Builder
	pos := 0
	for _, ref := range refs {
		repl, err := fn(ref)
		if err != nil {
			return "", err
		}
		b.WriteString(text[pos:ref.Start])
		b.WriteString(repl)
		pos = ref.End
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}

// IsSingleToken reports whether the trimmed text lexes to exactly one token of one of kinds.
func IsSingleToken(text string, kinds ...Kind) bool {
	tokens := Tokenize(strings.TrimSpace(text))
	if len(tokens) != 1 {
		return false
	}
	for _, k := range kinds {
		if tokens[0].Kind == k {
			return true
		}
	}
	return false
}

// IsSingleReference reports whether text is exactly one reference.
func IsSingleReference(text string) bool {
	return IsSingleToken(text, KindReference)
}

// IsDynamic reports whether a default value must be computed at runtime
// rather than stored as a literal in the instance.
func IsDynamic(value, dataType string) bool {
	if value == "" {
		return false
	}
	hyphenated := false
	switch dataType {
	case "date", "dateTime", "geopoint", "geotrace", "geoshape":
		hyphenated = true
	}
	for _, t := range Tokenize(value) {
		switch t.Kind {
		case KindOpsMath:
			if hyphenated && t.Value == "-" {
				continue
			}
			return true
		case KindOpsUnion, KindPredicateStart, KindReference, KindFuncCall:
			return true
		}
	}
	return false
}
