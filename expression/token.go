package expression

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind classifies a lexed token.
type Kind int

const (
	KindDateTime Kind = iota
	KindDate
	KindTime
	KindNumber
	KindOpsMath
	KindOpsComp
	KindOpsBool
	KindOpsUnion
	KindOpenParen
	KindCloseParen
	KindBracket
	KindParentRef
	KindSelfRef
	KindPathSep
	KindSystemLiteral
	KindComma
	KindWhitespace
	KindReference
	KindFuncCall
	KindPredicateStart
	KindPredicateEnd
	KindURIScheme
	KindName
	KindOther
	// KindUnparsed marks a "${" that does not open a well formed reference.
	KindUnparsed
)

var kindNames = [...]string{
	KindDateTime:       "DATETIME",
	KindDate:           "DATE",
	KindTime:           "TIME",
	KindNumber:         "NUMBER",
	KindOpsMath:        "OPS_MATH",
	KindOpsComp:        "OPS_COMP",
	KindOpsBool:        "OPS_BOOL",
	KindOpsUnion:       "OPS_UNION",
	KindOpenParen:      "OPEN_PAREN",
	KindCloseParen:     "CLOSE_PAREN",
	KindBracket:        "BRACKET",
	KindParentRef:      "PARENT_REF",
	KindSelfRef:        "SELF_REF",
	KindPathSep:        "PATH_SEP",
	KindSystemLiteral:  "SYSTEM_LITERAL",
	KindComma:          "COMMA",
	KindWhitespace:     "WHITESPACE",
	KindReference:      "PYXFORM_REF",
	KindFuncCall:       "FUNC_CALL",
	KindPredicateStart: "XPATH_PRED_START",
	KindPredicateEnd:   "XPATH_PRED_END",
	KindURIScheme:      "URI_SCHEME",
	KindName:           "NAME",
	KindOther:          "OTHER",
	KindUnparsed:       "UNPARSED",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Token is a lexeme with its byte offsets in the source text.
type Token struct {
	Kind  Kind
	Value string
	Start int
	End   int
}

const (
	nameStartChar = `A-Z_a-z\x{C0}-\x{D6}\x{D8}-\x{F6}\x{F8}-\x{2FF}\x{370}-\x{37D}\x{37F}-\x{1FFF}` +
		`\x{200C}-\x{200D}\x{2070}-\x{218F}\x{2C00}-\x{2FEF}\x{3001}-\x{D7FF}\x{F900}-\x{FDCF}` +
		`\x{FDF0}-\x{FFFD}\x{10000}-\x{EFFFF}`
	nameChar   = nameStartChar + `\-.0-9\x{B7}\x{300}-\x{36F}\x{203F}-\x{2040}`
	ncName     = `[` + nameStartChar + `][` + nameChar + `]*`
	qName      = ncName + `(?::` + ncName + `)?`
	datePat    = `-?\d{4}-\d{2}-\d{2}`
	timePat    = `\d{2}:\d{2}:\d{2}(?:\.\s+)?(?:(?:\+|-)\d{2}:\d{2}|Z)?`
	refPattern = `\$\{` + qName + `(?:#` + qName + `)?\}`
)

type rule struct {
	kind Kind
	re   *regexp.Regexp
}

func anchored(kind Kind, pattern string) rule {
	return rule{kind, regexp.MustCompile(`^(?:` + pattern + `)`)}
}

// Order is match priority.
var rules = []rule{
	anchored(KindDateTime, datePat+`T`+timePat),
	anchored(KindDate, datePat),
	anchored(KindTime, timePat),
	anchored(KindNumber, `-?\d+\.\d*|-?\.\d+|-?\d+`),
	anchored(KindOpsMath, `[*+\-]|mod\b|div\b`),
	anchored(KindOpsComp, `!=|<=|>=|=|<|>`),
	anchored(KindOpsBool, `and\b|or\b`),
	anchored(KindOpsUnion, `\|`),
	anchored(KindOpenParen, `\(`),
	anchored(KindCloseParen, `\)`),
	anchored(KindBracket, `[\[{}]`),
	anchored(KindParentRef, `\.\.`),
	anchored(KindSelfRef, `\.`),
	anchored(KindPathSep, `/`),
	anchored(KindSystemLiteral, `"[^"]*"|'[^']*'`),
	anchored(KindComma, `,`),
	anchored(KindWhitespace, `\s+`),
	anchored(KindReference, refPattern),
	anchored(KindFuncCall, qName+`\(`),
	anchored(KindPredicateStart, qName+`\[`),
	anchored(KindPredicateEnd, `\]`),
	anchored(KindURIScheme, qName+`://`),
	anchored(KindName, qName),
}

var ncNameRe = regexp.MustCompile(`^` + ncName + `$`)

// IsNCName reports whether s is a valid XML non-colonized name.
func IsNCName(s string) bool {
	return ncNameRe.MatchString(s)
}

func tokenize(text string) []Token {
	var tokens []Token
	pos := 0
	for pos < len(text) {
		rest := text[pos:]
		tok := Token{Kind: KindOther}
		matched := false
		for _, r := range rules {
			if loc := r.re.FindStringIndex(rest); loc != nil && loc[1] > 0 {
				tok = Token{Kind: r.kind, Value: rest[:loc[1]]}
				matched = true
				break
			}
		}
		if !matched {
			if strings.HasPrefix(rest, "${") {
				end := strings.IndexByte(rest, '}')
				if end < 0 {
					end = len(rest)
				} else {
					end++
				}
				tok = Token{Kind: KindUnparsed, Value: rest[:end]}
			} else {
				_, size := utf8.DecodeRuneInString(rest)
				tok.Value = rest[:size]
			}
		}
		tok.Start = pos
		tok.End = pos + len(tok.Value)
		tokens = append(tokens, tok)
		pos = tok.End
	}
	return tokens
}
