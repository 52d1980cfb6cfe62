package expression

import "strings"

// Pulldata returns the instance names passed as the first argument of every
// pulldata() call in text, in source order. Calls whose first argument is not
// a string literal are skipped.
func Pulldata(text string) []string {
	if !strings.Contains(text, "pulldata(") {
		return nil
	}
	var names []string
	tokens := Tokenize(text)
	for i, t := range tokens {
		if t.Kind != KindFuncCall || t.Value != "pulldata(" {
			continue
		}
		j := i + 1
		for j < len(tokens) && tokens[j].Kind == KindWhitespace {
			j++
		}
		if j < len(tokens) && tokens[j].Kind == KindSystemLiteral {
			lit := tokens[j].Value
			names = append(names, lit[1:len(lit)-1])
		}
	}
	return names
}
