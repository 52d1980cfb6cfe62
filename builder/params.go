package builder

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/mbolis/quick-xform/validate"
)

// params are the parsed parameters column of one row.
type params map[string]string

// parseParams splits raw on ";", else ",", else whitespace. Keys are lower
// cased, as are values except label and value.
func parseParams(raw string) (params, error) {
	p := params{}
	if strings.TrimSpace(raw) == "" {
		return p, nil
	}
	parts := strings.Split(raw, ";")
	if len(parts) == 1 {
		parts = strings.Split(raw, ",")
	}
	if len(parts) == 1 {
		parts = strings.Fields(raw)
	}
	for _, part := range parts {
		if !strings.Contains(part, "=") {
			return nil, validate.Errorf(validate.ErrStructure,
				"Expecting parameters to be in the form of 'parameter1=value parameter2=value'.")
		}
		kv := strings.SplitN(part, "=", 3)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		value := strings.TrimSpace(kv[1])
		if key != "label" && key != "value" {
			value = strings.ToLower(value)
		}
		p[key] = value
	}
	return p, nil
}

// allow fails when p has keys outside allowed.
func (p params) allow(allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	var extras []string
	for k := range p {
		if !ok[k] {
			extras = append(extras, k)
		}
	}
	if len(extras) == 0 {
		return nil
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	sort.Strings(extras)
	return validate.Errorf(validate.ErrStructure,
		"Accepted parameters are '%s'. The following are invalid parameter(s): '%s'.",
		strings.Join(sorted, ", "), strings.Join(extras, ", "))
}

func (p params) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p params) isInt(key string) bool {
	_, err := strconv.Atoi(p[key])
	return err == nil
}

func (p params) isNumber(key string) bool {
	_, err := strconv.ParseFloat(p[key], 64)
	return err == nil
}

func (p params) boolean(key, msg string) error {
	if v, ok := p[key]; ok && v != "true" && v != "false" {
		return validate.Errorf(validate.ErrStructure, "%s must be set to true or false: '%s' is an invalid value%s", key, v, msg)
	}
	return nil
}

// rangeParams fills the range defaults and reports whether any bound is
// fractional.
func rangeParams(p params) (decimal bool, err error) {
	if err := p.allow("start", "end", "step"); err != nil {
		return false, err
	}
	defaults := map[string]string{"start": "1", "end": "10", "step": "1"}
	for k, v := range defaults {
		if !p.has(k) {
			p[k] = v
		}
	}
	for _, k := range []string{"start", "end", "step"} {
		if !p.isNumber(k) {
			return false, validate.Errorf(validate.ErrStructure,
				"Range parameters 'start', 'end' or 'step' must all be numbers.")
		}
		if strings.Contains(p[k], ".") {
			decimal = true
		}
	}
	return decimal, nil
}

var locationPriorities = []string{"no-power", "low-power", "balanced", "high-accuracy"}

// auditBinds validates audit parameters and returns the bind attributes
// they enable.
func auditBinds(p params) (map[string]string, error) {
	if err := p.allow("location-priority", "location-min-interval", "location-max-age",
		"track-changes", "identify-user", "track-changes-reasons"); err != nil {
		return nil, err
	}
	bind := map[string]string{}
	for _, key := range []string{"track-changes", "identify-user"} {
		if !p.has(key) {
			continue
		}
		if err := p.boolean(key, "."); err != nil {
			return nil, err
		}
		bind["odk:"+key] = p[key]
	}
	if p.has("track-changes-reasons") {
		if p["track-changes-reasons"] != "on-form-edit" {
			return nil, validate.Errorf(validate.ErrStructure, "track-changes-reasons must be set to on-form-edit")
		}
		bind["odk:track-changes-reasons"] = "on-form-edit"
	}

	location := []string{"location-priority", "location-min-interval", "location-max-age"}
	var present int
	for _, k := range location {
		if p.has(k) {
			present++
		}
	}
	if present == 0 {
		return bind, nil
	}
	if present != len(location) {
		return nil, validate.Errorf(validate.ErrStructure,
			"To include location information in the audit, 'location-priority', "+
				"'location-min-interval', and 'location-max-age' are required parameters.")
	}
	if !contains(locationPriorities, p["location-priority"]) {
		return nil, validate.Errorf(validate.ErrStructure,
			"Parameter location-priority must be set to no-power, low-power, balanced, "+
				"or high-accuracy:'%s' is an invalid value", p["location-priority"])
	}
	for _, k := range []string{"location-min-interval", "location-max-age"} {
		if !p.isInt(k) {
			return nil, validate.Errorf(validate.ErrStructure, "Parameter %s must have an integer value.", k)
		}
		if n, _ := strconv.Atoi(p[k]); n < 0 {
			return nil, validate.Errorf(validate.ErrStructure, "Parameter %s must be greater than or equal to zero.", k)
		}
	}
	minInterval, _ := strconv.Atoi(p["location-min-interval"])
	maxAge, _ := strconv.Atoi(p["location-max-age"])
	if maxAge < minInterval {
		return nil, validate.Errorf(validate.ErrStructure,
			"Parameter location-max-age must be greater than or equal to location-min-interval.")
	}
	for _, k := range location {
		bind["odk:"+k] = p[k]
	}
	return bind, nil
}

var packageSegment = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// androidPackage returns a message when name is not a valid Android package
// name, or "".
func androidPackage(name string) string {
	const prefix = "Parameter 'app' has an invalid Android package name - "
	switch {
	case strings.TrimSpace(name) == "":
		return prefix + "package name is missing."
	case !strings.Contains(name, "."):
		return prefix + "the package name must have at least one '.' separator."
	case strings.HasSuffix(name, "."):
		return prefix + "the package name cannot end in a '.' separator."
	}
	segments := strings.Split(name, ".")
	for _, s := range segments {
		if s == "" {
			return prefix + "package segments must be of non-zero length."
		}
	}
	for _, s := range segments {
		if strings.HasPrefix(s, "_") {
			return prefix + "the character '_' cannot be the first character in a package name segment."
		}
	}
	for _, s := range segments {
		if unicode.IsDigit(rune(s[0])) {
			return prefix + "a digit cannot be the first character in a package name segment."
		}
	}
	for _, s := range segments {
		if packageSegment.MatchString(s) {
			return prefix + "the package name can only include letters (a-z, A-Z), numbers (0-9), " +
				"dots (.), and underscores (_)."
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quoted(list []string) string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = fmt.Sprintf("'%s'", s)
	}
	return strings.Join(out, ", ")
}
