package aliases

import "strings"

// Sheet names.
const (
	SheetSurvey          = "survey"
	SheetChoices         = "choices"
	SheetSettings        = "settings"
	SheetExternalChoices = "external_choices"
	SheetOsm             = "osm"
	SheetEntities        = "entities"
)

// SupportedSheets lists every sheet the builder reads.
var SupportedSheets = []string{
	SheetSurvey, SheetChoices, SheetSettings, SheetExternalChoices, SheetOsm, SheetEntities,
}

// Media kinds, in emission order.
var MediaKinds = []string{"image", "big-image", "audio", "video"}

// Survey maps survey sheet headers onto their grouped key path.
var Survey = map[string][]string{
	"read_only":            {"bind", "readonly"},
	"readonly":             {"bind", "readonly"},
	"relevant":             {"bind", "relevant"},
	"relevance":            {"bind", "relevant"},
	"required":             {"bind", "required"},
	"constraint":           {"bind", "constraint"},
	"calculation":          {"bind", "calculate"},
	"calculate":            {"bind", "calculate"},
	"caption":              {"label"},
	"command":              {"type"},
	"tag":                  {"name"},
	"value":                {"name"},
	"appearance":           {"control", "appearance"},
	"count":                {"control", "jr:count"},
	"repeat_count":         {"control", "jr:count"},
	"jr:count":             {"control", "jr:count"},
	"autoplay":             {"control", "autoplay"},
	"rows":                 {"control", "rows"},
	"image":                {"media", "image"},
	"big-image":            {"media", "big-image"},
	"audio":                {"media", "audio"},
	"video":                {"media", "video"},
	"constraining_message": {"constraint_message"},
	"constraint_message":   {"constraint_message"},
	"jr:constraintmsg":     {"constraint_message"},
	"requiredmsg":          {"required_message"},
	"required_message":     {"required_message"},
	"jr:requiredmsg":       {"required_message"},
	"noapperrorstring":     {"bind", "jr:noAppErrorString"},
	"no_app_error_string":  {"bind", "jr:noAppErrorString"},
	"compact_tag":          {"instance", "odk:tag"},
	"body":                 {"control"},
	"save_to":              {"bind", "entities:saveto"},
}

// Choices maps choices sheet headers onto their grouped key path.
var Choices = map[string][]string{
	"caption":   {"label"},
	"list name": {"list_name"},
	"value":     {"name"},
	"image":     {"media", "image"},
	"big-image": {"media", "big-image"},
	"audio":     {"media", "audio"},
	"video":     {"media", "video"},
}

// Settings maps settings sheet headers onto their canonical key.
var Settings = map[string][]string{
	"form_title":     {"title"},
	"set_form_title": {"title"},
	"form_id":        {"id_string"},
	"set_form_id":    {"id_string"},
}

// Entities maps entities sheet headers onto their canonical key.
var Entities = map[string][]string{
	"list_name": {"dataset"},
}

// SurveyColumns lists the top level survey keys after dealiasing.
// Anything else is kept but reported as unexpected.
var SurveyColumns = map[string]bool{
	"type": true, "name": true, "label": true, "hint": true, "guidance_hint": true, "media": true,
	"bind": true, "control": true, "instance": true, "constraint_message": true,
	"required_message": true, "default": true, "trigger": true, "choice_filter": true,
	"parameters": true, "disabled": true, "list_name": true, "note": true, "comments": true,
}

// SurveyTranslatable lists survey keys that carry per language text.
var SurveyTranslatable = []string{
	"label", "hint", "guidance_hint", "image", "big-image", "audio", "video",
	"constraint_message", "required_message",
}

// ChoicesTranslatable lists choices keys that carry per language text.
var ChoicesTranslatable = []string{"label", "image", "big-image", "audio", "video"}

// Dealias returns the key path for header using the given alias table.
// The first "::" separated token is dealiased; the rest are appended.
func Dealias(table map[string][]string, header string) []string {
	tokens := strings.Split(header, "::")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	path, ok := table[tokens[0]]
	if !ok {
		path, ok = table[strings.ToLower(tokens[0])]
	}
	if !ok {
		return tokens
	}
	return append(append([]string(nil), path...), tokens[1:]...)
}
