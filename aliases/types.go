// Package aliases holds the lookup tables that map workbook vocabulary
// (question types, column headers, yes/no values) onto XForm concepts.
package aliases

import "strings"

// Body control tags.
const (
	TagInput   = "input"
	TagSelect1 = "select1"
	TagSelect  = "select"
	TagRank    = "odk:rank"
	TagUpload  = "upload"
	TagTrigger = "trigger"
	TagRange   = "range"
	TagAction  = "action"
)

// Action describes a model action emitted instead of a body control.
type Action struct {
	Name  string
	Event string
}

// QuestionType is the static description of one question type.
type QuestionType struct {
	Tag       string
	MediaType string
	Bind      map[string]string
	Hint      string
	Action    *Action
	// External is the file format of an external instance type.
	External string
}

// Table maps type names, aliases included, to their description.
type Table map[string]QuestionType

// Lookup returns the description of the named type.
func (t Table) Lookup(name string) (QuestionType, bool) {
	qt, ok := t[name]
	return qt, ok
}

// Names returns every known type name.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

func input(dataType string) QuestionType {
	return QuestionType{Tag: TagInput, Bind: map[string]string{"type": dataType}}
}

func upload(mediaType string) QuestionType {
	return QuestionType{Tag: TagUpload, MediaType: mediaType, Bind: map[string]string{"type": "binary"}}
}

func preload(dataType, preload, params string) QuestionType {
	return QuestionType{Bind: map[string]string{
		"type":             dataType,
		"jr:preload":       preload,
		"jr:preloadParams": params,
	}}
}

func property(name string) QuestionType {
	return preload("string", "property", name)
}

func constrained(dataType, constraint, hint string) QuestionType {
	qt := input(dataType)
	qt.Bind["constraint"] = constraint
	qt.Hint = hint
	return qt
}

// DefaultTable returns a fresh copy of the built in question types.
func DefaultTable() Table {
	t := Table{}
	add := func(qt QuestionType, names ...string) {
		for _, name := range names {
			t[name] = qt
		}
	}

	add(upload("image/*"), "q picture", "photo", "q image", "add image prompt", "image")
	add(upload("audio/*"), "add audio prompt", "q audio", "audio")
	add(upload("video/*"), "video", "add video prompt", "q video")
	add(upload("application/*"), "file", "add file prompt")
	add(upload("osm/*"), "osm")

	add(input("dateTime"), "add date time prompt", "q date time", "datetime", "dateTime",
		"add dateTime prompt", "q dateTime", "date time")
	add(input("date"), "add date prompt", "q date", "date")
	add(input("time"), "time")
	add(input("string"), "text", "string", "q string", "add text prompt")
	add(input("int"), "integer", "q int", "int", "add integer prompt")
	add(input("decimal"), "decimal", "add decimal prompt", "q decimal")
	add(input("geopoint"), "location", "q geopoint", "q location", "geopoint", "gps", "add location prompt")
	add(input("geoshape"), "q geoshape", "geoshape")
	add(input("geotrace"), "q geotrace", "geotrace")
	add(input("barcode"), "barcode", "q barcode", "add barcode prompt")
	add(QuestionType{Tag: TagInput, Bind: map[string]string{"type": "string", "readonly": "true()"}},
		"add note prompt", "q note", "note")

	add(constrained("int", "0 <= . and . <= 100", ""), "percentage")
	add(constrained("int", "0 <= . and . <= 31", "Enter a number 0-31."), "number of days in last month")
	add(constrained("int", "0 <= . and . <= 183", "Enter a number 0-183."), "number of days in last six months")
	add(constrained("int", "0 <= . and . <= 365", "Enter a number 0-365."), "number of days in last year")
	add(constrained("string", `regex(., '^\d*$')`, "Enter numbers only."), "phone number")

	add(QuestionType{Tag: TagSelect1, Bind: map[string]string{"type": "string"}},
		"select one", "select one using", "q select1", "add select one prompt using")
	add(QuestionType{Tag: TagSelect, Bind: map[string]string{"type": "string"}},
		"add select multiple prompt using", "select all that apply from", "select all that apply",
		"select multiple from", "q select", "select multiple using")
	add(QuestionType{Tag: TagRank, Bind: map[string]string{"type": "odk:rank"}}, "rank")
	add(QuestionType{Tag: TagRange, Bind: map[string]string{"type": "int"}}, "range")

	add(QuestionType{Bind: map[string]string{"type": "string"}},
		"calculate", "q calculate", "add calculate prompt", "hidden")
	add(QuestionType{Tag: TagTrigger, Bind: map[string]string{"type": "string"}},
		"acknowledge", "q acknowledge", "add acknowledge prompt")
	add(QuestionType{Tag: TagTrigger}, "trigger")
	add(QuestionType{Bind: map[string]string{"type": "binary"}}, "audit")
	add(QuestionType{External: "xml"}, "xml-external")
	add(QuestionType{External: "csv"}, "csv-external")
	add(QuestionType{
		Tag:    TagAction,
		Bind:   map[string]string{"type": "geopoint"},
		Action: &Action{Name: "odk:setgeopoint", Event: "odk-instance-first-load"},
	}, "start-geopoint")

	add(preload("dateTime", "timestamp", "start"), "get start time", "start", "start time")
	add(preload("dateTime", "timestamp", "end"), "get end time", "end time", "end")
	add(preload("date", "date", "today"), "get today", "today")
	add(property("deviceid"), "imei", "device id", "deviceid", "get device id")
	add(property("phonenumber"), "phonenumber", "get phone number")
	add(property("simserial"), "simserial", "get sim id", "sim id")
	add(property("subscriberid"), "subscriber id", "subscriberid", "get subscriber id")
	add(property("username"), "username")
	add(property("email"), "email")
	for _, name := range []string{"subscriberid", "phonenumber", "simserial", "deviceid", "username", "email"} {
		add(property("uri:"+name), "uri:"+name)
	}
	return t
}

// Canonical select type names.
const (
	SelectOne      = "select one"
	SelectMultiple = "select all that apply"
	Rank           = "rank"
)

// Select maps select type spellings to their canonical name.
var Select = map[string]string{
	"add select one prompt using":      SelectOne,
	"add select multiple prompt using": SelectMultiple,
	"select all that apply from":       SelectMultiple,
	"select one from":                  SelectOne,
	"select1":                          SelectOne,
	"select_one":                       SelectOne,
	"select one":                       SelectOne,
	"select_multiple":                  SelectMultiple,
	"select all that apply":            SelectMultiple,
	"rank":                             Rank,
}

// SelectFromFile maps file backed select spellings to their canonical name.
var SelectFromFile = map[string]string{
	"select_one_from_file":      SelectOne,
	"select_multiple_from_file": SelectMultiple,
	"select one from file":      SelectOne,
	"select multiple from file": SelectMultiple,
}

// Section control kinds.
const (
	Group  = "group"
	Repeat = "repeat"
	Loop   = "loop"
)

// Control maps begin/end words to section kinds.
var Control = map[string]string{
	"group":        Group,
	"lgroup":       Repeat,
	"repeat":       Repeat,
	"loop":         Loop,
	"looped group": Repeat,
}

var typeAliases = map[string]string{
	"imei":             "deviceid",
	"image":            "photo",
	"add image prompt": "photo",
	"add photo prompt": "photo",
	"add audio prompt": "audio",
	"add video prompt": "video",
	"add file prompt":  "file",
}

// DealiasType maps legacy type spellings onto their current name.
func DealiasType(name string) string {
	if alias, ok := typeAliases[name]; ok {
		return alias
	}
	return name
}

// LabelOptional lists types that need neither label nor hint.
var LabelOptional = map[string]bool{
	"calculate":      true,
	"csv-external":   true,
	"deviceid":       true,
	"end":            true,
	"phonenumber":    true,
	"simserial":      true,
	"start":          true,
	"start-geopoint": true,
	"today":          true,
	"username":       true,
	"xml-external":   true,
}

// DeprecatedMetadata lists device metadata types that clients no longer fill.
var DeprecatedMetadata = map[string]bool{
	"subscriberid": true,
	"simserial":    true,
}

var yesNo = map[string]bool{
	"yes": true, "true": true, "true()": true,
	"no":  false, "false": false, "false()": false,
}

// YesNo parses a workbook boolean. ok is false when s is not one.
func YesNo(s string) (value, ok bool) {
	value, ok = yesNo[strings.ToLower(strings.TrimSpace(s))]
	return
}

// BindingConversion rewrites yes/no shorthands to XPath booleans
// for the bind attributes that accept them.
func BindingConversion(attr, value string) string {
	switch attr {
	case "readonly", "required", "relevant", "constraint", "calculate":
	default:
		return value
	}
	switch value {
	case "yes", "Yes", "YES", "true", "True", "TRUE":
		return "true()"
	case "no", "No", "NO", "false", "False", "FALSE":
		return "false()"
	}
	return value
}
