package builder

import (
	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

// Options tune a build.
type Options struct {
	// FormName is the root element name when the settings sheet has no name.
	FormName string
	// FormID is the form id when the settings sheet has none, usually the
	// workbook file name.
	FormID string
	// DefaultLanguage applies when the settings sheet names none.
	DefaultLanguage string
	// Included holds the workbooks that "include" rows refer to, by name.
	Included map[string]Workbook
	// Types is the question type table. Nil means aliases.DefaultTable().
	Types aliases.Table
}

var defaultTypes = aliases.DefaultTable()

func (o Options) types() aliases.Table {
	if o.Types != nil {
		return o.Types
	}
	return defaultTypes
}

// Build reads wb and returns the survey tree with the warnings found on the
// way.
func Build(wb Workbook, opts Options) (*survey.Survey, []string, error) {
	var w validate.Warnings
	def, err := readRows(wb, opts, &w)
	if err != nil {
		return nil, w.List(), err
	}
	s, err := create(def, opts, &w)
	if err != nil {
		return nil, w.List(), err
	}
	return s, w.List(), nil
}

// Definition reads wb and returns its definition tree without creating the
// typed elements.
func Definition(wb Workbook, opts Options) (*survey.Def, []string, error) {
	var w validate.Warnings
	def, err := readRows(wb, opts, &w)
	return def, w.List(), err
}

// FromDef builds the survey tree of a definition, as produced by
// survey.Survey.ToDef or decoded with survey.ParseDef. def is not modified.
func FromDef(def *survey.Def, opts Options) (*survey.Survey, []string, error) {
	var w validate.Warnings
	s, err := create(def.Clone(), opts, &w)
	if err != nil {
		return nil, w.List(), err
	}
	return s, w.List(), nil
}

// FromJSON decodes a survey definition and builds it.
func FromJSON(data []byte, opts Options) (*survey.Survey, []string, error) {
	def, err := survey.ParseDef(data)
	if err != nil {
		return nil, nil, err
	}
	return FromDef(def, opts)
}
