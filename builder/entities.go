package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/expression"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/validate"
)

const reservedPrefix = "__"

var entityColumns = map[string]bool{
	"dataset": true, "entity_id": true, "create_if": true, "update_if": true, "label": true, "repeat": true,
}

func entitiesError(code validate.ErrorCode, row int, format string, args ...any) *validate.Error {
	return &validate.Error{Code: code, Sheet: aliases.SheetEntities, Row: row, Message: fmt.Sprintf(format, args...)}
}

// readEntity parses the entities sheet into an entity definition, or nil when
// the sheet is absent or empty. An absent sheet with a similarly named one
// is warned about.
func readEntity(wb Workbook, w *validate.Warnings) (*survey.Def, error) {
	if _, ok := wb[aliases.SheetEntities]; !ok {
		if msg := validate.SheetMisspellingWarning(aliases.SheetEntities, wb.sheetNames(), aliases.SupportedSheets); msg != "" {
			w.Add("%s", msg)
		}
		return nil, nil
	}
	recs := groupSheet(wb[aliases.SheetEntities], aliases.Entities, false, replaceSmartQuotes)
	if len(recs) == 0 || len(recs[0].entries) == 0 {
		return nil, nil
	}
	if len(recs) > 1 {
		return nil, entitiesError(validate.ErrEntity, 0,
			"Currently, you can only declare a single entity per form. "+
				"Please make sure your entities sheet only declares one entity.")
	}
	rec := recs[0]
	var extra []string
	for _, e := range rec.entries {
		if key := joinPath(e.path); !entityColumns[key] {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, entitiesError(validate.ErrEntity, 0,
			"The entities sheet included the following unexpected column(s): %s. "+
				"These columns are not supported by this version of the compiler. Please either: "+
				"check the spelling of the column names, remove the columns, or update the compiler.",
			quoted(extra))
	}

	dataset := rec.get("dataset")
	switch {
	case dataset == "":
		return nil, entitiesError(validate.ErrEntity, 0, "The entities sheet is missing the list_name column.")
	case strings.HasPrefix(dataset, reservedPrefix):
		return nil, entitiesError(validate.ErrEntity, 0,
			"Invalid entity list name: '%s' starts with reserved prefix %s.", dataset, reservedPrefix)
	case strings.Contains(dataset, "."):
		return nil, entitiesError(validate.ErrEntity, 0,
			"Invalid entity list name: '%s'. Names may not include periods.", dataset)
	case !expression.IsNCName(dataset):
		return nil, entitiesError(validate.ErrEntity, 0,
			"Invalid entity list name: '%s'. Names must begin with a letter, colon, or underscore. "+
				"Other characters can include numbers or dashes.", dataset)
	}

	entityID := rec.get("entity_id")
	createIf := rec.get("create_if")
	updateIf := rec.get("update_if")
	label := rec.get("label")

	repeat := ""
	if raw := rec.get("repeat"); raw != "" {
		refs, err := expression.References(raw)
		if err != nil {
			return nil, validate.ReferenceSyntaxError(aliases.SheetEntities, "repeat", 2)
		}
		if len(refs) != 1 || !expression.IsSingleReference(raw) || refs[0].LastSaved {
			return nil, entitiesError(validate.ErrEntityRepeat, 2,
				"On the 'entities' sheet, the 'repeat' value '%s' is invalid. The 'repeat' column, "+
					"if specified, must contain only a single reference variable (like '${q1}'), "+
					"and the reference variable must contain a valid name.", raw)
		}
		repeat = refs[0].Name
	}

	switch {
	case entityID == "" && updateIf != "":
		return nil, entitiesError(validate.ErrEntity, 0,
			"The entities sheet is missing the entity_id column which is required when updating entities.")
	case entityID != "" && createIf != "" && updateIf == "":
		return nil, entitiesError(validate.ErrEntity, 0,
			"The entities sheet can't specify an entity creation condition and an entity_id "+
				"without also including an update condition.")
	case entityID == "" && label == "":
		return nil, entitiesError(validate.ErrEntity, 0,
			"The entities sheet is missing the label column which is required when creating entities.")
	}

	p := map[string]string{"dataset": dataset}
	for key, value := range map[string]string{
		"entity_id": entityID, "create_if": createIf, "update_if": updateIf, "label": label, "repeat": repeat,
	} {
		if value != "" {
			p[key] = value
		}
	}
	return &survey.Def{Fields: survey.Fields{Type: survey.TypeEntity, Name: "entity", Parameters: p}}, nil
}

func entityRepeatError(value, reason string) *validate.Error {
	return entitiesError(validate.ErrEntityRepeat, 2,
		"On the 'entities' sheet, the 'repeat' value '%s' is invalid. %s", value, reason)
}

// checkEntityRepeat validates a control named like the entity repeat target.
func checkEntityRepeat(target string, kind string, stack []*frame) error {
	if kind != aliases.Repeat {
		return entityRepeatError(target, "The entity repeat target is not a repeat.")
	}
	for _, f := range stack {
		if f.kind == aliases.Repeat {
			return entityRepeatError(target, "The entity repeat target is inside a repeat.")
		}
	}
	return nil
}

func saveToError(row int, value, reason string) *validate.Error {
	return &validate.Error{
		Code:  validate.ErrSaveTo,
		Sheet: aliases.SheetSurvey,
		Row:   row,
		Message: fmt.Sprintf("On the 'survey' sheet, the 'save_to' value '%s' is invalid. %s",
			value, reason),
	}
}

// checkSaveTo validates the save_to property of a row against the entity
// declaration and the enclosing controls.
func checkSaveTo(rec *record, kind string, stack []*frame, entity *survey.Def) error {
	saveTo := rec.get("bind", "entities:saveto")
	if saveTo == "" {
		return nil
	}
	if entity == nil {
		return &validate.Error{Code: validate.ErrSaveTo, Sheet: aliases.SheetSurvey, Row: rec.num,
			Message: "To save entity properties using the save_to column, you must add an entities sheet and declare an entity."}
	}
	if kind == aliases.Group || kind == aliases.Repeat || kind == aliases.Loop {
		return validate.RowErrorf(validate.ErrSaveTo, rec.num, "Groups and repeats can't be saved as entity properties.")
	}

	entityRepeat := entity.Parameters["repeat"]
	inRepeat, located := false, false
	for i := len(stack) - 1; i > 0; i-- {
		if stack[i].kind != aliases.Repeat {
			continue
		}
		if inRepeat {
			return saveToError(rec.num, saveTo, "The entity property populated with 'save_to' must not be "+
				"inside of a nested repeat within the entity repeat.")
		}
		if stack[i].name == entityRepeat {
			located = true
		}
		inRepeat = true
	}
	if entityRepeat != "" && !located {
		return saveToError(rec.num, saveTo, "The entity property populated with 'save_to' must be inside of the entity repeat.")
	}
	if inRepeat && entityRepeat == "" {
		return saveToError(rec.num, saveTo, "The entity property populated with 'save_to' must be inside a repeat "+
			"that is declared in the 'repeat' column of the 'entities' sheet.")
	}

	lower := strings.ToLower(saveTo)
	switch {
	case lower == "name" || lower == "label":
		return validate.RowErrorf(validate.ErrSaveTo, rec.num,
			"Invalid save_to name: the entity property name '%s' is reserved.", saveTo)
	case strings.HasPrefix(saveTo, reservedPrefix):
		return validate.RowErrorf(validate.ErrSaveTo, rec.num,
			"Invalid save_to name: the entity property name '%s' starts with reserved prefix %s.", saveTo, reservedPrefix)
	case !expression.IsNCName(saveTo):
		return validate.RowErrorf(validate.ErrSaveTo, rec.num,
			"Invalid save_to name: '%s'. Entity property names %s", saveTo, validate.IdentifierRule())
	}
	return nil
}
