package builder

import (
	"strings"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/validate"
)

const (
	defaultFormName = "data"
	formIDConflict  = "The form_id and id_sting column headers are both specified in the settings sheet provided. " +
		"This may cause errors during conversion. In future, its best to avoid specifying both column headers " +
		"in the settings sheet."
)

// readSettings returns the first settings row, dealiased.
func readSettings(wb Workbook, doubleColons bool, w *validate.Warnings) map[string]string {
	rows, ok := wb[aliases.SheetSettings]
	if !ok {
		if msg := validate.SheetMisspellingWarning(aliases.SheetSettings, wb.sheetNames(), aliases.SupportedSheets); msg != "" {
			w.Add(msg)
		}
		return map[string]string{}
	}
	if len(rows) == 0 {
		return map[string]string{}
	}
	first := rows[0]
	_, hasID := first["id_string"]
	_, hasFormID := first["form_id"]
	if hasID && hasFormID {
		trimmed := make(Row, len(first))
		for k, v := range first {
			if k != "id_string" {
				trimmed[k] = v
			}
		}
		first = trimmed
		w.Add(formIDConflict)
	}
	settings := map[string]string{}
	for _, e := range groupSheet([]Row{first}, aliases.Settings, doubleColons, replaceSmartQuotes)[0].entries {
		settings[joinPath(e.path)] = e.value
	}
	return settings
}

// yes reports whether the named setting is a workbook yes.
func yes(settings map[string]string, key string) bool {
	v, _ := aliases.YesNo(settings[key])
	return v
}

func joinPath(path []string) string {
	return strings.Join(path, "::")
}
