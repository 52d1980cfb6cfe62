// Package builder turns a workbook into a survey tree. The rows stage walks
// the sheets and produces a survey.Def; the create stage turns a Def into typed
// elements.
package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Row is one sheet row keyed by column header. Values are strings, numbers,
// booleans or, for input that is already grouped, nested maps.
type Row map[string]any

// Workbook maps sheet names to their data rows, header row excluded.
type Workbook map[string][]Row

// ParseWorkbook decodes a JSON workbook document.
func ParseWorkbook(data []byte) (Workbook, error) {
	var wb Workbook
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, errors.Wrap(err, "decode workbook")
	}
	return wb, nil
}

// ParseWorkbookYAML decodes a YAML workbook document.
func ParseWorkbookYAML(data []byte) (Workbook, error) {
	var wb Workbook
	if err := yaml.Unmarshal(data, &wb); err != nil {
		return nil, errors.Wrap(err, "decode workbook")
	}
	for _, rows := range wb {
		for _, row := range rows {
			normalizeYAML(row)
		}
	}
	return wb, nil
}

// yaml.v3 decodes nested mappings with non string keys as map[any]any, and
// string keyed ones into the destination's own type, Row.
func normalizeYAML(row Row) {
	for k, v := range row {
		row[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, sub := range v {
			m[fmt.Sprint(k)] = normalizeValue(sub)
		}
		return m
	case Row:
		return normalizeValue(map[string]any(v))
	case map[string]any:
		for k, sub := range v {
			v[k] = normalizeValue(sub)
		}
		return v
	case []any:
		for i, sub := range v {
			v[i] = normalizeValue(sub)
		}
		return v
	}
	return v
}

// sheetNames returns the workbook sheet names, sorted.
func (wb Workbook) sheetNames() []string {
	names := make([]string, 0, len(wb))
	for name := range wb {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lower returns a copy of wb with lower cased sheet names.
func (wb Workbook) lower() Workbook {
	out := make(Workbook, len(wb))
	for name, rows := range wb {
		out[strings.ToLower(name)] = rows
	}
	return out
}

// hasDoubleColon reports whether any header uses "::" grouping.
func (wb Workbook) hasDoubleColon() bool {
	for _, rows := range wb {
		for _, row := range rows {
			for header := range row {
				if strings.Contains(header, "::") {
					return true
				}
			}
		}
	}
	return false
}

// cellString converts a cell value to its string form. ok is false for empty
// cells and nested values.
func cellString(v any) (s string, ok bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		if v {
			return "TRUE", true
		}
		return "FALSE", true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case map[string]any, Row, []any:
		return "", false
	}
	return fmt.Sprint(v), true
}
