// Package validate holds the fatal error types, the warning collector and the
// rule helpers shared by every compiler stage.
package validate

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrorCode identifies a class of fatal compile error.
type ErrorCode string

const (
	// ErrStructure indicates a malformed workbook: missing sheet or column, unknown type,
	// unmatched begin/end, bad parameters.
	ErrStructure ErrorCode = "structure"
	// ErrReferenceSyntax indicates a "${" that does not form a valid reference.
	ErrReferenceSyntax ErrorCode = "ref.syntax"
	// ErrReferenceNotFound indicates a ${name} that names no element.
	ErrReferenceNotFound ErrorCode = "ref.not_found"
	// ErrLastSavedNotFound indicates a ${last-saved#name} that names no element.
	ErrLastSavedNotFound ErrorCode = "ref.last_saved_not_found"
	// ErrReferenceAmbiguous indicates a ${name} matching more than one element.
	ErrReferenceAmbiguous ErrorCode = "ref.ambiguous"
	// ErrTrigger indicates a trigger that is not a single reference to a visible element.
	ErrTrigger ErrorCode = "ref.trigger"
	// ErrDuplicateName indicates two siblings, or two repeats, sharing a name.
	ErrDuplicateName ErrorCode = "names.duplicate"
	// ErrInvalidName indicates a name that is not an XML NCName.
	ErrInvalidName ErrorCode = "names.invalid"
	// ErrMissingLabel indicates a control with neither label nor hint.
	ErrMissingLabel ErrorCode = "label.missing"
	// ErrChoices indicates an invalid choice list.
	ErrChoices ErrorCode = "choices"
	// ErrEntity indicates an invalid entity declaration.
	ErrEntity ErrorCode = "entity"
	// ErrEntityRepeat indicates an entity repeat that is not a top level repeat.
	ErrEntityRepeat ErrorCode = "entity.repeat"
	// ErrSaveTo indicates an invalid save_to property.
	ErrSaveTo ErrorCode = "entity.save_to"
	// ErrInstance indicates a secondary instance name collision.
	ErrInstance ErrorCode = "instance"
)

// Error is a fatal compile error. Row is the 1 based workbook row, counting the
// header row, or zero when unknown.
type Error struct {
	Code    ErrorCode
	Sheet   string
	Row     int
	Column  string
	Message string
}

func (e *Error) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("[row : %d] %s", e.Row, e.Message)
	}
	return e.Message
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrorOf(code))
// works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == ""
}

// ErrorOf returns a code only matcher for errors.Is.
func ErrorOf(code ErrorCode) error {
	return &Error{Code: code}
}

// Errorf builds an Error without row context.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RowErrorf builds an Error bound to a survey sheet row.
func RowErrorf(code ErrorCode, row int, format string, args ...any) *Error {
	return &Error{Code: code, Sheet: "survey", Row: row, Message: fmt.Sprintf(format, args...)}
}

// StructuralError reports a malformed workbook.
func StructuralError(row int, format string, args ...any) *Error {
	e := RowErrorf(ErrStructure, row, format, args...)
	if row == 0 {
		e.Sheet = ""
	}
	return e
}

// ReferenceSyntaxError reports a malformed reference in a column.
func ReferenceSyntaxError(sheet, column string, row int) *Error {
	return &Error{
		Code:   ErrReferenceSyntax,
		Sheet:  sheet,
		Row:    row,
		Column: column,
		Message: fmt.Sprintf("On the '%s' sheet, the '%s' value is invalid. "+
			"Reference variables must start with '${', then a question name, and end with '}'.",
			sheet, column),
	}
}

// UnresolvedReferenceError reports a ${name} naming no element.
func UnresolvedReferenceError(sheet, column string, row int, name string) *Error {
	return &Error{
		Code:   ErrReferenceNotFound,
		Sheet:  sheet,
		Row:    row,
		Column: column,
		Message: fmt.Sprintf("On the '%s' sheet, the '%s' value is invalid. "+
			"Reference variables must refer to a question name. Could not find '%s'.",
			sheet, column, name),
	}
}

// InvalidReferenceError reports a ${last-saved#name} naming no element.
func InvalidReferenceError(sheet, column string, row int, name string) *Error {
	return &Error{
		Code:   ErrLastSavedNotFound,
		Sheet:  sheet,
		Row:    row,
		Column: column,
		Message: fmt.Sprintf("On the '%s' sheet, the '%s' value is invalid. "+
			"Reference variables must refer to a question name. Could not find '%s' "+
			"for the last-saved instance.", sheet, column, name),
	}
}

// Append aggregates err into all. A nil err leaves all unchanged.
func Append(all error, err error) error {
	if err == nil {
		return all
	}
	return multierror.Append(all, err)
}

// Flatten returns nil for an empty aggregate, the only error for a single one,
// and the aggregate itself otherwise.
func Flatten(all error) error {
	merr, ok := all.(*multierror.Error)
	if !ok {
		return all
	}
	switch len(merr.Errors) {
	case 0:
		return nil
	case 1:
		return merr.Errors[0]
	}
	merr.ErrorFormat = listFormat
	return merr
}

func listFormat(errs []error) string {
	msg := ""
	for i, err := range errs {
		if i > 0 {
			msg += "\n"
		}
		msg += err.Error()
	}
	return msg
}
