package model

import (
	"time"

	"github.com/mbolis/quick-xform/builder"
)

type Form struct {
	ID          string    `json:"id,omitempty"`
	FormID      string    `json:"form_id"`
	Version     int       `json:"version,omitempty"`
	Title       string    `json:"title"`
	FormVersion string    `json:"form_version,omitempty"`
	Workbook    any       `json:"workbook,omitempty"`
	XForm       string    `json:"xform,omitempty"`
	Warnings    []string  `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FormRequest is the body of form creation and update requests.
type FormRequest struct {
	// Name is the fallback form id when the settings sheet has none.
	Name     string           `json:"name"`
	Version  int              `json:"version,omitempty"`
	Workbook builder.Workbook `json:"workbook"`
}

type Compiled struct {
	XML      string   `json:"xml"`
	Warnings []string `json:"warnings"`
}

type CompileError struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Sheet  string `json:"sheet,omitempty"`
	Row    int    `json:"row,omitempty"`
	Column string `json:"column,omitempty"`
}
