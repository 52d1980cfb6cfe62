package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/gofrs/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-xform/app"
	"github.com/mbolis/quick-xform/compiler"
	"github.com/mbolis/quick-xform/httpx"
	"github.com/mbolis/quick-xform/log"
	"github.com/mbolis/quick-xform/model"
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// encodeForm returns the JSON columns of a compiled form.
func encodeForm(req model.FormRequest, res *compiler.Result) (workbook, warnings []byte, err error) {
	workbook, err = json.Marshal(req.Workbook)
	if err != nil {
		return
	}
	warnings, err = json.Marshal(nonNil(res.Warnings))
	return
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.FormRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil || len(req.Workbook) == 0 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.Compiler.Compile(r.Context(), req.Name, req.Workbook)
		if err != nil {
			httpx.LogCompileError(w, r, "create_form.compile", err)
			return
		}
		workbook, warnings, err := encodeForm(req, res)
		if err != nil {
			httpx.LogInternalError(w, "create_form.encode", err)
			return
		}

		id, err := uuid.NewV4()
		if err != nil {
			httpx.LogInternalError(w, "create_form.uuid", err)
			return
		}

		now := time.Now().UTC()
		_, err = app.ExecContext(r.Context(), `
		INSERT INTO form (id, form_id, title, form_version, workbook, xform, warnings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(),
			res.FormID(),
			res.Title(),
			res.Version(),
			string(workbook),
			string(res.XML),
			string(warnings),
			now,
			now,
		)
		if isUniqueViolation(err) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "db.insert_form.conflict",
				"form %q already exists", res.FormID())
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":       id.String(),
			"form_id":  res.FormID(),
			"warnings": nonNil(res.Warnings),
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
		SELECT f.id, f.form_id, f.version, f.title, f.form_version, f.warnings, f.created_at, f.updated_at
		FROM form f
		ORDER BY f.form_id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			var warnings string
			err = rows.Scan(&f.ID, &f.FormID, &f.Version, &f.Title, &f.FormVersion, &warnings, &f.CreatedAt, &f.UpdatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}
			err = json.Unmarshal([]byte(warnings), &f.Warnings)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.parse_warnings", err)
				return
			}

			forms = append(forms, f)
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_forms.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		f := model.Form{}
		var workbook, warnings string
		err := app.QueryRowContext(r.Context(), `
			SELECT
				f.id, f.form_id, f.version, f.title, f.form_version,
				f.workbook, f.xform, f.warnings, f.created_at, f.updated_at
			FROM form f
			WHERE f.id = ?`,
			id,
		).Scan(
			&f.ID, &f.FormID, &f.Version, &f.Title, &f.FormVersion,
			&workbook, &f.XForm, &warnings, &f.CreatedAt, &f.UpdatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_form", id)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		err = json.Unmarshal([]byte(workbook), &f.Workbook)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.parse_workbook", err)
			return
		}
		err = json.Unmarshal([]byte(warnings), &f.Warnings)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.parse_warnings", err)
			return
		}

		render.JSON(w, r, f)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		req := model.FormRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil || len(req.Workbook) == 0 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.Compiler.Compile(r.Context(), req.Name, req.Workbook)
		if err != nil {
			httpx.LogCompileError(w, r, "update_form.compile", err)
			return
		}
		workbook, warnings, err := encodeForm(req, res)
		if err != nil {
			httpx.LogInternalError(w, "update_form.encode", err)
			return
		}

		result, err := app.ExecContext(r.Context(), `
			UPDATE form
			SET
				form_id = ?,
				title = ?,
				form_version = ?,
				workbook = ?,
				xform = ?,
				warnings = ?,
				updated_at = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			res.FormID(),
			res.Title(),
			res.Version(),
			string(workbook),
			string(res.XML),
			string(warnings),
			time.Now().UTC(),
			id,
			req.Version,
		)
		if isUniqueViolation(err) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "db.update_form.conflict",
				"form %q already exists", res.FormID())
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		// optimistic lock
		n, err := result.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_form.verify.conflict")
			return
		}

		render.JSON(w, r, map[string]any{
			"id":       id,
			"version":  req.Version + 1,
			"warnings": nonNil(res.Warnings),
		})
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form WHERE id = ?`,
			id,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", id)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
