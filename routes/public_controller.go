package routes

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"net/http"

	"github.com/beevik/etree"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-xform/app"
	"github.com/mbolis/quick-xform/httpx"
)

const formListNamespace = "http://openrosa.org/xforms/xformsList"

// PublicListForms writes the OpenRosa form list of the stored forms.
func PublicListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT f.form_id, f.title, f.form_version, f.xform
			FROM form f
			ORDER BY f.form_id`)
		if err != nil {
			httpx.LogInternalError(w, "db.list_forms", err)
			return
		}
		defer rows.Close()

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base := scheme + "://" + r.Host + "/api/forms/"

		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		list := doc.CreateElement("xforms")
		list.CreateAttr("xmlns", formListNamespace)
		for rows.Next() {
			var formID, title, version, xform string
			err = rows.Scan(&formID, &title, &version, &xform)
			if err != nil {
				httpx.LogInternalError(w, "db.list_forms.scan", err)
				return
			}
			sum := md5.Sum([]byte(xform))

			f := list.CreateElement("xform")
			f.CreateElement("formID").SetText(formID)
			f.CreateElement("name").SetText(title)
			if version != "" {
				f.CreateElement("version").SetText(version)
			}
			f.CreateElement("hash").SetText("md5:" + hex.EncodeToString(sum[:]))
			f.CreateElement("downloadUrl").SetText(base + formID + ".xml")
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.list_forms.rows", err)
			return
		}
		doc.Indent(2)

		w.Header().Set("content-type", "text/xml; charset=utf-8")
		w.Header().Set("x-openrosa-version", "1.0")
		doc.WriteTo(w)
	}
}

// PublicGetXForm writes the XForm of a stored form.
func PublicGetXForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formID")

		var xform string
		err := app.QueryRowContext(r.Context(), `
			SELECT f.xform FROM form f WHERE f.form_id = ?`,
			formID,
		).Scan(&xform)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_xform", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_xform", err)
			return
		}

		w.Header().Set("content-type", "text/xml; charset=utf-8")
		w.Write([]byte(xform))
	}
}
