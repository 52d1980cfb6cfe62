package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-xform/app"
	"github.com/mbolis/quick-xform/builder"
	"github.com/mbolis/quick-xform/httpx"
	"github.com/mbolis/quick-xform/log"
	"github.com/mbolis/quick-xform/model"
)

// Compile renders the posted workbook. The XForm is returned as XML, or
// with its warnings as JSON when format=json.
func Compile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wb := builder.Workbook{}
		err := render.DecodeJSON(r.Body, &wb)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.Compiler.Compile(r.Context(), r.URL.Query().Get("name"), wb)
		if err != nil {
			httpx.LogCompileError(w, r, "compile", err)
			return
		}

		if r.URL.Query().Get("format") == "json" {
			render.JSON(w, r, model.Compiled{XML: string(res.XML), Warnings: nonNil(res.Warnings)})
			return
		}
		w.Header().Set("content-type", "application/xml; charset=utf-8")
		w.Write(res.XML)
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
