package routes

import (
	"net/http"
	"regexp"

	"github.com/mbolis/quick-xform/app"
	"github.com/mbolis/quick-xform/httpx"
	"github.com/mbolis/quick-xform/log"
)

var refreshAuthorization = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges basic auth credentials for an access and refresh token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		resp, err := httpx.PasswordGrant(r.Context(), app.BearerServer, user, pass)
		if err != nil {
			httpx.LogInternalError(w, "login.grant", err)
			return
		}
		if resp.Status() != http.StatusOK {
			log.WithFields(log.Fields{"user": user, "status": resp.Status()}).Debug("login: rejected")
		}
		resp.Flush(w)
	}
}

// Refresh expects "authorization: Refresh <token>".
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := refreshAuthorization.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		resp, err := httpx.RefreshGrant(r.Context(), app.BearerServer, match[1])
		if err != nil {
			httpx.LogInternalError(w, "refresh.grant", err)
			return
		}
		resp.Flush(w)
	}
}
