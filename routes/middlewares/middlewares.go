package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-xform/httpx"
)

// Admin middleware to check for the 'admin' role in an OAuth token signed
// with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		isAdmin := false
		if rolesClaim, ok := claims["roles"]; ok {
			roles := strings.Split(rolesClaim, ",")
			for _, role := range roles {
				if role == "admin" {
					isAdmin = true
					break
				}
			}
		}

		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func tokenCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		SameSite: http.SameSiteNoneMode,
	}
}

// CookieAuth lets browsers reach GET pages with the tokens kept in cookies.
// An expired access token is refreshed once; without a usable refresh token
// the client is redirected to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "GET" {
				h.ServeHTTP(w, r)
				return
			}

			access, err := r.Cookie("access_token")
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+access.Value)
				rec := httpx.NewRecorder()
				h.ServeHTTP(rec, r)
				if rec.Status() != http.StatusUnauthorized {
					rec.Flush(w)
					return
				}
			}

			toLogin := func() {
				w.Header().Set("location", "/login?goto="+url.QueryEscape(r.RequestURI))
				w.WriteHeader(http.StatusTemporaryRedirect)
			}

			refresh, err := r.Cookie("refresh_token")
			if errors.Is(err, http.ErrNoCookie) {
				toLogin()
				return
			}
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			rec, err := httpx.RefreshGrant(r.Context(), bearerServer, refresh.Value)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			switch rec.Status() {
			case http.StatusOK:
			case http.StatusUnauthorized:
				http.SetCookie(w, tokenCookie("refresh_token", "", -1))
				toLogin()
				return
			default:
				http.Error(w, http.StatusText(rec.Status()), rec.Status())
				return
			}

			var tokens tokenResponse
			if err := rec.Decode(&tokens); err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, tokenCookie("access_token", tokens.AccessToken, tokens.ExpiresIn))
			http.SetCookie(w, tokenCookie("refresh_token", tokens.RefreshToken, 60*60*24*365))

			r.Header.Set("authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
