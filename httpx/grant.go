package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/oauth"
	"github.com/pkg/errors"
)

// Grant runs an OAuth token request against the bearer server and records
// its answer. The bearer server only reads form encoded requests.
func Grant(ctx context.Context, bearer *oauth.BearerServer, params url.Values) (*Recorder, error) {
	body := params.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", "/", strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "grant.request")
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	rec := NewRecorder()
	bearer.UserCredentials(rec, req)
	return rec, nil
}

func PasswordGrant(ctx context.Context, bearer *oauth.BearerServer, username, password string) (*Recorder, error) {
	return Grant(ctx, bearer, url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	})
}

func RefreshGrant(ctx context.Context, bearer *oauth.BearerServer, token string) (*Recorder, error) {
	return Grant(ctx, bearer, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {token},
	})
}
