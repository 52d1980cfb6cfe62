package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/goccy/go-json"

	"github.com/mbolis/quick-xform/app"
	"github.com/mbolis/quick-xform/compiler"
	"github.com/mbolis/quick-xform/config"
	"github.com/mbolis/quick-xform/database"
	"github.com/mbolis/quick-xform/httpx"
)

const workbook = `{"survey": [
	{"type": "text", "name": "a", "label": {"en": "A", "fr": "Ah"}},
	{"type": "text", "name": "b", "label": "B"}
], "settings": [{"form_id": "household", "form_title": "Household", "version": "1"}]}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.CreateAccount(db, "admin", "pass"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	srv := httptest.NewServer(Wire(app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Compiler:     compiler.New(compiler.Options{}),
		Config:       cfg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("content-type", "application/json")
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	req, _ := http.NewRequest("POST", srv.URL+"/api/login", nil)
	req.SetBasicAuth("admin", "pass")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		t.Fatalf("login body: %v", err)
	}
	return body.AccessToken
}

func TestCompile(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name        string
		query, body string
		status      int
		contains    string
	}{
		{"xml", "", workbook, http.StatusOK, `<translation lang="fr">`},
		{"json", "?format=json", workbook, http.StatusOK, `Language 'fr' is missing the survey label column (1 element: b).`},
		{"bad body", "", `[`, http.StatusBadRequest, ""},
		{
			"compile error", "",
			`{"survey": [{"type": "text", "name": "a", "label": "A"}, {"type": "text", "name": "a", "label": "A"}]}`,
			http.StatusUnprocessableEntity, `"code":"names.duplicate"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, "POST", srv.URL+"/api/compile"+tt.query, "", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if !bytes.Contains(body, []byte(tt.contains)) {
				t.Fatalf("body lacks %q:\n%s", tt.contains, body)
			}
		})
	}
}

func TestAdminRequiresToken(t *testing.T) {
	srv := newServer(t)
	resp, _ := do(t, "GET", srv.URL+"/api/admin/forms", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestFormLifecycle(t *testing.T) {
	srv := newServer(t)
	token := login(t, srv)
	admin := srv.URL + "/api/admin/forms"

	resp, body := do(t, "POST", admin, token, `{"workbook": `+workbook+`}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID       string   `json:"id"`
		FormID   string   `json:"form_id"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.FormID != "household" || len(created.Warnings) != 1 {
		t.Fatalf("created = %+v", created)
	}

	resp, body = do(t, "POST", admin, token, `{"workbook": `+workbook+`}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create status = %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, "GET", admin, token, "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"form_id":"household"`)) {
		t.Fatalf("list = %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, "GET", admin+"/"+created.ID, token, "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"title":"Household"`)) {
		t.Fatalf("get = %d: %s", resp.StatusCode, body)
	}

	updated := strings.Replace(workbook, `"label": "B"`, `"label": {"en": "B", "fr": "Bé"}`, 1)
	resp, body = do(t, "PUT", admin+"/"+created.ID, token, `{"version": 1, "workbook": `+updated+`}`)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"warnings":[]`)) {
		t.Fatalf("update = %d: %s", resp.StatusCode, body)
	}
	resp, _ = do(t, "PUT", admin+"/"+created.ID, token, `{"version": 1, "workbook": `+updated+`}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale update status = %d, want 409", resp.StatusCode)
	}

	resp, body = do(t, "GET", srv.URL+"/api/forms", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("form list status = %d", resp.StatusCode)
	}
	list := etree.NewDocument()
	if err := list.ReadFromBytes(body); err != nil {
		t.Fatalf("form list: %v", err)
	}
	entry := list.FindElement("//xform[formID='household']")
	if entry == nil {
		t.Fatalf("form list lacks household:\n%s", body)
	}
	if got := entry.FindElement("downloadUrl").Text(); got != srv.URL+"/api/forms/household.xml" {
		t.Fatalf("downloadUrl = %q", got)
	}
	if !strings.HasPrefix(entry.FindElement("hash").Text(), "md5:") {
		t.Fatalf("hash = %q", entry.FindElement("hash").Text())
	}

	resp, body = do(t, "GET", srv.URL+"/api/forms/household.xml", "", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("Bé")) {
		t.Fatalf("xform = %d: %s", resp.StatusCode, body)
	}

	resp, _ = do(t, "DELETE", admin+"/"+created.ID, token, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = do(t, "DELETE", admin+"/"+created.ID, token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
	resp, _ = do(t, "GET", srv.URL+"/api/forms/household.xml", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted xform status = %d, want 404", resp.StatusCode)
	}
}

func TestAdminPagesCookieAuth(t *testing.T) {
	srv := newServer(t)
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	get := func(cookies ...*http.Cookie) *http.Response {
		t.Helper()
		req, _ := http.NewRequest("GET", srv.URL+"/admin/forms.html", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}

	resp := get()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", resp.StatusCode)
	}
	if got, want := resp.Header.Get("location"), "/login?goto=%2Fadmin%2Fforms.html"; got != want {
		t.Fatalf("location = %q, want %q", got, want)
	}

	// no private pages are installed, so an authorized request reaches the file server
	resp = get(&http.Cookie{Name: "access_token", Value: login(t, srv)})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("authorized status = %d, want 404", resp.StatusCode)
	}
}
