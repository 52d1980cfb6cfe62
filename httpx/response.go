package httpx

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Recorder holds a response in memory so a handler's outcome can be
// inspected before anything reaches the client, as the cookie and token
// refresh flows need.
type Recorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Status is the recorded status code; a handler that wrote without
// calling WriteHeader answered 200.
func (rec *Recorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (rec *Recorder) Header() http.Header {
	if rec.header == nil {
		rec.header = http.Header{}
	}
	return rec.header
}

func (rec *Recorder) Body() []byte {
	return rec.body.Bytes()
}

func (rec *Recorder) Write(body []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.body.Write(body)
}

func (rec *Recorder) WriteHeader(statusCode int) {
	if rec.status == 0 {
		rec.status = statusCode
	}
}

// Decode parses the recorded body as JSON.
func (rec *Recorder) Decode(v any) error {
	return errors.Wrap(json.Unmarshal(rec.body.Bytes(), v), "recorder.decode")
}

// Flush copies the recorded response to w.
func (rec *Recorder) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range rec.header {
		header[key] = value
	}
	w.WriteHeader(rec.Status())
	_, err := w.Write(rec.body.Bytes())
	return err
}
