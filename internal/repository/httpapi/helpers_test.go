package httpapi

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/and161185/appealkit/internal/apiclient"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	ctype  string
	raw    []byte
}

func (r *recorded) json() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(r.raw, &out)
	return out
}

// form parses a recorded multipart body into values and file names per field.
func (r *recorded) form(t *testing.T) (map[string]string, map[string][]string) {
	t.Helper()
	_, params, err := mime.ParseMediaType(r.ctype)
	if err != nil {
		t.Fatalf("content type %q: %v", r.ctype, err)
	}
	values := map[string]string{}
	files := map[string][]string{}
	mr := multipart.NewReader(strings.NewReader(string(r.raw)), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		if p.FileName() != "" {
			files[p.FormName()] = append(files[p.FormName()], p.FileName())
			continue
		}
		b, _ := io.ReadAll(p)
		values[p.FormName()] = string(b)
	}
	return values, files
}

func fakeAPI(t *testing.T, status int, reply string) (*apiclient.Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.ctype = r.Header.Get("Content-Type")
		rec.raw, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL), rec
}
