package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/observability"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

const trio = `{
  "pedigree": [
    {"id": "f", "sex": "M"},
    {"id": "m", "sex": "F"},
    {"id": "c", "sire": "f", "dam": "m", "sex": "F"}
  ],
  "loci": [
    {"name": "M1", "genotypes": {"f": "1/2", "m": "1/1", "c": "1/2"}},
    {"name": "M2", "genotypes": {"f": "1/1", "m": "1/1", "c": "2/2"}}
  ]
}`

func post(t *testing.T, h http.Handler, path, options string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"dataset": ` + trio
	if options != "" {
		body += `, "options": ` + options
	}
	body += "}"
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := New(Options{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("GET /healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCheck(t *testing.T) {
	h := New(Options{}).Handler()

	tests := []struct {
		name     string
		options  string
		status   int
		code     gerrors.Code
		wantLoci int
	}{
		{"consistent locus", `{"loci": ["M1"]}`, http.StatusOK, "", 1},
		{"inconsistent without diagnosis", ``, http.StatusUnprocessableEntity, gerrors.ErrCodeInconsistent, 2},
		{"diagnosed", `{"diagnose": true}`, http.StatusOK, "", 2},
		{"unknown locus", `{"loci": ["M9"]}`, http.StatusNotFound, gerrors.ErrCodeNotFound, 0},
		{"bad option", `{"word_bits": 99}`, http.StatusBadRequest, gerrors.ErrCodeConfiguration, 0},
		{"unknown option", `{"colour": "red"}`, http.StatusBadRequest, gerrors.ErrCodeInvalidFormat, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/v1/check", tt.options)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.code != "" {
				resp := decodeError(t, rec)
				if resp.Error.Code != tt.code {
					t.Errorf("code = %s, want %s", resp.Error.Code, tt.code)
				}
				if tt.wantLoci > 0 && (resp.Result == nil || len(resp.Result.Loci) != tt.wantLoci) {
					t.Errorf("partial result = %+v", resp.Result)
				}
				return
			}
			var res pipeline.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if len(res.Loci) != tt.wantLoci {
				t.Errorf("got %d loci, want %d", len(res.Loci), tt.wantLoci)
			}
		})
	}
}

func TestCheckRejectsBadBody(t *testing.T) {
	h := New(Options{MaxBody: 64}).Handler()
	tests := []struct {
		name string
		body string
		code gerrors.Code
	}{
		{"not json", `{`, gerrors.ErrCodeInvalidFormat},
		{"no dataset", `{}`, gerrors.ErrCodeInvalidInput},
		{"too large", `{"dataset": ` + trio + `}`, gerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/check", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if got := decodeError(t, rec).Error.Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestPeel(t *testing.T) {
	h := New(Options{}).Handler()
	rec := post(t, h, "/v1/peel", `{"loci": ["M1"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Loci []peelLocus `json:"loci"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Loci) != 1 || len(resp.Loci[0].Sequences) != 1 || len(resp.Loci[0].Sequences[0].Ops) == 0 {
		t.Errorf("peel response = %s", rec.Body.String())
	}
}

func TestRender(t *testing.T) {
	h := New(Options{}).Handler()

	rec := post(t, h, "/v1/render?locus=M2&format=dot", `{"diagnose": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("digraph")) {
		t.Errorf("body = %.60s", rec.Body.String())
	}

	// An inconsistent locus is still drawn, with the family highlighted.
	if rec := post(t, h, "/v1/render?locus=M2&format=dot", ``); rec.Code != http.StatusOK {
		t.Errorf("inconsistent render status = %d", rec.Code)
	}

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing locus", "?format=svg", http.StatusBadRequest},
		{"bad format", "?locus=M1&format=gif", http.StatusBadRequest},
		{"bad scale", "?locus=M1&scale=-1", http.StatusBadRequest},
		{"unknown locus", "?locus=M9", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(t, h, "/v1/render"+tt.query, ""); rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

type recordingHTTP struct {
	observability.NoopHTTPHooks
	mu    sync.Mutex
	paths []string
	codes []int
}

func (r *recordingHTTP) OnResponse(_ context.Context, _, path string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	r.codes = append(r.codes, status)
}

func TestHTTPHooks(t *testing.T) {
	rec := &recordingHTTP{}
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	h := New(Options{}).Handler()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	post(t, h, "/v1/check", `{"loci": ["M9"]}`)

	if len(rec.paths) != 2 || rec.paths[1] != "/v1/check" {
		t.Errorf("paths = %v", rec.paths)
	}
	if len(rec.codes) == 2 && (rec.codes[0] != http.StatusOK || rec.codes[1] != http.StatusNotFound) {
		t.Errorf("codes = %v", rec.codes)
	}
}
