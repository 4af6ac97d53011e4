package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/instructcsv/internal/config"
	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/JonMunkholm/instructcsv/internal/metrics"
)

func testConfig() *config.Config {
	cfg, err := config.LoadFrom(func(string) string { return "" })
	if err != nil {
		panic(err)
	}
	cfg.Output.LineEnding = "lf"
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Upload.MaxFileSize = 1 << 20
	return cfg
}

func newTestServer(t *testing.T) (*Server, *metrics.Collector) {
	t.Helper()
	collector := metrics.New()
	converter := core.NewConverter(nil,
		core.WithLineEnding(core.LineEndingLF),
		core.WithObserver(collector),
		core.WithDiagnostics(io.Discard),
	)
	return NewServer(converter, collector.Handler(), testConfig()), collector
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	part, err := mpw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(part, content)
	mpw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

func TestHandleConvert(t *testing.T) {
	srv, _ := newTestServer(t)

	input := "What is anxiety?,Anxiety is a feeling of worry.\n" +
		"http://x.com test,answer2\n" +
		"I feel sad today,Try talking to someone.\n"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "posts.csv", input))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	want := "text\n<s>[INST]I feel sad today [/INST]  Try talking to someone. </s>\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if got := rec.Header().Get(headerRowsRead); got != "3" {
		t.Errorf("%s = %q, want 3", headerRowsRead, got)
	}
	if got := rec.Header().Get(headerRecordsWritten); got != "1" {
		t.Errorf("%s = %q, want 1", headerRecordsWritten, got)
	}
	if rec.Header().Get(headerRunID) == "" {
		t.Errorf("%s header missing", headerRunID)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "posts.instruct.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestHandleConvert_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed csv",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "bad.csv", "a,b\"c\n") },
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "FILE002",
		},
		{
			name:     "empty file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "empty.csv", "") },
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "FILE005",
		},
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				var body bytes.Buffer
				mpw := multipart.NewWriter(&body)
				mpw.WriteField("other", "x")
				mpw.Close()
				req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
				req.Header.Set("Content-Type", mpw.FormDataContentType())
				return req
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name: "file too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "big.csv", strings.Repeat("q,a\n", 1<<19))
			},
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, tt.req(t))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
			}
			if resp.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantErr)
			}
		})
	}
}

func TestHandleConvert_ErrorFormats(t *testing.T) {
	tests := []struct {
		name        string
		header      map[string]string
		wantType    string
		wantContain string
	}{
		{
			name:        "htmx gets fragment",
			header:      map[string]string{"HX-Request": "true"},
			wantType:    "text/html",
			wantContain: `role="alert"`,
		},
		{
			name:        "browser form gets text",
			header:      map[string]string{"Accept": "text/html,application/xhtml+xml"},
			wantType:    "text/plain",
			wantContain: "(Code: FILE002)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			req := uploadRequest(t, "bad.csv", "\"open")
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.wantType) {
				t.Errorf("Content-Type = %q, want %s", ct, tt.wantType)
			}
			if !strings.Contains(rec.Body.String(), tt.wantContain) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantContain)
			}
		})
	}
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="/api/convert"`) || !strings.Contains(body, "1 MB") {
		t.Errorf("index page missing form or size limit:\n%s", body)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleConvert_Busy(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.limiter = newLimiter(1, 10*time.Millisecond)
	if err := srv.limiter.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer srv.limiter.release()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "posts.csv", "q,a\n"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UPL003") {
		t.Errorf("body = %s, want UPL003", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "posts.csv", "q1,a1\nq2,a2\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("convert status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "instructcsv_rows_read_total 2") {
		t.Errorf("metrics missing converted rows:\n%s", rec.Body.String())
	}
}

func TestResultName(t *testing.T) {
	tests := map[string]string{
		"posts.csv":            "posts.instruct.csv",
		"book.xlsx":            "book.instruct.xlsx",
		`C:\Users\me\data.tsv`: "data.instruct.tsv",
		"../../etc/passwd":     "passwd.instruct",
		"":                     "upload.instruct.csv",
	}
	for in, want := range tests {
		if got := resultName(in); got != want {
			t.Errorf("resultName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorAlertEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("<b>bad</b>", "retry", "X1").Render(t.Context(), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<b>") {
		t.Errorf("message not escaped: %s", buf.String())
	}
}
