package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/config"
	"github.com/JonMunkholm/beb64/internal/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Jobs: config.JobsConfig{
			MaxUploadSize: 1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
			ChunkSize:     512,
			SpoolDir:      t.TempDir(),
			Retention:     time.Minute,
		},
		Codec: config.CodecConfig{
			DecodeMode:      "lenient",
			SniffSampleSize: 4096,
			MaxTextSize:     1 << 20,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc, err := core.NewService(nil, cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.stop() })
	return s
}

func doJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandleEncode(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := doJSON(t, s, "/api/encode", encodeRequest{Text: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decodeBody[encodeResponse](t, rec)
	if got.Base64 != "aGVsbG8=" || got.Length != 8 {
		t.Errorf("response = %+v", got)
	}
}

func TestHandleEncode_Wrap(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := doJSON(t, s, "/api/encode", encodeRequest{Text: strings.Repeat("a", 60), WrapColumn: 76})
	got := decodeBody[encodeResponse](t, rec)
	if !strings.Contains(got.Base64, "\n") {
		t.Errorf("80 characters of output at column 76 should wrap: %q", got.Base64)
	}
}

func TestHandleDecode(t *testing.T) {
	tests := []struct {
		name     string
		req      decodeRequest
		wantCode int
		wantText string
		wantErr  string
	}{
		{name: "text", req: decodeRequest{Base64: "aGVsbG8="}, wantCode: http.StatusOK, wantText: "hello"},
		{name: "lenient skips junk", req: decodeRequest{Base64: "aGVs!bG8="}, wantCode: http.StatusOK, wantText: "hello"},
		{name: "strict rejects junk", req: decodeRequest{Base64: "aGVs!bG8=", Mode: "strict"}, wantCode: http.StatusUnprocessableEntity, wantErr: "B64001"},
		{name: "misplaced padding", req: decodeRequest{Base64: "QQ=A"}, wantCode: http.StatusUnprocessableEntity, wantErr: "B64001"},
		{name: "not text", req: decodeRequest{Base64: "//4="}, wantCode: http.StatusUnprocessableEntity, wantErr: "B64002"},
		{name: "empty", req: decodeRequest{Base64: " \n "}, wantCode: http.StatusBadRequest, wantErr: "B64003"},
		{name: "bad mode", req: decodeRequest{Base64: "QQ==", Mode: "fuzzy"}, wantCode: http.StatusBadRequest, wantErr: "REQ000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(t))
			rec := doJSON(t, s, "/api/decode", tt.req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantErr != "" {
				if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantErr {
					t.Errorf("code = %q, want %q", got.Code, tt.wantErr)
				}
				return
			}
			if got := decodeBody[decodeResponse](t, rec); got.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestHandleValidate(t *testing.T) {
	tests := []struct {
		input       string
		wantValid   bool
		wantText    bool
		wantOutcome string
	}{
		{input: "QQ==", wantValid: true, wantText: true, wantOutcome: "success"},
		{input: "QQA", wantValid: false, wantText: false, wantOutcome: "malformed_base64"},
		{input: "//4=", wantValid: true, wantText: false, wantOutcome: "invalid_text"},
		{input: "", wantValid: false, wantText: false, wantOutcome: "empty_input"},
	}

	s := newTestServer(t, testConfig(t))
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rec := doJSON(t, s, "/api/validate", decodeRequest{Base64: tt.input})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decodeBody[validateResponse](t, rec)
			if got.Valid != tt.wantValid || got.Text != tt.wantText || got.Outcome != tt.wantOutcome {
				t.Errorf("response = %+v", got)
			}
		})
	}
}

func TestHandleClassify(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader("aGVsbG8gd29ybGQ="))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Base64    bool   `json:"base64"`
		Text      bool   `json:"text"`
		Extension string `json:"extension"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Base64 || !got.Text || got.Extension != ".txt" {
		t.Errorf("classification = %+v", got)
	}
}

func TestInvalidJSON(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/encode", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTextBodyLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Codec.MaxTextSize = 16
	s := newTestServer(t, cfg)

	rec := doJSON(t, s, "/api/encode", encodeRequest{Text: strings.Repeat("x", 64)})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "JOB005" {
		t.Errorf("code = %q, want JOB005", got.Code)
	}
}

func uploadFile(t *testing.T, s *Server, path, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("note", "ignored"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func startJob(t *testing.T, s *Server, path, name string, content []byte) string {
	t.Helper()
	rec := uploadFile(t, s, path, name, content)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start job status = %d, body %s", rec.Code, rec.Body)
	}
	return decodeBody[map[string]string](t, rec)["job_id"]
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestJobLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	content := bytes.Repeat([]byte("line of text\n"), 200)

	id := startJob(t, s, "/api/jobs/encode", "notes.txt", content)

	rec := get(s, "/api/jobs/"+id+"/result?wait=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d, body %s", rec.Code, rec.Body)
	}
	res := decodeBody[core.JobResult](t, rec)
	if res.Phase != core.PhaseComplete {
		t.Fatalf("phase = %s (%s)", res.Phase, res.Error)
	}

	rec = get(s, "/api/jobs/"+id+"/download")
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d, body %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "encoded.txt.b64") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	encoded := rec.Body.String()

	// Decode the download back through another job.
	id = startJob(t, s, "/api/jobs/decode?mode=strict", "notes.txt.b64", []byte(encoded))
	get(s, "/api/jobs/"+id+"/result?wait=1")

	rec = get(s, "/api/jobs/"+id+"/download")
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Errorf("round trip through jobs changed the content")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "decoded.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = get(s, "/api/jobs/"+id)
	if got := decodeBody[core.JobProgress](t, rec); got.Phase != core.PhaseComplete || got.Percent != 100 {
		t.Errorf("status = %+v", got)
	}
}

func TestJobProgressStream(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	id := startJob(t, s, "/api/jobs/encode", "a.bin", []byte{1, 2, 3, 4, 5})
	get(s, "/api/jobs/"+id+"/result?wait=1")

	rec := get(s, "/api/jobs/"+id+"/progress")
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "id: 100\nevent: progress\n") {
		t.Errorf("missing final progress event:\n%s", body)
	}
	if !strings.HasSuffix(body, "event: complete\ndata: {}\n\n") {
		t.Errorf("stream did not end with complete:\n%s", body)
	}
}

func TestFailedJob(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	id := startJob(t, s, "/api/jobs/decode", "bad.b64", []byte("QUJDQ"))

	res := decodeBody[core.JobResult](t, get(s, "/api/jobs/"+id+"/result?wait=1"))
	if res.Phase != core.PhaseFailed || res.Code != "B64001" {
		t.Errorf("result = %+v", res)
	}

	rec := get(s, "/api/jobs/"+id+"/download")
	if rec.Code != http.StatusConflict {
		t.Errorf("download status = %d, want 409", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "JOB006" {
		t.Errorf("code = %q, want JOB006", got.Code)
	}
}

func TestJobErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jobs.MaxUploadSize = 10
	s := newTestServer(t, cfg)

	tests := []struct {
		name     string
		rec      *httptest.ResponseRecorder
		wantCode int
	}{
		{name: "unknown direction", rec: uploadFile(t, s, "/api/jobs/sideways", "a", []byte("x")), wantCode: http.StatusBadRequest},
		{name: "bad wrap", rec: uploadFile(t, s, "/api/jobs/encode?wrap=-1", "a", []byte("x")), wantCode: http.StatusBadRequest},
		{name: "too large", rec: uploadFile(t, s, "/api/jobs/encode", "a", bytes.Repeat([]byte("x"), 64)), wantCode: http.StatusRequestEntityTooLarge},
		{name: "unknown job progress", rec: get(s, "/api/jobs/nope/progress"), wantCode: http.StatusNotFound},
		{name: "unknown job result", rec: get(s, "/api/jobs/nope/result"), wantCode: http.StatusNotFound},
		{name: "unknown job download", rec: get(s, "/api/jobs/nope/download"), wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", tt.rec.Code, tt.wantCode, tt.rec.Body)
			}
		})
	}
}

func TestHistoryWithoutDatabase(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := get(s, "/api/history")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("history = %d %q", rec.Code, rec.Body)
	}
	if rec := get(s, "/api/history?limit=0"); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d", rec.Code)
	}
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := get(s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `data-mode="lenient"`) {
		t.Errorf("index = %d", rec.Code)
	}
	if csp := rec.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("missing Content-Security-Policy")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}

	rec = get(s, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	tests := []struct {
		name     string
		path     string
		accept   string
		wantHTML bool
	}{
		{name: "browser route", path: "/nope", accept: "text/html", wantHTML: true},
		{name: "browser route asking for json", path: "/nope", accept: "application/json"},
		{name: "api route", path: "/api/nope", accept: "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", tt.accept)
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			if !tt.wantHTML {
				if got := decodeBody[ErrorResponse](t, rec); got.Code != "REQ404" {
					t.Errorf("code = %q, want REQ404", got.Code)
				}
				return
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q, want text/html", ct)
			}
			body := rec.Body.String()
			for _, want := range []string{"<title>Not Found</title>", `class="alert alert-error"`, "<strong>Page not found</strong>", "Code: REQ404"} {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}

func TestRespondErrorHTML(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	s.respondError(rec, req, codec.Malformed("illegal character", 3))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<strong>The input is not valid Base64</strong>",
		"<p>Check that the input is standard Base64 and was not truncated</p>",
		"Code: B64001",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "illegal character") {
		t.Error("technical error leaked into the page")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	if rec := get(s, "/api/history"); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}

	if rec := get(s, "/api/history?api_key=secret"); rec.Code != http.StatusOK {
		t.Errorf("query key status = %d, want 200", rec.Code)
	}
	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz should not need a key, status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := get(s, "/healthz")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", got.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrTooManyJobs, http.StatusServiceUnavailable},
		{core.ErrJobNotFound, http.StatusNotFound},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrResultUnavailable, http.StatusConflict},
		{errRateLimited, http.StatusTooManyRequests},
		{errPageNotFound, http.StatusNotFound},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
