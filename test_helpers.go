package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	MaxUploadBytes: 10 << 20,
}

var testPortrait = strings.Repeat("QUJD", 100)

// recordedRequest is what a fake vendor saw.
type recordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

func (r recordedRequest) decode(t *testing.T) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &v), "body: %s", r.Body)
	return v
}

type fakeResponse struct {
	status int
	body   string
}

// fakeVendor is an httptest server answering each path with a canned
// response and recording every request it receives.
type fakeVendor struct {
	*httptest.Server
	mu        sync.Mutex
	responses map[string][]fakeResponse
	requests  []recordedRequest
}

func newFakeVendor(t *testing.T) *fakeVendor {
	t.Helper()
	f := &fakeVendor{responses: map[string][]fakeResponse{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// respond queues a response for path. The last queued response repeats.
func (f *fakeVendor) respond(path string, status int, body string) *fakeVendor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = append(f.responses[path], fakeResponse{status: status, body: body})
	return f
}

func (f *fakeVendor) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
	})
	queued := f.responses[r.URL.Path]
	var response fakeResponse
	switch len(queued) {
	case 0:
		response = fakeResponse{status: http.StatusNotFound, body: `{"error":"no fake response"}`}
	case 1:
		response = queued[0]
	default:
		response = queued[0]
		f.responses[r.URL.Path] = queued[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.status)
	_, _ = w.Write([]byte(response.body))
}

func (f *fakeVendor) received() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeVendor) last(t *testing.T) recordedRequest {
	t.Helper()
	requests := f.received()
	require.NotEmpty(t, requests, "vendor received no requests")
	return requests[len(requests)-1]
}

func testFaceConfig(baseURL string) FaceAPIConfig {
	return FaceAPIConfig{
		BaseURL:               baseURL,
		DetectEndpoint:        "/api/detect",
		MatchEndpoint:         "/api/match",
		LivenessEndpoint:      "/api/v2/liveness",
		HealthEndpoint:        "/api/healthz",
		ApiKey:                "face-key",
		ApiKeyHeader:          "X-Api-Key",
		RequestTimeoutSeconds: 5,
		MatchThreshold:        0.75,
	}
}

func testDocReaderConfig(baseURL string) DocReaderConfig {
	return DocReaderConfig{
		BaseURL:               baseURL,
		ProcessEndpoint:       "/api/process",
		FaceApiMode:           "match",
		RequestTimeoutSeconds: 5,
	}
}

func newTestState(docr, faceAPI *fakeVendor) *ServerState {
	faceConfig := testFaceConfig(faceAPI.URL)
	docrConfig := testDocReaderConfig(docr.URL)
	return &ServerState{
		faceClient:         NewRegulaFaceClient(faceConfig),
		docReader:          NewRegulaDocReaderClient(docrConfig),
		docReaderConfig:    docrConfig,
		faceMatchThreshold: faceConfig.MatchThreshold,
	}
}

// startTestServer serves the router for state on an httptest server and
// returns its base URL.
func startTestServer(t *testing.T, state *ServerState) string {
	t.Helper()
	return startTestServerWithConfig(t, state, testConfig)
}

func startTestServerWithConfig(t *testing.T, state *ServerState, config ServerConfig) string {
	t.Helper()
	srv := httptest.NewServer(NewRouter(state, config))
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)
	return readResponse[T](t, resp)
}

func postRaw[T any](t *testing.T, url, contentType string, body io.Reader) (*http.Response, []byte, *T) {
	t.Helper()
	resp, err := http.Post(url, contentType, body)
	require.NoError(t, err)
	return readResponse[T](t, resp)
}

func readResponse[T any](t *testing.T, resp *http.Response) (*http.Response, []byte, *T) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var v T
	_ = json.Unmarshal(respBody, &v)
	return resp, respBody, &v
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

type formFile struct {
	field       string
	fileName    string
	contentType string
	data        []byte
}

// multipartForm builds a multipart body from files and plain fields.
func multipartForm(t *testing.T, files []formFile, fields map[string]string) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.fileName)}
		if f.contentType != "" {
			header["Content-Type"] = []string{f.contentType}
		}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())
	return writer.FormDataContentType(), &buf
}

// docrResponse is a minimal process response with visual fields and a
// portrait.
func docrResponse(surname, givenNames, documentNumber, dob string) string {
	return fmt.Sprintf(`{"TransactionInfo":{"TransactionID":"tx-%[3]s"},"ContainerList":{"List":[
		{"DocVisualExtendedInfo":{"pArrayFields":[
			{"FieldName":"Surname","Buf_Text":%[1]q},
			{"FieldName":"Given Names","Buf_Text":%[2]q},
			{"FieldName":"Document Number","Buf_Text":%[3]q},
			{"FieldName":"Date of Birth","Buf_Text":%[4]q}
		]}},
		{"Images":{"fieldList":[{"fieldName":"Portrait","valueList":[{"value":%[5]q}]}]}},
		{"AuthenticityCheckList":{"List":[{"List":[{"Type":1,"ElementType":2,"ElementResult":1}]}]}}
	]}}`, surname, givenNames, documentNumber, dob, testPortrait)
}

// test doubles

type fakeJwtCreator struct {
	jwt      string
	err      error
	mu       sync.Mutex
	received []VerifiedIdentity
}

func (f *fakeJwtCreator) CreateIdentityJwt(identity VerifiedIdentity) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, identity)
	return f.jwt, f.err
}
