// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/dandibbert/pixvel/internal/shared"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// SequencedRoundTripper replays a fixed list of outcomes in order, recording
// every request it sees. Once the script runs out it fails with an error.
type SequencedRoundTripper struct {
	Responses []*http.Response
	Errors    []error
	Requests  []*http.Request
}

func (s *SequencedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	i := len(s.Requests)
	s.Requests = append(s.Requests, req)
	if i >= len(s.Responses) {
		return nil, errors.New("no scripted response left")
	}
	if s.Errors != nil && s.Errors[i] != nil {
		return nil, s.Errors[i]
	}
	return s.Responses[i], nil
}

// JSONResponse builds an [http.Response] with a JSON body and the given status.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

// HTMLResponse builds an [http.Response] with an HTML body and the given status.
func HTMLResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MustOpenDB opens a throwaway database under t.TempDir with migrations
// applied, closed automatically when the test ends.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}
