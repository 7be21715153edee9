package testkit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	mhttp "github.com/shashiranjanraj/markethub/pkg/http"
)

// Runner fires scenarios at Handler. Tokens maps actingAs names to bearer
// tokens.
type Runner struct {
	Handler http.Handler
	Tokens  map[string]string
}

// Run executes the scenario at path as a subtest.
func (r Runner) Run(t *testing.T, path string) {
	t.Helper()
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	t.Run(s.Name, func(t *testing.T) { r.exec(t, s) })
}

// RunDir executes every *.json scenario in dir, in file name order.
func (r Runner) RunDir(t *testing.T, dir string) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: %v", err)
			continue
		}
		t.Run(s.Name, func(t *testing.T) { r.exec(t, s) })
	}
}

// Run is the unauthenticated shorthand for Runner{Handler: h}.Run.
func Run(t *testing.T, h http.Handler, path string) {
	t.Helper()
	Runner{Handler: h}.Run(t, path)
}

func (r Runner) exec(t *testing.T, s *Scenario) {
	t.Helper()

	body, err := s.Body()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}

	mt := NewMockTransport(s)
	mhttp.DefaultClient.Transport = mt
	defer mhttp.ResetTransport()

	req := httptest.NewRequest(s.RequestMethod, s.RequestURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.ActingAs != "" {
		token, ok := r.Tokens[s.ActingAs]
		if !ok {
			t.Fatalf("[%s] no token registered for actingAs %q", s.Name, s.ActingAs)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.Handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code)
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s, s.ExpectedBody, rec.Body.Bytes())
	}
	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}
	AssertMocksAllCalled(t, s, mt)
}
