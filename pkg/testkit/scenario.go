// Package testkit drives REST API tests from JSON scenario files and
// provides the database fixture shared by package tests.
//
// A scenario file describes one request and what must come back:
//
//	{
//	  "name": "buyer cannot reach the admin panel",
//	  "requestMethod": "GET",
//	  "requestUrl": "/api/admin/overview",
//	  "actingAs": "buyer",
//	  "expectedCode": 403,
//	  "expectedBody": {"status": "error"}
//	}
//
// expectedBody is a subset match; responseFileName, when set, must match the
// whole body.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	RequestFileName string            `json:"requestFileName"`
	Headers         map[string]string `json:"headers"`

	// ActingAs names an entry of Runner.Tokens sent as a bearer token.
	ActingAs string `json:"actingAs"`

	ExpectedCode     int             `json:"expectedCode"`
	ExpectedBody     json.RawMessage `json:"expectedBody"`
	ResponseFileName string          `json:"responseFileName"`

	// IsMockRequired fails outbound HTTP calls that match no mock step.
	IsMockRequired  bool       `json:"isMockRequired"`
	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	dir string
}

// MockStep fakes one outbound call made through pkg/http.
type MockStep struct {
	Method     string         `json:"method"` // only "httprequest" is understood
	IsMock     bool           `json:"isMock"`
	MatchURL   string         `json:"matchUrl"` // prefix; empty matches anything
	ReturnData MockReturnData `json:"returnData"`
}

type MockReturnData struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"` // base64
}

func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	s.RequestMethod = strings.ToUpper(s.RequestMethod)
	if len(s.RequestBody) > 0 && s.RequestFileName != "" {
		return fmt.Errorf("requestBody and requestFileName are mutually exclusive")
	}
	for i, step := range s.NetUtilMockStep {
		if step.Method == "" {
			return fmt.Errorf("netUtilMockStep[%d].method is required", i)
		}
	}
	return nil
}

// Body returns the request payload, inline or from requestFileName.
func (s *Scenario) Body() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.RequestFileName))
}

// ResponseBodyPath is the absolute path of responseFileName, or "".
func (s *Scenario) ResponseBodyPath() string {
	if s.ResponseFileName == "" {
		return ""
	}
	return s.resolve(s.ResponseFileName)
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
