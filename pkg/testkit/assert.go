package testkit

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertStatusCode(t *testing.T, s *Scenario, got int) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] HTTP status code mismatch", s.Name)
}

// AssertJSONBody requires actual to equal expected after decoding both, so
// key order and whitespace never matter.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	var exp, act any
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expected body is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON: %s", s.Name, actual) {
		return
	}
	assert.Equal(t, exp, act, "[%s] response body mismatch", s.Name)
}

// AssertJSONSubset requires every key in expected to be present in actual
// with an equal value. Arrays are compared element by element.
func AssertJSONSubset(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	var exp, act any
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expectedBody is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON: %s", s.Name, actual) {
		return
	}
	for _, d := range subsetDiff("$", exp, act) {
		assert.Fail(t, d, "[%s] body: %s", s.Name, actual)
	}
}

func AssertMocksAllCalled(t *testing.T, s *Scenario, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.AssertAllCalled() {
		assert.NoError(t, err, "[%s]", s.Name)
	}
}

func subsetDiff(path string, expected, actual any) []string {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", path, actual)}
		}
		var diffs []string
		for k, ev := range exp {
			av, present := act[k]
			if !present {
				diffs = append(diffs, fmt.Sprintf("%s.%s: missing", path, k))
				continue
			}
			diffs = append(diffs, subsetDiff(path+"."+k, ev, av)...)
		}
		return diffs
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", path, actual)}
		}
		if len(act) < len(exp) {
			return []string{fmt.Sprintf("%s: expected at least %d elements, got %d", path, len(exp), len(act))}
		}
		var diffs []string
		for i := range exp {
			diffs = append(diffs, subsetDiff(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i])...)
		}
		return diffs
	default:
		if !assert.ObjectsAreEqual(expected, actual) {
			return []string{fmt.Sprintf("%s: want %v, got %v", path, expected, actual)}
		}
		return nil
	}
}
