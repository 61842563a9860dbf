package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the server under test and the last response.
type TestContext struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	lastStatus int
	lastBody   []byte
}

func NewTestContext(baseURL, token string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
}

// POSTRaw sends body verbatim as application/json.
func (tc *TestContext) POSTRaw(path, body string) error {
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}
	return tc.do(req)
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	return nil
}

func (tc *TestContext) GetLastStatusCode() int { return tc.lastStatus }

func (tc *TestContext) GetLastBody() []byte { return tc.lastBody }

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var payload map[string]any
	if err := json.Unmarshal(tc.lastBody, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	v, ok := payload[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, bytes.TrimSpace(tc.lastBody))
	}
	return v, nil
}
