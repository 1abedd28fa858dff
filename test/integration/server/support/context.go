// Package support provides the godog test context for the HTTP API suite.
// Scenarios run against an in-process httptest server wrapping a real
// pipeline, so the full request path is exercised without a binary.
package support

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/server"
)

// TestContext holds per-scenario state: the running server and the last
// HTTP response.
type TestContext struct {
	srv  *httptest.Server
	resp *http.Response
	body string
}

// NewTestContext creates an empty context. The server starts lazily from a
// Given step.
func NewTestContext() *TestContext {
	return &TestContext{}
}

// Cleanup shuts the scenario's server down.
func (tc *TestContext) Cleanup() {
	if tc.srv != nil {
		tc.srv.Close()
		tc.srv = nil
	}
}

// RegisterSteps wires all step definitions into the scenario context.
func (tc *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the server is running$`, tc.serverIsRunning)
	sc.Step(`^the server is running with a limit of (\d+) requests per minute$`, tc.serverIsRunningWithLimit)
	sc.Step(`^I send a GET request to "([^"]*)"$`, tc.sendGET)
	sc.Step(`^I post the following token pages to "([^"]*)":$`, tc.postTokenPages)
	sc.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	sc.Step(`^the response content type should be "([^"]*)"$`, tc.responseContentTypeShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, tc.responseBodyShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, tc.responseHeaderShouldBe)
	sc.Step(`^the response header "([^"]*)" should not be empty$`, tc.responseHeaderShouldNotBeEmpty)
}

func (tc *TestContext) start(cfg server.Config) error {
	if tc.srv != nil {
		return fmt.Errorf("server already running")
	}
	pl := pipeline.NewBuilder().Build()
	srv := server.New(pl, cfg, nil)
	tc.srv = httptest.NewServer(srv.Handler())
	return nil
}

func (tc *TestContext) serverIsRunning() error {
	return tc.start(server.Config{CORSOrigin: "*", MaxUploadMB: 10, TimeoutSec: 30})
}

func (tc *TestContext) serverIsRunningWithLimit(rpm int) error {
	return tc.start(server.Config{
		CORSOrigin:        "*",
		MaxUploadMB:       10,
		TimeoutSec:        30,
		RequestsPerMinute: rpm,
	})
}

func (tc *TestContext) record(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	tc.resp = resp
	tc.body = string(body)
	return nil
}

func (tc *TestContext) sendGET(path string) error {
	if tc.srv == nil {
		return fmt.Errorf("server not running")
	}
	resp, err := http.Get(tc.srv.URL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return tc.record(resp)
}

func (tc *TestContext) postTokenPages(path string, body *godog.DocString) error {
	if tc.srv == nil {
		return fmt.Errorf("server not running")
	}
	resp, err := http.Post(tc.srv.URL+path, "application/json", strings.NewReader(body.Content))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return tc.record(resp)
}

func (tc *TestContext) responseStatusShouldBe(status int) error {
	if tc.resp == nil {
		return fmt.Errorf("no response recorded")
	}
	if tc.resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d (body: %s)", status, tc.resp.StatusCode, tc.body)
	}
	return nil
}

func (tc *TestContext) responseContentTypeShouldBe(contentType string) error {
	if tc.resp == nil {
		return fmt.Errorf("no response recorded")
	}
	if got := tc.resp.Header.Get("Content-Type"); got != contentType {
		return fmt.Errorf("expected content type %q, got %q", contentType, got)
	}
	return nil
}

func (tc *TestContext) responseBodyShouldContain(substr string) error {
	if !strings.Contains(tc.body, substr) {
		return fmt.Errorf("body does not contain %q: %s", substr, tc.body)
	}
	return nil
}

func (tc *TestContext) responseHeaderShouldBe(name, want string) error {
	if tc.resp == nil {
		return fmt.Errorf("no response recorded")
	}
	if got := tc.resp.Header.Get(name); got != want {
		return fmt.Errorf("expected header %s=%q, got %q", name, want, got)
	}
	return nil
}

func (tc *TestContext) responseHeaderShouldNotBeEmpty(name string) error {
	if tc.resp == nil {
		return fmt.Errorf("no response recorded")
	}
	if tc.resp.Header.Get(name) == "" {
		return fmt.Errorf("header %s is empty", name)
	}
	return nil
}
