package flatten

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTRaw(path, body string) error
	GET(path string) error
	GetLastStatusCode() int
	GetLastBody() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers flattening step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &flattenSteps{tc: tc}

	ctx.Step(`^I flatten the user record:$`, steps.flattenDocString)
	ctx.Step(`^I request "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response body should be exactly:$`, steps.bodyShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
}

type flattenSteps struct {
	tc TestContext
}

func (s *flattenSteps) flattenDocString(ctx context.Context, body *godog.DocString) error {
	return s.tc.POSTRaw("/users/flatten", body.Content)
}

func (s *flattenSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *flattenSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.GetLastStatusCode(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.GetLastBody())
	}
	return nil
}

// bodyShouldBe compares compacted JSON so key order is significant.
func (s *flattenSteps) bodyShouldBe(ctx context.Context, want *godog.DocString) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(want.Content)); err != nil {
		return fmt.Errorf("expected body is not JSON: %w", err)
	}
	got := strings.TrimSpace(string(s.tc.GetLastBody()))
	if got != compact.String() {
		return fmt.Errorf("expected body\n  %s\ngot\n  %s", compact.String(), got)
	}
	return nil
}

func (s *flattenSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *flattenSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldBe(ctx, "error", code)
}
