package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs features/ against a live server. Set USERFLAT_E2E_URL
// (and USERFLAT_E2E_TOKEN when auth is on) to enable.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("USERFLAT_E2E_URL")
	if baseURL == "" {
		t.Skip("USERFLAT_E2E_URL not set")
	}
	tc := NewTestContext(baseURL, os.Getenv("USERFLAT_E2E_TOKEN"))

	suite := godog.TestSuite{
		Name: "userflat",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}
