package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"userflat/e2e/steps/flatten"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return c, nil
	})

	flatten.RegisterSteps(ctx, tc)
}
