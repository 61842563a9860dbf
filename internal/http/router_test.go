package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflat/internal/flatten"
	"userflat/internal/flatten/handler"
	"userflat/internal/flatten/service"
	jwttoken "userflat/internal/jwt_token"
	"userflat/internal/platform/logger"
	"userflat/internal/platform/metrics"
	"userflat/internal/platform/middleware"
	"userflat/pkg/testutil"
)

const body = `{"Username":"u1","UserAttributes":[{"Name":"given_name","Value":"Ada"}]}`

func newRouter(t *testing.T, opts ...handler.Option) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	log := logger.Discard()
	svc := service.New(flatten.New(),
		service.WithLogger(log),
		service.WithMetrics(metrics.NewWithRegistry(reg)),
	)
	return NewRouter(Deps{
		Flatten:  handler.New(svc, log, opts...),
		Logger:   log,
		Gatherer: reg,
	}), reg
}

func TestRouterFlattenSetsRequestID(t *testing.T) {
	r, _ := newRouter(t)

	rr := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/users/flatten", body))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	assert.JSONEq(t, `{"Username":"u1","GivenName":"Ada","DisplayName":"Ada"}`, rr.Body.String())
}

func TestRouterUnknownRoutes(t *testing.T) {
	r, _ := newRouter(t)

	rr := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodGet, "/nope", ""))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPut, "/users/flatten", ""))
	testutil.AssertStatusAndError(t, rr, http.StatusMethodNotAllowed, "method_not_allowed")
}

func TestRouterMetrics(t *testing.T) {
	r, _ := newRouter(t)
	testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/users/flatten", body))

	rr := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodGet, "/metrics", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `userflat_records_flattened_total{outcome="ok"} 1`), rr.Body.String())
}

func TestRouterBearerAuth(t *testing.T) {
	jwtService := jwttoken.NewJWTService("test-key", "userflat", "userflat")
	guard := middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), logger.Discard())
	r, _ := newRouter(t, handler.WithGuard(guard))

	rr := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/users/flatten", body))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	token, err := jwtService.GenerateToken("svc-importer", "importer", time.Minute)
	require.NoError(t, err)
	req := testutil.WithBearer(testutil.NewRequestWithBody(t, http.MethodPost, "/users/flatten", body), token)
	rr = testutil.DoRequest(r, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, rr.Code, "health stays open")
}
