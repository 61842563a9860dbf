package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"userflat/internal/flatten"
	"userflat/internal/flatten/handler/mocks"
	"userflat/internal/flatten/service"
	"userflat/internal/platform/logger"
	"userflat/internal/userrecord/models"
	dErrors "userflat/pkg/domain-errors"
	"userflat/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service
type FlattenHandlerSuite struct {
	suite.Suite
}

func TestFlattenHandlerSuite(t *testing.T) {
	suite.Run(t, new(FlattenHandlerSuite))
}

func newTestRouter(t *testing.T, opts ...Option) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)

	r := chi.NewRouter()
	New(mockService, logger.Discard(), opts...).Register(r)
	return r, mockService
}

func (s *FlattenHandlerSuite) TestFlattenReturnsRecord() {
	router, mockService := newTestRouter(s.T())

	out := models.NewRecord()
	out.Set("Username", models.String("u1"))
	out.Set("DisplayName", models.String(flatten.MissingDisplayName))
	mockService.EXPECT().FlattenJSON(gomock.Any(), []byte(`{"Username":"u1"}`)).Return(out, nil)

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/users/flatten", `{"Username":"u1"}`))

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("application/json", rr.Header().Get("Content-Type"))
	s.JSONEq(`{"Username":"u1","DisplayName":"GivenName and FamilyName MISSING"}`, rr.Body.String())
}

func (s *FlattenHandlerSuite) TestFlattenErrors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", dErrors.New(dErrors.CodeBadRequest, "invalid JSON"), http.StatusBadRequest, "bad_request"},
		{"validation", dErrors.New(dErrors.CodeValidation, "missing required field: UserAttributes"), http.StatusBadRequest, "validation_error"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "record store unavailable"), http.StatusServiceUnavailable, "service_unavailable"},
		{"uncoded", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			router, mockService := newTestRouter(s.T())
			mockService.EXPECT().FlattenJSON(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rr := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/users/flatten", `{}`))
			testutil.AssertStatusAndError(s.T(), rr, tt.status, tt.code)
		})
	}
}

func (s *FlattenHandlerSuite) TestBodyTooLarge() {
	router, mockService := newTestRouter(s.T(), WithMaxBodyBytes(16))
	mockService.EXPECT().FlattenJSON(gomock.Any(), gomock.Any()).Times(0)

	body := `{"Username":"` + strings.Repeat("a", 64) + `"}`
	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/users/flatten", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusRequestEntityTooLarge, "request_too_large")
}

func (s *FlattenHandlerSuite) TestMethodNotAllowed() {
	router, _ := newTestRouter(s.T())
	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodGet, "/users/flatten", ""))
	s.Equal(http.StatusMethodNotAllowed, rr.Code)
}

func (s *FlattenHandlerSuite) TestHealth() {
	s.Run("no checks", func() {
		router, _ := newTestRouter(s.T())
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodGet, "/health", ""))
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"status":"ok"}`, rr.Body.String())
	})

	s.Run("failing dependency degrades", func() {
		router, _ := newTestRouter(s.T(),
			WithHealthCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") }),
			WithHealthCheck("postgres", func(context.Context) error { return nil }),
		)
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodGet, "/health", ""))
		s.Equal(http.StatusServiceUnavailable, rr.Code)
		s.JSONEq(`{"status":"degraded","checks":{"redis":"unavailable","postgres":"ok"}}`, rr.Body.String())
	})
}

func TestFlattenEndToEnd(t *testing.T) {
	svc := service.New(flatten.New(), service.WithLogger(logger.Discard()))
	r := chi.NewRouter()
	New(svc, logger.Discard()).Register(r)

	body := `{"Username":"u1","UserAttributes":[{"Name":"sub","Value":"123"},{"Name":"given_name","Value":"Ada"},{"Name":"family_name","Value":"Lovelace"},{"Name":"custom:tags","Value":"x,y"}],"Enabled":"true"}`
	rr := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/users/flatten", body))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t,
		`{"Username":"u1","GivenName":"Ada","FamilyName":"Lovelace","Tags":["x","y"],"Enabled":true,"DisplayName":"Ada, Lovelace"}`,
		rr.Body.String())

	rec := testutil.UnmarshalRecord(t, rr)
	assert.Equal(t, []string{"Username", "GivenName", "FamilyName", "Tags", "Enabled", "DisplayName"}, rec.Keys())

	rr = testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/users/flatten", `{"Username":"u1"}`))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}
