package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nathan-Yinka/Project-management-application/internal/api"
	"github.com/Nathan-Yinka/Project-management-application/internal/api/dto"
	"github.com/Nathan-Yinka/Project-management-application/internal/auth"
	"github.com/Nathan-Yinka/Project-management-application/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires the full HTTP stack against the test database. Shared
// by every handler test in this package.
func newTestRouter(setup *testutil.TestSetup) http.Handler {
	authService := auth.NewService(setup.DB, setup.JWTService, nil)
	return api.NewRouter(api.RouterConfig{
		DB:          setup.DB,
		Logger:      testutil.SilentLogger(),
		JWTService:  setup.JWTService,
		AuthService: authService,
	})
}

func TestAuthEndpoints_Register(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	t.Run("registers a new user", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/auth/register", dto.RegisterRequest{
			Username:  "fresh",
			Email:     "fresh@example.com",
			Password:  "password123",
			FirstName: "Fresh",
			LastName:  "User",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusCreated)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "fresh@example.com", resp.User.Email)
	})

	t.Run("validation errors", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/auth/register", dto.RegisterRequest{
			Username: "short",
			Email:    "not-an-email",
			Password: "short",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusBadRequest)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.Contains(t, resp.Details, "email")
		assert.Contains(t, resp.Details, "password")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/auth/register", dto.RegisterRequest{
			Username: "someoneelse",
			Email:    setup.User.Email,
			Password: "password123",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusConflict)
	})
}

func TestAuthEndpoints_Login(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	t.Run("valid credentials", func(t *testing.T) {
		// testutil users are created with this password.
		req := testutil.UnauthenticatedRequest(t, "POST", "/auth/login", dto.LoginRequest{
			Email:    setup.User.Email,
			Password: "testpassword123",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/auth/login", dto.LoginRequest{
			Email:    setup.User.Email,
			Password: "wrong-password",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestAuthEndpoints_Me(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()
	router := newTestRouter(setup)

	t.Run("returns the authenticated user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/auth/me", nil, setup.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusOK)

		var resp dto.UserDTO
		testutil.ParseJSONResponse(t, rec, &resp)
		require.Equal(t, setup.User.ID.String(), resp.ID)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/auth/me", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	})
}
