package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/ginblog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (ginblog.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(ginblog.Identity), args.Error(1)
}

type MockAdminChecker struct {
	mock.Mock
}

func (m *MockAdminChecker) IsAdmin(ctx context.Context, uid, email string) (bool, error) {
	args := m.Called(ctx, uid, email)
	return args.Bool(0), args.Error(1)
}

func setupRouter(verifier ginblog.TokenVerifier, checker AdminChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		auth, err := ginblog.GetAuthContext(c)
		if err != nil {
			ginblog.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"uid": auth.UserID, "admin": auth.HasRole(ginblog.RoleAdmin)})
	}
	r.GET("/me", Authenticate(verifier), whoami)
	r.GET("/admin", Authenticate(verifier), RequireAdmin(checker), whoami)
	return r
}

func get(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "good").Return(ginblog.Identity{UID: "u1", Email: "u1@example.com"}, nil)
	verifier.On("Verify", mock.Anything, "bad").Return(ginblog.Identity{}, ginblog.ErrInvalidToken)
	verifier.On("Verify", mock.Anything, "down").Return(ginblog.Identity{}, errors.New("connection refused"))
	r := setupRouter(verifier, new(MockAdminChecker))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"verifier failure", "Bearer down", http.StatusInternalServerError},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/me", tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := get(r, "/me", "bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"u1","admin":false}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "admin").Return(ginblog.Identity{UID: "a1", Email: "boss@example.com"}, nil)
	verifier.On("Verify", mock.Anything, "user").Return(ginblog.Identity{UID: "u1", Email: "u1@example.com"}, nil)

	checker := new(MockAdminChecker)
	checker.On("IsAdmin", mock.Anything, "a1", "boss@example.com").Return(true, nil)
	checker.On("IsAdmin", mock.Anything, "u1", "u1@example.com").Return(false, nil)
	r := setupRouter(verifier, checker)

	w := get(r, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/admin", "Bearer user")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")

	w = get(r, "/admin", "Bearer admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"a1","admin":true}`, w.Body.String())
}
