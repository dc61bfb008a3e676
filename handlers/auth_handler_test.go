package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/profhack/profhack-backend/client"
	"github.com/profhack/profhack-backend/config"
	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/services"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) SendOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ResendOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

func (m *MockAuthService) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ResetPasswordByToken(ctx context.Context, token string, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}

func newAuthHandlerForTest(authService services.AuthService) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(authService, services.NewEmailService(&config.Config{}), "secret", logger)
}

// The password-reset body is decoded with DisallowUnknownFields, so the
// handler and the Go client must agree on every field name. Drives the real
// handler through the client to keep them from drifting apart.
func TestResetPasswordClientHandlerRoundTrip(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("ResetPasswordByToken", mock.Anything, "tok-123", "brand-new-secret").Return(nil)

	h := newAuthHandlerForTest(authService)
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/reset-password", h.ResetPassword)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := client.New(srv.URL, &client.MemoryStore{})
	err := c.ResetPassword(context.Background(), "tok-123", "brand-new-secret")
	require.NoError(t, err)

	authService.AssertExpectations(t)
}

func TestResetPasswordRejectsUnknownBodyKeys(t *testing.T) {
	authService := new(MockAuthService)
	h := newAuthHandlerForTest(authService)

	body := `{"token": "tok-123", "password": "brand-new-secret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ResetPassword(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	authService.AssertNotCalled(t, "ResetPasswordByToken", mock.Anything, mock.Anything, mock.Anything)
}
