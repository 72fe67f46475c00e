package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orchidcraft/orchid-backend/api/middleware"
	"github.com/orchidcraft/orchid-backend/internal/auth"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
)

type stubAuthService struct {
	resp       *auth.TokenResponse
	err        error
	loggedOut  string
	otpEmail   string
	signupSeen auth.SignupRequest
}

func (s *stubAuthService) Signup(ctx context.Context, req auth.SignupRequest) (*auth.TokenResponse, error) {
	s.signupSeen = req
	return s.resp, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubAuthService) SendOTP(ctx context.Context, email string) error {
	s.otpEmail = email
	return s.err
}

func (s *stubAuthService) VerifyOTP(ctx context.Context, email, code string) error {
	return s.err
}

var testJWTConfig = config.JWTConfig{CookieName: "orchid_token", ExpirationMinutes: 60, CookieSecure: true}

func TestAuthLoginSetsCookie(t *testing.T) {
	svc := &stubAuthService{resp: &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}}
	handler := AuthLogin(svc, testJWTConfig, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"secret123"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "orchid_token", cookies[0].Name)
	require.Equal(t, "access", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Secure)
	require.Equal(t, 3600, cookies[0].MaxAge)

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	require.Contains(t, string(env.Data), `"refreshToken":"refresh"`)
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, testJWTConfig, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Result().Cookies())
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.Equal(t, string(pkgerrors.CodeUnauthorized), env.Code)
}

func TestAuthSignupRejectsInvalidBody(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthSignup(svc, testJWTConfig, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, string(pkgerrors.CodeValidation), env.Code)
	require.Empty(t, svc.signupSeen.Email, "service must not be reached")
}

func TestAuthSignupCreated(t *testing.T) {
	svc := &stubAuthService{resp: &auth.TokenResponse{AccessToken: "access"}}
	handler := AuthSignup(svc, testJWTConfig, nil)

	body := `{"email":"maker@example.com","password":"longenough","name":"Maker","region":"Jaipur","otp":"123456"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "maker@example.com", svc.signupSeen.Email)
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, testJWTConfig, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "access-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "access-1", svc.loggedOut)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestAuthSendOTP(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthSendOTP(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/send-otp", strings.NewReader(`{"email":"maker@example.com"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "maker@example.com", svc.otpEmail)
}

func TestAuthNilService(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogin(nil, testJWTConfig, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
