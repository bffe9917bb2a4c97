package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, email, username, password string) (*domain.User, error)
	loginFn          func(ctx context.Context, email, password, userAgent string) (*ports.LoginResult, error)
	refreshFn        func(ctx context.Context, rawToken string) (*ports.RefreshResult, error)
	logoutFn         func(ctx context.Context, rawToken string) error
	changePasswordFn func(ctx context.Context, userID, oldPassword, newPassword string) error
	getUserFn        func(ctx context.Context, id string) (*domain.User, error)
	deleteUserFn     func(ctx context.Context, id string) error
}

func (s *stubAuthService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, username, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, userAgent string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password, userAgent)
}

func (s *stubAuthService) Refresh(ctx context.Context, rawToken string) (*ports.RefreshResult, error) {
	return s.refreshFn(ctx, rawToken)
}

func (s *stubAuthService) Logout(ctx context.Context, rawToken string) error {
	return s.logoutFn(ctx, rawToken)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, oldPassword, newPassword)
}

func (s *stubAuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserFn(ctx, id)
}

func (s *stubAuthService) DeleteUser(ctx context.Context, id string) error {
	return s.deleteUserFn(ctx, id)
}

func newJSONContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func refreshCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	res := rec.Result()
	for _, c := range res.Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, email, username, password string) (*domain.User, error) {
			if email != "alice@example.com" || username != "alice" || password != "Sup3rSecret" {
				t.Fatalf("unexpected args: %s %s", email, username)
			}
			return &domain.User{ID: "user_1", Email: email, Username: username, IsActive: true}, nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","username":"alice","password":"Sup3rSecret"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "user_1" || resp["email"] != "alice@example.com" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, string) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	cases := []string{
		"not-json",
		`{"email":"not-an-email","username":"alice","password":"Sup3rSecret"}`,
		`{"email":"alice@example.com","username":"alice","password":"short"}`,
		`{"email":"alice@example.com","password":"Sup3rSecret"}`,
	}
	for _, body := range cases {
		c, _ := newJSONContext(t, http.MethodPost, "/auth/register", body)
		err := h.Register(c)
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %v", body, err)
		}
	}
}

func TestAuthHandler_Register_PropagatesDomainError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, string) (*domain.User, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, _ := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","username":"alice","password":"Sup3rSecret"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password, userAgent string) (*ports.LoginResult, error) {
			if userAgent != "test-agent" {
				t.Fatalf("user agent not forwarded: %q", userAgent)
			}
			return &ports.LoginResult{
				AccessToken:  "access-jwt",
				ExpiresIn:    3600,
				RefreshToken: "raw-refresh-secret",
				User:         &domain.User{ID: "user_1", Email: email},
			}, nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"Sup3rSecret"}`)
	c.Request().Header.Set("User-Agent", "test-agent")

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-jwt" || resp["token_type"] != "Bearer" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "raw-refresh-secret") {
		t.Fatalf("refresh secret must not appear in the response body")
	}

	cookie := refreshCookieFrom(rec)
	if cookie == nil {
		t.Fatalf("refresh cookie not set")
	}
	if cookie.Value != "raw-refresh-secret" {
		t.Fatalf("cookie value = %q", cookie.Value)
	}
	if !cookie.HttpOnly || cookie.Path != "/auth" || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie attributes wrong: %+v", cookie)
	}
	if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("cookie max age = %d", cookie.MaxAge)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"WrongPass1"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if cookie := refreshCookieFrom(rec); cookie != nil {
		t.Fatalf("failed login must not set a refresh cookie")
	}
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, rawToken string) (*ports.RefreshResult, error) {
			if rawToken != "old-secret" {
				t.Fatalf("unexpected raw token: %q", rawToken)
			}
			return &ports.RefreshResult{AccessToken: "new-jwt", ExpiresIn: 3600, RefreshToken: "new-secret"}, nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-secret"})

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookie := refreshCookieFrom(rec)
	if cookie == nil || cookie.Value != "new-secret" {
		t.Fatalf("rotated cookie not set: %+v", cookie)
	}
	if strings.Contains(rec.Body.String(), "new-secret") {
		t.Fatalf("refresh secret must not appear in the response body")
	}
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(context.Context, string) (*ports.RefreshResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, _ := newJSONContext(t, http.MethodPost, "/auth/refresh", "")
	err := h.Refresh(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthHandler_Refresh_ReuseClearsCookie(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(context.Context, string) (*ports.RefreshResult, error) {
			return nil, domain.ErrRefreshTokenReused
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/refresh", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "replayed-secret"})

	if err := h.Refresh(c); !errors.Is(err, domain.ErrRefreshTokenReused) {
		t.Fatalf("expected ErrRefreshTokenReused, got %v", err)
	}

	cookie := refreshCookieFrom(rec)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	revoked := ""
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, rawToken string) error {
			revoked = rawToken
			return nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/logout", "")
	c.Request().AddCookie(&http.Cookie{Name: refreshCookieName, Value: "live-secret"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if revoked != "live-secret" {
		t.Fatalf("token not revoked: %q", revoked)
	}
	cookie := refreshCookieFrom(rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}
}

func TestAuthHandler_Logout_WithoutCookie(t *testing.T) {
	stub := &stubAuthService{
		logoutFn: func(context.Context, string) error {
			t.Fatalf("service must not be called without a cookie")
			return nil
		},
	}
	h := NewAuthHandler(stub, 24*time.Hour, false)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("logout without cookie must succeed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
