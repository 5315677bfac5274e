package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/api"
	"github.com/coredev-id/coredev-web/internal/app/models"
	"github.com/coredev-id/coredev-web/internal/app/templates"
)

// mockService scripts the API client responses.
type mockService struct {
	loginResp  *api.LoginResponse
	loginErr   error
	loginReqs  []api.LoginRequest
	registerFn func(api.RegisterRequest) error
	forgotErr  error
	logoutErr  error
	check      *models.SessionCheck
}

func (m *mockService) Login(_ context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	m.loginReqs = append(m.loginReqs, req)
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResp, nil
}

func (m *mockService) Register(_ context.Context, req api.RegisterRequest) error {
	if m.registerFn != nil {
		return m.registerFn(req)
	}
	return nil
}

func (m *mockService) ForgotPassword(_ context.Context, _ api.ForgotPasswordRequest) error {
	return m.forgotErr
}

func (m *mockService) Logout(_ context.Context, _ string) error {
	return m.logoutErr
}

func (m *mockService) VerifySession(_ context.Context, _ string) (*models.SessionCheck, error) {
	if m.check == nil {
		return &models.SessionCheck{Valid: false}, nil
	}
	return m.check, nil
}

func newAuthRouter(t *testing.T, service *mockService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := templates.New()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	h := NewAuthHandlers(service, NewResendLimiter(), zap.NewNop())
	r.GET("/login", h.LoginPage)
	r.POST("/auth/login", h.LoginSubmit)
	r.POST("/auth/login/verify", h.VerifySubmit)
	r.POST("/auth/login/resend", h.ResendCode)
	r.POST("/auth/register", h.RegisterSubmit)
	r.POST("/auth/forgot-password", h.RequestReset)
	r.POST("/auth/forgot-password/reset", h.ResetPassword)
	r.POST("/auth/logout", h.Logout)
	return r
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestLoginPageRendersForm(t *testing.T) {
	r := newAuthRouter(t, &mockService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	form := doc.Find("form")
	require.NotZero(t, form.Length())
	hxPost, _ := form.Attr("hx-post")
	assert.Equal(t, "/auth/login", hxPost)
	assert.NotZero(t, form.Find("input[name='email']").Length())
	assert.NotZero(t, form.Find("input[name='password']").Length())
}

func TestLoginSubmitSuccess(t *testing.T) {
	service := &mockService{loginResp: &api.LoginResponse{SessionToken: "tok-1"}}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/login", url.Values{
		"email":    {"user@coredev.id"},
		"password": {"secret"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
	require.Len(t, service.loginReqs, 1)
	assert.Equal(t, "login", service.loginReqs[0].Action)
	assert.NotEmpty(t, w.Result().Cookies(), "login must set a session cookie")
}

func TestLoginSubmitMissingFields(t *testing.T) {
	service := &mockService{}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/login", url.Values{"email": {"user@coredev.id"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email and password are required")
	assert.Empty(t, service.loginReqs, "invalid form must not reach the API")
}

func TestLoginSubmitUnverifiedAccountOpensVerifyDialog(t *testing.T) {
	service := &mockService{
		loginErr: &api.Error{
			Status:         http.StatusForbidden,
			Message:        "Account not verified",
			ActionRequired: "verify",
		},
	}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/login", url.Values{
		"email":    {"user@coredev.id"},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.NotZero(t, doc.Find("input[name='code']").Length(), "verify dialog must ask for the code")
	assert.NotZero(t, doc.Find("form[hx-post='/auth/login/verify']").Length())
}

func TestLoginSubmitBadCredentials(t *testing.T) {
	service := &mockService{
		loginErr: &api.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"},
	}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/login", url.Values{
		"email":    {"user@coredev.id"},
		"password": {"wrong"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
	assert.Empty(t, w.Header().Get("HX-Redirect"))
}

func TestVerifySubmitExpiredCode(t *testing.T) {
	service := &mockService{
		loginErr: &api.Error{
			Status:         http.StatusGone,
			Message:        "Code expired",
			ActionRequired: "resend",
		},
	}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/login/verify", url.Values{
		"email": {"user@coredev.id"},
		"code":  {"123456"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Verification code expired")
}

func TestResendCodeCooldown(t *testing.T) {
	service := &mockService{loginResp: &api.LoginResponse{}}
	r := newAuthRouter(t, service)

	form := url.Values{"email": {"user@coredev.id"}}

	w := postForm(r, "/auth/login/resend", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A new verification code has been sent")

	// Second request inside the cooldown window is refused without an API
	// call.
	w2 := postForm(r, "/auth/login/resend", form)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.Contains(t, w2.Body.String(), "Please wait before requesting another code")
	assert.Len(t, service.loginReqs, 1)
}

func TestRegisterSubmitPasswordMismatch(t *testing.T) {
	called := false
	service := &mockService{registerFn: func(api.RegisterRequest) error {
		called = true
		return nil
	}}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/register", url.Values{
		"email":            {"user@coredev.id"},
		"password":         {"secret"},
		"confirm_password": {"different"},
		"agree_terms":      {"on"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match")
	assert.False(t, called)
}

func TestRequestResetRedirects(t *testing.T) {
	r := newAuthRouter(t, &mockService{})

	w := postForm(r, "/auth/forgot-password", url.Values{"email": {"user@coredev.id"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/forgot-password?sent=1&email=user@coredev.id", w.Header().Get("HX-Redirect"))
}

func TestLogoutClearsSessionEvenWhenAPIFails(t *testing.T) {
	service := &mockService{logoutErr: assert.AnError}
	r := newAuthRouter(t, service)

	w := postForm(r, "/auth/logout", url.Values{})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}
