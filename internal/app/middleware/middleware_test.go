package middleware

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/models"
)

// mockVerifier records every token it is asked about.
type mockVerifier struct {
	calls  []string
	checks map[string]*models.SessionCheck
	err    error
}

func (m *mockVerifier) VerifySession(_ context.Context, token string) (*models.SessionCheck, error) {
	m.calls = append(m.calls, token)
	if m.err != nil {
		return nil, m.err
	}
	if check, ok := m.checks[token]; ok {
		return check, nil
	}
	return &models.SessionCheck{Valid: false}, nil
}

func newGuardedRouter(verifier *mockVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	// Seed route so tests can obtain a cookie holding an arbitrary token.
	r.GET("/seed", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(SessionTokenSessionKey, c.Query("token"))
		if err := session.Save(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	protected := r.Group("/", SessionGuard(verifier, zap.NewNop()))
	protected.GET("/dashboard", func(c *gin.Context) {
		c.String(http.StatusOK, "role=%s token=%s", GetRoleFromContext(c), GetTokenFromContext(c))
	})

	return r
}

func seedCookie(t *testing.T, r *gin.Engine, token string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/seed?token="+token, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func TestSessionGuardWithoutToken(t *testing.T) {
	verifier := &mockVerifier{}
	r := newGuardedRouter(verifier)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Empty(t, verifier.calls, "no verification call should be made without a token")
}

func TestSessionGuardWithoutTokenHTMX(t *testing.T) {
	verifier := &mockVerifier{}
	r := newGuardedRouter(verifier)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))
	assert.Empty(t, verifier.calls)
}

func TestSessionGuardValidToken(t *testing.T) {
	verifier := &mockVerifier{
		checks: map[string]*models.SessionCheck{
			"tok-1": {Valid: true, Role: RoleDosen},
		},
	}
	r := newGuardedRouter(verifier)
	cookies := seedCookie(t, r, "tok-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "role=dosen")
	assert.Contains(t, w.Body.String(), "token=tok-1")
	assert.Equal(t, []string{"tok-1"}, verifier.calls)
}

func TestSessionGuardInvalidTokenClearsSession(t *testing.T) {
	verifier := &mockVerifier{
		checks: map[string]*models.SessionCheck{},
	}
	r := newGuardedRouter(verifier)
	cookies := seedCookie(t, r, "stale-token")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, []string{"stale-token"}, verifier.calls)

	// Replay with the refreshed cookie: the cleared session must not trigger
	// another verification call.
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range w.Result().Cookies() {
		req2.AddCookie(c)
	}
	r.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusFound, w2.Code)
	assert.Len(t, verifier.calls, 1, "cleared session must not be re-verified")
}

func TestSessionGuardVerifierError(t *testing.T) {
	verifier := &mockVerifier{err: assert.AnError}
	r := newGuardedRouter(verifier)
	cookies := seedCookie(t, r, "tok-err")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)

	// An ambiguous check is never treated as valid.
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRequireTier(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		role       string
		wantStatus int
	}{
		{RoleDosen, http.StatusOK},
		{RoleAnggota, http.StatusOK},
		{RoleUser, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range cases {
		r := gin.New()
		r.SetHTMLTemplate(restrictedTemplate(t))
		r.GET("/members",
			func(c *gin.Context) { c.Set(string(UserRoleKey), tc.role) },
			RequireTier(TierManager),
			func(c *gin.Context) { c.String(http.StatusOK, "ok") },
		)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/members", nil))
		assert.Equalf(t, tc.wantStatus, w.Code, "role %q", tc.role)
	}
}

func restrictedTemplate(t *testing.T) *template.Template {
	t.Helper()
	return template.Must(template.New("restricted.html").Parse("<h1>Access restricted</h1>"))
}

func TestThemeDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(Theme())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetThemeFromContext(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "dark", strings.TrimSpace(w.Body.String()))
}
