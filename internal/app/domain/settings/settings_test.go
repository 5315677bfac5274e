package settings

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/middleware"
)

func newSettingsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(middleware.Theme())

	h := NewSettingsHandlers(zap.NewNop())
	r.POST("/theme", h.ToggleTheme)
	r.GET("/current", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetThemeFromContext(c))
	})
	return r
}

func TestToggleThemePersists(t *testing.T) {
	r := newSettingsRouter(t)

	// Default is dark, so the first toggle lands on light.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/theme", nil)
	req.Header.Set("Referer", "/dashboard")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/current", nil)
	for _, c := range w.Result().Cookies() {
		req2.AddCookie(c)
	}
	r.ServeHTTP(w2, req2)
	assert.Equal(t, "light", w2.Body.String())
}

func TestToggleThemeHTMX(t *testing.T) {
	r := newSettingsRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/theme", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/", w.Header().Get("HX-Redirect"))
}
