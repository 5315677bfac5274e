package settings

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/middleware"
)

type SettingsHandlers struct {
	logger *zap.Logger
}

func NewSettingsHandlers(logger *zap.Logger) *SettingsHandlers {
	return &SettingsHandlers{logger: logger}
}

// ToggleTheme flips the persisted theme preference and reloads the page the
// request came from.
func (h *SettingsHandlers) ToggleTheme(c *gin.Context) {
	session := sessions.Default(c)

	next := "light"
	if middleware.GetThemeFromContext(c) == "light" {
		next = "dark"
	}
	session.Set(middleware.ThemeSessionKey, next)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to persist theme", zap.Error(err))
	}

	back := c.GetHeader("Referer")
	if back == "" {
		back = "/"
	}
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", back)
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusFound, back)
}
