package middleware

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/models"
)

// Define typed context keys
type contextKey string

const UserRoleKey contextKey = "userRole"
const SessionTokenKey contextKey = "sessionToken"
const ThemeKey contextKey = "theme"

// Session keys shared with the auth handlers.
const (
	SessionTokenSessionKey    = "session_token"
	RememberedEmailSessionKey = "rememberedEmail"
	ThemeSessionKey           = "theme"
)

// SessionVerifier resolves an opaque token to a validity/role pair. The remote
// API is the only implementation outside of tests.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*models.SessionCheck, error)
}

// SessionGuard gates every protected page. The token is re-verified against
// the API on each navigation; a verified role lives only in the request
// context, never in the cookie session.
func SessionGuard(verifier SessionVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(SessionTokenSessionKey).(string)
		if token == "" {
			// No token: straight to login without a verification call.
			handleAuthRedirect(c, "/login")
			return
		}

		check, err := verifier.VerifySession(c.Request.Context(), token)
		if err != nil || !check.Valid {
			// A failed or ambiguous check is never assumed valid. Drop the
			// token and force re-authentication.
			if err != nil {
				logger.Warn("Session verification failed", zap.Error(err))
			}
			session.Delete(SessionTokenSessionKey)
			if err := session.Save(); err != nil {
				logger.Error("Failed to clear session token", zap.Error(err))
			}
			handleAuthRedirect(c, "/login")
			return
		}

		c.Set(string(SessionTokenKey), token)
		c.Set(string(UserRoleKey), check.Role)
		c.Next()
	}
}

// RequireTier blocks routes below a minimum rendering tier. Lower tiers get
// the restricted view rather than the management UI.
func RequireTier(min Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRoleFromContext(c)
		if TierFor(role) < min {
			c.HTML(http.StatusForbidden, "restricted.html", gin.H{
				"Theme": GetThemeFromContext(c),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Theme exposes the persisted theme preference to every template render.
func Theme() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if theme, ok := session.Get(ThemeSessionKey).(string); ok && theme != "" {
			c.Set(string(ThemeKey), theme)
		}
		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("X-XSS-Protection", "1; mode=block")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' https://unpkg.com https://cdn.jsdelivr.net; " +
			"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
			"font-src 'self' https://fonts.gstatic.com; " +
			"img-src 'self' data: https:; " +
			"connect-src 'self' https://unpkg.com https://cdn.jsdelivr.net"
		c.Writer.Header().Set("Content-Security-Policy", csp)

		c.Next()
	}
}

// handleAuthRedirect handles redirects for both regular and HTMX requests
func handleAuthRedirect(c *gin.Context, redirectURL string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", redirectURL)
		c.AbortWithStatus(http.StatusUnauthorized)
	} else {
		c.Redirect(http.StatusFound, redirectURL)
		c.Abort()
	}
}

// GetRoleFromContext extracts the verified role for this request, if any.
func GetRoleFromContext(c *gin.Context) string {
	if role, exists := c.Get(string(UserRoleKey)); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr
		}
	}
	return ""
}

// GetTokenFromContext extracts the verified session token for this request.
func GetTokenFromContext(c *gin.Context) string {
	if token, exists := c.Get(string(SessionTokenKey)); exists {
		if tokenStr, ok := token.(string); ok {
			return tokenStr
		}
	}
	return ""
}

func GetThemeFromContext(c *gin.Context) string {
	if theme, exists := c.Get(string(ThemeKey)); exists {
		if themeStr, ok := theme.(string); ok {
			return themeStr
		}
	}
	return "dark"
}
