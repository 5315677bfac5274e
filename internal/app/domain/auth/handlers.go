package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/api"
	"github.com/coredev-id/coredev-web/internal/app/components/dialog"
	"github.com/coredev-id/coredev-web/internal/app/middleware"
	"github.com/coredev-id/coredev-web/internal/app/models"
)

// Service is the slice of the API client the auth pages need.
type Service interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) error
	Logout(ctx context.Context, token string) error
	VerifySession(ctx context.Context, token string) (*models.SessionCheck, error)
}

type AuthHandlers struct {
	service Service
	resends *ResendLimiter
	logger  *zap.Logger
}

func NewAuthHandlers(service Service, resends *ResendLimiter, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		resends: resends,
		logger:  logger,
	}
}

// LoginPage renders the sign-in form. A visitor who already holds a valid
// session is sent straight to the dashboard.
func (h *AuthHandlers) LoginPage(c *gin.Context) {
	session := sessions.Default(c)
	if token, ok := session.Get(middleware.SessionTokenSessionKey).(string); ok && token != "" {
		if check, err := h.service.VerifySession(c.Request.Context(), token); err == nil && check.Valid {
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
	}

	remembered, _ := session.Get(middleware.RememberedEmailSessionKey).(string)
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":           "Sign in",
		"Theme":           middleware.GetThemeFromContext(c),
		"RememberedEmail": remembered,
	})
}

// LoginSubmit handles the credential form post.
func (h *AuthHandlers) LoginSubmit(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	rememberMe := c.PostForm("remember_me") == "on" || c.PostForm("remember_me") == "true"

	if email == "" || password == "" {
		h.logger.Warn("Missing email or password")
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Email and password are required"))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), api.LoginRequest{
		Action:   "login",
		Email:    email,
		Password: password,
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.ActionRequired == "verify" {
			// Unverified account: capture the code in a dialog instead of
			// failing the login outright.
			c.HTML(http.StatusOK, "verify_dialog.html", gin.H{
				"Email":           email,
				"Message":         "Your account is not verified. Please check your email for the verification code.",
				"CooldownSeconds": 0,
			})
			return
		}
		h.renderLoginError(c, err, "Login failed. Please check your credentials.")
		return
	}

	h.establishSession(c, resp.SessionToken, email, rememberMe)

	h.logger.Info("Successful login", zap.String("email", email), zap.Bool("remember_me", rememberMe))
	c.Header("HX-Redirect", "/dashboard")
	c.Status(http.StatusOK)
}

// VerifySubmit handles the verification-code form inside the login dialog.
func (h *AuthHandlers) VerifySubmit(c *gin.Context) {
	email := c.PostForm("email")
	code := c.PostForm("code")

	if email == "" || code == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Verification code is required"))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), api.LoginRequest{
		Action: "verify",
		Email:  email,
		Code:   code,
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.ActionRequired == "resend" {
			c.HTML(http.StatusOK, "verify_dialog.html", gin.H{
				"Email":           email,
				"Message":         "Verification code expired. Please request a new one.",
				"CooldownSeconds": 0,
			})
			return
		}
		h.renderLoginError(c, err, "Invalid verification code. Please try again.")
		return
	}

	h.establishSession(c, resp.SessionToken, email, false)

	h.logger.Info("Account verified", zap.String("email", email))
	c.Header("HX-Redirect", "/dashboard")
	c.Status(http.StatusOK)
}

// ResendCode re-requests a verification code, rate-limited per email.
func (h *AuthHandlers) ResendCode(c *gin.Context) {
	email := c.PostForm("email")
	if email == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Email is required"))
		return
	}

	if ok, remaining := h.resends.Allow(email); !ok {
		c.HTML(http.StatusTooManyRequests, "verify_dialog.html", gin.H{
			"Email":           email,
			"Message":         "Please wait before requesting another code.",
			"CooldownSeconds": remaining,
		})
		return
	}

	_, err := h.service.Login(c.Request.Context(), api.LoginRequest{Action: "resend", Email: email})
	if err != nil {
		h.renderLoginError(c, err, "Failed to resend verification code.")
		return
	}

	c.HTML(http.StatusOK, "verify_dialog.html", gin.H{
		"Email":           email,
		"Message":         "A new verification code has been sent to your email.",
		"CooldownSeconds": int(ResendCooldown.Seconds()),
	})
}

func (h *AuthHandlers) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"Title": "Register",
		"Theme": middleware.GetThemeFromContext(c),
	})
}

func (h *AuthHandlers) RegisterSubmit(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")
	agreeTerms := c.PostForm("agree_terms") == "on" || c.PostForm("agree_terms") == "true"

	if email == "" || password == "" || confirmPassword == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("All required fields must be filled"))
		return
	}
	if password != confirmPassword {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Passwords do not match"))
		return
	}
	if !agreeTerms {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("You must agree to the terms of service"))
		return
	}

	err := h.service.Register(c.Request.Context(), api.RegisterRequest{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
		AgreeTerms:      agreeTerms,
	})
	if err != nil {
		h.renderLoginError(c, err, "Registration failed. Please try again.")
		return
	}

	h.logger.Info("Registration submitted", zap.String("email", email))
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Registration successful! Please check your email for the verification code, then sign in."))
}

func (h *AuthHandlers) ForgotPasswordPage(c *gin.Context) {
	c.HTML(http.StatusOK, "forgot_password.html", gin.H{
		"Title":    "Reset password",
		"Theme":    middleware.GetThemeFromContext(c),
		"CodeSent": c.Query("sent") == "1",
		"Email":    c.Query("email"),
	})
}

// RequestReset asks the API to email a reset code.
func (h *AuthHandlers) RequestReset(c *gin.Context) {
	email := c.PostForm("email")
	if email == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Email is required"))
		return
	}

	err := h.service.ForgotPassword(c.Request.Context(), api.ForgotPasswordRequest{
		Action: "request_reset",
		Email:  email,
	})
	if err != nil {
		h.renderLoginError(c, err, "Failed to send reset code.")
		return
	}

	c.Header("HX-Redirect", "/forgot-password?sent=1&email="+email)
	c.Status(http.StatusOK)
}

// ResetPassword submits the emailed code together with a new password.
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	email := c.PostForm("email")
	code := c.PostForm("code")
	newPassword := c.PostForm("new_password")

	if email == "" || code == "" || newPassword == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("All required fields must be filled"))
		return
	}

	err := h.service.ForgotPassword(c.Request.Context(), api.ForgotPasswordRequest{
		Action:      "reset_password",
		Email:       email,
		Code:        code,
		NewPassword: newPassword,
	})
	if err != nil {
		h.renderLoginError(c, err, "Failed to reset password.")
		return
	}

	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Password reset successfully. You can now sign in."))
}

// Logout invalidates the session server-side and always clears the local
// token, even if the API call fails.
func (h *AuthHandlers) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if token, ok := session.Get(middleware.SessionTokenSessionKey).(string); ok && token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn("Logout call failed", zap.Error(err))
		}
	}

	session.Delete(middleware.SessionTokenSessionKey)
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
	}

	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", "/login")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandlers) establishSession(c *gin.Context, token, email string, rememberMe bool) {
	session := sessions.Default(c)
	session.Set(middleware.SessionTokenSessionKey, token)
	if rememberMe {
		session.Set(middleware.RememberedEmailSessionKey, email)
	} else {
		session.Delete(middleware.RememberedEmailSessionKey)
	}
	if err := session.Save(); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
	}
}

func (h *AuthHandlers) renderLoginError(c *gin.Context, err error, fallback string) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		c.HTML(status, "dialog.html", dialog.Error(apiErr.Message))
		return
	}
	h.logger.Error("Auth request failed", zap.Error(err))
	c.HTML(http.StatusBadGateway, "dialog.html", dialog.Error(fallback))
}
