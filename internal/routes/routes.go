package routes

import (
	"context"
	"net/http"

	generativeAI "github.com/FACorreiaa/go-genai-sdk/lib"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/api"
	"github.com/coredev-id/coredev-web/internal/app/domain/auth"
	"github.com/coredev-id/coredev-web/internal/app/domain/chat"
	"github.com/coredev-id/coredev-web/internal/app/domain/dashboard"
	"github.com/coredev-id/coredev-web/internal/app/domain/home"
	"github.com/coredev-id/coredev-web/internal/app/domain/members"
	"github.com/coredev-id/coredev-web/internal/app/domain/projects"
	"github.com/coredev-id/coredev-web/internal/app/domain/settings"
	"github.com/coredev-id/coredev-web/internal/app/middleware"
	"github.com/coredev-id/coredev-web/internal/app/uploads"
	"github.com/coredev-id/coredev-web/internal/pkg/config"
)

type AppHandlers struct {
	Home      *home.HomeHandlers
	Auth      *auth.AuthHandlers
	Dashboard *dashboard.DashboardHandlers
	Members   *members.MembersHandlers
	Projects  *projects.ProjectsHandlers
	Chat      *chat.ChatHandlers
	Settings  *settings.SettingsHandlers

	// Client doubles as the session verifier for the guard middleware.
	Client *api.Client
}

func Setup(r *gin.Engine, cfg *config.Config, log *zap.Logger) {
	handlers := setupDependencies(cfg, log)
	setupRouter(r, handlers, log)
}

func setupDependencies(cfg *config.Config, log *zap.Logger) *AppHandlers {
	client := api.NewClient(cfg, log)

	// The LLM client is optional; without an API key the assistant page
	// renders in its unavailable state.
	var generator chat.Generator
	if cfg.GeminiAPIKey != "" {
		aiClient, err := generativeAI.NewLLMChatClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Error("Failed to create LLM client", zap.Error(err))
		} else {
			generator = aiClient
		}
	}

	// Image uploads are optional too; without a bucket the forms still work,
	// they just cannot attach photos.
	var memberUploader members.Uploader
	var projectUploader projects.Uploader
	uploader, err := uploads.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("Failed to create uploader", zap.Error(err))
	} else if uploader != nil {
		memberUploader = uploader
		projectUploader = uploader
	}

	return &AppHandlers{
		Home:      home.NewHomeHandlers(client, log),
		Auth:      auth.NewAuthHandlers(client, auth.NewResendLimiter(), log),
		Dashboard: dashboard.NewDashboardHandlers(client, log),
		Members:   members.NewMembersHandlers(client, memberUploader, log),
		Projects:  projects.NewProjectsHandlers(client, projectUploader, log),
		Chat:      chat.NewChatHandlers(generator, log),
		Settings:  settings.NewSettingsHandlers(log),
		Client:    client,
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, log *zap.Logger) {
	guard := middleware.SessionGuard(h.Client, log)
	managerOnly := middleware.RequireTier(middleware.TierManager)

	// Public pages.
	r.GET("/", h.Home.HomePage)
	r.GET("/login", h.Auth.LoginPage)
	r.GET("/register", h.Auth.RegisterPage)
	r.GET("/forgot-password", h.Auth.ForgotPasswordPage)
	r.GET("/team-members/:id", h.Members.MemberDetail)
	r.GET("/projects/:id", h.Projects.ProjectDetail)
	r.GET("/ai", h.Chat.ChatPage)
	r.POST("/ai/ask", h.Chat.Ask)
	r.POST("/theme", h.Settings.ToggleTheme)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.LoginSubmit)
		authGroup.POST("/login/verify", h.Auth.VerifySubmit)
		authGroup.POST("/login/resend", h.Auth.ResendCode)
		authGroup.POST("/register", h.Auth.RegisterSubmit)
		authGroup.POST("/forgot-password", h.Auth.RequestReset)
		authGroup.POST("/forgot-password/reset", h.Auth.ResetPassword)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Dashboard needs a valid session; the page itself decides between the
	// management view and the welcome view based on the verified role.
	dashboardGroup := r.Group("/dashboard", guard)
	{
		dashboardGroup.GET("", h.Dashboard.DashboardPage)

		users := dashboardGroup.Group("/users", managerOnly)
		{
			users.GET("/table", h.Dashboard.UsersTable)
			users.PUT("/role", h.Dashboard.UpdateRole)
			users.GET("/confirm-delete", h.Dashboard.ConfirmDeleteUser)
			users.DELETE("/delete", h.Dashboard.DeleteUser)
		}
	}

	membersGroup := r.Group("/members", guard, managerOnly)
	{
		membersGroup.GET("", h.Members.MembersPage)
		membersGroup.GET("/table", h.Members.MembersTable)
		membersGroup.GET("/new", h.Members.NewMemberPage)
		membersGroup.POST("", h.Members.CreateMember)
		membersGroup.GET("/confirm-delete", h.Members.ConfirmDeleteMember)
		membersGroup.DELETE("/delete", h.Members.DeleteMember)
	}

	projectsGroup := r.Group("/projects", guard, managerOnly)
	{
		projectsGroup.GET("/manage", h.Projects.ManagePage)
		projectsGroup.GET("/manage/table", h.Projects.ProjectsTable)
		projectsGroup.GET("/manage/confirm-delete", h.Projects.ConfirmDeleteProject)
		projectsGroup.DELETE("/manage/delete", h.Projects.DeleteProject)
		projectsGroup.GET("/new", h.Projects.NewProjectPage)
		projectsGroup.POST("", h.Projects.CreateProject)
		projectsGroup.GET("/:id/edit", h.Projects.EditProjectPage)
		projectsGroup.PUT("/:id", h.Projects.UpdateProject)
	}

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{
			"Theme":   middleware.GetThemeFromContext(c),
			"Message": "The page you are looking for does not exist.",
		})
	})
}
