package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coredev-id/coredev-web/internal/app/api"
	"github.com/coredev-id/coredev-web/internal/app/components/dialog"
	"github.com/coredev-id/coredev-web/internal/app/middleware"
	"github.com/coredev-id/coredev-web/internal/app/models"
)

// Service is the slice of the API client the dashboard needs.
type Service interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetProjects(ctx context.Context, token string) ([]models.Project, error)
	UpdateRole(ctx context.Context, token, email, role string) error
	DeleteUser(ctx context.Context, token, email string) error
}

type DashboardHandlers struct {
	service Service
	logger  *zap.Logger
}

func NewDashboardHandlers(service Service, logger *zap.Logger) *DashboardHandlers {
	return &DashboardHandlers{
		service: service,
		logger:  logger,
	}
}

// monthBucket is one column of the project-activity chart.
type monthBucket struct {
	Label  string
	Count  int
	Height int
}

// DashboardPage renders the tier the verified role allows. Plain users get
// the welcome view; managers get stats, activity and the user table.
func (h *DashboardHandlers) DashboardPage(c *gin.Context) {
	role := middleware.GetRoleFromContext(c)
	theme := middleware.GetThemeFromContext(c)

	if middleware.TierFor(role) < middleware.TierManager {
		c.HTML(http.StatusOK, "welcome.html", gin.H{
			"Title":    "Dashboard",
			"Theme":    theme,
			"LoggedIn": true,
		})
		return
	}

	token := middleware.GetTokenFromContext(c)

	var users []models.User
	var projects []models.Project

	// Users and projects populate disjoint regions; fetch them concurrently.
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		fetched, err := h.service.GetUsers(gctx)
		if err != nil {
			return err
		}
		users = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := h.service.GetProjects(gctx, token)
		if err != nil {
			return err
		}
		projects = fetched
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("Failed to load dashboard data", zap.Error(err))
	}

	teamMembersCount := 0
	for _, user := range users {
		if user.Role == middleware.RoleAnggota {
			teamMembersCount++
		}
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":            "Dashboard",
		"Theme":            theme,
		"LoggedIn":         true,
		"Users":            users,
		"ActiveProjects":   len(projects),
		"TeamMembersCount": teamMembersCount,
		"Activity":         monthlyActivity(projects, time.Now()),
	})
}

// UsersTable renders the user-list fragment, optionally filtered by the
// search query.
func (h *DashboardHandlers) UsersTable(c *gin.Context) {
	users, err := h.service.GetUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch users", zap.Error(err))
		c.HTML(http.StatusOK, "users_table.html", gin.H{"Users": nil})
		return
	}

	c.HTML(http.StatusOK, "users_table.html", gin.H{
		"Users": filterUsers(users, c.Query("q")),
	})
}

// ConfirmDeleteUser opens the confirmation dialog; nothing is deleted until
// the confirm button fires.
func (h *DashboardHandlers) ConfirmDeleteUser(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Missing user email"))
		return
	}

	c.HTML(http.StatusOK, "dialog.html", dialog.Confirm(
		"Confirm Deletion",
		fmt.Sprintf("Are you sure you want to delete user %s?", email),
		"/dashboard/users/delete?email="+email,
		http.MethodDelete,
	))
}

// DeleteUser removes an account. The table refresh is only triggered after a
// successful server response; a failure leaves the list untouched.
func (h *DashboardHandlers) DeleteUser(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		email = c.PostForm("email")
	}
	if email == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Missing user email"))
		return
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.DeleteUser(c.Request.Context(), token, email); err != nil {
		h.renderMutationError(c, err, "Failed to delete user", "Error deleting user")
		return
	}

	h.logger.Info("User deleted", zap.String("email", email))
	c.Header("HX-Trigger", "refresh-users")
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("User deleted successfully"))
}

// UpdateRole changes an account's membership tier.
func (h *DashboardHandlers) UpdateRole(c *gin.Context) {
	email := c.PostForm("email")
	role := c.PostForm("role")
	if email == "" || role == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("User email and role are required"))
		return
	}
	if role != middleware.RoleUser && role != middleware.RoleAnggota && role != middleware.RoleDosen {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Unknown role: "+role))
		return
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.UpdateRole(c.Request.Context(), token, email, role); err != nil {
		h.renderMutationError(c, err, "Failed to update role", "Error updating role")
		return
	}

	h.logger.Info("Role updated", zap.String("email", email), zap.String("role", role))
	c.Header("HX-Trigger", "refresh-users")
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Role updated successfully"))
}

func (h *DashboardHandlers) renderMutationError(c *gin.Context, err error, prefix, fallback string) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		c.HTML(apiErr.Status, "dialog.html", dialog.Error(fmt.Sprintf("%s: %s", prefix, apiErr.Message)))
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	c.HTML(http.StatusBadGateway, "dialog.html", dialog.Error(fallback))
}

func filterUsers(users []models.User, query string) []models.User {
	if query == "" {
		return users
	}
	query = strings.ToLower(query)
	filtered := make([]models.User, 0, len(users))
	for _, user := range users {
		if strings.Contains(strings.ToLower(user.Email), query) ||
			strings.Contains(strings.ToLower(user.Role), query) {
			filtered = append(filtered, user)
		}
	}
	return filtered
}

// monthlyActivity buckets projects by start month over the trailing year.
func monthlyActivity(projects []models.Project, now time.Time) []monthBucket {
	counts := make(map[string]int)
	for _, project := range projects {
		started, err := time.Parse("2006-01-02", project.StartDate)
		if err != nil {
			continue
		}
		counts[started.Format("2006-1")]++
	}

	buckets := make([]monthBucket, 0, 12)
	max := 0
	for i := 11; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		count := counts[month.Format("2006-1")]
		if count > max {
			max = count
		}
		buckets = append(buckets, monthBucket{
			Label: month.Format("Jan 2006"),
			Count: count,
		})
	}
	for i := range buckets {
		if max > 0 {
			buckets[i].Height = buckets[i].Count * 100 / max
		}
	}
	return buckets
}
