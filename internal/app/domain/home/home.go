package home

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coredev-id/coredev-web/internal/app/middleware"
	"github.com/coredev-id/coredev-web/internal/app/models"
)

const (
	showcaseTTL    = 5 * time.Minute
	projectsKey    = "projects_show"
	teamMembersKey = "team_members_show"
)

// Service is the slice of the API client the landing page needs.
type Service interface {
	GetProjectsShowcase(ctx context.Context) ([]models.Project, error)
	GetTeamMembers(ctx context.Context) ([]models.TeamMember, error)
}

type HomeHandlers struct {
	service  Service
	showcase *cache.Cache
	logger   *zap.Logger
}

func NewHomeHandlers(service Service, logger *zap.Logger) *HomeHandlers {
	return &HomeHandlers{
		service:  service,
		showcase: cache.New(showcaseTTL, 10*time.Minute),
		logger:   logger,
	}
}

// HomePage renders the public landing page. The showcase lists are public
// content only, so caching them briefly is safe; sessions and roles are never
// cached.
func (h *HomeHandlers) HomePage(c *gin.Context) {
	projects, members := h.loadShowcase(c.Request.Context())

	// Token presence only drives which navbar links show; every protected
	// page still verifies the token before rendering.
	session := sessions.Default(c)
	token, _ := session.Get(middleware.SessionTokenSessionKey).(string)

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Theme":       middleware.GetThemeFromContext(c),
		"LoggedIn":    token != "",
		"Projects":    projects,
		"TeamMembers": members,
	})
}

func (h *HomeHandlers) loadShowcase(ctx context.Context) ([]models.Project, []models.TeamMember) {
	var projects []models.Project
	var members []models.TeamMember

	if cached, found := h.showcase.Get(projectsKey); found {
		projects = cached.([]models.Project)
	}
	if cached, found := h.showcase.Get(teamMembersKey); found {
		members = cached.([]models.TeamMember)
	}
	if projects != nil && members != nil {
		return projects, members
	}

	// The two fetches populate disjoint page regions, so they run
	// concurrently and may complete in either order.
	g, gctx := errgroup.WithContext(ctx)
	if projects == nil {
		g.Go(func() error {
			fetched, err := h.service.GetProjectsShowcase(gctx)
			if err != nil {
				return err
			}
			projects = fetched
			h.showcase.Set(projectsKey, fetched, cache.DefaultExpiration)
			return nil
		})
	}
	if members == nil {
		g.Go(func() error {
			fetched, err := h.service.GetTeamMembers(gctx)
			if err != nil {
				return err
			}
			members = fetched
			h.showcase.Set(teamMembersKey, fetched, cache.DefaultExpiration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// The landing page degrades to empty sections rather than erroring.
		h.logger.Warn("Failed to load showcase content", zap.Error(err))
	}

	return projects, members
}
