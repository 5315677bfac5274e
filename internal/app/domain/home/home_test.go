package home

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/models"
	"github.com/coredev-id/coredev-web/internal/app/templates"
)

type mockService struct {
	projectCalls int
	memberCalls  int
	projects     []models.Project
	members      []models.TeamMember
	err          error
}

func (m *mockService) GetProjectsShowcase(_ context.Context) ([]models.Project, error) {
	m.projectCalls++
	return m.projects, m.err
}

func (m *mockService) GetTeamMembers(_ context.Context) ([]models.TeamMember, error) {
	m.memberCalls++
	return m.members, m.err
}

func newHomeRouter(t *testing.T, service *mockService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := templates.New()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/", NewHomeHandlers(service, zap.NewNop()).HomePage)
	return r
}

func TestHomePageShowsShowcase(t *testing.T) {
	service := &mockService{
		projects: []models.Project{{ID: "p1", Name: "Course Portal"}},
		members:  []models.TeamMember{{ID: "m1", Name: "Budi"}},
	}
	r := newHomeRouter(t, service)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Course Portal")
	assert.Contains(t, w.Body.String(), "Budi")
}

func TestHomePageCachesShowcase(t *testing.T) {
	service := &mockService{
		projects: []models.Project{{ID: "p1", Name: "Course Portal"}},
		members:  []models.TeamMember{{ID: "m1", Name: "Budi"}},
	}
	r := newHomeRouter(t, service)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, service.projectCalls)
	assert.Equal(t, 1, service.memberCalls)
}

func TestHomePageDegradesOnAPIFailure(t *testing.T) {
	service := &mockService{err: assert.AnError}
	r := newHomeRouter(t, service)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	// The landing page still renders; the showcase sections are just empty.
	assert.Equal(t, http.StatusOK, w.Code)
}
