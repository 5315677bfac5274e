package projects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/api"
	"github.com/coredev-id/coredev-web/internal/app/components/dialog"
	"github.com/coredev-id/coredev-web/internal/app/forms"
	"github.com/coredev-id/coredev-web/internal/app/middleware"
	"github.com/coredev-id/coredev-web/internal/app/models"
)

// Service is the slice of the API client the project pages need.
type Service interface {
	GetProjects(ctx context.Context, token string) ([]models.Project, error)
	GetProject(ctx context.Context, token, projectID string) (*models.Project, error)
	GetProjectByID(ctx context.Context, projectID string) (*models.Project, error)
	AddProject(ctx context.Context, token string, form api.ProjectForm) error
	UpdateProject(ctx context.Context, token, projectID string, form api.ProjectForm) error
	DeleteProject(ctx context.Context, token, projectID string) error
	GetUsers(ctx context.Context) ([]models.User, error)
}

// Uploader matches uploads.Uploader. A nil uploader disables thumbnail uploads.
type Uploader interface {
	UploadImage(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error)
}

type ProjectsHandlers struct {
	service  Service
	uploader Uploader
	logger   *zap.Logger
}

func NewProjectsHandlers(service Service, uploader Uploader, logger *zap.Logger) *ProjectsHandlers {
	return &ProjectsHandlers{
		service:  service,
		uploader: uploader,
		logger:   logger,
	}
}

// ManagePage lists all projects for managers.
func (h *ProjectsHandlers) ManagePage(c *gin.Context) {
	c.HTML(http.StatusOK, "projects.html", gin.H{
		"Title":    "Projects",
		"Theme":    middleware.GetThemeFromContext(c),
		"LoggedIn": true,
		"Projects": h.fetchProjects(c),
	})
}

// ProjectsTable renders the project-list fragment for HTMX refreshes.
func (h *ProjectsHandlers) ProjectsTable(c *gin.Context) {
	c.HTML(http.StatusOK, "projects_table.html", gin.H{
		"Projects": h.fetchProjects(c),
	})
}

func (h *ProjectsHandlers) fetchProjects(c *gin.Context) []models.Project {
	token := middleware.GetTokenFromContext(c)
	projects, err := h.service.GetProjects(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("Failed to fetch projects", zap.Error(err))
		return nil
	}
	return projects
}

// NewProjectPage renders the empty add-project form.
func (h *ProjectsHandlers) NewProjectPage(c *gin.Context) {
	c.HTML(http.StatusOK, "project_form.html", gin.H{
		"Title":           "Add Project",
		"Theme":           middleware.GetThemeFromContext(c),
		"LoggedIn":        true,
		"IsEdit":          false,
		"Form":            api.ProjectForm{},
		"MemberOptions":   h.memberOptions(c.Request.Context()),
		"SelectedMembers": map[string]bool{},
		"Errors":          map[string]string{},
	})
}

// EditProjectPage renders the form pre-filled from the API.
func (h *ProjectsHandlers) EditProjectPage(c *gin.Context) {
	projectID := c.Param("id")
	token := middleware.GetTokenFromContext(c)
	project, err := h.service.GetProject(c.Request.Context(), token, projectID)
	if err != nil {
		h.logger.Warn("Failed to fetch project for editing", zap.String("project_id", projectID), zap.Error(err))
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{
			"Theme":   middleware.GetThemeFromContext(c),
			"Message": "This project does not exist.",
		})
		return
	}

	form := api.ProjectForm{
		Name:          project.Name,
		Description:   project.Description,
		StartDate:     project.StartDate,
		EndDate:       project.EndDate,
		PreviewLink:   project.PreviewLink,
		GithubLink:    project.GithubLink,
		ThumbnailPath: project.ThumbnailPath,
		TeamMembers:   project.TeamMembers,
		Frameworks:    project.Frameworks,
	}

	c.HTML(http.StatusOK, "project_form.html", gin.H{
		"Title":           "Edit Project",
		"Theme":           middleware.GetThemeFromContext(c),
		"LoggedIn":        true,
		"IsEdit":          true,
		"ProjectID":       projectID,
		"Form":            form,
		"FrameworksValue": forms.JoinList(form.Frameworks),
		"MemberOptions":   h.memberOptions(c.Request.Context()),
		"SelectedMembers": selectedSet(form.TeamMembers),
		"Errors":          map[string]string{},
	})
}

// CreateProject validates the form, uploads the thumbnail if one was attached
// and forwards the project to the API. Validation failures never reach the API.
func (h *ProjectsHandlers) CreateProject(c *gin.Context) {
	form := h.bindForm(c)

	fieldErrors := validateProject(form)
	if len(fieldErrors) > 0 {
		h.renderFormErrors(c, form, fieldErrors, false, "")
		return
	}

	if ok := h.attachThumbnail(c, &form); !ok {
		return
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.AddProject(c.Request.Context(), token, form); err != nil {
		h.renderMutationError(c, err, "Failed to add project", "Error adding project")
		return
	}

	h.logger.Info("Project added", zap.String("name", form.Name))
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Project added successfully"))
}

// UpdateProject validates and forwards the edited project.
func (h *ProjectsHandlers) UpdateProject(c *gin.Context) {
	projectID := c.Param("id")
	form := h.bindForm(c)

	fieldErrors := validateProject(form)
	if len(fieldErrors) > 0 {
		h.renderFormErrors(c, form, fieldErrors, true, projectID)
		return
	}

	if ok := h.attachThumbnail(c, &form); !ok {
		return
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.UpdateProject(c.Request.Context(), token, projectID, form); err != nil {
		h.renderMutationError(c, err, "Failed to update project", "Error updating project")
		return
	}

	h.logger.Info("Project updated", zap.String("project_id", projectID))
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Project updated successfully"))
}

// ConfirmDeleteProject opens the confirmation dialog.
func (h *ProjectsHandlers) ConfirmDeleteProject(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Missing project id"))
		return
	}

	c.HTML(http.StatusOK, "dialog.html", dialog.Confirm(
		"Confirm Deletion",
		"Are you sure you want to delete this project?",
		"/projects/manage/delete?project_id="+projectID,
		http.MethodDelete,
	))
}

// DeleteProject removes a project; the list refresh only fires on success.
func (h *ProjectsHandlers) DeleteProject(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		projectID = c.PostForm("project_id")
	}
	if projectID == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Missing project id"))
		return
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.DeleteProject(c.Request.Context(), token, projectID); err != nil {
		h.renderMutationError(c, err, "Failed to delete project", "Error deleting project")
		return
	}

	h.logger.Info("Project deleted", zap.String("project_id", projectID))
	c.Header("HX-Trigger", "refresh-projects")
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Project deleted successfully"))
}

// ProjectDetail renders the public project page; no session required.
func (h *ProjectsHandlers) ProjectDetail(c *gin.Context) {
	project, err := h.service.GetProjectByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Warn("Failed to fetch project", zap.Error(err))
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{
			"Theme":   middleware.GetThemeFromContext(c),
			"Message": "This project does not exist.",
		})
		return
	}

	c.HTML(http.StatusOK, "project_detail.html", gin.H{
		"Title":   project.Name,
		"Theme":   middleware.GetThemeFromContext(c),
		"Project": project,
	})
}

func (h *ProjectsHandlers) bindForm(c *gin.Context) api.ProjectForm {
	return api.ProjectForm{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		StartDate:   c.PostForm("start_date"),
		EndDate:     c.PostForm("end_date"),
		PreviewLink: c.PostForm("preview_link"),
		GithubLink:  c.PostForm("github_link"),
		TeamMembers: c.PostFormArray("team_members"),
		Frameworks:  forms.SplitList(c.PostForm("frameworks")),
	}
}

// attachThumbnail uploads an attached thumbnail and stores its URL on the
// form. It reports false after rendering an error dialog.
func (h *ProjectsHandlers) attachThumbnail(c *gin.Context, form *api.ProjectForm) bool {
	file, err := c.FormFile("thumbnail")
	if err != nil || file == nil {
		return true
	}

	url, err := h.uploadThumbnail(c.Request.Context(), file)
	if err != nil {
		h.logger.Error("Thumbnail upload failed", zap.Error(err))
		c.HTML(http.StatusBadGateway, "dialog.html", dialog.Error("Failed to upload thumbnail. Please try again."))
		return false
	}
	form.ThumbnailPath = url
	return true
}

func (h *ProjectsHandlers) uploadThumbnail(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if h.uploader == nil {
		return "", errors.New("thumbnail uploads are not configured")
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.uploader.UploadImage(ctx, "projects", file.Filename, file.Header.Get("Content-Type"), src)
}

func (h *ProjectsHandlers) renderFormErrors(c *gin.Context, form api.ProjectForm, fieldErrors map[string]string, isEdit bool, projectID string) {
	title := "Add Project"
	if isEdit {
		title = "Edit Project"
	}
	c.Header("HX-Retarget", "body")
	c.HTML(http.StatusBadRequest, "project_form.html", gin.H{
		"Title":           title,
		"Theme":           middleware.GetThemeFromContext(c),
		"LoggedIn":        true,
		"IsEdit":          isEdit,
		"ProjectID":       projectID,
		"Form":            form,
		"FrameworksValue": forms.JoinList(form.Frameworks),
		"MemberOptions":   h.memberOptions(c.Request.Context()),
		"SelectedMembers": selectedSet(form.TeamMembers),
		"Errors":          fieldErrors,
	})
}

// memberOptions lists users that can be assigned to a project. The list
// degrades to empty when the API call fails so the form stays usable.
func (h *ProjectsHandlers) memberOptions(ctx context.Context) []models.User {
	users, err := h.service.GetUsers(ctx)
	if err != nil {
		h.logger.Warn("Failed to fetch member options", zap.Error(err))
		return nil
	}
	options := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == middleware.RoleAnggota {
			options = append(options, u)
		}
	}
	return options
}

func (h *ProjectsHandlers) renderMutationError(c *gin.Context, err error, prefix, fallback string) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		c.HTML(apiErr.Status, "dialog.html", dialog.Error(fmt.Sprintf("%s: %s", prefix, apiErr.Message)))
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	c.HTML(http.StatusBadGateway, "dialog.html", dialog.Error(fallback))
}

func selectedSet(members []string) map[string]bool {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return set
}

func validateProject(form api.ProjectForm) map[string]string {
	fieldErrors := make(map[string]string)
	if form.Name == "" {
		fieldErrors["name"] = "Project name is required"
	}
	if form.StartDate == "" {
		fieldErrors["start_date"] = "Start date is required"
	}
	if !forms.ValidURL(form.PreviewLink) {
		fieldErrors["preview_link"] = "Preview link must be a valid URL"
	}
	if !forms.ValidURL(form.GithubLink) {
		fieldErrors["github_link"] = "GitHub link must be a valid URL"
	}
	return fieldErrors
}
