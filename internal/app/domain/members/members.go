package members

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

// Service is the slice of the API client the team-member pages need.
type Service interface {
	GetTeamMembersList(ctx context.Context, token string) ([]models.TeamMember, error)
	GetTeamMember(ctx context.Context, memberID string) (*models.TeamMember, error)
	AddTeamMember(ctx context.Context, token string, form api.MemberForm) error
	DeleteTeamMember(ctx context.Context, token, email string) error
}

// Uploader matches uploads.Uploader. A nil uploader disables photo uploads.
type Uploader interface {
	UploadImage(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error)
}

type MembersHandlers struct {
	service  Service
	uploader Uploader
	logger   *zap.Logger
}

func NewMembersHandlers(service Service, uploader Uploader, logger *zap.Logger) *MembersHandlers {
	return &MembersHandlers{
		service:  service,
		uploader: uploader,
		logger:   logger,
	}
}

// MembersPage lists the managed team members.
func (h *MembersHandlers) MembersPage(c *gin.Context) {
	members := h.fetchMembers(c)
	c.HTML(http.StatusOK, "members.html", gin.H{
		"Title":    "Team Members",
		"Theme":    middleware.GetThemeFromContext(c),
		"LoggedIn": true,
		"Members":  members,
	})
}

// MembersTable renders the member-list fragment for HTMX refreshes.
func (h *MembersHandlers) MembersTable(c *gin.Context) {
	c.HTML(http.StatusOK, "members_table.html", gin.H{
		"Members": h.fetchMembers(c),
	})
}

func (h *MembersHandlers) fetchMembers(c *gin.Context) []models.TeamMember {
	token := middleware.GetTokenFromContext(c)
	members, err := h.service.GetTeamMembersList(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("Failed to fetch team members", zap.Error(err))
		return nil
	}
	return members
}

// NewMemberPage renders the empty add-member form.
func (h *MembersHandlers) NewMemberPage(c *gin.Context) {
	c.HTML(http.StatusOK, "member_form.html", gin.H{
		"Title":    "Add Member",
		"Theme":    middleware.GetThemeFromContext(c),
		"LoggedIn": true,
		"Form":     api.MemberForm{},
		"Errors":   map[string]string{},
	})
}

// CreateMember validates the form, uploads the photo if one was attached and
// forwards the member to the API. Validation failures never reach the API.
func (h *MembersHandlers) CreateMember(c *gin.Context) {
	form := api.MemberForm{
		Name:          c.PostForm("name"),
		Email:         c.PostForm("email"),
		Role:          c.PostForm("role"),
		Description:   c.PostForm("description"),
		ShortStory:    c.PostForm("short_story"),
		Linkedin:      c.PostForm("linkedin"),
		Github:        c.PostForm("github"),
		Instagram:     c.PostForm("instagram"),
		Whatsapp:      c.PostForm("whatsapp"),
		PortfolioLink: c.PostForm("portfolio_link"),
		Skills:        forms.SplitList(c.PostForm("skills")),
	}

	fieldErrors := validateMember(form)
	if len(fieldErrors) > 0 {
		c.Header("HX-Retarget", "body")
		c.HTML(http.StatusBadRequest, "member_form.html", gin.H{
			"Title":       "Add Member",
			"Theme":       middleware.GetThemeFromContext(c),
			"LoggedIn":    true,
			"Form":        form,
			"SkillsValue": forms.JoinList(form.Skills),
			"Errors":      fieldErrors,
		})
		return
	}

	if file, err := c.FormFile("photo"); err == nil && file != nil {
		photoURL, err := h.uploadPhoto(c.Request.Context(), file)
		if err != nil {
			h.logger.Error("Photo upload failed", zap.Error(err))
			c.HTML(http.StatusBadGateway, "dialog.html", dialog.Error("Failed to upload photo. Please try again."))
			return
		}
		form.Photo = photoURL
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.AddTeamMember(c.Request.Context(), token, form); err != nil {
		h.renderMutationError(c, err, "Failed to add member", "Error adding member")
		return
	}

	h.logger.Info("Team member added", zap.String("email", form.Email))
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Team member added successfully"))
}

// ConfirmDeleteMember opens the confirmation dialog.
func (h *MembersHandlers) ConfirmDeleteMember(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Missing member email"))
		return
	}

	c.HTML(http.StatusOK, "dialog.html", dialog.Confirm(
		"Confirm Deletion",
		fmt.Sprintf("Are you sure you want to delete member %s?", email),
		"/members/delete?email="+email,
		http.MethodDelete,
	))
}

// DeleteMember removes a team member; the list refresh only fires on success.
func (h *MembersHandlers) DeleteMember(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		email = c.PostForm("email")
	}
	if email == "" {
		c.HTML(http.StatusBadRequest, "dialog.html", dialog.Error("Missing member email"))
		return
	}

	token := middleware.GetTokenFromContext(c)
	if err := h.service.DeleteTeamMember(c.Request.Context(), token, email); err != nil {
		h.renderMutationError(c, err, "Failed to delete member", "Error deleting member")
		return
	}

	h.logger.Info("Team member deleted", zap.String("email", email))
	c.Header("HX-Trigger", "refresh-members")
	c.HTML(http.StatusOK, "dialog.html", dialog.Success("Team member deleted successfully"))
}

// MemberDetail renders the public profile page; no session required.
func (h *MembersHandlers) MemberDetail(c *gin.Context) {
	member, err := h.service.GetTeamMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Warn("Failed to fetch team member", zap.Error(err))
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{
			"Theme":   middleware.GetThemeFromContext(c),
			"Message": "This team member does not exist.",
		})
		return
	}

	c.HTML(http.StatusOK, "member_detail.html", gin.H{
		"Title":  member.Name,
		"Theme":  middleware.GetThemeFromContext(c),
		"Member": member,
	})
}

func (h *MembersHandlers) uploadPhoto(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if h.uploader == nil {
		return "", errors.New("photo uploads are not configured")
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.uploader.UploadImage(ctx, "members", file.Filename, file.Header.Get("Content-Type"), src)
}

func (h *MembersHandlers) renderMutationError(c *gin.Context, err error, prefix, fallback string) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		c.HTML(apiErr.Status, "dialog.html", dialog.Error(fmt.Sprintf("%s: %s", prefix, apiErr.Message)))
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	c.HTML(http.StatusBadGateway, "dialog.html", dialog.Error(fallback))
}

func validateMember(form api.MemberForm) map[string]string {
	fieldErrors := make(map[string]string)
	if form.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if form.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if form.Role == "" {
		fieldErrors["role"] = "Role is required"
	}
	if !forms.ValidURL(form.Linkedin) {
		fieldErrors["linkedin"] = "LinkedIn must be a valid URL"
	}
	if !forms.ValidURL(form.Github) {
		fieldErrors["github"] = "GitHub must be a valid URL"
	}
	if !forms.ValidURL(form.PortfolioLink) {
		fieldErrors["portfolio_link"] = "Portfolio link must be a valid URL"
	}
	return fieldErrors
}
