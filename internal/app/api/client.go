package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/app/models"
	"github.com/coredev-id/coredev-web/internal/pkg/config"
)

// Error is a failure reported by the CoreDev API itself (non-2xx with a JSON
// body). Transport failures are returned as plain wrapped errors instead.
type Error struct {
	Status         int    `json:"-"`
	Message        string `json:"error"`
	ActionRequired string `json:"action_required,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Client talks to the remote CoreDev API. All business logic, persistence and
// credential validation live behind it; this process only forwards requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/") + "/",
		httpClient: &http.Client{
			Timeout: cfg.API.Timeout,
		},
		logger: logger,
	}
}

type LoginRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Code     string `json:"code,omitempty"`
}

type LoginResponse struct {
	SessionToken string `json:"session_token"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeTerms      bool   `json:"agreeTerms"`
}

type ForgotPasswordRequest struct {
	Action      string `json:"action"`
	Email       string `json:"email"`
	Code        string `json:"code,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

// MemberForm carries the add-team-member multipart fields. Photo is a URL;
// binary uploads go to object storage first and only the link is forwarded.
type MemberForm struct {
	Name          string
	Email         string
	Role          string
	Description   string
	ShortStory    string
	Linkedin      string
	Github        string
	Instagram     string
	Whatsapp      string
	PortfolioLink string
	Photo         string
	Skills        []string
}

// ProjectForm carries the add/update-project multipart fields.
type ProjectForm struct {
	Name          string
	Description   string
	StartDate     string
	EndDate       string
	PreviewLink   string
	GithubLink    string
	ThumbnailPath string
	TeamMembers   []string
	Frameworks    []string
}

// VerifySession asks the API whether token is still valid and which role it
// grants. The token is opaque here; it is never decoded locally.
func (c *Client) VerifySession(ctx context.Context, token string) (*models.SessionCheck, error) {
	var out models.SessionCheck
	err := c.postJSON(ctx, "auth/verify-session/", map[string]string{"session_token": token}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, "auth/login/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.postJSON(ctx, "auth/register/", req, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return c.postJSON(ctx, "auth/forgot-password/", req, nil)
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.postJSON(ctx, "auth/logout/", map[string]string{"session_token": token}, nil)
}

func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.getJSON(ctx, "auth/get-users/", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) UpdateRole(ctx context.Context, token, email, role string) error {
	body := map[string]string{"session_token": token, "email": email, "role": role}
	return c.mutateJSON(ctx, http.MethodPut, "auth/update-role/", body)
}

func (c *Client) DeleteUser(ctx context.Context, token, email string) error {
	body := map[string]string{"session_token": token, "email": email}
	return c.mutateJSON(ctx, http.MethodDelete, "auth/delete-user/", body)
}

func (c *Client) GetProjects(ctx context.Context, token string) ([]models.Project, error) {
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	q := url.Values{"session_token": {token}}
	if err := c.getJSON(ctx, "auth/get-projects/", q, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) GetProject(ctx context.Context, token, projectID string) (*models.Project, error) {
	var out struct {
		Project models.Project `json:"project"`
	}
	q := url.Values{"session_token": {token}, "project_id": {projectID}}
	if err := c.getJSON(ctx, "auth/get-project/", q, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// GetProjectByID is the public, unauthenticated project lookup.
func (c *Client) GetProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	var out struct {
		Project models.Project `json:"project"`
	}
	q := url.Values{"id": {projectID}}
	if err := c.getJSON(ctx, "auth/get-project-by-id/", q, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// GetProjectsShowcase returns the public landing-page project list.
func (c *Client) GetProjectsShowcase(ctx context.Context) ([]models.Project, error) {
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	if err := c.getJSON(ctx, "auth/get-projects-show/", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) AddProject(ctx context.Context, token string, form ProjectForm) error {
	fields := c.projectFields(token, form)
	return c.mutateMultipart(ctx, http.MethodPost, "auth/add-project/", fields)
}

func (c *Client) UpdateProject(ctx context.Context, token, projectID string, form ProjectForm) error {
	fields := c.projectFields(token, form)
	fields["project_id"] = projectID
	return c.mutateMultipart(ctx, http.MethodPut, "auth/update-project/", fields)
}

func (c *Client) DeleteProject(ctx context.Context, token, projectID string) error {
	body := map[string]string{"session_token": token, "project_id": projectID}
	return c.mutateJSON(ctx, http.MethodDelete, "auth/delete-project/", body)
}

// GetTeamMembers returns the public landing-page team list.
func (c *Client) GetTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	var out struct {
		Members []models.TeamMember `json:"team_members"`
	}
	if err := c.getJSON(ctx, "auth/get-team-members/", nil, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

func (c *Client) GetTeamMembersList(ctx context.Context, token string) ([]models.TeamMember, error) {
	var out struct {
		Members []models.TeamMember `json:"team_members"`
	}
	q := url.Values{"session_token": {token}}
	if err := c.getJSON(ctx, "auth/get-team-members-list/", q, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

// GetTeamMember is the public, unauthenticated profile lookup.
func (c *Client) GetTeamMember(ctx context.Context, memberID string) (*models.TeamMember, error) {
	var out struct {
		Member models.TeamMember `json:"member"`
	}
	q := url.Values{"id": {memberID}}
	if err := c.getJSON(ctx, "auth/get-team/", q, &out); err != nil {
		return nil, err
	}
	return &out.Member, nil
}

func (c *Client) AddTeamMember(ctx context.Context, token string, form MemberForm) error {
	skills, _ := json.Marshal(form.Skills)
	fields := map[string]string{
		"session_token": token,
		"name":          form.Name,
		"email":         form.Email,
		"role":          form.Role,
		"description":   form.Description,
		"shortStory":    form.ShortStory,
		"linkedin":      form.Linkedin,
		"github":        form.Github,
		"instagram":     form.Instagram,
		"whatsapp":      form.Whatsapp,
		"portfolioLink": form.PortfolioLink,
		"photo":         form.Photo,
		"skills":        string(skills),
	}
	return c.mutateMultipart(ctx, http.MethodPost, "auth/add-team-member/", fields)
}

func (c *Client) DeleteTeamMember(ctx context.Context, token, email string) error {
	body := map[string]string{"session_token": token, "email": email}
	return c.mutateJSON(ctx, http.MethodDelete, "auth/delete-team-member/", body)
}

func (c *Client) projectFields(token string, form ProjectForm) map[string]string {
	teamMembers, _ := json.Marshal(form.TeamMembers)
	frameworks, _ := json.Marshal(form.Frameworks)
	return map[string]string{
		"session_token":  token,
		"name":           form.Name,
		"description":    form.Description,
		"startDate":      form.StartDate,
		"endDate":        form.EndDate,
		"teamMembers":    string(teamMembers),
		"frameworks":     string(frameworks),
		"previewLink":    form.PreviewLink,
		"githubLink":     form.GithubLink,
		"thumbnail_path": form.ThumbnailPath,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "encode request for %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

// mutateJSON issues a state-changing JSON request. Every mutation carries a
// fresh idempotency key so a double-submitted action can be deduplicated
// server-side.
func (c *Client) mutateJSON(ctx context.Context, method, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "encode request for %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())
	return c.do(req, path, nil)
}

func (c *Client) mutateMultipart(ctx context.Context, method, path string, fields map[string]string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return errors.Wrapf(err, "write multipart field %s", key)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Idempotency-Key", uuid.NewString())
	return c.do(req, path, nil)
}

func (c *Client) do(req *http.Request, path string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "call %s", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read response from %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: "request failed"}
		if err := json.Unmarshal(data, apiErr); err != nil {
			c.logger.Warn("API returned non-JSON error body",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
			)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode response from %s", path)
	}
	return nil
}
