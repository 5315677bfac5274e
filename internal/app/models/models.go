package models

// SessionCheck is the result of asking the API whether a session token is
// still good. It is derived per navigation and never persisted.
type SessionCheck struct {
	Valid bool   `json:"valid"`
	Role  string `json:"role"`
}

// User is an account row as returned by auth/get-users/.
type User struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	Verified  bool   `json:"verified"`
	LastLogin string `json:"last_login"`
}

// TeamMember is a public team profile.
type TeamMember struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	Description   string   `json:"description"`
	ShortStory    string   `json:"short_story"`
	Linkedin      string   `json:"linkedin"`
	Github        string   `json:"github"`
	Instagram     string   `json:"instagram"`
	Whatsapp      string   `json:"whatsapp"`
	PortfolioLink string   `json:"portfolio_link"`
	Photo         string   `json:"photo"`
	Skills        []string `json:"skills"`
}

// Project is a portfolio project.
type Project struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	PreviewLink   string   `json:"preview_link"`
	GithubLink    string   `json:"github_link"`
	ThumbnailPath string   `json:"thumbnail_path"`
	TeamMembers   []string `json:"team_members"`
	Frameworks    []string `json:"frameworks"`
}
