package content

import "time"

// User is the minimal profile the backend returns on login.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Session is a signed-in user and the bearer token that proves it.
type Session struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Comment is a user comment on a tool.
type Comment struct {
	ID        string `json:"id"`
	ToolID    string `json:"toolId"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Author    User   `json:"createdBy"`
}
