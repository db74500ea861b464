package model

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the authenticated identity plus the tokens the remote service
// issued for it.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
	DeviceInfo   string    `json:"device_info,omitempty"`
}

func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.User.ID != ""
}

// ExpiresWithin reports whether the access token expires in less than d.
func (s *Session) ExpiresWithin(d time.Duration, now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.Sub(now) < d
}

type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionLoading       SessionState = "loading"
	SessionAuthenticated SessionState = "authenticated"
	SessionAnonymous     SessionState = "anonymous"
)
