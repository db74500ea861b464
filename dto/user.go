package dto

import (
	"time"

	"notespace/model"
)

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is the session snapshot the UI renders from. Tokens never
// leave the process.
type SessionResponse struct {
	State      model.SessionState `json:"state"`
	Loading    bool               `json:"loading"`
	Connected  bool               `json:"connected"`
	User       *UserResponse      `json:"user,omitempty"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
	DeviceInfo string             `json:"device_info,omitempty"`
	Links      map[string]Link    `json:"_links,omitempty"`
}

type SignUpResponse struct {
	User                 UserResponse `json:"user"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

func ToUserResponse(user model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func ToSessionResponse(state model.SessionState, loading, connected bool, session *model.Session, links map[string]Link) SessionResponse {
	resp := SessionResponse{
		State:     state,
		Loading:   loading,
		Connected: connected,
		Links:     links,
	}
	if session != nil {
		resp.User = ToUserResponse(session.User)
		resp.DeviceInfo = session.DeviceInfo
		if !session.ExpiresAt.IsZero() {
			expiresAt := session.ExpiresAt
			resp.ExpiresAt = &expiresAt
		}
	}
	return resp
}
