package model

import (
	"strings"
	"time"
)

type Folder struct {
	ID        string    `bson:"_id" json:"id,omitempty" db:"id"`
	UserID    string    `bson:"user_id" json:"user_id" db:"user_id"`
	Name      string    `bson:"name" json:"name" db:"name"`
	IsRoot    bool      `bson:"is_root" json:"is_root" db:"is_root"`
	CreatedAt time.Time `bson:"created_at" json:"created_at" db:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at" db:"updated_at"`
}

func NewFolder(userID, name string, now time.Time) Folder {
	return Folder{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Profile is a row of the profiles table; only the username matters here.
type Profile struct {
	ID       string `bson:"_id" json:"id" db:"id"`
	Username string `bson:"username" json:"username" db:"username"`
}
