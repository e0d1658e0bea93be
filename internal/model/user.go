package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	UsernameKey  string    `db:"username_key" json:"-"` // Case-folded username, unique
	DisplayName  string    `db:"display_name" json:"displayName"`
	PasswordHash string    `db:"password_hash" json:"passwordHash"`
	Banned       bool      `db:"banned" json:"banned"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// UserSummary is the public view of a user. It never carries the password hash.
type UserSummary struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Banned      bool      `json:"banned"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Banned:      u.Banned,
		CreatedAt:   u.CreatedAt,
	}
}

// UsernameKey folds a username for case-insensitive comparison.
// A cases.Caser is stateful and must not be shared between goroutines.
func UsernameKey(username string) string {
	return cases.Fold().String(strings.TrimSpace(username))
}
