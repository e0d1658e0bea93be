package service

import (
	"context"

	"github.com/clipfeed/clipfeed/internal/model"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

// IdentityProvider registers users, issues bearer tokens and reports ban
// status. One implementation is chosen per deployment.
type IdentityProvider interface {
	Register(ctx context.Context, username, password, displayName string) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	// BanStatus accepts a user id or username. Unknown users are not banned.
	BanStatus(ctx context.Context, code string) (bool, error)
	User(ctx context.Context, username string) (*model.UserSummary, error)
	// VerifyToken resolves a bearer token to its user.
	VerifyToken(ctx context.Context, token string) (*model.UserSummary, error)
}
