package ctxkeys

import (
	"context"

	"github.com/clipfeed/clipfeed/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey     contextKey = "user"
	ClientIPKey contextKey = "client_ip"
)

// User returns the authenticated caller, or nil for anonymous requests.
func User(ctx context.Context) *model.UserSummary {
	user, _ := ctx.Value(UserKey).(*model.UserSummary)
	return user
}

func WithUser(ctx context.Context, user *model.UserSummary) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// ClientIP identifies the caller for view, like and comment bookkeeping.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ClientIPKey).(string)
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPKey, ip)
}
