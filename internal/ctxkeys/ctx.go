package ctxkeys

import (
	"context"

	"github.com/proovit/proovit/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ProfileKey   contextKey = "profile"
	RequestIDKey contextKey = "request_id"
)

func Profile(ctx context.Context) *model.Profile {
	profile, _ := ctx.Value(ProfileKey).(*model.Profile)
	return profile
}

func WithProfile(ctx context.Context, profile *model.Profile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}

// UserID is the authenticated profile's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if p := Profile(ctx); p != nil {
		return p.ID
	}
	return ""
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
