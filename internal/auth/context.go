package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated caller as resolved by the middleware.
type Identity struct {
	UserID      string
	WorkspaceID string
	Role        string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, userID, workspaceID, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, Identity{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
	})
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func UserID(ctx context.Context) (string, error) {
	if id, ok := identityFrom(ctx); ok && id.UserID != "" {
		return id.UserID, nil
	}
	return "", errors.New("auth: user_id not in context")
}

func WorkspaceID(ctx context.Context) (string, error) {
	if id, ok := identityFrom(ctx); ok && id.WorkspaceID != "" {
		return id.WorkspaceID, nil
	}
	return "", errors.New("auth: workspace_id not in context")
}

func Role(ctx context.Context) (string, error) {
	if id, ok := identityFrom(ctx); ok && id.Role != "" {
		return id.Role, nil
	}
	return "", errors.New("auth: role not in context")
}
