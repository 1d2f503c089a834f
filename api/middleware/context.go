package middleware

import (
	"context"
	"net"

	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/internal/ledger"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxOrigin contextKey = "origin"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func OriginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOrigin).(string); ok {
		return v
	}
	return ""
}

// WithActor seeds an authenticated identity into the context. Handlers and
// tests use it; the auth middleware is the production writer.
func WithActor(ctx context.Context, userID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}

func withOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, ctxOrigin, origin)
}

// ActorFromContext rebuilds the verified actor for service calls.
func ActorFromContext(ctx context.Context) (ledger.Actor, error) {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return ledger.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return ledger.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed user identity")
	}
	role, err := enums.ParseRole(RoleFromContext(ctx))
	if err != nil {
		return ledger.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed actor role")
	}

	return ledger.Actor{
		UserID: userID,
		Role:   role,
		Origin: OriginFromContext(ctx),
	}, nil
}

func clientAddress(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
