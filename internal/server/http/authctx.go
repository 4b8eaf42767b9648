package httpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const ownerIDKey ctxKey = "tk.ownerID"

// WithOwnerID stores the authenticated owner id in ctx.
func WithOwnerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerIDKey, id)
}

// OwnerIDFromCtx fetches the owner id from ctx.
func OwnerIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(ownerIDKey)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func bearerToken(header string) (string, error) {
	v := strings.TrimSpace(header)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errors.New("no bearer token")
}
