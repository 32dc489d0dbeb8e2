package middleware

import (
	"context"

	appctx "github.com/baechuer/nippou-service/internal/pkg/context"
)

// WithUser marks the request as authenticated. Only the id travels in the
// context; handlers load the profile when they need it.
func WithUser(ctx context.Context, userID string) context.Context {
	return appctx.WithUserID(ctx, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v := appctx.GetUserID(ctx)
	return v, v != ""
}
