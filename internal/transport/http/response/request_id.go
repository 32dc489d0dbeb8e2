package response

import (
	"net/http"

	appctx "github.com/baechuer/nippou-service/internal/pkg/context"
)

// RequestIDFromContext extracts the id set by the RequestID middleware.
func RequestIDFromContext(r *http.Request) string {
	return appctx.GetRequestID(r.Context())
}
