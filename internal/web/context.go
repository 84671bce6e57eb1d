package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/estatecrm/internal/core"
)

// withRequestMetadata carries the client address into the import logs.
// RemoteAddr has already been resolved by TrustedRealIP.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClientIP(ctx, r.RemoteAddr)
}
