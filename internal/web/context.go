package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/beb64/internal/core"
	mw "github.com/JonMunkholm/beb64/internal/web/middleware"
)

// withClient adds the caller's IP and User-Agent to ctx for job history.
func withClient(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.ClientInfo{
		IPAddress: mw.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}
