package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// ClientInfo identifies who submitted a job.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// ContextWithClient attaches client details for job history.
func ContextWithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, ctxKeyClient, info)
}

// ClientFromContext returns the client details stored by ContextWithClient.
func ClientFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(ctxKeyClient).(ClientInfo)
	return info
}
