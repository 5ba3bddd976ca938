// Package context carries request and job correlation values for logging and tracing.
package context

import "context"

type requestIDKey struct{}
type runIDKey struct{}
type jobKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithJobRun tags the context with the ingestion job name and its run id.
func WithJobRun(ctx context.Context, job, runID string) context.Context {
	if job != "" {
		ctx = context.WithValue(ctx, jobKey{}, job)
	}
	if runID != "" {
		ctx = context.WithValue(ctx, runIDKey{}, runID)
	}
	return ctx
}

func JobRunFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	job, _ := ctx.Value(jobKey{}).(string)
	runID, _ := ctx.Value(runIDKey{}).(string)
	return job, runID
}
