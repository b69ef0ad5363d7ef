package httpx

import "context"

type ctxKey string

const (
	CtxKeyClientID ctxKey = "client_id"
	CtxKeySubject  ctxKey = "subject"
)

// WithCaller records the authenticated client and subject on ctx so that
// rate limiting and logging can key on them.
func WithCaller(ctx context.Context, clientID, subject string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyClientID, clientID)
	return context.WithValue(ctx, CtxKeySubject, subject)
}

func ClientIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyClientID).(string)
	return v
}

func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeySubject).(string)
	return v
}
