package apiclient

import "context"

type bearerKey struct{}

// WithBearer returns a context whose requests carry token instead of the one
// from the client's TokenSource. Used to validate a stored token before it
// is admitted into the session.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(bearerKey{}).(string)
	return tok, ok
}
