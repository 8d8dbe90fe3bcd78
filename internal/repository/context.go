package repository

import "context"

type ctxKey struct{}

// NewContext returns ctx carrying the request's repositories.
func NewContext(ctx context.Context, repos *Repositories) context.Context {
	return context.WithValue(ctx, ctxKey{}, repos)
}

// FromContext returns the repositories bound to ctx, if any.
func FromContext(ctx context.Context) (*Repositories, bool) {
	repos, ok := ctx.Value(ctxKey{}).(*Repositories)
	return repos, ok && repos != nil
}
