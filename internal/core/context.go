package core

import "context"

type originKey struct{}

// Origin identifies the client that submitted an import. It is stored on
// the import batch.
type Origin struct {
	IP        string
	UserAgent string
}

// WithOrigin returns ctx carrying o.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFrom returns the origin stored in ctx, or the zero Origin.
func OriginFrom(ctx context.Context) Origin {
	o, _ := ctx.Value(originKey{}).(Origin)
	return o
}
