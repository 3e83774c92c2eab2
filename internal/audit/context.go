package audit

import "context"

type requestKey struct{}

// RequestInfo identifies the HTTP request an audited action came from.
type RequestInfo struct {
	ID        string
	IPAddress string
}

// WithRequest attaches request identity to ctx so audit events written while
// serving the request can be correlated.
func WithRequest(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey{}, info)
}

// RequestFrom returns the request identity stored in ctx, if any.
func RequestFrom(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(requestKey{}).(RequestInfo)
	return info, ok
}
