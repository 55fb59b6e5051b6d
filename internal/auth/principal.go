package auth

import "context"

// Principal identifies the authenticated caller of a request.
type Principal struct {
	UserID   string
	Email    string
	Username string
}

// DisplayName is the name shown next to the caller's comments and videos.
func (p Principal) DisplayName() string {
	switch {
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	default:
		return "Anonymous"
	}
}

type principalKey struct{}

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || principal.UserID == "" {
		return Principal{}, false
	}
	return principal, true
}
