package shared

import "context"

// Principal describes the authenticated caller of a request.
type Principal struct {
	Subject string
	Logon   string
}

type contextKey string

const principalKey contextKey = "aegis.principal"

// ContextWithPrincipal stores the principal in the request context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
