package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aegis-platform/aegis/internal/shared"
)

// TokenHolder carries one principal's token pair. Its lifetime is the
// caller's session; it is never shared between principals.
type TokenHolder struct {
	Access  string
	Refresh string
}

// Checker answers role and permission questions for one principal. On a
// token-expired response it refreshes and retries exactly once, then gives
// up. A not-found answer from the remote side reads as "not granted".
type Checker struct {
	logger  *slog.Logger
	client  *Client
	subject string
	tokens  *TokenHolder
}

// NewChecker builds a checker bound to one principal's subject and tokens.
func NewChecker(logger *slog.Logger, client *Client, subject string, tokens *TokenHolder) *Checker {
	return &Checker{logger: logger, client: client, subject: subject, tokens: tokens}
}

// HasRole reports whether the principal holds the named role, optionally
// scoped to a tenant.
func (c *Checker) HasRole(ctx context.Context, tenantID *int64, roleName string) (bool, error) {
	return c.hasGrant(ctx, func(ctx context.Context, userID int64) (bool, error) {
		return c.client.CheckRole(ctx, c.tokens.Access, userID, roleName, tenantID)
	})
}

// HasPermission reports whether the principal holds the permission,
// optionally scoped to a tenant.
func (c *Checker) HasPermission(ctx context.Context, permissionID int64, tenantID *int64) (bool, error) {
	return c.hasGrant(ctx, func(ctx context.Context, userID int64) (bool, error) {
		return c.client.CheckPermission(ctx, c.tokens.Access, userID, permissionID, tenantID)
	})
}

// HasAssociation reports whether any association row satisfies the query,
// constrained to the principal's own user id.
func (c *Checker) HasAssociation(ctx context.Context, query AssociationQuery) (bool, error) {
	return c.hasGrant(ctx, func(ctx context.Context, userID int64) (bool, error) {
		query.UserID = &userID
		return c.client.CheckAssociation(ctx, c.tokens.Access, query)
	})
}

// hasGrant resolves the principal's user id, then runs the grant check. The
// subject lookup always completes before the grant check is issued. Each
// invocation allows at most one refresh; a second expiry surfaces as an
// authentication failure rather than looping.
func (c *Checker) hasGrant(ctx context.Context, check func(ctx context.Context, userID int64) (bool, error)) (bool, error) {
	if c.tokens.Access == "" {
		if !c.RefreshToken(ctx) {
			return false, fmt.Errorf("%w: no access token held", shared.ErrTokenExpired)
		}
	}

	refreshed := false
	userID, err := c.client.UserIDBySubject(ctx, c.tokens.Access, c.subject)
	if errors.Is(err, shared.ErrTokenExpired) {
		if !c.RefreshToken(ctx) {
			return false, err
		}
		refreshed = true
		userID, err = c.client.UserIDBySubject(ctx, c.tokens.Access, c.subject)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	granted, err := check(ctx, userID)
	if errors.Is(err, shared.ErrTokenExpired) && !refreshed {
		if !c.RefreshToken(ctx) {
			return false, err
		}
		granted, err = check(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return granted, nil
}

// RefreshToken exchanges the held refresh token for a new access token.
// On failure the held tokens are left unchanged and the caller must treat
// the session as requiring re-authentication.
func (c *Checker) RefreshToken(ctx context.Context) bool {
	access, err := c.client.Refresh(ctx, c.tokens.Refresh)
	if err != nil {
		c.logger.Warn("token refresh failed", slog.Any("error", err))
		return false
	}
	c.tokens.Access = access
	return true
}
