// Package authz is the calling side of the grant-evaluation protocol: a typed
// HTTP client for the authorization endpoints plus a checker that owns the
// access/refresh token lifecycle for one principal's session.
package authz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Client issues grant-evaluation requests against one authorization server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ClientFactory hands out one Client per base URL instead of re-resolving
// a client on every call.
type ClientFactory struct {
	mu      sync.Mutex
	timeout time.Duration
	clients map[string]*Client
}

// NewClientFactory builds a factory whose clients share one timeout.
func NewClientFactory(timeout time.Duration) *ClientFactory {
	return &ClientFactory{timeout: timeout, clients: map[string]*Client{}}
}

// For returns the memoized client for baseURL, constructing it on first use.
func (f *ClientFactory) For(baseURL string) *Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[baseURL]; ok {
		return c
	}
	c := NewClient(baseURL, f.timeout)
	f.clients[baseURL] = c
	return c
}

// AssociationQuery mirrors the exists endpoint's optional parameters.
type AssociationQuery struct {
	TenantID     *int64
	RoleID       *int64
	PermissionID *int64
	UserID       *int64
	Conjunction  bool
}

// UserIDBySubject resolves an external subject claim to the internal user id.
func (c *Client) UserIDBySubject(ctx context.Context, accessToken, subject string) (int64, error) {
	body, err := c.get(ctx, accessToken, "/user/sub/"+url.PathEscape(subject), nil)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(body), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("authz: malformed user id %q", body)
	}
	return id, nil
}

// CheckRole asks whether the user holds the named role, optionally scoped to
// a tenant.
func (c *Client) CheckRole(ctx context.Context, accessToken string, userID int64, roleName string, tenantID *int64) (bool, error) {
	params := url.Values{
		"userId":   {strconv.FormatInt(userID, 10)},
		"roleName": {roleName},
	}
	if tenantID != nil {
		params.Set("tenantId", strconv.FormatInt(*tenantID, 10))
	}
	return c.getBool(ctx, accessToken, "/tenantrole/exists/role", params)
}

// CheckPermission asks whether the user holds the permission, optionally
// scoped to a tenant.
func (c *Client) CheckPermission(ctx context.Context, accessToken string, userID, permissionID int64, tenantID *int64) (bool, error) {
	params := url.Values{
		"userId":       {strconv.FormatInt(userID, 10)},
		"permissionId": {strconv.FormatInt(permissionID, 10)},
	}
	if tenantID != nil {
		params.Set("tenantId", strconv.FormatInt(*tenantID, 10))
	}
	return c.getBool(ctx, accessToken, "/tenantrole/exists/permission", params)
}

// CheckAssociation asks the legacy flattened table whether any row satisfies
// the query.
func (c *Client) CheckAssociation(ctx context.Context, accessToken string, query AssociationQuery) (bool, error) {
	params := url.Values{
		"isLogicalConjunction": {strconv.FormatBool(query.Conjunction)},
	}
	setOptional := func(name string, v *int64) {
		if v != nil {
			params.Set(name, strconv.FormatInt(*v, 10))
		}
	}
	setOptional("tenantId", query.TenantID)
	setOptional("roleId", query.RoleID)
	setOptional("permissionId", query.PermissionID)
	setOptional("userId", query.UserID)
	return c.getBool(ctx, accessToken, "/linkedauthorization/exists", params)
}

// Refresh exchanges the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/user/refresh", strings.NewReader(refreshToken))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", shared.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if mapped := mapStatus(resp.StatusCode, body); mapped != nil {
		return "", mapped
	}
	return strings.Trim(strings.TrimSpace(body), `"`), nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, params url.Values) (string, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", shared.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if mapped := mapStatus(resp.StatusCode, body); mapped != nil {
		return "", mapped
	}
	return body, nil
}

func (c *Client) getBool(ctx context.Context, accessToken, path string, params url.Values) (bool, error) {
	body, err := c.get(ctx, accessToken, path, params)
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(strings.TrimSpace(body))
	if err != nil {
		return false, fmt.Errorf("authz: malformed boolean body %q", body)
	}
	return value, nil
}

func readBody(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("%w: %s", shared.ErrUnavailable, err)
	}
	return string(raw), nil
}

// mapStatus translates the remote status contract into the typed taxonomy.
// The response body text becomes the error message. Unlisted statuses stay
// unmapped and read as raw transport failures to the caller.
func mapStatus(status int, body string) error {
	message := strings.TrimSpace(body)
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", shared.ErrValidation, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, message)
	case http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", shared.ErrInternal, message)
	default:
		return fmt.Errorf("authz: unexpected status %d: %s", status, message)
	}
}
