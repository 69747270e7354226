package linkedauth

import (
	"time"

	"github.com/aegis-platform/aegis/internal/shared"
)

// LinkedAuthorization is the legacy flattened association row. It predates
// the tenant-role decomposition and is kept because older callers still read
// and write it directly.
type LinkedAuthorization struct {
	ID             int64     `json:"id"`
	TenantID       int64     `json:"tenantId"`
	RoleID         int64     `json:"roleId"`
	PermissionID   int64     `json:"permissionId"`
	UserID         int64     `json:"userId"`
	CreateUser     int64     `json:"createUser"`
	LastUpdateUser int64     `json:"lastUpdateUser"`
	CreateDate     time.Time `json:"createDate"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

// Filter expresses an optional-predicate search over the flattened rows.
type Filter struct {
	TenantID     *int64
	RoleID       *int64
	PermissionID *int64
	UserID       *int64
	Opts         shared.FilterOptions
}
