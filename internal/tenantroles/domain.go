package tenantroles

// TenantRole binds a role to a tenant. The (tenantId, roleId) pair is unique.
type TenantRole struct {
	ID       int64 `json:"id"`
	TenantID int64 `json:"tenantId"`
	RoleID   int64 `json:"roleId"`
}

// TenantRoleUser grants a tenant-scoped role to a user. The
// (tenantRoleId, userId) pair is unique.
type TenantRoleUser struct {
	ID           int64 `json:"id"`
	TenantRoleID int64 `json:"tenantRoleId"`
	UserID       int64 `json:"userId"`
}

// TenantRolePermission attaches a permission to a tenant-scoped role. The
// (tenantRoleId, permissionId) pair is unique.
type TenantRolePermission struct {
	ID           int64 `json:"id"`
	TenantRoleID int64 `json:"tenantRoleId"`
	PermissionID int64 `json:"permissionId"`
}

// AssociationFilter expresses an existence query over the association
// composition. Nil fields are wildcards. Conjunction selects AND vs OR over
// the supplied fields.
type AssociationFilter struct {
	TenantID     *int64
	RoleID       *int64
	PermissionID *int64
	UserID       *int64
	Conjunction  bool
}
