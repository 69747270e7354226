package tenants

import (
	"time"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Tenant is an isolation boundary under which roles and permissions are scoped.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createDate"`
	UpdatedAt time.Time `json:"lastUpdate"`
}

// Filter expresses an optional-predicate search over tenants.
type Filter struct {
	Name string
	Opts shared.FilterOptions
}
