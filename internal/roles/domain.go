package roles

import (
	"time"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Role is a named bundle of authority, granted to users per tenant.
// Name is unique system-wide.
type Role struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreateUser     int64     `json:"createUser"`
	LastUpdateUser int64     `json:"lastUpdateUser"`
	CreateDate     time.Time `json:"createDate"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

// Filter expresses an optional-predicate search over roles.
type Filter struct {
	Name        string
	Description string
	Opts        shared.FilterOptions
}
