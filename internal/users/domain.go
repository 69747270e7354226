package users

import (
	"time"

	"github.com/aegis-platform/aegis/internal/shared"
)

// User is an account known to the platform. Subject is the external federated
// identity claim and is unique, as is the logon.
type User struct {
	ID           int64     `json:"id"`
	Logon        string    `json:"logon"`
	Subject      string    `json:"sub"`
	Email        string    `json:"email"`
	Enabled      bool      `json:"enabled"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createDate"`
	UpdatedAt    time.Time `json:"lastUpdate"`
}

// Filter expresses an optional-predicate search over users.
type Filter struct {
	Logon   string
	Email   string
	Subject string
	Enabled *bool
	Opts    shared.FilterOptions
}
