package permissions

import (
	"time"

	"github.com/aegis-platform/aegis/internal/shared"
)

// ActionType enumerates the verbs an action can carry.
type ActionType string

const (
	ActionRead    ActionType = "read"
	ActionWrite   ActionType = "write"
	ActionExecute ActionType = "execute"
	ActionAll     ActionType = "all"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionRead, ActionWrite, ActionExecute, ActionAll:
		return true
	}
	return false
}

// Action is an enumerated verb referenced by permissions. Actions are not
// tenant-scoped.
type Action struct {
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Type ActionType `json:"type"`
}

// Permission is a (resource, action) capability, granted to roles per tenant.
// Name is unique system-wide.
type Permission struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Resource       string    `json:"resource"`
	ActionID       int64     `json:"actionId"`
	CreateUser     int64     `json:"createUser"`
	LastUpdateUser int64     `json:"lastUpdateUser"`
	CreateDate     time.Time `json:"createDate"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

// Filter expresses an optional-predicate search over permissions.
type Filter struct {
	Name     string
	Resource string
	ActionID *int64
	Opts     shared.FilterOptions
}
