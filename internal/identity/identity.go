package identity

import "errors"

var (
	// ErrNotFound means no store holds the subject.
	ErrNotFound = errors.New("identity: not found")
	// ErrUpstreamUnavailable means a backing store could not be queried.
	// It must never be treated as ErrNotFound.
	ErrUpstreamUnavailable = errors.New("identity: upstream unavailable")
)

// UserType tags where an identity came from and drives role inference.
type UserType string

const (
	UserTypeRegistered           UserType = "registered"
	UserTypeMaintenanceDirectory UserType = "se_maintenance"
	UserTypeOperationsDirectory  UserType = "se_operations"
)

// Source names the store that satisfied a lookup.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceDirectory Source = "directory"
)

// Profile holds the display attributes shared by every identity shape.
// Code is the only identifier shared between the two stores.
type Profile struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Cargo string `json:"cargo,omitempty"`
}

// Identity is a closed union: Primary or Directory.
type Identity interface {
	Subject() string
	Info() Profile
	Type() UserType
	Source() Source
	sealed()
}

// Primary is a row of the permanent user store. Role and UserType are
// returned as stored; either may be empty.
type Primary struct {
	Profile
	Role     string
	UserType UserType
	// Secret is the stored login secret. It never leaves the process.
	Secret string
}

func (p Primary) Subject() string { return p.Code }
func (p Primary) Info() Profile { return p.Profile }
func (p Primary) Source() Source { return SourcePrimary }
func (Primary) sealed() {}

// Type reports the stored user type, defaulting to registered.
func (p Primary) Type() UserType {
	if p.UserType == "" {
		return UserTypeRegistered
	}
	return p.UserType
}

// Directory is synthesized from the read-only employee directory.
// It never carries a role or a secret.
type Directory struct {
	Profile
	CostCenter string
	HireDate   string
	PhotoURL   string
}

func (d Directory) Subject() string { return d.Code }
func (d Directory) Info() Profile { return d.Profile }
func (d Directory) Type() UserType { return UserTypeMaintenanceDirectory }
func (d Directory) Source() Source { return SourceDirectory }
func (Directory) sealed() {}
