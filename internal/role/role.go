// Package role defines the closed set of account roles.
//
// Roles are parsed once at the boundary where a profile or identity token is
// loaded. There is deliberately no fallback default: an unrecognized or
// missing role is an error, never silently treated as a landlord.
package role

import (
	"strings"

	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
)

// Role identifies what kind of account a user holds.
type Role int

const (
	// Unspecified represents an invalid role value.
	Unspecified Role = iota
	// Landlord owns properties and issues tenant invitations.
	Landlord
	// Tenant occupies a property under a tenancy.
	Tenant
	// Contractor bids on and completes landlord tenders.
	Contractor
)

// String returns the stable lowercase label for the role.
func (r Role) String() string {
	switch r {
	case Landlord:
		return "landlord"
	case Tenant:
		return "tenant"
	case Contractor:
		return "contractor"
	default:
		return "unspecified"
	}
}

// IsValid reports whether the role is one of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case Landlord, Tenant, Contractor:
		return true
	default:
		return false
	}
}

// Parse maps a stored or transmitted label to a Role.
// Unknown labels return Unspecified with a ROLE_INVALID error.
func Parse(label string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "landlord":
		return Landlord, nil
	case "tenant":
		return Tenant, nil
	case "contractor":
		return Contractor, nil
	default:
		return Unspecified, apperrors.WithMetadata(
			apperrors.CodeRoleInvalid,
			"unknown role label",
			map[string]string{"Role": strings.TrimSpace(label)},
		)
	}
}
