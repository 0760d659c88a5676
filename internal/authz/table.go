// Package authz centralizes role-based route permissions and ownership
// checks.
//
// Role checks and ownership checks are deliberately separate predicates:
// the static table answers "may a landlord create properties" while the
// ownership evaluators answer "may this landlord edit that property". Route
// guards compose the two wherever a route exposes a single resource.
package authz

import (
	"sort"
	"strings"

	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/role"
)

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed bool
	Code    apperrors.Code
}

// Entry grants a route prefix to a set of roles.
type Entry struct {
	Prefix string
	Roles  []role.Role
}

// Table is the static route permission table, built once at process start
// and immutable afterwards.
//
// Lookup is longest-prefix: an entry for /properties also governs
// /properties/123/edit unless a longer entry matches. Routes with no
// matching entry are PUBLIC. This is an allow-list for protected resources,
// not a deny-all: a new protected route is open until it gains a table
// entry, so additions here must ship with the route.
type Table struct {
	entries []Entry
}

// NewTable builds a table with entries sorted for longest-prefix matching.
func NewTable(entries []Entry) Table {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return Table{entries: sorted}
}

// DefaultTable returns the production route permission table.
func DefaultTable() Table {
	return NewTable([]Entry{
		{Prefix: "/properties", Roles: []role.Role{role.Landlord}},
		{Prefix: "/tenancies", Roles: []role.Role{role.Landlord, role.Tenant}},
		{Prefix: "/tenders", Roles: []role.Role{role.Landlord, role.Contractor}},
		{Prefix: "/quotes", Roles: []role.Role{role.Landlord, role.Contractor}},
		{Prefix: "/reviews", Roles: []role.Role{role.Landlord, role.Tenant, role.Contractor}},
		// Invitation acceptance is addressed by token and stays public:
		// the invitee has no account role yet.
	})
}

// Match returns the longest-prefix entry governing the route, if any.
func (t Table) Match(routeID string) (Entry, bool) {
	route := strings.TrimSpace(routeID)
	for _, entry := range t.entries {
		if route == entry.Prefix || strings.HasPrefix(route, entry.Prefix+"/") {
			return entry, true
		}
	}
	return Entry{}, false
}

// RolesFor returns the permitted roles for a route. The second return
// value is false when the route is unregistered and therefore public.
func (t Table) RolesFor(routeID string) ([]role.Role, bool) {
	entry, ok := t.Match(routeID)
	if !ok {
		return nil, false
	}
	return entry.Roles, true
}

// CanAccess evaluates the role check for a route. It is total: any role
// value and any route string produce a decision, never a panic.
func (t Table) CanAccess(r role.Role, routeID string) Decision {
	entry, ok := t.Match(routeID)
	if !ok {
		return Decision{Allowed: true}
	}
	for _, permitted := range entry.Roles {
		if r == permitted {
			return Decision{Allowed: true}
		}
	}
	return Decision{Allowed: false, Code: apperrors.CodeRouteRoleNotPermitted}
}
