package authz

import (
	"strings"

	"github.com/aarons2222/letlog/internal/job"
	"github.com/aarons2222/letlog/internal/storage"
	"github.com/aarons2222/letlog/internal/tenancy"
)

// Ownership predicates are pure over loaded records. They answer the
// data-dependent half of an authorization question; the role table answers
// the other half.

// OwnsProperty reports whether the user is the property's landlord.
func OwnsProperty(userID string, p storage.Property) bool {
	return nonEmpty(userID) && userID == p.LandlordID
}

// OwnsTenancy reports whether the user is the landlord behind the
// tenancy's property.
func OwnsTenancy(userID string, t tenancy.Tenancy) bool {
	return nonEmpty(userID) && userID == t.LandlordID
}

// TenantOnTenancy reports whether the user is the lead or a secondary
// tenant on the tenancy.
func TenantOnTenancy(userID string, t tenancy.Tenancy) bool {
	if !nonEmpty(userID) {
		return false
	}
	if userID == t.LeadTenantID {
		return true
	}
	for _, tenantID := range t.SecondaryTenantIDs {
		if userID == tenantID {
			return true
		}
	}
	return false
}

// PartyToJob reports whether the user is the landlord or contractor on the
// job.
func PartyToJob(userID string, j job.Job) bool {
	return nonEmpty(userID) && (userID == j.LandlordID || userID == j.ContractorID)
}

func nonEmpty(userID string) bool {
	return strings.TrimSpace(userID) != ""
}
