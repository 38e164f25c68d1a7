// Package domain holds the identifier and role types shared across components.
//
// Identities are opaque ledger addresses assigned by the surrounding
// transaction layer; the core never parses them beyond emptiness checks.
package domain

import (
	"strings"

	dErrors "pharmatrace/pkg/domain-errors"
)

// Actor is the ledger address of a caller (manufacturer, distributor,
// pharmacy, inspector, regulator, sensor feed).
type Actor string

// Unassigned is the sentinel holder for a batch with no confirmed custody.
const Unassigned Actor = ""

// IsZero reports whether the actor is the null identity.
func (a Actor) IsZero() bool { return strings.TrimSpace(string(a)) == "" }

// BatchID identifies a production lot across every component.
type BatchID string

func (b BatchID) IsZero() bool { return strings.TrimSpace(string(b)) == "" }

// ParseBatchID validates an externally supplied batch identifier.
func ParseBatchID(s string) (BatchID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "batch id must not be empty")
	}
	return BatchID(s), nil
}

// PrescriptionID identifies an issued prescription.
type PrescriptionID string

func (p PrescriptionID) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Role is a verified capability granted by the identity registries at the
// integration boundary. The core consults roles only where a component-local
// check does not apply.
type Role string

const (
	RoleOperator     Role = "operator"
	RoleManufacturer Role = "manufacturer"
	RoleDistributor  Role = "distributor"
	RolePharmacy     Role = "pharmacy"
	RoleDoctor       Role = "doctor"
	RoleRegulator    Role = "regulator"
)

// RoleSet is the caller's verified role collection, passed through context.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from a role list.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}
