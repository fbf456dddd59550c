// Package authz decides whether an identity may perform an operation.
//
// Evaluate is a pure function of (actor, operation, target). Rules apply in
// this order:
//
//  1. operations that need a caller reject a nil actor with ErrUnauthenticated
//  2. admin-only operations reject non-admins with ErrForbidden
//  3. owner-gated operations reject a missing target with ErrNotFound
//  4. owner-gated operations reject non-admin non-owners with ErrForbidden
//
// Callers of owner-gated operations load the target first, so a missing
// record surfaces as not found to every authenticated caller.
package authz

import "github.com/travelplanner/catalog/internal/core/domain"

// Operation names an action subject to authorization.
type Operation string

const (
	ListDestinations  Operation = "destination.list"
	ReadDestination   Operation = "destination.read"
	CreateDestination Operation = "destination.create"
	UpdateDestination Operation = "destination.update"
	DeleteDestination Operation = "destination.delete"
	PromoteIdentity   Operation = "identity.promote"
	DemoteIdentity    Operation = "identity.demote"
	ChangePassword    Operation = "identity.change_password"
	ViewAdmin         Operation = "admin.view"
	ViewAudit         Operation = "admin.audit"
)

type rule struct {
	authenticated bool
	adminOnly     bool
	ownerGated    bool
}

var rules = map[Operation]rule{
	ListDestinations:  {},
	ReadDestination:   {},
	CreateDestination: {authenticated: true},
	UpdateDestination: {authenticated: true, ownerGated: true},
	DeleteDestination: {authenticated: true, ownerGated: true},
	PromoteIdentity:   {authenticated: true, adminOnly: true},
	DemoteIdentity:    {authenticated: true, adminOnly: true},
	ChangePassword:    {authenticated: true},
	ViewAdmin:         {authenticated: true, adminOnly: true},
	ViewAudit:         {authenticated: true, adminOnly: true},
}

// Decision is the outcome of Evaluate. Reason is nil when Allowed.
type Decision struct {
	Allowed bool
	Reason  error
}

// Err returns nil for an allowed decision and the denial reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason error) Decision { return Decision{Reason: reason} }

// Evaluate applies the rules for op. Unknown operations are denied.
func Evaluate(actor *domain.Identity, op Operation, target *domain.Destination) Decision {
	r, ok := rules[op]
	if !ok {
		return deny(domain.ErrForbidden)
	}
	if r.authenticated && actor == nil {
		return deny(domain.ErrUnauthenticated)
	}
	if r.adminOnly && !actor.IsAdmin() {
		return deny(domain.ErrForbidden)
	}
	if r.ownerGated {
		if target == nil {
			return deny(domain.ErrNotFound)
		}
		if !actor.IsAdmin() && (target.OwnerID == "" || target.OwnerID != actor.ID) {
			return deny(domain.ErrForbidden)
		}
	}
	return allow()
}

// RequiresAuthentication reports whether op needs an acting identity.
func RequiresAuthentication(op Operation) bool {
	return rules[op].authenticated
}

// OwnerGated reports whether op needs the target loaded before deciding.
func OwnerGated(op Operation) bool {
	return rules[op].ownerGated
}
