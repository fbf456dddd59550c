package domain

import "time"

// AuditAction names a recorded state change or rejection.
type AuditAction string

const (
	AuditRegister          AuditAction = "identity.register"
	AuditLogin             AuditAction = "session.login"
	AuditLoginFailed       AuditAction = "session.login_failed"
	AuditLogout            AuditAction = "session.logout"
	AuditPromote           AuditAction = "identity.promote"
	AuditDemote            AuditAction = "identity.demote"
	AuditPasswordChange    AuditAction = "identity.password_change"
	AuditBootstrapAdmin    AuditAction = "identity.bootstrap_admin"
	AuditDestinationCreate AuditAction = "destination.create"
	AuditDestinationUpdate AuditAction = "destination.update"
	AuditDestinationDelete AuditAction = "destination.delete"
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
)

// AuditEvent is an append-only record in the audit trail.
type AuditEvent struct {
	ID      string      `json:"id"`
	Action  AuditAction `json:"action"`
	ActorID string      `json:"actorId,omitempty"`
	Target  string      `json:"target,omitempty"`
	Outcome string      `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
	At      time.Time   `json:"at"`
}
