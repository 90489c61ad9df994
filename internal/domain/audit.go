package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for administrative actions
type AuditLog struct {
	ID           string
	ActorID      string      // Who performed the action
	Action       AuditAction // What action (wallet.block, identity.role, etc.)
	ResourceType string      // Type of resource (wallet, identity)
	ResourceID   string      // ID of the resource
	RequestID    string      // Request ID for tracing
	BeforeState  JSON        // State before the action
	AfterState   JSON        // State after the action
	Status       AuditStatus
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Wallet actions
	AuditActionWalletBlock   AuditAction = "wallet.block"
	AuditActionWalletUnblock AuditAction = "wallet.unblock"

	// Identity actions
	AuditActionIdentityCreate   AuditAction = "identity.create"
	AuditActionIdentityBlock    AuditAction = "identity.block"
	AuditActionIdentityUnblock  AuditAction = "identity.unblock"
	AuditActionIdentityRole     AuditAction = "identity.role"
	AuditActionIdentityApproval AuditAction = "identity.approval"

	// Maintenance actions
	AuditActionProfileRepair AuditAction = "profile.repair"
)

// Resource types
const (
	ResourceWallet   = "wallet"
	ResourceIdentity = "identity"
	ResourceProfile  = "profile"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	ActorID      string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
