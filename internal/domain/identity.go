package domain

import (
	"strings"
	"time"
)

// Role represents an identity's access level
type Role string

const (
	// RoleUser moves money on their own wallet
	RoleUser Role = "user"

	// RoleAgent performs cash-in and cash-out on behalf of users once approved
	RoleAgent Role = "agent"

	// RoleAdmin administers identities and wallets
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleUser:  true,
	RoleAgent: true,
	RoleAdmin: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// ParseRole normalises and validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewValidationError("role", "must be one of user, agent, admin")
	}
	return r, nil
}

// Approval is the agent approval state
type Approval string

const (
	ApprovalApproved  Approval = "approved"
	ApprovalSuspended Approval = "suspended"
)

// IsValid checks if the approval state is known
func (a Approval) IsValid() bool {
	return a == ApprovalApproved || a == ApprovalSuspended
}

// Principal is the resolved caller of an operation. It is one of
// UserPrincipal, AgentPrincipal or AdminPrincipal.
type Principal interface {
	Subject() string
	Role() Role
	isPrincipal()
}

// UserPrincipal is an end user.
type UserPrincipal struct {
	ID string
}

// AgentPrincipal is an agent; only agents carry an approval state.
type AgentPrincipal struct {
	ID       string
	Approval Approval
}

// AdminPrincipal is an administrator.
type AdminPrincipal struct {
	ID string
}

func (p UserPrincipal) Subject() string { return p.ID }
func (UserPrincipal) Role() Role        { return RoleUser }
func (UserPrincipal) isPrincipal()      {}

func (p AgentPrincipal) Subject() string { return p.ID }
func (AgentPrincipal) Role() Role        { return RoleAgent }
func (AgentPrincipal) isPrincipal()      {}

// Approved reports whether the agent may perform cash operations.
func (p AgentPrincipal) Approved() bool { return p.Approval == ApprovalApproved }

func (p AdminPrincipal) Subject() string { return p.ID }
func (AdminPrincipal) Role() Role        { return RoleAdmin }
func (AdminPrincipal) isPrincipal()      {}

// NewPrincipal builds the principal variant for role. Approval is only
// meaningful for agents and defaults to suspended.
func NewPrincipal(id string, role Role, approval Approval) (Principal, error) {
	if id == "" {
		return nil, NewValidationError("id", "is required")
	}

	switch role {
	case RoleUser:
		return UserPrincipal{ID: id}, nil
	case RoleAgent:
		if approval == "" {
			approval = ApprovalSuspended
		}
		if !approval.IsValid() {
			return nil, NewValidationError("approval", "must be approved or suspended")
		}
		return AgentPrincipal{ID: id, Approval: approval}, nil
	case RoleAdmin:
		return AdminPrincipal{ID: id}, nil
	default:
		return nil, NewValidationError("role", "must be one of user, agent, admin")
	}
}

// ApprovalOf returns the approval state when p is an agent.
func ApprovalOf(p Principal) (Approval, bool) {
	if a, ok := p.(AgentPrincipal); ok {
		return a.Approval, true
	}
	return "", false
}

// IsAdmin reports whether p is an administrator.
func IsAdmin(p Principal) bool {
	_, ok := p.(AdminPrincipal)
	return ok
}

// Identity is a stored account holder.
type Identity struct {
	ID        string
	Name      string
	Email     string
	Principal Principal
	IsBlocked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role returns the identity's role.
func (i *Identity) Role() Role {
	if i.Principal == nil {
		return ""
	}
	return i.Principal.Role()
}

// Approval returns the agent approval state, empty for non-agents.
func (i *Identity) Approval() Approval {
	a, _ := ApprovalOf(i.Principal)
	return a
}

// ToggledRole returns the principal after switching between user and
// agent. A new agent starts suspended and a demoted agent loses approval.
func (i *Identity) ToggledRole() (Principal, error) {
	switch i.Principal.(type) {
	case UserPrincipal:
		return AgentPrincipal{ID: i.ID, Approval: ApprovalSuspended}, nil
	case AgentPrincipal:
		return UserPrincipal{ID: i.ID}, nil
	default:
		return nil, ErrCannotActOnAdmin
	}
}

// ToggledApproval flips an agent between approved and suspended.
func (i *Identity) ToggledApproval() (Principal, error) {
	agent, ok := i.Principal.(AgentPrincipal)
	if !ok {
		return nil, ErrAgentNotFound
	}
	if agent.Approved() {
		agent.Approval = ApprovalSuspended
	} else {
		agent.Approval = ApprovalApproved
	}
	return agent, nil
}
