package domain

import "fmt"

// Operation names an action checked by the policy gate.
type Operation string

const (
	OpTopUp          Operation = "top_up"
	OpWithdraw       Operation = "withdraw"
	OpSend           Operation = "send"
	OpCashIn         Operation = "cash_in"
	OpCashOut        Operation = "cash_out"
	OpViewOwn        Operation = "view_own"
	OpViewAny        Operation = "view_any"
	OpBlockWallet    Operation = "block_wallet"
	OpBlockIdentity  Operation = "block_identity"
	OpToggleRole     Operation = "toggle_role"
	OpToggleApproval Operation = "toggle_approval"
	OpListIdentities Operation = "list_identities"
	OpCreateIdentity Operation = "create_identity"
	OpReconcile      Operation = "reconcile"
)

var userOps = map[Operation]bool{
	OpTopUp:    true,
	OpWithdraw: true,
	OpSend:     true,
	OpViewOwn:  true,
}

var agentCashOps = map[Operation]bool{
	OpCashIn:  true,
	OpCashOut: true,
}

var adminOps = map[Operation]bool{
	OpViewOwn:        true,
	OpViewAny:        true,
	OpBlockWallet:    true,
	OpBlockIdentity:  true,
	OpToggleRole:     true,
	OpToggleApproval: true,
	OpListIdentities: true,
	OpCreateIdentity: true,
	OpReconcile:      true,
}

// CanPerform decides whether p may run op. It has no side effects.
func CanPerform(p Principal, op Operation) error {
	switch p := p.(type) {
	case UserPrincipal:
		if userOps[op] {
			return nil
		}
	case AgentPrincipal:
		if op == OpViewOwn {
			return nil
		}
		if agentCashOps[op] {
			if !p.Approved() {
				return ErrAgentNotApproved
			}
			return nil
		}
	case AdminPrincipal:
		if adminOps[op] {
			return nil
		}
	case nil:
		return ErrUnauthorized
	}

	return fmt.Errorf("%w: %s", ErrOperationNotPermit, op)
}

// CanActOn checks administrative mutations against a target identity.
// No admin may block or change the role of another admin.
func CanActOn(actor, target Principal) error {
	if !IsAdmin(actor) {
		return ErrOperationNotPermit
	}
	if IsAdmin(target) {
		return ErrCannotActOnAdmin
	}
	return nil
}
