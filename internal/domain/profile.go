package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile is the display projection of an identity and its wallet.
// Block flags are written in the same atomic unit as their source;
// Balance is synced after commit and may lag.
type Profile struct {
	IdentityID    string
	IsBlocked     bool
	WalletBlocked bool
	Balance       decimal.Decimal
	UpdatedAt     time.Time
}

// Drift lists the fields where p disagrees with its sources.
func (p *Profile) Drift(identity *Identity, wallet *Wallet) []string {
	var fields []string
	if identity != nil && p.IsBlocked != identity.IsBlocked {
		fields = append(fields, "is_blocked")
	}
	if wallet != nil {
		if p.WalletBlocked != wallet.IsBlocked {
			fields = append(fields, "wallet_blocked")
		}
		if !p.Balance.Equal(wallet.Balance) {
			fields = append(fields, "balance")
		}
	}
	return fields
}
