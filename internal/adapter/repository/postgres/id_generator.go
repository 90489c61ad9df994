package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues wallet, identity and ledger record IDs. ULIDs sort
// by creation time, which keeps history pages index-ordered.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID string.
func (ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
