// Package transfer implements the SOL transfer pipeline and the
// balance oracle on top of the ledger client.
package transfer

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the fixed conversion between the ledger's base
// unit and the display unit. Not configurable.
const LamportsPerSOL = 1_000_000_000

// ErrInvalidAmount is returned for transfer amounts that are not
// strictly positive, or that truncate to zero lamports.
var ErrInvalidAmount = errors.New("invalid amount")

// SOLToLamports converts a SOL amount to lamports, truncating any
// fraction of a lamport. Truncation never rounds up, so a conversion
// can never overspend. Amounts that are not positive, or that come out
// as zero lamports, are rejected.
func SOLToLamports(amount decimal.Decimal) (uint64, error) {
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	lamports := amount.Shift(9).Truncate(0)
	if lamports.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %s SOL is below one lamport", ErrInvalidAmount, amount)
	}
	bi := lamports.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s SOL does not fit in a lamport amount", ErrInvalidAmount, amount)
	}
	return bi.Uint64(), nil
}

// LamportsToSOL converts a lamport balance to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-9)
}
