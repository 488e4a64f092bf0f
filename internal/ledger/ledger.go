// Package ledger abstracts the remote Solana RPC node the wallet
// talks to for balances, blockhashes, broadcast, and confirmation.
package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Lease is a recent blockhash plus the last block height at which a
// transaction carrying it is still valid. A transaction must be
// broadcast and confirmed before the ledger passes LastValidHeight.
type Lease struct {
	Blockhash       solana.Hash
	LastValidHeight uint64
}

// Status is the terminal state the ledger reports for a signature.
type Status int

const (
	// StatusPending means the signature is not yet at the requested
	// commitment level.
	StatusPending Status = iota
	// StatusConfirmed means the transaction reached the requested
	// commitment level.
	StatusConfirmed
	// StatusFailed means the ledger processed and rejected the
	// transaction.
	StatusFailed
	// StatusExpired means the lease's height passed without the
	// transaction landing.
	StatusExpired
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ErrLeaseExpired is returned by Confirm when the lease's
// LastValidHeight passes without the signature reaching a terminal
// status.
var ErrLeaseExpired = errors.New("blockhash lease expired")

// Client is the wallet's view of the remote ledger. One configured
// endpoint, no retry policy: retrying is the caller's decision.
type Client interface {
	// Balance returns the lamport balance of an account.
	Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)

	// LatestLease fetches the current blockhash and its expiry height.
	LatestLease(ctx context.Context) (Lease, error)

	// Broadcast submits a fully signed, serialized transaction and
	// returns its signature.
	Broadcast(ctx context.Context, signedTx []byte) (solana.Signature, error)

	// Confirm blocks until the signature reaches a terminal status or
	// the lease's height window closes. It returns ErrLeaseExpired
	// together with StatusExpired when the window closes first.
	Confirm(ctx context.Context, sig solana.Signature, lease Lease) (Status, error)
}
