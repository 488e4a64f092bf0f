package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/heliostack/solwallet/internal/ledger"
	"github.com/heliostack/solwallet/internal/log"
	"github.com/heliostack/solwallet/internal/wallet"
)

// Pipeline errors.
var (
	// ErrInvalidAddress is returned when the recipient is not a
	// well-formed base58 Solana address.
	ErrInvalidAddress = errors.New("invalid recipient address")

	// ErrInsufficientBalance is returned when the amount exceeds the
	// sender's balance. Client-side guard only, not a consensus
	// guarantee.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransactionExpired is returned when the blockhash lease's
	// height window closed before confirmation.
	ErrTransactionExpired = errors.New("transaction expired")

	// ErrTransactionFailed covers broadcast-time or confirmation-time
	// rejection for any other reason.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrSubmitInFlight is returned when a submission is attempted
	// while another is still pending on the same pipeline.
	ErrSubmitInFlight = errors.New("a submission is already in flight")
)

// Request describes one SOL transfer.
type Request struct {
	From      wallet.Account
	ToAddress string
	// Amount is in SOL (major units).
	Amount decimal.Decimal
}

// Record tracks one broadcast attempt. It is created when the signed
// transaction leaves for the ledger and resolves to Confirmed, Failed,
// or Expired.
type Record struct {
	Signature solana.Signature
	Status    ledger.Status
}

// Pipeline builds, signs, broadcasts, and confirms single-transfer
// transactions. One Submit call is one attempt; it never retries.
// Resubmitting after a failure is the caller's decision and must use a
// fresh blockhash lease, which Submit does by construction.
type Pipeline struct {
	client     ledger.Client
	oracle     *Oracle
	revalidate bool
	inFlight   atomic.Bool
	log        zerolog.Logger
}

// NewPipeline creates a pipeline. When oracle is non-nil the sender's
// balance is re-fetched inside Submit before broadcast, so a stale
// cached balance cannot slip an overspend past the guard.
func NewPipeline(client ledger.Client, oracle *Oracle) *Pipeline {
	return &Pipeline{
		client:     client,
		oracle:     oracle,
		revalidate: oracle != nil,
		log:        log.Transfer,
	}
}

// Submit runs one transfer attempt:
// validate → convert → build → attach blockhash → sign → broadcast →
// confirm. Validation failures surface before any network call.
//
// Once the transaction has been broadcast, a Record is always returned
// alongside any error: the ledger may have applied the transfer even
// when confirmation did not resolve cleanly, so callers should
// re-check the balance rather than assume either outcome.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*Record, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer p.inFlight.Store(false)

	lamports, err := SOLToLamports(req.Amount)
	if err != nil {
		return nil, err
	}

	to, err := parseAddress(req.ToAddress)
	if err != nil {
		return nil, err
	}

	// Advisory guard against the last fetched balance, before any
	// network round trip.
	if p.oracle != nil {
		if known, ok := p.oracle.LastKnown(req.From.PublicKey); ok && req.Amount.GreaterThan(known) {
			return nil, fmt.Errorf("%w: %s SOL exceeds last known balance %s", ErrInsufficientBalance, req.Amount, known)
		}
	}

	// Fresh re-validation closes the stale-balance race.
	if p.revalidate {
		balance, err := p.client.Balance(ctx, req.From.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBalanceUnavailable, err)
		}
		if lamports > balance {
			return nil, fmt.Errorf("%w: %d lamports exceeds balance %d", ErrInsufficientBalance, lamports, balance)
		}
	}

	lease, err := p.client.LatestLease(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash lease: %w", err)
	}

	raw, err := buildSignedTransfer(req.From, to, lamports, lease)
	if err != nil {
		return nil, err
	}

	sig, err := p.client.Broadcast(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	rec := &Record{Signature: sig, Status: ledger.StatusPending}
	p.log.Info().
		Str("signature", sig.String()).
		Uint64("lamports", lamports).
		Uint64("last_valid_height", lease.LastValidHeight).
		Msg("transaction broadcast")

	// The transaction is irrevocably out. Confirmation is bound to the
	// lease, not to the caller's cancellation: tearing down the caller
	// must not suppress the outcome.
	status, err := p.client.Confirm(context.WithoutCancel(ctx), sig, lease)
	rec.Status = status

	switch status {
	case ledger.StatusConfirmed:
		p.log.Info().Str("signature", sig.String()).Msg("transaction confirmed")
		return rec, nil
	case ledger.StatusExpired:
		return rec, fmt.Errorf("%w: lease height %d passed", ErrTransactionExpired, lease.LastValidHeight)
	default:
		return rec, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
}

// parseAddress validates a recipient address.
func parseAddress(addr string) (solana.PublicKey, error) {
	pub, err := solana.PublicKeyFromBase58(strings.TrimSpace(addr))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return pub, nil
}

// buildSignedTransfer constructs and signs a system-program transfer.
// The private key is only touched inside the signing callback.
func buildSignedTransfer(from wallet.Account, to solana.PublicKey, lamports uint64, lease ledger.Lease) ([]byte, error) {
	ix := system.NewTransferInstruction(lamports, from.PublicKey, to).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		lease.Blockhash,
		solana.TransactionPayer(from.PublicKey),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey) {
			return &from.PrivateKey
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	return raw, nil
}
