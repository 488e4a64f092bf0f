package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/heliostack/solwallet/internal/log"
)

// DefaultPollInterval is how often Confirm checks signature status.
const DefaultPollInterval = 500 * time.Millisecond

// RPCClient implements Client on top of a Solana JSON-RPC endpoint.
type RPCClient struct {
	rpc          *rpc.Client
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	log          zerolog.Logger
}

// New creates an RPC-backed ledger client with confirmed commitment
// and the default poll interval.
func New(endpoint string) *RPCClient {
	return NewWithOptions(endpoint, rpc.CommitmentConfirmed, DefaultPollInterval)
}

// NewWithOptions creates an RPC-backed ledger client with an explicit
// commitment level and confirmation poll interval.
func NewWithOptions(endpoint string, commitment rpc.CommitmentType, pollInterval time.Duration) *RPCClient {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &RPCClient{
		rpc:          rpc.New(endpoint),
		commitment:   commitment,
		pollInterval: pollInterval,
		log:          log.Ledger,
	}
}

// Balance implements Client.
func (c *RPCClient) Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("getBalance: %w", err)
	}
	return out.Value, nil
}

// LatestLease implements Client.
func (c *RPCClient) LatestLease(ctx context.Context) (Lease, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return Lease{}, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	if out.Value == nil {
		return Lease{}, fmt.Errorf("getLatestBlockhash: empty response")
	}
	return Lease{
		Blockhash:       out.Value.Blockhash,
		LastValidHeight: out.Value.LastValidBlockHeight,
	}, nil
}

// Broadcast implements Client.
func (c *RPCClient) Broadcast(ctx context.Context, signedTx []byte) (solana.Signature, error) {
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, signedTx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction: %w", err)
	}
	return sig, nil
}

// Confirm implements Client. It polls signature status and block
// height until the signature lands, the ledger rejects it, or the
// lease's height window closes. Transient RPC errors do not abort the
// loop; the lease (and ctx) bound it.
func (c *RPCClient) Confirm(ctx context.Context, sig solana.Signature, lease Lease) (Status, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, done, err := c.checkSignature(ctx, sig)
		if done {
			return status, err
		}

		height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
		if err != nil {
			c.log.Debug().Err(err).Msg("getBlockHeight failed, retrying")
		} else if height > lease.LastValidHeight {
			return StatusExpired, ErrLeaseExpired
		}

		select {
		case <-ctx.Done():
			return StatusPending, ctx.Err()
		case <-ticker.C:
		}
	}
}

// checkSignature performs one status poll. done is true when a
// terminal status was reached.
func (c *RPCClient) checkSignature(ctx context.Context, sig solana.Signature) (Status, bool, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		c.log.Debug().Err(err).Msg("getSignatureStatuses failed, retrying")
		return StatusPending, false, nil
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return StatusPending, false, nil
	}

	st := out.Value[0]
	if st.Err != nil {
		return StatusFailed, true, fmt.Errorf("transaction rejected: %v", st.Err)
	}
	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return StatusConfirmed, true, nil
	case rpc.ConfirmationStatusConfirmed:
		if c.commitment != rpc.CommitmentFinalized {
			return StatusConfirmed, true, nil
		}
	}
	return StatusPending, false, nil
}
