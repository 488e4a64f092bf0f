package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/heliostack/solwallet/internal/ledger"
	"github.com/heliostack/solwallet/internal/log"
)

// ErrBalanceUnavailable is returned when the ledger cannot answer a
// balance query, for any transport or response reason.
var ErrBalanceUnavailable = errors.New("balance unavailable")

// Oracle answers SOL balance queries. It is stateless between calls
// apart from a last-known-value cache, which exists only to feed the
// client-side spend guard. Cached values are advisory, never
// authoritative.
type Oracle struct {
	client ledger.Client
	log    zerolog.Logger

	mu        sync.Mutex
	lastKnown map[solana.PublicKey]decimal.Decimal
}

// NewOracle creates an oracle backed by the given ledger client.
func NewOracle(client ledger.Client) *Oracle {
	return &Oracle{
		client:    client,
		log:       log.Transfer,
		lastKnown: make(map[solana.PublicKey]decimal.Decimal),
	}
}

// FetchBalance issues one balance query and converts the result to
// SOL. It does not retry; callers re-invoke on selection change or an
// explicit refresh.
func (o *Oracle) FetchBalance(ctx context.Context, pubkey solana.PublicKey) (decimal.Decimal, error) {
	lamports, err := o.client.Balance(ctx, pubkey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrBalanceUnavailable, err)
	}
	sol := LamportsToSOL(lamports)

	o.mu.Lock()
	o.lastKnown[pubkey] = sol
	o.mu.Unlock()

	o.log.Debug().Str("pubkey", pubkey.String()).Str("sol", sol.String()).Msg("balance fetched")
	return sol, nil
}

// LastKnown returns the most recently fetched balance for a key, if
// any.
func (o *Oracle) LastKnown(pubkey solana.PublicKey) (decimal.Decimal, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sol, ok := o.lastKnown[pubkey]
	return sol, ok
}
