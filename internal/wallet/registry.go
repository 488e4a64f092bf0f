package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

// Registry errors.
var (
	// ErrNoActiveSeed is returned when a derived account is requested
	// before any mnemonic has been created or restored.
	ErrNoActiveSeed = errors.New("no active seed")

	// ErrUnknownWallet is returned when selecting a public key that is
	// not in the registry.
	ErrUnknownWallet = errors.New("unknown wallet")
)

// Registry owns the ordered set of accounts derived from one mnemonic
// and the currently selected account. Indices are assigned
// sequentially from 0, one per entry, never reused or skipped.
//
// Every mutation is pushed to the persistence store so state survives
// restarts. Save failures are logged, not returned: persistence is
// fire-and-forget from the caller's point of view.
type Registry struct {
	mu       sync.Mutex
	mnemonic string
	accounts []Account
	selected solana.PublicKey

	store Store
	log   zerolog.Logger
}

// NewRegistry creates an empty registry backed by the given store.
func NewRegistry(store Store, log zerolog.Logger) *Registry {
	return &Registry{store: store, log: log}
}

// Restore loads previously persisted state, if any. A missing or empty
// snapshot leaves the registry empty without error.
func (r *Registry) Restore() error {
	snap, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("load wallet state: %w", err)
	}
	if snap == nil || snap.Mnemonic == "" {
		return nil
	}

	accounts := make([]Account, 0, len(snap.Wallets))
	for _, rec := range snap.Wallets {
		acct, err := rec.account()
		if err != nil {
			return fmt.Errorf("restore wallet %d: %w", rec.Index, err)
		}
		accounts = append(accounts, acct)
	}

	var selected solana.PublicKey
	if snap.SelectedWallet != "" {
		selected, err = solana.PublicKeyFromBase58(snap.SelectedWallet)
		if err != nil {
			return fmt.Errorf("restore selected wallet: %w", err)
		}
	} else if len(accounts) > 0 {
		selected = accounts[0].PublicKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mnemonic = snap.Mnemonic
	r.accounts = accounts
	r.selected = selected
	r.log.Debug().Int("accounts", len(accounts)).Msg("wallet state restored")
	return nil
}

// CreateFirst resets the registry to a single account at index 0
// derived from the given phrase and selects it. An empty phrase causes
// a fresh mnemonic to be generated.
func (r *Registry) CreateFirst(phrase string) (Account, error) {
	mnemonic, err := AcceptMnemonic(phrase)
	if err != nil {
		return Account{}, err
	}

	acct, err := deriveFromMnemonic(mnemonic, 0)
	if err != nil {
		return Account{}, err
	}

	r.mu.Lock()
	r.mnemonic = mnemonic
	r.accounts = []Account{acct}
	r.selected = acct.PublicKey
	r.mu.Unlock()

	r.persist()
	r.log.Info().Uint32("index", 0).Str("pubkey", acct.PublicKey.String()).Msg("wallet created")
	return acct, nil
}

// AddNext derives the account at index len(accounts) under the active
// mnemonic and appends it. Fails with ErrNoActiveSeed when no mnemonic
// is loaded.
func (r *Registry) AddNext() (Account, error) {
	r.mu.Lock()
	if r.mnemonic == "" {
		r.mu.Unlock()
		return Account{}, ErrNoActiveSeed
	}
	// Derivation happens under the lock so the index stays in step
	// with the account list.
	index := uint32(len(r.accounts))
	acct, err := deriveFromMnemonic(r.mnemonic, index)
	if err != nil {
		r.mu.Unlock()
		return Account{}, err
	}
	r.accounts = append(r.accounts, acct)
	r.mu.Unlock()

	r.persist()
	r.log.Info().Uint32("index", acct.Index).Str("pubkey", acct.PublicKey.String()).Msg("wallet added")
	return acct, nil
}

// Select makes the account with the given public key current. The
// registry is left untouched when the key is unknown.
func (r *Registry) Select(pubkey solana.PublicKey) error {
	r.mu.Lock()
	found := false
	for _, acct := range r.accounts {
		if acct.PublicKey.Equals(pubkey) {
			found = true
			break
		}
	}
	if !found {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWallet, pubkey)
	}
	r.selected = pubkey
	r.mu.Unlock()

	r.persist()
	return nil
}

// Current returns the selected account, or false when the registry is
// empty.
func (r *Registry) Current() (Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acct := range r.accounts {
		if acct.PublicKey.Equals(r.selected) {
			return acct, true
		}
	}
	return Account{}, false
}

// Accounts returns a copy of the account list in index order.
func (r *Registry) Accounts() []Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// Mnemonic returns the active phrase for explicit user-initiated
// reveal. Empty when no wallet has been created.
func (r *Registry) Mnemonic() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mnemonic
}

// Len returns the number of derived accounts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// persist snapshots current state into the store. Never skipped on a
// mutation; failures are logged without detail that could leak key
// material.
func (r *Registry) persist() {
	r.mu.Lock()
	snap := &Snapshot{
		Mnemonic: r.mnemonic,
		Wallets:  make([]WalletRecord, 0, len(r.accounts)),
	}
	if !r.selected.IsZero() {
		snap.SelectedWallet = r.selected.String()
	}
	for _, acct := range r.accounts {
		snap.Wallets = append(snap.Wallets, newWalletRecord(acct))
	}
	r.mu.Unlock()

	if err := r.store.Save(snap); err != nil {
		r.log.Error().Err(err).Msg("persist wallet state")
	}
}

// deriveFromMnemonic runs the full mnemonic → seed → keypair chain,
// wiping the intermediate seed before returning.
func deriveFromMnemonic(mnemonic string, index uint32) (Account, error) {
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return Account{}, err
	}
	defer ZeroSeed(seed)
	return DeriveAccount(seed, index)
}
