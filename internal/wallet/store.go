package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// Snapshot is the persisted wallet state. Field names mirror the
// storage keys the wallet has always used, so existing state files
// keep working.
type Snapshot struct {
	Mnemonic       string         `json:"mnemonic"`
	Wallets        []WalletRecord `json:"wallets"`
	SelectedWallet string         `json:"selectedWallet"`
}

// WalletRecord is one persisted account: index plus base58-encoded
// keys. Private key material crosses the trust boundary here; the
// store (and whoever can read its medium) is trusted with it.
type WalletRecord struct {
	Index      uint32 `json:"index"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// newWalletRecord encodes an account for persistence.
func newWalletRecord(acct Account) WalletRecord {
	return WalletRecord{
		Index:      acct.Index,
		PublicKey:  acct.PublicKey.String(),
		PrivateKey: acct.PrivateKey.String(),
	}
}

// account decodes a persisted record back into a typed account,
// checking that the stored public key matches the private key.
func (rec WalletRecord) account() (Account, error) {
	priv, err := solana.PrivateKeyFromBase58(rec.PrivateKey)
	if err != nil {
		return Account{}, fmt.Errorf("decode private key: %w", err)
	}
	pub, err := solana.PublicKeyFromBase58(rec.PublicKey)
	if err != nil {
		return Account{}, fmt.Errorf("decode public key: %w", err)
	}
	if !priv.PublicKey().Equals(pub) {
		return Account{}, fmt.Errorf("public key does not match private key for index %d", rec.Index)
	}
	return Account{Index: rec.Index, PublicKey: pub, PrivateKey: priv}, nil
}

// Store is the persistence collaborator. Load is called once at
// startup; Save after every mutating registry operation.
type Store interface {
	// Load returns the last saved snapshot, or nil when nothing has
	// been saved yet.
	Load() (*Snapshot, error)
	// Save durably replaces the stored snapshot.
	Save(*Snapshot) error
}

// ErrBadPassphrase is returned when a sealed state file cannot be
// opened with the supplied passphrase.
var ErrBadPassphrase = errors.New("wrong passphrase")

// fileEnvelope is the on-disk format. Data holds the snapshot JSON,
// sealed with Argon2id + XChaCha20-Poly1305 when Sealed is true.
type fileEnvelope struct {
	Version int    `json:"version"`
	Sealed  bool   `json:"sealed"`
	Data    []byte `json:"data"`
}

const storeVersion = 1

// FileStore persists snapshots to a single JSON file with an atomic
// replace. With a non-empty passphrase the snapshot body is encrypted
// at rest.
type FileStore struct {
	path       string
	passphrase []byte
	params     SealParams
}

// NewFileStore creates a store writing to path. The parent directory
// is created if needed. passphrase may be empty for a plaintext file.
func NewFileStore(path string, passphrase []byte) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{
		path:       path,
		passphrase: passphrase,
		params:     DefaultSealParams(),
	}, nil
}

// Load implements Store. A missing file yields (nil, nil).
func (fs *FileStore) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	body := env.Data
	if env.Sealed {
		if len(fs.passphrase) == 0 {
			return nil, ErrBadPassphrase
		}
		body, err = Open(env.Data, fs.passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPassphrase, err)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save implements Store.
func (fs *FileStore) Save(snap *Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	env := fileEnvelope{Version: storeVersion, Data: body}
	if len(fs.passphrase) > 0 {
		sealed, err := Seal(body, fs.passphrase, fs.params)
		if err != nil {
			return fmt.Errorf("seal snapshot: %w", err)
		}
		env.Sealed = true
		env.Data = sealed
	}

	out, err := json.MarshalIndent(&env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	// Atomic replace so a crash mid-write never loses the old state.
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
