package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BIP-44 derivation path constants for Solana.
// Full path: m/44'/501'/account'/0' with every level hardened,
// as required by SLIP-0010 for the ed25519 curve.
const (
	// PurposeBIP44 is the BIP-44 purpose field.
	PurposeBIP44 = 44

	// CoinTypeSolana is the registered SLIP-0044 coin type for Solana.
	CoinTypeSolana = 501

	// hardenedOffset marks a child index as hardened.
	hardenedOffset = uint32(0x80000000)
)

// slip10Key is the HMAC key that seeds the ed25519 SLIP-0010 tree.
var slip10Key = []byte("ed25519 seed")

// ErrDerivation is returned when a keypair cannot be derived, either
// because the seed is malformed or the index falls outside the
// hardened-index space.
var ErrDerivation = errors.New("key derivation failed")

// Account is one derived wallet: an index under the active mnemonic
// plus its ed25519 keypair. Key material is immutable once derived;
// the private key must only be read for signing.
type Account struct {
	Index      uint32
	PublicKey  solana.PublicKey
	PrivateKey solana.PrivateKey
}

// DerivationPath returns the literal path for an account index,
// e.g. "m/44'/501'/0'/0'".
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'/0'", CoinTypeSolana, index)
}

// DeriveAccount derives the keypair at m/44'/501'/index'/0' from a
// BIP-39 seed using SLIP-0010 for ed25519. Deterministic: the same
// (seed, index) always yields the same keypair.
func DeriveAccount(seed []byte, index uint32) (Account, error) {
	if len(seed) != SeedSize {
		return Account{}, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrDerivation, SeedSize, len(seed))
	}
	if index >= hardenedOffset {
		return Account{}, fmt.Errorf("%w: index %d outside hardened space", ErrDerivation, index)
	}

	key, chain := slip10Master(seed)
	for _, level := range []uint32{PurposeBIP44, CoinTypeSolana, index, 0} {
		key, chain = slip10Child(key, chain, hardenedOffset+level)
	}

	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(key))
	ZeroSeed(key)
	ZeroSeed(chain)

	return Account{
		Index:      index,
		PublicKey:  priv.PublicKey(),
		PrivateKey: priv,
	}, nil
}

// slip10Master computes the SLIP-0010 master key and chain code.
func slip10Master(seed []byte) (key, chain []byte) {
	mac := hmac.New(sha512.New, slip10Key)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// slip10Child derives one hardened child. ed25519 SLIP-0010 only
// supports hardened derivation, so the data is always
// 0x00 || parent_key || index.
func slip10Child(key, chain []byte, index uint32) (childKey, childChain []byte) {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
