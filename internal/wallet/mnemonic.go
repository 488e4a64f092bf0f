// Package wallet implements deterministic key derivation and account
// management for a Solana HD wallet.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the entropy size for 12-word mnemonics.
const MnemonicEntropyBits = 128

// ErrInvalidMnemonic is returned when a supplied phrase fails BIP-39
// validation (word count, wordlist membership, or checksum).
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic creates a new 12-word BIP-39 mnemonic from a
// cryptographically secure entropy source.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// AcceptMnemonic normalizes and validates a user-supplied phrase.
// An empty (or whitespace-only) input produces a freshly generated
// mnemonic instead.
func AcceptMnemonic(input string) (string, error) {
	trimmed := strings.Join(strings.Fields(input), " ")
	if trimmed == "" {
		return GenerateMnemonic()
	}
	if !ValidateMnemonic(trimmed) {
		return "", ErrInvalidMnemonic
	}
	return trimmed, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}
