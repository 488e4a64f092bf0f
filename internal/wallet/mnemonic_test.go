package wallet

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}

	words := strings.Fields(mnemonic)
	if len(words) != 12 {
		t.Errorf("word count = %d, want 12", len(words))
	}

	if !ValidateMnemonic(mnemonic) {
		t.Error("generated mnemonic should validate")
	}
}

func TestGenerateMnemonic_Unique(t *testing.T) {
	m1, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	m2, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}

	if m1 == m2 {
		t.Error("two generated mnemonics should not be identical")
	}
}

func TestAcceptMnemonic(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "valid phrase passes through",
			input: "test test test test test test test test test test test junk",
			want:  "test test test test test test test test test test test junk",
		},
		{
			name:  "whitespace is normalized",
			input: "  test test test test\ttest test test test test test test junk  ",
			want:  "test test test test test test test test test test test junk",
		},
		{
			name:    "bad checksum rejected",
			input:   "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
			wantErr: true,
		},
		{
			name:    "random words rejected",
			input:   "definitely not a mnemonic",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AcceptMnemonic(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMnemonic) {
					t.Fatalf("AcceptMnemonic() error = %v, want ErrInvalidMnemonic", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AcceptMnemonic() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AcceptMnemonic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAcceptMnemonic_EmptyGenerates(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		mnemonic, err := AcceptMnemonic(input)
		if err != nil {
			t.Fatalf("AcceptMnemonic(%q) error: %v", input, err)
		}
		if !ValidateMnemonic(mnemonic) {
			t.Errorf("AcceptMnemonic(%q) produced invalid mnemonic", input)
		}
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{
			name:     "valid 12-word BIP-39",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
			valid:    true,
		},
		{
			name:     "valid 24-word BIP-39",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
			valid:    true,
		},
		{
			name:     "empty string",
			mnemonic: "",
			valid:    false,
		},
		{
			name:     "random words",
			mnemonic: "not a valid mnemonic phrase at all",
			valid:    false,
		},
		{
			name:     "wrong checksum",
			mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
			valid:    false,
		},
		{
			name:     "single word",
			mnemonic: "abandon",
			valid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.mnemonic); got != tt.valid {
				t.Errorf("ValidateMnemonic() = %v, want %v", got, tt.valid)
			}
		})
	}
}
