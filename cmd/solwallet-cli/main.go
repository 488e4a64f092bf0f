// solwallet-cli is a command-line Solana HD wallet: it derives
// accounts from a BIP-39 mnemonic, shows balances, and sends SOL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/heliostack/solwallet/config"
	"github.com/heliostack/solwallet/internal/ledger"
	"github.com/heliostack/solwallet/internal/log"
	"github.com/heliostack/solwallet/internal/transfer"
	"github.com/heliostack/solwallet/internal/wallet"
)

func main() {
	cfg := config.Default()

	fs := flag.NewFlagSet("solwallet-cli", flag.ExitOnError)
	config.BindFlags(fs, cfg)
	encrypted := fs.Bool("encrypted", false, "Seal the wallet state file with a passphrase")
	fs.Usage = usage
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration: %v", err)
	}
	log.Init(cfg.Log.Level, cfg.Log.JSON)

	args := fs.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var passphrase []byte
	if *encrypted {
		passphrase = readPassphrase("Wallet passphrase: ")
	}

	store, err := wallet.NewFileStore(cfg.StateFile(), passphrase)
	if err != nil {
		fatal("open wallet store: %v", err)
	}
	registry := wallet.NewRegistry(store, log.Wallet)
	if err := registry.Restore(); err != nil {
		fatal("restore wallet: %v", err)
	}

	client := ledger.NewWithOptions(cfg.Endpoint, rpc.CommitmentType(cfg.Commitment), cfg.ConfirmPollInterval)
	oracle := transfer.NewOracle(client)

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "wallet":
		cmdWallet(registry, cmdArgs)
	case "balance":
		cmdBalance(registry, oracle, cmdArgs)
	case "send":
		cmdSend(registry, oracle, client, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func cmdWallet(registry *wallet.Registry, args []string) {
	if len(args) == 0 {
		fatal("Usage: solwallet-cli wallet <create|add|list|select|reveal> [args]")
	}
	switch args[0] {
	case "create":
		// Any remaining args form an optional seed phrase.
		phrase := strings.Join(args[1:], " ")
		acct, err := registry.CreateFirst(phrase)
		if err != nil {
			fatal("create wallet: %v", err)
		}
		fmt.Printf("Wallet 0: %s\n", acct.PublicKey)
		if phrase == "" {
			fmt.Println("\nSeed phrase (write it down, it is shown once):")
			fmt.Printf("  %s\n", registry.Mnemonic())
		}
	case "add":
		acct, err := registry.AddNext()
		if err != nil {
			fatal("add wallet: %v", err)
		}
		fmt.Printf("Wallet %d: %s\n", acct.Index, acct.PublicKey)
	case "list":
		accounts := registry.Accounts()
		if len(accounts) == 0 {
			fmt.Println("No wallets. Run: solwallet-cli wallet create")
			return
		}
		current, _ := registry.Current()
		for _, acct := range accounts {
			marker := " "
			if acct.PublicKey.Equals(current.PublicKey) {
				marker = "*"
			}
			fmt.Printf("%s Wallet %d: %s\n", marker, acct.Index, acct.PublicKey)
		}
	case "select":
		if len(args) < 2 {
			fatal("Usage: solwallet-cli wallet select <pubkey>")
		}
		pub, err := solana.PublicKeyFromBase58(args[1])
		if err != nil {
			fatal("bad public key: %v", err)
		}
		if err := registry.Select(pub); err != nil {
			fatal("select wallet: %v", err)
		}
		fmt.Printf("Selected %s\n", pub)
	case "reveal":
		mnemonic := registry.Mnemonic()
		if mnemonic == "" {
			fatal("no wallet created yet")
		}
		fmt.Println("Never share your seed phrase with anyone.")
		fmt.Println(mnemonic)
	default:
		fatal("unknown wallet subcommand %q", args[0])
	}
}

func cmdBalance(registry *wallet.Registry, oracle *transfer.Oracle, args []string) {
	var pub solana.PublicKey
	if len(args) > 0 {
		var err error
		pub, err = solana.PublicKeyFromBase58(args[0])
		if err != nil {
			fatal("bad public key: %v", err)
		}
	} else {
		acct, ok := registry.Current()
		if !ok {
			fatal("no wallet selected; run: solwallet-cli wallet create")
		}
		pub = acct.PublicKey
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sol, err := oracle.FetchBalance(ctx, pub)
	if err != nil {
		fatal("fetch balance: %v", err)
	}
	fmt.Printf("%s SOL\n", sol)
}

func cmdSend(registry *wallet.Registry, oracle *transfer.Oracle, client ledger.Client, args []string) {
	if len(args) < 2 {
		fatal("Usage: solwallet-cli send <to-address> <amount-sol>")
	}

	acct, ok := registry.Current()
	if !ok {
		fatal("no wallet selected; run: solwallet-cli wallet create")
	}

	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		fatal("bad amount %q: %v", args[1], err)
	}

	ctx := context.Background()

	// Populate the spend guard before submitting.
	if _, err := oracle.FetchBalance(ctx, acct.PublicKey); err != nil {
		fatal("fetch balance: %v", err)
	}

	pipeline := transfer.NewPipeline(client, oracle)
	rec, err := pipeline.Submit(ctx, transfer.Request{
		From:      acct,
		ToAddress: args[0],
		Amount:    amount,
	})
	if err != nil {
		if rec != nil {
			// Broadcast happened; the outcome is not a clean success.
			fatal("send: %v\n  signature: %s\n  status: %s\n  re-check the balance before retrying", err, rec.Signature, rec.Status)
		}
		fatal("send: %v", err)
	}

	fmt.Printf("Confirmed: %s\n", rec.Signature)

	if sol, err := oracle.FetchBalance(ctx, acct.PublicKey); err == nil {
		fmt.Printf("New balance: %s SOL\n", sol)
	}
}

// readPassphrase prompts for a passphrase without echo.
func readPassphrase(prompt string) []byte {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	return pass
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `solwallet-cli - Solana HD wallet

Usage:
  solwallet-cli [flags] <command> [args]

Commands:
  wallet create [phrase...]   Create the wallet (optionally from a phrase)
  wallet add                  Derive the next account
  wallet list                 List accounts (* marks the selected one)
  wallet select <pubkey>      Select the account to operate on
  wallet reveal               Print the seed phrase
  balance [pubkey]            Show a balance in SOL
  send <to> <amount>          Send SOL from the selected account

Flags:
  -rpc <url>            Solana JSON-RPC endpoint
  -datadir <dir>        Wallet state directory
  -commitment <level>   processed, confirmed, or finalized
  -confirm-poll <dur>   Confirmation poll interval
  -encrypted            Seal the state file with a passphrase
  -log-level <level>    debug, info, warn, error
  -log-json             JSON log output
`)
}
