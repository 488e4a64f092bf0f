package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/heliostack/solwallet/internal/ledger"
	"github.com/heliostack/solwallet/internal/wallet"
)

const systemProgramAddr = "11111111111111111111111111111111"

// fakeLedger is a scripted ledger.Client.
type fakeLedger struct {
	mu sync.Mutex

	balance      uint64
	balanceErr   error
	balanceCalls int

	lease      ledger.Lease
	leaseErr   error
	leaseCalls int

	sig          solana.Signature
	broadcastErr error
	broadcasts   [][]byte

	confirmStatus ledger.Status
	confirmErr    error
	confirmLease  *ledger.Lease
	confirmGate   chan struct{} // when non-nil, Confirm blocks until closed
}

func (f *fakeLedger) Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, f.balanceErr
}

func (f *fakeLedger) LatestLease(ctx context.Context) (ledger.Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaseCalls++
	return f.lease, f.leaseErr
}

func (f *fakeLedger) Broadcast(ctx context.Context, signedTx []byte) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broadcastErr != nil {
		return solana.Signature{}, f.broadcastErr
	}
	f.broadcasts = append(f.broadcasts, signedTx)
	return f.sig, nil
}

func (f *fakeLedger) Confirm(ctx context.Context, sig solana.Signature, lease ledger.Lease) (ledger.Status, error) {
	f.mu.Lock()
	gate := f.confirmGate
	f.confirmLease = &lease
	status, err := f.confirmStatus, f.confirmErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return status, err
}

func newFakeLedger() *fakeLedger {
	var sig solana.Signature
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	lease := ledger.Lease{LastValidHeight: 5000}
	copy(lease.Blockhash[:], []byte("fake-blockhash-for-pipeline-test"))
	return &fakeLedger{
		balance:       10 * LamportsPerSOL,
		lease:         lease,
		sig:           sig,
		confirmStatus: ledger.StatusConfirmed,
	}
}

func senderAccount(t *testing.T) wallet.Account {
	t.Helper()
	seed, err := wallet.SeedFromMnemonic("test test test test test test test test test test test junk", "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	acct, err := wallet.DeriveAccount(seed, 0)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}
	return acct
}

func TestPipeline_Submit_Confirmed(t *testing.T) {
	fake := newFakeLedger()
	from := senderAccount(t)

	p := NewPipeline(fake, nil)
	rec, err := p.Submit(context.Background(), Request{
		From:      from,
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	if rec.Status != ledger.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", rec.Status)
	}
	if rec.Signature != fake.sig {
		t.Errorf("signature = %s, want the broadcast signature", rec.Signature)
	}
	if rec.Signature.IsZero() {
		t.Error("signature should be well-formed, not zero")
	}
	if len(fake.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(fake.broadcasts))
	}
}

func TestPipeline_Submit_TransactionShape(t *testing.T) {
	fake := newFakeLedger()
	from := senderAccount(t)

	p := NewPipeline(fake, nil)
	if _, err := p.Submit(context.Background(), Request{
		From:      from,
		ToAddress: systemProgramAddr,
		Amount:    dec(t, "1.5"),
	}); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(fake.broadcasts[0]))
	if err != nil {
		t.Fatalf("decode broadcast transaction: %v", err)
	}

	// The broadcast transaction must carry the exact lease blockhash.
	if tx.Message.RecentBlockhash != fake.lease.Blockhash {
		t.Errorf("recent blockhash = %s, want the leased one", tx.Message.RecentBlockhash)
	}
	// Signed by the sender, and the sender pays the fee.
	if err := tx.VerifySignatures(); err != nil {
		t.Errorf("VerifySignatures() error: %v", err)
	}
	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(from.PublicKey) {
		t.Error("sender should be the fee payer")
	}
}

func TestPipeline_Submit_ConfirmUsesSameLease(t *testing.T) {
	fake := newFakeLedger()

	p := NewPipeline(fake, nil)
	if _, err := p.Submit(context.Background(), Request{
		From:      senderAccount(t),
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	if fake.confirmLease == nil {
		t.Fatal("Confirm() was not called")
	}
	if *fake.confirmLease != fake.lease {
		t.Error("Confirm() must be bound to the lease used at broadcast time")
	}
}

func TestPipeline_Submit_InvalidAmount(t *testing.T) {
	fake := newFakeLedger()
	p := NewPipeline(fake, nil)

	for _, amount := range []string{"0", "-1", "0.0000000001"} {
		_, err := p.Submit(context.Background(), Request{
			From:      senderAccount(t),
			ToAddress: systemProgramAddr,
			Amount:    dec(t, amount),
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Submit(%s) error = %v, want ErrInvalidAmount", amount, err)
		}
	}

	// Validation failures must precede any network call.
	if fake.leaseCalls != 0 || len(fake.broadcasts) != 0 {
		t.Error("invalid amounts must not reach the ledger")
	}
}

func TestPipeline_Submit_InvalidAddress(t *testing.T) {
	fake := newFakeLedger()
	p := NewPipeline(fake, nil)

	for _, addr := range []string{"", "not-base58-!!!", "abc"} {
		_, err := p.Submit(context.Background(), Request{
			From:      senderAccount(t),
			ToAddress: addr,
			Amount:    decimal.NewFromInt(1),
		})
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Submit(to=%q) error = %v, want ErrInvalidAddress", addr, err)
		}
	}

	if fake.leaseCalls != 0 || len(fake.broadcasts) != 0 {
		t.Error("invalid addresses must not reach the ledger")
	}
}

func TestPipeline_Submit_GuardAgainstLastKnown(t *testing.T) {
	fake := newFakeLedger()
	fake.balance = 2 * LamportsPerSOL

	oracle := NewOracle(fake)
	from := senderAccount(t)
	if _, err := oracle.FetchBalance(context.Background(), from.PublicKey); err != nil {
		t.Fatalf("FetchBalance() error: %v", err)
	}

	p := NewPipeline(fake, oracle)
	_, err := p.Submit(context.Background(), Request{
		From:      from,
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(3),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Submit() error = %v, want ErrInsufficientBalance", err)
	}
	if fake.leaseCalls != 0 || len(fake.broadcasts) != 0 {
		t.Error("the cached-balance guard must fire before any network call")
	}
}

func TestPipeline_Submit_RevalidatesBalance(t *testing.T) {
	fake := newFakeLedger()
	fake.balance = 5 * LamportsPerSOL

	oracle := NewOracle(fake)
	from := senderAccount(t)
	if _, err := oracle.FetchBalance(context.Background(), from.PublicKey); err != nil {
		t.Fatalf("FetchBalance() error: %v", err)
	}

	// The balance drops after the cache was filled; the fresh check
	// inside Submit must catch it.
	fake.mu.Lock()
	fake.balance = 1 * LamportsPerSOL
	fake.mu.Unlock()

	p := NewPipeline(fake, oracle)
	_, err := p.Submit(context.Background(), Request{
		From:      from,
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(4),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Submit() error = %v, want ErrInsufficientBalance", err)
	}
	if len(fake.broadcasts) != 0 {
		t.Error("a stale balance must not slip past the fresh check")
	}
}

func TestPipeline_Submit_Expired(t *testing.T) {
	fake := newFakeLedger()
	fake.confirmStatus = ledger.StatusExpired
	fake.confirmErr = ledger.ErrLeaseExpired

	p := NewPipeline(fake, nil)
	rec, err := p.Submit(context.Background(), Request{
		From:      senderAccount(t),
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(1),
	})

	if !errors.Is(err, ErrTransactionExpired) {
		t.Fatalf("Submit() error = %v, want ErrTransactionExpired", err)
	}
	if errors.Is(err, ErrTransactionFailed) {
		t.Error("expiry must be distinct from failure")
	}
	if rec == nil {
		t.Fatal("an expired attempt still broadcast; the record must be returned")
	}
	if rec.Status != ledger.StatusExpired {
		t.Errorf("status = %s, want expired", rec.Status)
	}
}

func TestPipeline_Submit_BroadcastRejected(t *testing.T) {
	fake := newFakeLedger()
	fake.broadcastErr = errors.New("Transaction simulation failed")

	p := NewPipeline(fake, nil)
	rec, err := p.Submit(context.Background(), Request{
		From:      senderAccount(t),
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("Submit() error = %v, want ErrTransactionFailed", err)
	}
	if rec != nil {
		t.Error("nothing was broadcast; no record should be returned")
	}
}

func TestPipeline_Submit_ConfirmationRejected(t *testing.T) {
	fake := newFakeLedger()
	fake.confirmStatus = ledger.StatusFailed
	fake.confirmErr = errors.New("transaction rejected: InstructionError")

	p := NewPipeline(fake, nil)
	rec, err := p.Submit(context.Background(), Request{
		From:      senderAccount(t),
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("Submit() error = %v, want ErrTransactionFailed", err)
	}
	if rec == nil || rec.Status != ledger.StatusFailed {
		t.Error("a post-broadcast rejection must surface the record with failed status")
	}
}

func TestPipeline_Submit_InFlightGuard(t *testing.T) {
	fake := newFakeLedger()
	fake.confirmGate = make(chan struct{})

	p := NewPipeline(fake, nil)
	req := Request{
		From:      senderAccount(t),
		ToAddress: systemProgramAddr,
		Amount:    decimal.NewFromInt(1),
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), req)
		done <- err
	}()

	// Wait for the first attempt to reach the (gated) confirm step.
	for {
		fake.mu.Lock()
		started := fake.confirmLease != nil
		fake.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := p.Submit(context.Background(), req); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second Submit() error = %v, want ErrSubmitInFlight", err)
	}

	close(fake.confirmGate)
	if err := <-done; err != nil {
		t.Errorf("first Submit() error: %v", err)
	}

	// With the first attempt resolved, submission is allowed again.
	fake.confirmGate = nil
	if _, err := p.Submit(context.Background(), req); err != nil {
		t.Errorf("third Submit() error: %v", err)
	}
}
