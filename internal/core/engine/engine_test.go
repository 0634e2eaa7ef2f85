package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokendeveloper/banking-app/internal/adapter/storage"
	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

const validBarcode = "00190500954014481606906809350314337370000000100"

type notification struct {
	accountID uuid.UUID
	title     string
}

// recordingNotifier captures notifications and can be told to fail.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []notification
	fails bool
}

func (n *recordingNotifier) Notify(ctx context.Context, account *domain.Account, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fails {
		return errors.New("sink unavailable")
	}
	n.sent = append(n.sent, notification{accountID: account.ID, title: title})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newAccount(balance string, email, cpf, phone string) domain.Account {
	return domain.Account{
		ID:      uuid.New(),
		UserID:  uuid.NewString(),
		Email:   email,
		CPF:     cpf,
		Phone:   phone,
		Balance: decimal.RequireFromString(balance),
	}
}

func newTestEngine(t *testing.T, accounts ...domain.Account) (*Engine, *storage.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := storage.NewMemoryStore()
	for _, acct := range accounts {
		store.AddAccount(acct)
	}
	notifier := &recordingNotifier{}
	return New(store, store, store, notifier), store, notifier
}

func mustBalance(t *testing.T, e *Engine, id uuid.UUID) decimal.Decimal {
	t.Helper()
	balance, err := e.Balance(context.Background(), id)
	require.NoError(t, err)
	return balance
}

func TestBalance(t *testing.T) {
	acct := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	e, _, _ := newTestEngine(t, acct)

	balance, err := e.Balance(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("100.00")))

	_, err = e.Balance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDeposit(t *testing.T) {
	acct := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	e, _, notifier := newTestEngine(t, acct)

	balance, err := e.Deposit(context.Background(), acct.ID, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, 1, notifier.count())

	// Depositing does not produce a ledger record.
	entries, err := e.Statement(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDepositInvalid(t *testing.T) {
	acct := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	e, _, _ := newTestEngine(t, acct)

	tests := []struct {
		name    string
		account uuid.UUID
		amount  string
		wantErr error
	}{
		{"zero amount", acct.ID, "0.00", domain.ErrInvalidAmount},
		{"negative amount", acct.ID, "-10.00", domain.ErrInvalidAmount},
		{"unknown account", uuid.New(), "10.00", domain.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Deposit(context.Background(), tt.account, decimal.RequireFromString(tt.amount))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, mustBalance(t, e, acct.ID).Equal(decimal.RequireFromString("100.00")))
		})
	}
}

func TestTransfer(t *testing.T) {
	alice := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("0.00", "bob@bank.com", "22222222222", "+5511999990002")
	e, store, notifier := newTestEngine(t, alice, bob)

	rec, err := e.Transfer(context.Background(), alice.ID, domain.PixKeyEmail, "bob@bank.com", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	assert.Equal(t, domain.TransferCompleted, rec.Status)
	assert.Equal(t, alice.ID, rec.SenderID)
	assert.Equal(t, bob.ID, rec.ReceiverID)
	assert.Equal(t, "alice@bank.com", rec.SenderEmail)
	assert.Equal(t, "bob@bank.com", rec.ReceiverEmail)

	assert.True(t, mustBalance(t, e, alice.ID).IsZero())
	assert.True(t, mustBalance(t, e, bob.ID).Equal(decimal.RequireFromString("100.00")))

	sent, err := store.TransfersBySender(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, rec.ID, sent[0].ID)

	// Sender and receiver each get one notification.
	assert.Equal(t, 2, notifier.count())
}

func TestTransferByCPFAndPhone(t *testing.T) {
	alice := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("0.00", "bob@bank.com", "22222222222", "+5511999990002")
	e, _, _ := newTestEngine(t, alice, bob)

	_, err := e.Transfer(context.Background(), alice.ID, domain.PixKeyCPF, "22222222222", decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	_, err = e.Transfer(context.Background(), alice.ID, domain.PixKeyPhone, "+5511999990002", decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	assert.True(t, mustBalance(t, e, alice.ID).Equal(decimal.RequireFromString("80.00")))
	assert.True(t, mustBalance(t, e, bob.ID).Equal(decimal.RequireFromString("20.00")))
}

// TestTransferValidationOrder pins the observable precedence of transfer
// failures: sender lookup, receiver lookup, amount, sufficiency, then
// self-transfer.
func TestTransferValidationOrder(t *testing.T) {
	alice := newAccount("50.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("0.00", "bob@bank.com", "22222222222", "+5511999990002")

	tests := []struct {
		name    string
		sender  func() uuid.UUID
		keyType domain.PixKeyType
		key     string
		amount  string
		wantErr error
	}{
		{"unknown sender", uuid.New, domain.PixKeyEmail, "bob@bank.com", "10.00", domain.ErrAccountNotFound},
		{"unknown receiver", func() uuid.UUID { return alice.ID }, domain.PixKeyEmail, "nobody@bank.com", "10.00", domain.ErrAccountNotFound},
		{"random key rejected before amount checks", func() uuid.UUID { return alice.ID }, domain.PixKeyRandom, "some-token", "999.00", domain.ErrUnsupportedKeyType},
		{"zero amount", func() uuid.UUID { return alice.ID }, domain.PixKeyEmail, "bob@bank.com", "0.00", domain.ErrInvalidAmount},
		{"insufficient balance", func() uuid.UUID { return alice.ID }, domain.PixKeyEmail, "bob@bank.com", "100.00", domain.ErrInsufficientBalance},
		// Self-transfer with insufficient funds reports the balance first.
		{"self transfer with insufficient funds", func() uuid.UUID { return alice.ID }, domain.PixKeyEmail, "alice@bank.com", "100.00", domain.ErrInsufficientBalance},
		{"self transfer with sufficient funds", func() uuid.UUID { return alice.ID }, domain.PixKeyEmail, "alice@bank.com", "10.00", domain.ErrSelfTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store, notifier := newTestEngine(t, alice, bob)

			_, err := e.Transfer(context.Background(), tt.sender(), tt.keyType, tt.key, decimal.RequireFromString(tt.amount))
			assert.ErrorIs(t, err, tt.wantErr)

			// Nothing moved, nothing recorded, nobody notified.
			assert.True(t, mustBalance(t, e, alice.ID).Equal(decimal.RequireFromString("50.00")))
			assert.True(t, mustBalance(t, e, bob.ID).IsZero())
			sent, _ := store.TransfersBySender(context.Background(), alice.ID)
			assert.Empty(t, sent)
			assert.Equal(t, 0, notifier.count())
		})
	}
}

func TestTransferConservation(t *testing.T) {
	alice := newAccount("70.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("30.00", "bob@bank.com", "22222222222", "+5511999990002")
	e, _, _ := newTestEngine(t, alice, bob)

	before := mustBalance(t, e, alice.ID).Add(mustBalance(t, e, bob.ID))

	_, err := e.Transfer(context.Background(), alice.ID, domain.PixKeyEmail, "bob@bank.com", decimal.RequireFromString("12.34"))
	require.NoError(t, err)

	after := mustBalance(t, e, alice.ID).Add(mustBalance(t, e, bob.ID))
	assert.True(t, before.Equal(after), "transfer must conserve funds: before=%s after=%s", before, after)
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	alice := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("0.00", "bob@bank.com", "22222222222", "+5511999990002")
	e, _, notifier := newTestEngine(t, alice, bob)
	notifier.fails = true

	_, err := e.Transfer(context.Background(), alice.ID, domain.PixKeyEmail, "bob@bank.com", decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.True(t, mustBalance(t, e, bob.ID).Equal(decimal.RequireFromString("10.00")))

	_, err = e.Deposit(context.Background(), alice.ID, decimal.RequireFromString("5.00"))
	require.NoError(t, err)

	_, err = e.PayBoleto(context.Background(), alice.ID, validBarcode, decimal.RequireFromString("5.00"))
	require.NoError(t, err)
}

// TestConcurrentOppositeTransfers runs A→B and B→A of equal amounts in
// parallel many times. Both directions must always complete without
// deadlock and the end state must equal the sequential result.
func TestConcurrentOppositeTransfers(t *testing.T) {
	alice := newAccount("1000.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("1000.00", "bob@bank.com", "22222222222", "+5511999990002")
	e, _, _ := newTestEngine(t, alice, bob)

	const rounds = 200
	amount := decimal.RequireFromString("1.00")

	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := e.Transfer(context.Background(), alice.ID, domain.PixKeyEmail, "bob@bank.com", amount)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := e.Transfer(context.Background(), bob.ID, domain.PixKeyEmail, "alice@bank.com", amount)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, mustBalance(t, e, alice.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, mustBalance(t, e, bob.ID).Equal(decimal.RequireFromString("1000.00")))
}

func TestConcurrentDeposits(t *testing.T) {
	acct := newAccount("0.00", "alice@bank.com", "11111111111", "+5511999990001")
	e, _, _ := newTestEngine(t, acct)

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := e.Deposit(context.Background(), acct.ID, decimal.RequireFromString("1.00"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, mustBalance(t, e, acct.ID).Equal(decimal.NewFromInt(workers)))
}

func TestPayBoleto(t *testing.T) {
	payer := newAccount("200.00", "alice@bank.com", "11111111111", "+5511999990001")
	e, store, notifier := newTestEngine(t, payer)

	rec, err := e.PayBoleto(context.Background(), payer.ID, validBarcode, decimal.RequireFromString("75.00"))
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentPaid, rec.Status)
	assert.Equal(t, validBarcode, rec.Barcode)
	assert.True(t, mustBalance(t, e, payer.ID).Equal(decimal.RequireFromString("125.00")))

	payments, err := store.PaymentsByPayer(context.Background(), payer.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, rec.ID, payments[0].ID)

	assert.Equal(t, 1, notifier.count())
}

func TestPayBoletoRejections(t *testing.T) {
	payer := newAccount("50.00", "alice@bank.com", "11111111111", "+5511999990001")

	tests := []struct {
		name    string
		payer   func() uuid.UUID
		barcode string
		amount  string
		wantErr error
	}{
		{"unknown payer", uuid.New, validBarcode, "10.00", domain.ErrAccountNotFound},
		{"invalid barcode", func() uuid.UUID { return payer.ID }, "1234", "10.00", domain.ErrInvalidBarcode},
		{"zero amount", func() uuid.UUID { return payer.ID }, validBarcode, "0.00", domain.ErrInvalidAmount},
		{"insufficient balance", func() uuid.UUID { return payer.ID }, validBarcode, "100.00", domain.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store, _ := newTestEngine(t, payer)

			_, err := e.PayBoleto(context.Background(), tt.payer(), tt.barcode, decimal.RequireFromString(tt.amount))
			assert.ErrorIs(t, err, tt.wantErr)

			assert.True(t, mustBalance(t, e, payer.ID).Equal(decimal.RequireFromString("50.00")))
			payments, _ := store.PaymentsByPayer(context.Background(), payer.ID)
			assert.Empty(t, payments)
		})
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	alice := newAccount("100.00", "alice@bank.com", "11111111111", "+5511999990001")
	bob := newAccount("0.00", "bob@bank.com", "22222222222", "+5511999990002")
	e, _, _ := newTestEngine(t, alice, bob)

	_, err := e.Transfer(context.Background(), alice.ID, domain.PixKeyEmail, "bob@bank.com", decimal.RequireFromString("25.00"))
	require.NoError(t, err)

	first := mustBalance(t, e, alice.ID)
	second := mustBalance(t, e, alice.ID)
	assert.True(t, first.Equal(second))

	s1, err := e.Statement(context.Background(), alice.ID)
	require.NoError(t, err)
	s2, err := e.Statement(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}
