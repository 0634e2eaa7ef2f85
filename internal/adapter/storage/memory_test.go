package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

func seedAccount(s *MemoryStore, balance string) domain.Account {
	acct := domain.Account{
		ID:      uuid.New(),
		UserID:  uuid.NewString(),
		Email:   uuid.NewString() + "@bank.com",
		CPF:     uuid.NewString(),
		Phone:   uuid.NewString(),
		Balance: decimal.RequireFromString(balance),
	}
	s.AddAccount(acct)
	return acct
}

func TestMemoryFindByKeys(t *testing.T) {
	s := NewMemoryStore()
	acct := domain.Account{
		ID: uuid.New(), Email: "alice@bank.com", CPF: "11111111111", Phone: "+5511999990001",
		Balance: decimal.RequireFromString("10.00"),
	}
	s.AddAccount(acct)

	byID, err := s.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byID.ID)

	byEmail, err := s.FindByEmail(context.Background(), "alice@bank.com")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byEmail.ID)

	byCPF, err := s.FindByCPF(context.Background(), "11111111111")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byCPF.ID)

	byPhone, err := s.FindByPhone(context.Background(), "+5511999990001")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byPhone.ID)

	_, err = s.FindByEmail(context.Background(), "nobody@bank.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestMemoryAdjustBalance(t *testing.T) {
	s := NewMemoryStore()
	acct := seedAccount(s, "100.00")

	updated, err := s.AdjustBalance(context.Background(), acct.ID, decimal.RequireFromString("-40.00"))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("60.00")))

	// A delta that would go negative is rejected and changes nothing.
	_, err = s.AdjustBalance(context.Background(), acct.ID, decimal.RequireFromString("-60.01"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	current, err := s.FindByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(decimal.RequireFromString("60.00")))

	_, err = s.AdjustBalance(context.Background(), uuid.New(), decimal.RequireFromString("1.00"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestMemoryTransferAtomicity(t *testing.T) {
	s := NewMemoryStore()
	alice := seedAccount(s, "30.00")
	bob := seedAccount(s, "0.00")

	rec := &domain.TransferRecord{
		ID: ulid.Make(), SenderID: alice.ID, ReceiverID: bob.ID,
		Amount: decimal.RequireFromString("50.00"), Status: domain.TransferCompleted,
	}
	err := s.Transfer(context.Background(), rec)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Rejected transfer leaves no trace: balances intact, nothing appended.
	a, _ := s.FindByID(context.Background(), alice.ID)
	b, _ := s.FindByID(context.Background(), bob.ID)
	assert.True(t, a.Balance.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, b.Balance.IsZero())
	sent, _ := s.TransfersBySender(context.Background(), alice.ID)
	assert.Empty(t, sent)
}

// TestMemoryOppositeTransfersNoDeadlock hammers the two-lock path from both
// directions. Ascending-ID lock order means this terminates.
func TestMemoryOppositeTransfersNoDeadlock(t *testing.T) {
	s := NewMemoryStore()
	alice := seedAccount(s, "500.00")
	bob := seedAccount(s, "500.00")

	one := decimal.RequireFromString("1.00")
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Transfer(context.Background(), &domain.TransferRecord{
				ID: ulid.Make(), SenderID: alice.ID, ReceiverID: bob.ID,
				Amount: one, Status: domain.TransferCompleted,
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Transfer(context.Background(), &domain.TransferRecord{
				ID: ulid.Make(), SenderID: bob.ID, ReceiverID: alice.ID,
				Amount: one, Status: domain.TransferCompleted,
			})
		}()
	}
	wg.Wait()

	a, _ := s.FindByID(context.Background(), alice.ID)
	b, _ := s.FindByID(context.Background(), bob.ID)
	total := a.Balance.Add(b.Balance)
	assert.True(t, total.Equal(decimal.RequireFromString("1000.00")),
		"funds must be conserved, got %s", total)
}

func TestMemoryLedgerQueriesAreDisjoint(t *testing.T) {
	s := NewMemoryStore()
	alice := seedAccount(s, "100.00")
	bob := seedAccount(s, "100.00")

	require.NoError(t, s.Transfer(context.Background(), &domain.TransferRecord{
		ID: ulid.Make(), SenderID: alice.ID, ReceiverID: bob.ID,
		Amount: decimal.RequireFromString("5.00"), Status: domain.TransferCompleted,
	}))
	require.NoError(t, s.Pay(context.Background(), &domain.PaymentRecord{
		ID: ulid.Make(), PayerID: bob.ID,
		Amount: decimal.RequireFromString("5.00"), Status: domain.PaymentPaid,
	}))
	s.AddInvestment(domain.InvestmentRecord{ID: ulid.Make(), InvestorID: alice.ID,
		Amount: decimal.RequireFromString("5.00"), Type: "LCI"})

	sent, err := s.TransfersBySender(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	received, err := s.TransfersByReceiver(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, received, 1)

	payments, err := s.PaymentsByPayer(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	investments, err := s.InvestmentsByInvestor(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, investments, 1)

	// Nothing leaks across accounts.
	none, err := s.PaymentsByPayer(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
