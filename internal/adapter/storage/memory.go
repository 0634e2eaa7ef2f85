package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// MemoryStore is an in-process implementation of the engine's store
// contracts, used by tests and local development. Each account carries its
// own mutex so unrelated operations never contend; two-account transfers
// take both locks in ascending ID order, which is what makes opposite
// concurrent transfers deadlock-free.
type MemoryStore struct {
	mu       sync.RWMutex // guards the maps themselves
	accounts map[uuid.UUID]*memAccount
	byEmail  map[string]uuid.UUID
	byCPF    map[string]uuid.UUID
	byPhone  map[string]uuid.UUID

	ledgerMu    sync.RWMutex
	transfers   []domain.TransferRecord
	payments    []domain.PaymentRecord
	investments []domain.InvestmentRecord
}

type memAccount struct {
	mu   sync.Mutex
	acct domain.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*memAccount),
		byEmail:  make(map[string]uuid.UUID),
		byCPF:    make(map[string]uuid.UUID),
		byPhone:  make(map[string]uuid.UUID),
	}
}

// AddAccount registers a provisioned account. Account creation itself is an
// external collaborator's job; this is the seam it plugs into.
func (s *MemoryStore) AddAccount(acct domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acct.ID] = &memAccount{acct: acct}
	s.byEmail[acct.Email] = acct.ID
	s.byCPF[acct.CPF] = acct.ID
	s.byPhone[acct.Phone] = acct.ID
}

// AddInvestment feeds a read-only investment record into the store.
func (s *MemoryStore) AddInvestment(rec domain.InvestmentRecord) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	s.investments = append(s.investments, rec)
}

func (s *MemoryStore) lookup(id uuid.UUID) (*memAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ma, ok := s.accounts[id]
	return ma, ok
}

func (s *MemoryStore) lookupByKey(index map[string]uuid.UUID, key string) (*memAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := index[key]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	ma, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return ma.snapshot(), nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	ma, err := s.lookupByKey(s.byEmail, email)
	if err != nil {
		return nil, err
	}
	return ma.snapshot(), nil
}

func (s *MemoryStore) FindByCPF(ctx context.Context, cpf string) (*domain.Account, error) {
	ma, err := s.lookupByKey(s.byCPF, cpf)
	if err != nil {
		return nil, err
	}
	return ma.snapshot(), nil
}

func (s *MemoryStore) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	ma, err := s.lookupByKey(s.byPhone, phone)
	if err != nil {
		return nil, err
	}
	return ma.snapshot(), nil
}

// AdjustBalance atomically applies a delta to one account. A delta that
// would leave the balance negative is rejected without changing anything.
func (s *MemoryStore) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	ma, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	ma.mu.Lock()
	defer ma.mu.Unlock()

	next := ma.acct.Balance.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientBalance
	}
	ma.acct.Balance = next
	cp := ma.acct
	return &cp, nil
}

// Transfer debits the sender, credits the receiver and appends the record
// while holding both account locks, so no reader observes one leg without
// the other. Locks are taken in ascending ID order.
func (s *MemoryStore) Transfer(ctx context.Context, rec *domain.TransferRecord) error {
	sender, ok := s.lookup(rec.SenderID)
	if !ok {
		return domain.ErrAccountNotFound
	}
	receiver, ok := s.lookup(rec.ReceiverID)
	if !ok {
		return domain.ErrAccountNotFound
	}

	first, second := sender, receiver
	if bytes.Compare(rec.ReceiverID[:], rec.SenderID[:]) < 0 {
		first, second = receiver, sender
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if sender.acct.Balance.LessThan(rec.Amount) {
		return domain.ErrInsufficientBalance
	}
	sender.acct.Balance = sender.acct.Balance.Sub(rec.Amount)
	receiver.acct.Balance = receiver.acct.Balance.Add(rec.Amount)

	s.ledgerMu.Lock()
	s.transfers = append(s.transfers, *rec)
	s.ledgerMu.Unlock()
	return nil
}

// Pay debits the payer and appends the payment record under the payer lock.
func (s *MemoryStore) Pay(ctx context.Context, rec *domain.PaymentRecord) error {
	payer, ok := s.lookup(rec.PayerID)
	if !ok {
		return domain.ErrAccountNotFound
	}

	payer.mu.Lock()
	defer payer.mu.Unlock()

	if payer.acct.Balance.LessThan(rec.Amount) {
		return domain.ErrInsufficientBalance
	}
	payer.acct.Balance = payer.acct.Balance.Sub(rec.Amount)

	s.ledgerMu.Lock()
	s.payments = append(s.payments, *rec)
	s.ledgerMu.Unlock()
	return nil
}

func (s *MemoryStore) TransfersBySender(ctx context.Context, accountID uuid.UUID) ([]domain.TransferRecord, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()
	var out []domain.TransferRecord
	for _, t := range s.transfers {
		if t.SenderID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) TransfersByReceiver(ctx context.Context, accountID uuid.UUID) ([]domain.TransferRecord, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()
	var out []domain.TransferRecord
	for _, t := range s.transfers {
		if t.ReceiverID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) PaymentsByPayer(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentRecord, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()
	var out []domain.PaymentRecord
	for _, p := range s.payments {
		if p.PayerID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) InvestmentsByInvestor(ctx context.Context, accountID uuid.UUID) ([]domain.InvestmentRecord, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()
	var out []domain.InvestmentRecord
	for _, inv := range s.investments {
		if inv.InvestorID == accountID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (ma *memAccount) snapshot() *domain.Account {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	cp := ma.acct
	return &cp
}
