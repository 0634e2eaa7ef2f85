// Package engine is the balance-mutation and ledger-consistency core. It
// validates money movements against current account state, applies them
// atomically through the stores, and reconstructs account statements. All
// collaborators are injected as interfaces so the engine itself stays free
// of storage and transport concerns.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// AccountStore is the account lookup and single-account mutation contract.
// AdjustBalance must be atomic with respect to every other balance mutation
// on the same account, and must return domain.ErrInsufficientBalance when
// the resulting balance would go negative.
type AccountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByCPF(ctx context.Context, cpf string) (*domain.Account, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Account, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*domain.Account, error)
}

// LedgerStore persists immutable transaction records and applies the balance
// moves that back them. Transfer debits the sender, credits the receiver and
// appends the record as one atomic unit: no reader may observe one side
// without the other. Pay does the same for the single-sided boleto debit.
// Both re-check sufficiency inside the atomic section.
type LedgerStore interface {
	Transfer(ctx context.Context, rec *domain.TransferRecord) error
	Pay(ctx context.Context, rec *domain.PaymentRecord) error

	TransfersBySender(ctx context.Context, accountID uuid.UUID) ([]domain.TransferRecord, error)
	TransfersByReceiver(ctx context.Context, accountID uuid.UUID) ([]domain.TransferRecord, error)
	PaymentsByPayer(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentRecord, error)
}

// InvestmentStore is the read-only investment feed.
type InvestmentStore interface {
	InvestmentsByInvestor(ctx context.Context, accountID uuid.UUID) ([]domain.InvestmentRecord, error)
}

// Notifier delivers user-facing notifications. Best effort: the engine logs
// failures and never lets them affect the operation they follow.
type Notifier interface {
	Notify(ctx context.Context, account *domain.Account, title, body string) error
}

type Engine struct {
	accounts    AccountStore
	ledger      LedgerStore
	investments InvestmentStore
	notifier    Notifier
}

func New(accounts AccountStore, ledger LedgerStore, investments InvestmentStore, notifier Notifier) *Engine {
	return &Engine{
		accounts:    accounts,
		ledger:      ledger,
		investments: investments,
		notifier:    notifier,
	}
}

// Balance returns the current balance for an account.
func (e *Engine) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	acct, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

// Deposit atomically credits an account and returns the new balance.
// Deposits do not produce a ledger record; they are balance-only events.
func (e *Engine) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !domain.ValidAmount(amount) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	acct, err := e.accounts.AdjustBalance(ctx, accountID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: %w", err)
	}

	e.notify(ctx, acct, "Deposit received", "You received a deposit of R$ "+amount.StringFixed(2))

	return acct.Balance, nil
}

// Transfer executes a PIX transfer from sender to the account resolved by
// the given key. Validation order is part of the contract: sender lookup,
// receiver lookup, amount, sufficiency, then self-transfer. Whichever check
// fails first is the error the caller sees.
func (e *Engine) Transfer(ctx context.Context, senderID uuid.UUID, keyType domain.PixKeyType, keyValue string, amount decimal.Decimal) (*domain.TransferRecord, error) {
	sender, err := e.accounts.FindByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}

	receiver, err := e.resolveByKey(ctx, keyType, keyValue)
	if err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}

	if !domain.ValidAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}
	if sender.Balance.LessThan(amount) {
		return nil, domain.ErrInsufficientBalance
	}
	if sender.ID == receiver.ID {
		return nil, domain.ErrSelfTransfer
	}

	rec := &domain.TransferRecord{
		ID:            ulid.Make(),
		SenderID:      sender.ID,
		ReceiverID:    receiver.ID,
		SenderEmail:   sender.Email,
		ReceiverEmail: receiver.Email,
		Amount:        amount,
		Timestamp:     time.Now().UTC(),
		Status:        domain.TransferCompleted,
		Description:   "PIX transfer completed",
		KeyType:       keyType,
		KeyValue:      keyValue,
	}

	// Debit, credit and record append happen as one atomic unit inside the
	// store. The sufficiency pre-check above fixes error precedence; the
	// store re-checks under its own lock to close the race.
	if err := e.ledger.Transfer(ctx, rec); err != nil {
		return nil, fmt.Errorf("execute transfer: %w", err)
	}

	e.notify(ctx, sender, "PIX sent",
		"You sent a PIX of R$ "+amount.StringFixed(2)+" to "+receiver.Email)
	e.notify(ctx, receiver, "PIX received",
		"You received a PIX of R$ "+amount.StringFixed(2)+" from "+sender.Email)

	return rec, nil
}

// PayBoleto debits the payer and appends a PAID payment record.
func (e *Engine) PayBoleto(ctx context.Context, payerID uuid.UUID, barcode string, amount decimal.Decimal) (*domain.PaymentRecord, error) {
	payer, err := e.accounts.FindByID(ctx, payerID)
	if err != nil {
		return nil, fmt.Errorf("resolve payer: %w", err)
	}

	if !domain.ValidateBarcode(barcode) {
		return nil, domain.ErrInvalidBarcode
	}
	if !domain.ValidAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}
	if payer.Balance.LessThan(amount) {
		return nil, domain.ErrInsufficientBalance
	}

	rec := &domain.PaymentRecord{
		ID:          ulid.Make(),
		PayerID:     payer.ID,
		Barcode:     barcode,
		Amount:      amount,
		Timestamp:   time.Now().UTC(),
		Status:      domain.PaymentPaid,
		Description: "Boleto payment completed",
	}

	if err := e.ledger.Pay(ctx, rec); err != nil {
		return nil, fmt.Errorf("execute payment: %w", err)
	}

	e.notify(ctx, payer, "Boleto paid",
		"You paid a boleto of R$ "+amount.StringFixed(2)+" (barcode: "+barcode+")")

	return rec, nil
}

// resolveByKey dispatches the receiver lookup on the pix key type. RANDOM is
// a deliberate unsupported variant, kept visible until a key indirection
// table exists.
func (e *Engine) resolveByKey(ctx context.Context, keyType domain.PixKeyType, keyValue string) (*domain.Account, error) {
	switch keyType {
	case domain.PixKeyEmail:
		return e.accounts.FindByEmail(ctx, keyValue)
	case domain.PixKeyCPF:
		return e.accounts.FindByCPF(ctx, keyValue)
	case domain.PixKeyPhone:
		return e.accounts.FindByPhone(ctx, keyValue)
	case domain.PixKeyRandom:
		return nil, domain.ErrUnsupportedKeyType
	default:
		return nil, fmt.Errorf("unknown pix key type %q", keyType)
	}
}

func (e *Engine) notify(ctx context.Context, account *domain.Account, title, body string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, account, title, body); err != nil {
		slog.Error("notification delivery failed", "account_id", account.ID, "title", title, "error", err)
	}
}
