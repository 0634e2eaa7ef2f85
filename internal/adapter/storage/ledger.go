package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// LedgerRepository implements the engine's LedgerStore and InvestmentStore
// over Postgres. Balance moves and record appends share one transaction, so
// a transfer's two legs and its record are visible all-or-nothing.
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// maxTxAttempts bounds retries on serialization failures and deadlocks
// before the conflict is surfaced to the caller.
const maxTxAttempts = 3

// Transfer debits the sender, credits the receiver and appends the transfer
// record in one transaction. Row locks are taken in ascending account ID
// order so two opposite transfers cannot deadlock each other.
func (r *LedgerRepository) Transfer(ctx context.Context, rec *domain.TransferRecord) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		senderBalance, err := lockBalances(ctx, tx, rec.SenderID, rec.ReceiverID)
		if err != nil {
			return err
		}
		if senderBalance.LessThan(rec.Amount) {
			return domain.ErrInsufficientBalance
		}

		amount := rec.Amount.StringFixed(2)
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amount, rec.SenderID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, rec.ReceiverID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO pix_transfers (id, sender_id, receiver_id, amount, created_at, status, description, key_type, key_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.ID.String(), rec.SenderID, rec.ReceiverID, amount, rec.Timestamp,
			string(rec.Status), rec.Description, string(rec.KeyType), rec.KeyValue,
		)
		return err
	})
}

// Pay debits the payer and appends the payment record in one transaction.
func (r *LedgerRepository) Pay(ctx context.Context, rec *domain.PaymentRecord) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		var balance string
		err := tx.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE id = $1 FOR UPDATE`, rec.PayerID).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		current, err := decimal.NewFromString(balance)
		if err != nil {
			return fmt.Errorf("corrupt balance for account %s: %w", rec.PayerID, err)
		}
		if current.LessThan(rec.Amount) {
			return domain.ErrInsufficientBalance
		}

		amount := rec.Amount.StringFixed(2)
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amount, rec.PayerID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO boleto_payments (id, payer_id, barcode, amount, created_at, status, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID.String(), rec.PayerID, rec.Barcode, amount, rec.Timestamp,
			string(rec.Status), rec.Description,
		)
		return err
	})
}

// lockBalances row-locks both accounts in ascending ID order and returns the
// sender's current balance.
func lockBalances(ctx context.Context, tx pgx.Tx, senderID, receiverID uuid.UUID) (decimal.Decimal, error) {
	first, second := senderID, receiverID
	if bytes.Compare(receiverID[:], senderID[:]) < 0 {
		first, second = receiverID, senderID
	}

	var senderBalance decimal.Decimal
	for _, id := range []uuid.UUID{first, second} {
		var balance string
		err := tx.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		if err != nil {
			return decimal.Zero, err
		}
		if id == senderID {
			senderBalance, err = decimal.NewFromString(balance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("corrupt balance for account %s: %w", id, err)
			}
		}
	}
	return senderBalance, nil
}

// withRetry runs fn inside a transaction, retrying a bounded number of times
// when Postgres reports a serialization failure (40001) or deadlock (40P01).
// Exhausted retries surface as ErrConcurrentConflict, distinct from any
// business rejection.
func (r *LedgerRepository) withRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := r.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrConcurrentConflict, lastErr)
}

func (r *LedgerRepository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *LedgerRepository) TransfersBySender(ctx context.Context, accountID uuid.UUID) ([]domain.TransferRecord, error) {
	return r.queryTransfers(ctx, `sender_id`, accountID)
}

func (r *LedgerRepository) TransfersByReceiver(ctx context.Context, accountID uuid.UUID) ([]domain.TransferRecord, error) {
	return r.queryTransfers(ctx, `receiver_id`, accountID)
}

func (r *LedgerRepository) queryTransfers(ctx context.Context, column string, accountID uuid.UUID) ([]domain.TransferRecord, error) {
	query := `
		SELECT t.id, t.sender_id, t.receiver_id, s.email, rcv.email, t.amount::text, t.created_at, t.status, t.description, t.key_type, t.key_value
		FROM pix_transfers t
		JOIN accounts s   ON s.id = t.sender_id
		JOIN accounts rcv ON rcv.id = t.receiver_id
		WHERE t.` + column + ` = $1
		ORDER BY t.id`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TransferRecord
	for rows.Next() {
		var t domain.TransferRecord
		var id, amount, status, keyType string
		if err := rows.Scan(&id, &t.SenderID, &t.ReceiverID, &t.SenderEmail, &t.ReceiverEmail,
			&amount, &t.Timestamp, &status, &t.Description, &keyType, &t.KeyValue); err != nil {
			return nil, err
		}
		if t.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt transfer id %q: %w", id, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt transfer amount %q: %w", amount, err)
		}
		t.Status = domain.TransferStatus(status)
		t.KeyType = domain.PixKeyType(keyType)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) PaymentsByPayer(ctx context.Context, accountID uuid.UUID) ([]domain.PaymentRecord, error) {
	query := `
		SELECT id, payer_id, barcode, amount::text, created_at, status, description
		FROM boleto_payments
		WHERE payer_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PaymentRecord
	for rows.Next() {
		var p domain.PaymentRecord
		var id, amount, status string
		if err := rows.Scan(&id, &p.PayerID, &p.Barcode, &amount, &p.Timestamp, &status, &p.Description); err != nil {
			return nil, err
		}
		if p.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt payment id %q: %w", id, err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt payment amount %q: %w", amount, err)
		}
		p.Status = domain.PaymentStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

// InvestmentsByInvestor reads the external investment feed. This service
// never writes to it.
func (r *LedgerRepository) InvestmentsByInvestor(ctx context.Context, accountID uuid.UUID) ([]domain.InvestmentRecord, error) {
	query := `
		SELECT id, investor_id, amount::text, invested_at, type
		FROM investments
		WHERE investor_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InvestmentRecord
	for rows.Next() {
		var inv domain.InvestmentRecord
		var id, amount string
		if err := rows.Scan(&id, &inv.InvestorID, &amount, &inv.Date, &inv.Type); err != nil {
			return nil, err
		}
		if inv.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt investment id %q: %w", id, err)
		}
		if inv.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt investment amount %q: %w", amount, err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
