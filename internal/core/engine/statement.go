package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// Statement merges every ledger source touching the account into one view,
// most recent first. An account with no activity gets an empty statement,
// not an error.
func (e *Engine) Statement(ctx context.Context, accountID uuid.UUID) ([]domain.StatementEntry, error) {
	if _, err := e.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}

	sent, err := e.ledger.TransfersBySender(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("statement: transfers sent: %w", err)
	}
	received, err := e.ledger.TransfersByReceiver(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("statement: transfers received: %w", err)
	}
	payments, err := e.ledger.PaymentsByPayer(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("statement: payments: %w", err)
	}
	investments, err := e.investments.InvestmentsByInvestor(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("statement: investments: %w", err)
	}

	entries := make([]domain.StatementEntry, 0, len(sent)+len(received)+len(payments)+len(investments))

	for _, t := range sent {
		entries = append(entries, domain.StatementEntry{
			Kind:        domain.EntryTransferSent,
			Amount:      t.Amount,
			Timestamp:   t.Timestamp,
			Description: "PIX sent to " + t.ReceiverEmail,
		})
	}
	for _, t := range received {
		entries = append(entries, domain.StatementEntry{
			Kind:        domain.EntryTransferReceived,
			Amount:      t.Amount,
			Timestamp:   t.Timestamp,
			Description: "PIX received from " + t.SenderEmail,
		})
	}
	for _, p := range payments {
		entries = append(entries, domain.StatementEntry{
			Kind:        domain.EntryPayment,
			Amount:      p.Amount,
			Timestamp:   p.Timestamp,
			Description: "Boleto payment",
		})
	}
	for _, inv := range investments {
		entries = append(entries, domain.StatementEntry{
			Kind:        domain.EntryInvestment,
			Amount:      inv.Amount,
			Timestamp:   inv.Date,
			Description: "Investment in " + inv.Type,
		})
	}

	// Stable sort keeps equal timestamps in source order, so repeated reads
	// of an unchanged ledger return identical statements.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}
