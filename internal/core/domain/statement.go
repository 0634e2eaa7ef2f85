package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind tags where a statement line came from.
type EntryKind string

const (
	EntryTransferSent     EntryKind = "TRANSFER_SENT"
	EntryTransferReceived EntryKind = "TRANSFER_RECEIVED"
	EntryPayment          EntryKind = "PAYMENT"
	EntryInvestment       EntryKind = "INVESTMENT"
)

// StatementEntry is one line of an account statement. It is derived on
// demand from the ledger stores and never persisted.
type StatementEntry struct {
	Kind        EntryKind       `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
}
