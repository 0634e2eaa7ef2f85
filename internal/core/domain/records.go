package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Transfer and payment statuses. The engine only ever persists the success
// values: a validation failure prevents the record from being created at all.
type TransferStatus string

const (
	TransferCompleted TransferStatus = "COMPLETED"
	TransferFailed    TransferStatus = "FAILED"
)

type PaymentStatus string

const PaymentPaid PaymentStatus = "PAID"

// TransferRecord is an immutable PIX transfer entry. Once appended to the
// ledger it is never updated or deleted.
type TransferRecord struct {
	ID            ulid.ULID       `json:"id"`
	SenderID      uuid.UUID       `json:"sender_id"`
	ReceiverID    uuid.UUID       `json:"receiver_id"`
	SenderEmail   string          `json:"sender_email"`
	ReceiverEmail string          `json:"receiver_email"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	Status        TransferStatus  `json:"status"`
	Description   string          `json:"description"`
	KeyType       PixKeyType      `json:"key_type"`
	KeyValue      string          `json:"key_value"`
}

// PaymentRecord is an immutable boleto payment entry. There is no receiver
// account: the barcode identifies the billing instrument, money leaves the
// payer only.
type PaymentRecord struct {
	ID          ulid.ULID       `json:"id"`
	PayerID     uuid.UUID       `json:"payer_id"`
	Barcode     string          `json:"barcode"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      PaymentStatus   `json:"status"`
	Description string          `json:"description"`
}

// InvestmentRecord comes from the read-only investment feed. This core never
// creates or mutates one, it only folds them into statements.
type InvestmentRecord struct {
	ID         ulid.ULID       `json:"id"`
	InvestorID uuid.UUID       `json:"investor_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Type       string          `json:"type"`
}
