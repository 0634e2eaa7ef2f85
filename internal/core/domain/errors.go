package domain

import "errors"

// Domain errors surfaced to callers of the engine. Handlers map these to
// HTTP status codes; everything else bubbles up as a 500.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfTransfer        = errors.New("transfer to the same account is not allowed")
	ErrUnsupportedKeyType  = errors.New("random pix keys are not supported yet")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidBarcode      = errors.New("invalid boleto barcode")
	ErrConcurrentConflict  = errors.New("balance update conflicted with a concurrent operation")
)
