package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds a user's balance. Accounts are provisioned by an external
// service; this core only reads them and mutates their balance through the
// engine. Email, CPF and Phone double as PIX lookup keys.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	CPF       string          `json:"cpf"`
	Phone     string          `json:"phone"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// PixKeyType selects the lookup strategy used to resolve a transfer receiver.
type PixKeyType string

const (
	PixKeyEmail  PixKeyType = "EMAIL"
	PixKeyCPF    PixKeyType = "CPF"
	PixKeyPhone  PixKeyType = "PHONE"
	PixKeyRandom PixKeyType = "RANDOM"
)

// ParsePixKeyType converts the wire value into a PixKeyType.
// RANDOM parses fine; it is rejected later by the engine, not here.
func ParsePixKeyType(s string) (PixKeyType, error) {
	switch PixKeyType(strings.ToUpper(strings.TrimSpace(s))) {
	case PixKeyEmail:
		return PixKeyEmail, nil
	case PixKeyCPF:
		return PixKeyCPF, nil
	case PixKeyPhone:
		return PixKeyPhone, nil
	case PixKeyRandom:
		return PixKeyRandom, nil
	default:
		return "", fmt.Errorf("unknown pix key type %q", s)
	}
}
