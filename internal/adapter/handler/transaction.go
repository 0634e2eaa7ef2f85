package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
	"github.com/brokendeveloper/banking-app/internal/core/engine"
)

type TransactionHandler struct {
	Engine *engine.Engine
}

// Amounts travel as decimal strings ("150.00"); parsing them through
// domain.ParseAmount keeps floats out of the money path.
type DepositRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

type TransferRequest struct {
	KeyType string `json:"key_type"`
	Key     string `json:"key"`
	Amount  string `json:"amount"`
}

// Deposit credits an account.
func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
	}

	balance, err := h.Engine.Deposit(c.Context(), accountID, amount)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("deposit completed", "account_id", accountID, "amount", amount.StringFixed(2))

	return c.JSON(fiber.Map{
		"balance": balance.StringFixed(2),
		"message": "Deposit completed",
	})
}

// Transfer executes a PIX transfer from the authenticated account to the
// account resolved by the pix key.
func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	senderID, ok := authenticatedAccount(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing account context"})
	}

	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	keyType, err := domain.ParsePixKeyType(req.KeyType)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid pix key type"})
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
	}

	rec, err := h.Engine.Transfer(c.Context(), senderID, keyType, req.Key, amount)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("pix transfer completed", "transfer_id", rec.ID, "sender_id", rec.SenderID, "receiver_id", rec.ReceiverID)

	return c.JSON(fiber.Map{
		"id":             rec.ID.String(),
		"sender_email":   rec.SenderEmail,
		"receiver_email": rec.ReceiverEmail,
		"amount":         rec.Amount.StringFixed(2),
		"timestamp":      rec.Timestamp,
		"status":         rec.Status,
		"description":    rec.Description,
		"key_type":       rec.KeyType,
		"key":            rec.KeyValue,
	})
}

// authenticatedAccount reads the account ID the auth middleware stored.
func authenticatedAccount(c *fiber.Ctx) (uuid.UUID, bool) {
	raw, _ := c.Locals("account_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
