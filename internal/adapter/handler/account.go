package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/brokendeveloper/banking-app/internal/core/engine"
)

type AccountHandler struct {
	Engine *engine.Engine
}

// GetBalance returns the current balance of an account.
func (h *AccountHandler) GetBalance(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	balance, err := h.Engine.Balance(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"balance": balance.StringFixed(2)})
}

// GetStatement returns the merged, most-recent-first statement for an
// account: transfers sent and received, boleto payments and investments.
func (h *AccountHandler) GetStatement(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	entries, err := h.Engine.Statement(c.Context(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	type entryResponse struct {
		Kind        string `json:"kind"`
		Amount      string `json:"amount"`
		Timestamp   string `json:"timestamp"`
		Description string `json:"description"`
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Kind:        string(e.Kind),
			Amount:      e.Amount.StringFixed(2),
			Timestamp:   e.Timestamp.Format(time.RFC3339),
			Description: e.Description,
		})
	}

	return c.JSON(fiber.Map{"statement": out})
}
