package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
	"github.com/brokendeveloper/banking-app/internal/core/engine"
)

type PaymentHandler struct {
	Engine *engine.Engine
}

type BoletoPaymentRequest struct {
	Barcode string `json:"barcode"`
	Amount  string `json:"amount"`
}

// PayBoleto debits the authenticated account and records the payment.
func (h *PaymentHandler) PayBoleto(c *fiber.Ctx) error {
	payerID, ok := authenticatedAccount(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing account context"})
	}

	var req BoletoPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
	}

	rec, err := h.Engine.PayBoleto(c.Context(), payerID, req.Barcode, amount)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("boleto paid", "payment_id", rec.ID, "payer_id", rec.PayerID, "amount", rec.Amount.StringFixed(2))

	return c.JSON(fiber.Map{
		"id":          rec.ID.String(),
		"barcode":     rec.Barcode,
		"amount":      rec.Amount.StringFixed(2),
		"timestamp":   rec.Timestamp,
		"status":      rec.Status,
		"description": rec.Description,
	})
}
