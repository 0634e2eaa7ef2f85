package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/brokendeveloper/banking-app/internal/adapter/storage"
	"github.com/brokendeveloper/banking-app/internal/core/security"
)

type APIKeyHandler struct {
	Repo *storage.AccountRepository
}

// GenerateKey issues a new API key for an account. The raw key appears in
// the response exactly once; only its hash is stored.
func (h *APIKeyHandler) GenerateKey(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	realKey, keyHash, err := security.GenerateAPIKey()
	if err != nil {
		slog.Error("failed to generate api key", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not generate key"})
	}

	if err := h.Repo.SaveAPIKey(c.Context(), accountID, keyHash, "bk_live_"); err != nil {
		slog.Error("failed to save api key", "error", err, "account_id", accountID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save key"})
	}

	slog.Info("api key generated", "account_id", accountID)

	return c.JSON(fiber.Map{
		"api_key": realKey,
		"warning": "Save this now, it will not be shown again.",
	})
}
