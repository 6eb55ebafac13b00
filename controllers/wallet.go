package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"github.com/tanvirahmed-dev/therapylink/wallet"
)

type WalletController struct {
	Ledger *wallet.Ledger
}

func NewWalletController(ledger *wallet.Ledger) *WalletController {
	return &WalletController{Ledger: ledger}
}

// GetWallet returns the wallet of a user.
func (ctl *WalletController) GetWallet(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid user id",
			Error:   err.Error(),
		})
	}

	w, err := ctl.Ledger.Get(uint(userID))
	if err != nil {
		return utils.RespondError(c, err, "Failed to fetch wallet")
	}
	return c.JSON(w)
}

type topUpInput struct {
	Amount        int64  `json:"amount"` // minor units
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

// TopUp credits an already-captured gateway payment into the wallet.
func (ctl *WalletController) TopUp(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid user id",
			Error:   err.Error(),
		})
	}

	var input topUpInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	if err := ctl.Ledger.TopUp(uint(userID), input.Amount, input.Currency, input.TransactionID); err != nil {
		return utils.RespondError(c, err, "Failed to top up wallet")
	}

	w, err := ctl.Ledger.Get(uint(userID))
	if err != nil {
		return utils.RespondError(c, err, "Failed to fetch wallet")
	}
	return c.JSON(w)
}
