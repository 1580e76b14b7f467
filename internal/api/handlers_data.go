package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mistermandob/mandob/internal/models"
	"github.com/mistermandob/mandob/internal/services"
)

type transactionInput struct {
	Kind     models.TransactionKind `json:"type" form:"type"`
	Amount   float64                `json:"amount" form:"amount"`
	Quantity int                    `json:"quantity" form:"quantity"`
}

type stockInput struct {
	SimType  models.SimType     `json:"type" form:"type"`
	Quantity int                `json:"quantity" form:"quantity"`
	Action   models.StockAction `json:"action" form:"action"`
}

type fuelInput struct {
	FuelType models.FuelType `json:"fuelType" form:"fuelType"`
	Amount   float64         `json:"amount" form:"amount"`
	Km       float64         `json:"km" form:"km"`
}

func (handler *Handler) GetData(c *fiber.Ctx) error {
	data, ok := handler.session.Snapshot()
	if !ok {
		return apiError(c, fiber.StatusConflict, "no active session data")
	}
	return c.JSON(data)
}

func (handler *Handler) CreateTransaction(c *fiber.Ctx) error {
	var input transactionInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if !input.Kind.Valid() {
		return apiError(c, fiber.StatusBadRequest, "invalid transaction type")
	}

	// Pre-flight floor check; the mutation core itself stays permissive.
	if data, ok := handler.session.Snapshot(); ok {
		if err := services.CheckTransactionStock(data, input.Kind, input.Quantity); err != nil {
			return apiError(c, fiber.StatusConflict, "insufficient_stock")
		}
	}

	transaction, err := handler.session.AddTransaction(input.Kind, input.Amount, input.Quantity)
	if err != nil {
		return mutationError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction": transaction})
}

func (handler *Handler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid transaction id")
	}
	if err := handler.session.RemoveTransaction(id); err != nil {
		return mutationError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) UpdateStock(c *fiber.Ctx) error {
	var input stockInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	if !input.SimType.Valid() {
		return apiError(c, fiber.StatusBadRequest, "invalid sim type")
	}
	if !input.Action.Valid() {
		return apiError(c, fiber.StatusBadRequest, "invalid stock action")
	}
	if input.Quantity < 1 {
		return apiError(c, fiber.StatusBadRequest, "quantity must be positive")
	}

	if data, ok := handler.session.Snapshot(); ok {
		if err := services.CheckStockAction(data, input.SimType, input.Quantity, input.Action); err != nil {
			if errors.Is(err, services.ErrInsufficientDamagedStock) {
				return apiError(c, fiber.StatusConflict, "insufficient_damaged_stock")
			}
			return apiError(c, fiber.StatusConflict, "insufficient_stock")
		}
	}

	entry, err := handler.session.UpdateStock(input.SimType, input.Quantity, input.Action)
	if err != nil {
		return mutationError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"log": entry})
}

func (handler *Handler) CreateFuelLog(c *fiber.Ctx) error {
	var input fuelInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	entry, err := handler.session.AddFuelLog(input.FuelType, input.Amount, input.Km)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFuelType) {
			return apiError(c, fiber.StatusBadRequest, "invalid fuel type")
		}
		return mutationError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"log": entry})
}

func (handler *Handler) DeleteFuelLog(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid fuel log id")
	}
	if err := handler.session.RemoveFuelLog(id); err != nil {
		return mutationError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) UpdateSettings(c *fiber.Ctx) error {
	var patch models.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	settings, err := handler.session.UpdateSettings(patch)
	if err != nil {
		return mutationError(c, err)
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func mutationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNoActiveSession) {
		return apiError(c, fiber.StatusConflict, "no active session")
	}
	return apiError(c, fiber.StatusBadRequest, err.Error())
}
