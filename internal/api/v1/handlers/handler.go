package handlers

import (
	"errors"
	"strconv"
	"time"

	"tenantsync/configs"
	"tenantsync/internal/intake"
	"tenantsync/internal/middleware"
	"tenantsync/internal/models"
	"tenantsync/internal/payment"
	"tenantsync/internal/repository"
	"tenantsync/internal/scheduler"
	"tenantsync/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Notifier pushes booking events to connected workers.
type Notifier interface {
	NotifyBooking(workerID int, event any) error
}

// Deps are the collaborators of the HTTP handlers. Cache and Notifier may be nil.
type Deps struct {
	Config    configs.Config
	Repo      repository.Repository
	Auth      *middleware.Auth
	Assistant intake.Assistant
	Intake    *intake.Flow
	Orders    payment.OrderProvider
	Intents   payment.IntentProvider
	Cache     *redis.Client
	Notifier  Notifier
	Now       func() time.Time
}

type Handler struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Handler {
	if d.Orders == nil {
		d.Orders = payment.Disabled(models.ProviderPayPal)
	}
	if d.Intents == nil {
		d.Intents = payment.Disabled(models.ProviderStripe)
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{Deps: d, now: now}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	})
}

func ok(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"message": message,
		"success": true,
		"status":  status,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, what string, err error) error {
	logger.AuditLogger.Warn("Bad request", zap.String("handler", what), zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"errors":  err.Error(),
		"success": false,
		"status":  fiber.StatusBadRequest,
	})
}

// storeError maps repository and allocator errors onto HTTP statuses.
func storeError(c *fiber.Ctx, what string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, fiber.StatusNotFound, what+": not found")
	case errors.Is(err, repository.ErrDuplicate):
		return fail(c, fiber.StatusConflict, what+": already exists")
	case errors.Is(err, repository.ErrInvalidReference):
		return fail(c, fiber.StatusBadRequest, what+": unknown reference")
	case errors.Is(err, repository.ErrAvailabilityConflict):
		return fail(c, fiber.StatusConflict, what+": worker was booked concurrently, try again")
	}
	if errors.Is(err, scheduler.ErrInvalidWindow) {
		logger.ErrorLogger.Error("Stored availability is malformed", zap.String("handler", what), zap.Error(err))
	} else {
		logger.ErrorLogger.Error("Store failure", zap.String("handler", what), zap.Error(err))
	}
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

func callerID(c *fiber.Ctx) int {
	id, _ := c.Locals("userID").(int)
	return id
}

func callerRole(c *fiber.Ctx) models.Role {
	role, _ := c.Locals("role").(string)
	return models.Role(role)
}

func paramID(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
