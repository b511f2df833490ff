package handlers

import (
	"context"
	"errors"
	"strings"

	"tenantsync/internal/config"
	"tenantsync/internal/models"
	"tenantsync/internal/payment"
	"tenantsync/internal/repository"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// rentDue resolves the paying tenant, their landlord and the amount owed.
func (h *Handler) rentDue(ctx context.Context, tenantID int) (*models.Tenant, decimal.Decimal, error) {
	tenant, err := h.Repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return tenant, tenant.RentPrice.Decimal, nil
}

func paymentError(c *fiber.Ctx, what string, err error) error {
	switch {
	case errors.Is(err, payment.ErrPayeeNotLinked):
		return fail(c, fiber.StatusBadRequest, "Landlord has not linked a PayPal account")
	case errors.Is(err, payment.ErrNotConfigured):
		return fail(c, fiber.StatusServiceUnavailable, "Payments are not available")
	}
	logger.ErrorLogger.Error("Payment provider failure", zap.String("handler", what), zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "Payment provider error")
}

func (h *Handler) parsePayment(c *fiber.Ctx, what string) (*models.Tenant, decimal.Decimal, string, bool) {
	var req PaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			_ = fail(c, fiber.StatusBadRequest, "Bad request")
			return nil, decimal.Zero, "", false
		}
	}
	if err := config.Validate.Struct(req); err != nil {
		_ = badRequest(c, what, err)
		return nil, decimal.Zero, "", false
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	tenant, amount, err := h.rentDue(c.UserContext(), callerID(c))
	if err != nil {
		_ = storeError(c, what, err)
		return nil, decimal.Zero, "", false
	}
	if tenant.LandlordID == nil {
		_ = fail(c, fiber.StatusBadRequest, "Tenant is not linked to a landlord")
		return nil, decimal.Zero, "", false
	}
	if !tenant.RentPrice.Valid || !amount.IsPositive() {
		_ = fail(c, fiber.StatusBadRequest, "Rent has not been set")
		return nil, decimal.Zero, "", false
	}
	return tenant, amount, currency, true
}

// CreatePayment opens a PayPal order for the caller's rent, payable to the
// landlord's linked account.
func (h *Handler) CreatePayment(c *fiber.Ctx) error {
	tenant, amount, currency, valid := h.parsePayment(c, "create-payment")
	if !valid {
		return nil
	}

	landlord, err := h.Repo.GetLandlord(c.UserContext(), *tenant.LandlordID)
	if err != nil {
		return storeError(c, "create-payment", err)
	}

	base := strings.TrimRight(h.Config.FrontendURL, "/")
	order, err := h.Orders.CreateOrder(c.UserContext(), payment.OrderRequest{
		Amount:     amount,
		Currency:   currency,
		PayeeEmail: landlord.PayPalEmail,
		ReturnURL:  base + "/payment-success",
		CancelURL:  base + "/payment",
	})
	if err != nil {
		return paymentError(c, "create-payment", err)
	}

	_, err = h.Repo.CreatePayment(c.UserContext(), &models.Payment{
		Provider:    h.Orders.Name(),
		ProviderRef: order.ID,
		TenantID:    tenant.UserID,
		LandlordID:  landlord.ID,
		Amount:      amount,
		Currency:    currency,
		Status:      models.PaymentCreated,
	})
	if err != nil {
		return storeError(c, "create-payment", err)
	}

	logger.AuditLogger.Info("Payment order created",
		zap.String("order_id", order.ID), zap.Int("tenant_id", tenant.UserID), zap.String("amount", amount.StringFixed(2)))
	return ok(c, fiber.StatusCreated, "Order created", order)
}

type CaptureRequest struct {
	OrderID string `json:"orderId" validate:"required,max=64"`
}

// CapturePayment settles an approved order. Only the tenant who opened the
// order may capture it.
func (h *Handler) CapturePayment(c *fiber.Ctx) error {
	var req CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "capture-payment", err)
	}

	entry, err := h.Repo.GetPaymentByRef(c.UserContext(), h.Orders.Name(), req.OrderID)
	if err != nil {
		return storeError(c, "capture-payment", err)
	}
	if entry.TenantID != callerID(c) {
		logger.SecurityLogger.Warn("Capture of another tenant's order",
			zap.String("order_id", req.OrderID), zap.Int("caller", callerID(c)))
		return fail(c, fiber.StatusForbidden, "Forbidden")
	}

	order, err := h.Orders.CaptureOrder(c.UserContext(), req.OrderID)
	if err != nil {
		if _, uerr := h.Repo.UpdatePaymentStatus(c.UserContext(), h.Orders.Name(), req.OrderID, models.PaymentFailed); uerr != nil &&
			!errors.Is(uerr, repository.ErrNotFound) {
			logger.ErrorLogger.Error("Error recording failed capture", zap.Error(uerr))
		}
		return paymentError(c, "capture-payment", err)
	}

	status := models.PaymentFailed
	if strings.EqualFold(order.Status, "COMPLETED") {
		status = models.PaymentCaptured
	}
	if _, err := h.Repo.UpdatePaymentStatus(c.UserContext(), h.Orders.Name(), req.OrderID, status); err != nil {
		return storeError(c, "capture-payment", err)
	}

	logger.AuditLogger.Info("Payment captured", zap.String("order_id", req.OrderID), zap.String("status", order.Status))
	return ok(c, fiber.StatusOK, "Payment captured", order)
}

// CreatePaymentIntent issues a Stripe client secret for the caller's rent.
func (h *Handler) CreatePaymentIntent(c *fiber.Ctx) error {
	tenant, amount, currency, valid := h.parsePayment(c, "create-payment-intent")
	if !valid {
		return nil
	}

	intent, err := h.Intents.CreateIntent(c.UserContext(), amount, currency)
	if err != nil {
		return paymentError(c, "create-payment-intent", err)
	}
	_, err = h.Repo.CreatePayment(c.UserContext(), &models.Payment{
		Provider:    h.Intents.Name(),
		ProviderRef: intent.ID,
		TenantID:    tenant.UserID,
		LandlordID:  *tenant.LandlordID,
		Amount:      amount,
		Currency:    currency,
		Status:      models.PaymentCreated,
	})
	if err != nil {
		return storeError(c, "create-payment-intent", err)
	}
	return ok(c, fiber.StatusCreated, "Payment intent created", fiber.Map{"clientSecret": intent.ClientSecret})
}
