package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tenantsync/internal/config"
	"tenantsync/internal/models"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const rentCacheTTL = time.Hour

func rentKey(tenantID int) string {
	return fmt.Sprintf("rent:%d", tenantID)
}

// canViewTenant allows the tenant themselves and their landlord.
func canViewTenant(c *fiber.Ctx, t *models.Tenant) bool {
	switch callerRole(c) {
	case models.RoleTenant:
		return callerID(c) == t.UserID
	case models.RoleLandlord:
		return t.LandlordID != nil && *t.LandlordID == callerID(c)
	}
	return false
}

func (h *Handler) ListTenants(c *fiber.Ctx) error {
	tenants, err := h.Repo.ListTenantsByLandlord(c.UserContext(), callerID(c))
	if err != nil {
		return storeError(c, "landlord/tenants", err)
	}
	return ok(c, fiber.StatusOK, "Tenants found", tenants)
}

func (h *Handler) ListPendingRequests(c *fiber.Ctx) error {
	requests, err := h.Repo.ListPendingByLandlord(c.UserContext(), callerID(c))
	if err != nil {
		return storeError(c, "landlord/maintenance-requests", err)
	}
	return ok(c, fiber.StatusOK, "Maintenance requests found", requests)
}

type UpdateTenantRequest struct {
	TenantID        int                 `json:"tenantId" validate:"required,gt=0"`
	RentPrice       decimal.NullDecimal `json:"rentPrice"`
	ApartmentNumber *string             `json:"apartmentNumber" validate:"omitempty,max=32"`
}

func (h *Handler) UpdateTenant(c *fiber.Ctx) error {
	var req UpdateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "landlord/update-tenant", err)
	}
	if req.RentPrice.Valid && req.RentPrice.Decimal.IsNegative() {
		return fail(c, fiber.StatusBadRequest, "rentPrice must not be negative")
	}
	if req.RentPrice.Valid {
		req.RentPrice.Decimal = req.RentPrice.Decimal.Round(2)
	}

	landlordID := callerID(c)
	if err := h.Repo.UpdateTenant(c.UserContext(), landlordID, req.TenantID, req.RentPrice, req.ApartmentNumber); err != nil {
		return storeError(c, "landlord/update-tenant", err)
	}
	if h.Cache != nil {
		h.Cache.Del(c.UserContext(), rentKey(req.TenantID))
	}

	tenant, err := h.Repo.GetTenant(c.UserContext(), req.TenantID)
	if err != nil {
		return storeError(c, "landlord/update-tenant", err)
	}
	logger.AuditLogger.Info("Tenant updated", zap.Int("tenant_id", req.TenantID), zap.Int("landlord_id", landlordID))
	return ok(c, fiber.StatusOK, "Tenant updated", tenant)
}

type LinkPayPalRequest struct {
	LandlordID  int    `json:"landlordId"`
	PayPalEmail string `json:"paypalEmail" validate:"required,email,max=255"`
}

func (h *Handler) LinkPayPal(c *fiber.Ctx) error {
	var req LinkPayPalRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.PayPalEmail = strings.TrimSpace(req.PayPalEmail)
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "link-paypal", err)
	}
	landlordID := callerID(c)
	if req.LandlordID != 0 && req.LandlordID != landlordID {
		return fail(c, fiber.StatusForbidden, "Forbidden")
	}
	if err := h.Repo.SetPayPalEmail(c.UserContext(), landlordID, req.PayPalEmail); err != nil {
		return storeError(c, "link-paypal", err)
	}
	logger.AuditLogger.Info("PayPal linked", zap.Int("landlord_id", landlordID))
	return ok(c, fiber.StatusOK, "PayPal account linked", fiber.Map{"paypal_email": req.PayPalEmail})
}

func (h *Handler) GetPayPalEmail(c *fiber.Ctx) error {
	landlordID, err := paramID(c, "landlordId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	switch callerRole(c) {
	case models.RoleLandlord:
		if callerID(c) != landlordID {
			return fail(c, fiber.StatusForbidden, "Forbidden")
		}
	case models.RoleTenant:
		tenant, err := h.Repo.GetTenant(c.UserContext(), callerID(c))
		if err != nil {
			return storeError(c, "get-paypal-email", err)
		}
		if tenant.LandlordID == nil || *tenant.LandlordID != landlordID {
			return fail(c, fiber.StatusForbidden, "Forbidden")
		}
	default:
		return fail(c, fiber.StatusForbidden, "Forbidden")
	}

	landlord, err := h.Repo.GetLandlord(c.UserContext(), landlordID)
	if err != nil {
		return storeError(c, "get-paypal-email", err)
	}
	return ok(c, fiber.StatusOK, "PayPal email found", fiber.Map{"paypal_email": landlord.PayPalEmail})
}

// tenantFor loads the tenant named by the :tenantId param and checks the
// caller may see it. It writes the error response itself when it returns nil.
func (h *Handler) tenantFor(c *fiber.Ctx, what string) (*models.Tenant, error) {
	tenantID, err := paramID(c, "tenantId")
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, err.Error())
	}
	tenant, err := h.Repo.GetTenant(c.UserContext(), tenantID)
	if err != nil {
		return nil, storeError(c, what, err)
	}
	if !canViewTenant(c, tenant) {
		return nil, fail(c, fiber.StatusForbidden, "Forbidden")
	}
	return tenant, nil
}

func (h *Handler) GetLandlord(c *fiber.Ctx) error {
	tenant, err := h.tenantFor(c, "get-landlord")
	if tenant == nil {
		return err
	}
	if tenant.LandlordID == nil {
		return fail(c, fiber.StatusNotFound, "Tenant has no landlord")
	}
	return ok(c, fiber.StatusOK, "Landlord found", fiber.Map{"landlord_id": *tenant.LandlordID})
}

type rentView struct {
	TenantID  int                 `json:"tenant_id"`
	RentPrice decimal.NullDecimal `json:"rent_price"`
}

func (h *Handler) cachedRent(ctx context.Context, tenantID int) (*rentView, bool) {
	if h.Cache == nil {
		return nil, false
	}
	raw, err := h.Cache.Get(ctx, rentKey(tenantID)).Result()
	if err != nil {
		return nil, false
	}
	var v rentView
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// GetRent serves the tenant's rent, cached in Redis for an hour.
func (h *Handler) GetRent(c *fiber.Ctx) error {
	// A tenant reading their own rent skips the ownership lookup.
	if id, err := paramID(c, "tenantId"); err == nil && callerRole(c) == models.RoleTenant && callerID(c) == id {
		if v, hit := h.cachedRent(c.UserContext(), id); hit {
			return ok(c, fiber.StatusOK, "Rent found", v)
		}
	}

	tenant, err := h.tenantFor(c, "get-rent")
	if tenant == nil {
		return err
	}

	v := rentView{TenantID: tenant.UserID, RentPrice: tenant.RentPrice}
	if h.Cache != nil {
		if data, err := json.Marshal(v); err == nil {
			if err := h.Cache.SetEX(c.UserContext(), rentKey(tenant.UserID), data, rentCacheTTL).Err(); err != nil {
				logger.ErrorLogger.Warn("Error caching rent", zap.Error(err))
			}
		}
	}
	return ok(c, fiber.StatusOK, "Rent found", v)
}
