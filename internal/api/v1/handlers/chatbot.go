package handlers

import (
	"strings"

	"tenantsync/internal/config"
	"tenantsync/internal/models"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatRequest struct {
	Message string   `json:"message" validate:"required,max=2000"`
	Media   []string `json:"media" validate:"max=10,dive,startswith=/uploads/,excludes=..,max=255"`
}

// Chatbot drives the conversational intake. Once the description is complete
// it is filed and scheduled like a form submission; the conversation is only
// cleared after the request is stored.
func (h *Handler) Chatbot(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "chatbot", err)
	}

	tenant, err := h.Repo.GetTenant(c.UserContext(), callerID(c))
	if err != nil {
		return storeError(c, "chatbot", err)
	}
	if tenant.LandlordID == nil {
		return fail(c, fiber.StatusBadRequest, "Tenant is not linked to a landlord")
	}

	out, err := h.Intake.Handle(c.UserContext(), tenant.UserID, req.Message, req.Media)
	if err != nil {
		logger.ErrorLogger.Error("Intake turn failed", zap.Int("tenant_id", tenant.UserID), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "The assistant is unavailable, please try again")
	}
	if !out.Done {
		return ok(c, fiber.StatusOK, "Follow-up", fiber.Map{"reply": out.Reply, "done": false})
	}

	r := &models.MaintenanceRequest{
		TenantID:    tenant.UserID,
		LandlordID:  *tenant.LandlordID,
		Description: out.Description,
		Priority:    models.PriorityMedium,
		Media:       out.Media,
	}
	id, err := h.Repo.CreateRequest(c.UserContext(), r)
	if err != nil {
		return storeError(c, "chatbot", err)
	}
	logger.AuditLogger.Info("Maintenance request filed from chat", zap.Int("request_id", id), zap.Int("tenant_id", tenant.UserID))
	if err := h.Intake.Reset(c.UserContext(), tenant.UserID); err != nil {
		logger.ErrorLogger.Warn("Error clearing intake", zap.Int("tenant_id", tenant.UserID), zap.Error(err))
	}

	data := fiber.Map{"done": true, "requestId": id, "aiPrediction": out.IssueType}
	reply, err := h.schedule(c.UserContext(), r, out.IssueType, data)
	if err != nil {
		return storeError(c, "chatbot", err)
	}
	data["reply"] = reply
	return ok(c, fiber.StatusCreated, "Maintenance request submitted", data)
}
