package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"tenantsync/internal/config"
	"tenantsync/internal/models"
	"tenantsync/internal/scheduler"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BookingEvent is pushed to a worker when a job lands in their schedule.
type BookingEvent struct {
	Type              string    `json:"type"`
	RequestID         int       `json:"requestId"`
	Description       string    `json:"description"`
	TypeOfMaintenance string    `json:"typeOfMaintenance"`
	TimeScheduled     string    `json:"timeScheduled"`
	ScheduledStart    time.Time `json:"scheduledStart"`
	ScheduledEnd      time.Time `json:"scheduledEnd"`
}

type SubmitRequest struct {
	Description string `validate:"required,max=5000"`
	Priority    string `validate:"oneof=Low Medium High"`
}

// SubmitMaintenanceRequest files a request from a multipart form, classifies
// it and books the earliest matching worker.
func (h *Handler) SubmitMaintenanceRequest(c *fiber.Ctx) error {
	req := SubmitRequest{
		Description: strings.TrimSpace(c.FormValue("description")),
		Priority:    c.FormValue("priority", models.PriorityMedium),
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "maintenance-request", err)
	}

	tenant, err := h.Repo.GetTenant(c.UserContext(), callerID(c))
	if err != nil {
		return storeError(c, "maintenance-request", err)
	}
	if tenant.LandlordID == nil {
		return fail(c, fiber.StatusBadRequest, "Tenant is not linked to a landlord")
	}

	var refs []string
	if form, err := c.MultipartForm(); err == nil {
		refs, err = h.saveMedia(c, form.File["media"])
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fail(c, fe.Code, fe.Message)
			}
			return fail(c, fiber.StatusInternalServerError, "Error saving media")
		}
	}

	r := &models.MaintenanceRequest{
		TenantID:    tenant.UserID,
		LandlordID:  *tenant.LandlordID,
		Description: req.Description,
		Priority:    req.Priority,
		Media:       refs,
	}
	id, err := h.Repo.CreateRequest(c.UserContext(), r)
	if err != nil {
		return storeError(c, "maintenance-request", err)
	}
	logger.AuditLogger.Info("Maintenance request created", zap.Int("request_id", id), zap.Int("tenant_id", tenant.UserID))

	data := fiber.Map{"requestId": id, "media": r.Media}
	issueType, err := h.Assistant.ClassifyIssue(c.UserContext(), req.Description)
	if err != nil {
		// Classification is best effort; the request stays filed and unassigned.
		logger.ErrorLogger.Warn("Classification failed", zap.Int("request_id", id), zap.Error(err))
		return ok(c, fiber.StatusCreated, "Maintenance request submitted", data)
	}
	data["aiPrediction"] = issueType

	message, err := h.schedule(c.UserContext(), r, issueType, data)
	if err != nil {
		return storeError(c, "maintenance-request", err)
	}
	return ok(c, fiber.StatusCreated, message, data)
}

// schedule records issueType on r and books a worker. Allocation misses are
// reported in the message, not as errors; data receives the booking fields.
func (h *Handler) schedule(ctx context.Context, r *models.MaintenanceRequest, issueType string, data fiber.Map) (string, error) {
	if err := h.Repo.SetRequestType(ctx, r.ID, issueType); err != nil {
		return "", err
	}

	day := h.now().In(h.Config.Location())
	alloc, err := h.Repo.BookWorker(ctx, r.ID, issueType, day)
	switch {
	case errors.Is(err, scheduler.ErrNoWorker), errors.Is(err, scheduler.ErrWindowTooShort):
		logger.AuditLogger.Info("No worker available", zap.Int("request_id", r.ID), zap.String("type", issueType), zap.Error(err))
		return "Maintenance request submitted, no " + issueType + " is available today", nil
	case err != nil:
		return "", err
	}

	data["assignedWorker"] = alloc.WorkerID
	data["timeScheduled"] = alloc.TimeScheduled()
	data["scheduledStart"] = alloc.Start
	logger.AuditLogger.Info("Worker booked",
		zap.Int("request_id", r.ID), zap.Int("worker_id", alloc.WorkerID), zap.String("slot", alloc.TimeScheduled()))

	if h.Notifier != nil {
		event := BookingEvent{
			Type:              "booking",
			RequestID:         r.ID,
			Description:       r.Description,
			TypeOfMaintenance: issueType,
			TimeScheduled:     alloc.TimeScheduled(),
			ScheduledStart:    alloc.Start,
			ScheduledEnd:      alloc.End,
		}
		if err := h.Notifier.NotifyBooking(alloc.WorkerID, event); err != nil {
			logger.ErrorLogger.Warn("Booking notification failed", zap.Int("worker_id", alloc.WorkerID), zap.Error(err))
		}
	}
	return "Maintenance request submitted and scheduled for " + alloc.TimeScheduled(), nil
}

func (h *Handler) Bookings(c *fiber.Ctx) error {
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if callerRole(c) == models.RoleMaintenance && callerID(c) != workerID {
		return fail(c, fiber.StatusForbidden, "Forbidden")
	}
	from, err := time.ParseInLocation("2006-01-02", c.Params("date"), h.Config.Location())
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	bookings, err := h.Repo.ListBookings(c.UserContext(), workerID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return storeError(c, "bookings", err)
	}
	return ok(c, fiber.StatusOK, "Bookings found", bookings)
}

func (h *Handler) GetAvailability(c *fiber.Ctx) error {
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	worker, err := h.Repo.GetWorker(c.UserContext(), workerID)
	if err != nil {
		return storeError(c, "get-availability", err)
	}
	return ok(c, fiber.StatusOK, "Availability found", fiber.Map{
		"availability":      worker.Availability,
		"typeOfMaintenance": worker.TypeOfMaintenance,
	})
}

type TimerRequest struct {
	ID        int    `json:"id" validate:"required,gt=0"`
	TimeTaken string `json:"timeTaken" validate:"required,max=32"`
}

func (h *Handler) CompleteRequest(c *fiber.Ctx) error {
	var req TimerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "complete-request", err)
	}

	workerID := callerID(c)
	if err := h.Repo.CompleteRequest(c.UserContext(), req.ID, workerID, req.TimeTaken, h.now()); err != nil {
		return storeError(c, "complete-request", err)
	}
	r, err := h.Repo.GetRequest(c.UserContext(), req.ID)
	if err != nil {
		return storeError(c, "complete-request", err)
	}
	logger.AuditLogger.Info("Request completed", zap.Int("request_id", req.ID), zap.Int("worker_id", workerID))
	return ok(c, fiber.StatusOK, "Request completed", r)
}

func (h *Handler) UpdateTimer(c *fiber.Ctx) error {
	var req TimerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "update-timer", err)
	}
	if err := h.Repo.UpdateTimer(c.UserContext(), req.ID, callerID(c), req.TimeTaken); err != nil {
		return storeError(c, "update-timer", err)
	}
	return ok(c, fiber.StatusOK, "Timer updated", fiber.Map{"id": req.ID, "timeTaken": req.TimeTaken})
}

type AvailabilityRequest struct {
	WorkerID     int    `json:"workerId"`
	Availability string `json:"availability" validate:"required,hhmmwindow"`
}

func (h *Handler) UpdateAvailability(c *fiber.Ctx) error {
	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Availability = strings.TrimSpace(req.Availability)
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "update-availability", err)
	}
	workerID := callerID(c)
	if req.WorkerID != 0 && req.WorkerID != workerID {
		return fail(c, fiber.StatusForbidden, "Forbidden")
	}

	// Store the canonical form so lexical and numeric readers agree.
	w, _ := scheduler.ParseWindow(req.Availability)
	if err := h.Repo.UpdateAvailability(c.UserContext(), workerID, w.String()); err != nil {
		return storeError(c, "update-availability", err)
	}
	logger.AuditLogger.Info("Availability updated", zap.Int("worker_id", workerID), zap.String("availability", w.String()))
	return ok(c, fiber.StatusOK, "Availability updated", fiber.Map{"availability": w.String()})
}

type MaintenanceTypeRequest struct {
	WorkerID          int    `json:"workerId"`
	TypeOfMaintenance string `json:"typeOfMaintenance" validate:"required,oneof=Plumber Electrician General"`
}

func (h *Handler) UpdateMaintenanceType(c *fiber.Ctx) error {
	var req MaintenanceTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "update-maintenance-type", err)
	}
	workerID := callerID(c)
	if req.WorkerID != 0 && req.WorkerID != workerID {
		return fail(c, fiber.StatusForbidden, "Forbidden")
	}
	if err := h.Repo.UpdateMaintenanceType(c.UserContext(), workerID, req.TypeOfMaintenance); err != nil {
		return storeError(c, "update-maintenance-type", err)
	}
	return ok(c, fiber.StatusOK, "Maintenance type updated", fiber.Map{"typeOfMaintenance": req.TypeOfMaintenance})
}
