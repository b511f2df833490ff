package handlers

import (
	"errors"
	"strings"
	"time"

	"tenantsync/internal/config"
	"tenantsync/internal/middleware"
	"tenantsync/internal/models"
	"tenantsync/internal/repository"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Name              string `json:"name" validate:"required,max=255"`
	Email             string `json:"email" validate:"required,email,max=255"`
	Phone             string `json:"phone" validate:"required,number,len=10"`
	Password          string `json:"password" validate:"required,password"`
	Role              string `json:"role" validate:"required,oneof=tenant landlord maintenance"`
	LandlordID        *int   `json:"landlordId" validate:"omitempty,gt=0"`
	TypeOfMaintenance string `json:"typeOfMaintenance" validate:"omitempty,oneof=Plumber Electrician General"`
	Availability      string `json:"availability" validate:"omitempty,hhmmwindow"`
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in signup", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "signup", err)
	}
	role := models.Role(req.Role)
	if role == models.RoleMaintenance && req.TypeOfMaintenance == "" {
		return fail(c, fiber.StatusBadRequest, "typeOfMaintenance is required for maintenance accounts")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error hashing password")
	}

	id, err := h.Repo.CreateUser(c.UserContext(), repository.NewUser{
		Name:              strings.TrimSpace(req.Name),
		Email:             req.Email,
		Phone:             req.Phone,
		PasswordHash:      string(hashed),
		Role:              role,
		LandlordID:        req.LandlordID,
		TypeOfMaintenance: req.TypeOfMaintenance,
		Availability:      req.Availability,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		logger.SecurityLogger.Warn("Duplicate signup", zap.String("email", req.Email))
		return fail(c, fiber.StatusConflict, "Email already registered")
	}
	if err != nil {
		return storeError(c, "signup", err)
	}

	logger.AuditLogger.Info("User registered", zap.Int("user_id", id), zap.String("role", req.Role))
	return ok(c, fiber.StatusCreated, "User created successfully", fiber.Map{"id": id, "role": role})
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "login", err)
	}

	user, err := h.Repo.GetUserByEmail(c.UserContext(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.SecurityLogger.Warn("Login for unknown email", zap.String("email", req.Email))
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return storeError(c, "login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.Int("user_id", user.ID))
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	now := h.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(h.Config.SessionTTL),
	}
	if err := h.Repo.CreateSession(c.UserContext(), sess); err != nil {
		return storeError(c, "login", err)
	}
	token, err := h.Auth.Issue(sess)
	if err != nil {
		logger.ErrorLogger.Error("Error signing session token", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error generating token")
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	body := fiber.Map{
		"message":       "Success",
		"success":       true,
		"status":        fiber.StatusOK,
		"userId":        user.ID,
		"name":          user.Name,
		"role":          user.Role,
		"token":         token,
		"isMaintenance": user.Role == models.RoleMaintenance,
	}
	if user.Role == models.RoleMaintenance {
		worker, err := h.Repo.GetWorker(c.UserContext(), user.ID)
		if err != nil {
			return storeError(c, "login", err)
		}
		body["teamId"] = worker.TeamID
		body["availability"] = worker.Availability
		body["typeOfMaintenance"] = worker.TypeOfMaintenance
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	return c.JSON(body)
}

func (h *Handler) CheckSession(c *fiber.Ctx) error {
	user, err := h.Repo.GetUserByID(c.UserContext(), callerID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		return storeError(c, "check-session", err)
	}
	return c.JSON(fiber.Map{
		"loggedIn": true,
		"userId":   user.ID,
		"name":     user.Name,
		"role":     user.Role,
		"success":  true,
		"status":   fiber.StatusOK,
	})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	sid, _ := c.Locals("sessionID").(string)
	if err := h.Repo.RevokeSession(c.UserContext(), sid, h.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeError(c, "logout", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	logger.AuditLogger.Info("Logout", zap.Int("user_id", callerID(c)))
	return ok(c, fiber.StatusOK, "Logged out", nil)
}
