package handlers

import (
	"strings"

	"tenantsync/internal/config"
	"tenantsync/internal/models"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PostRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required,max=10000"`
	Category string `json:"category" validate:"omitempty,oneof='General' 'Job Listing' 'Community Event' 'Property Update'"`
}

// CreatePost stores a post hidden until a landlord approves it.
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "create-post", err)
	}
	if req.Category == "" {
		req.Category = models.CategoryGeneral
	}

	p := &models.BulletinPost{
		UserID:   callerID(c),
		UserRole: callerRole(c),
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}
	if _, err := h.Repo.CreatePost(c.UserContext(), p); err != nil {
		return storeError(c, "create-post", err)
	}
	logger.AuditLogger.Info("Post submitted", zap.Int("post_id", p.ID), zap.Int("user_id", p.UserID))
	return ok(c, fiber.StatusCreated, "Post submitted for moderation", p)
}

func (h *Handler) GetPosts(c *fiber.Ctx) error {
	posts, err := h.Repo.ListModeratedPosts(c.UserContext())
	if err != nil {
		return storeError(c, "get-posts", err)
	}
	return ok(c, fiber.StatusOK, "Posts found", posts)
}

type ModerateRequest struct {
	PostID   int  `json:"postId" validate:"required,gt=0"`
	Approved bool `json:"approved"`
}

func (h *Handler) ModeratePost(c *fiber.Ctx) error {
	var req ModerateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "moderate-post", err)
	}
	if err := h.Repo.ModeratePost(c.UserContext(), req.PostID, req.Approved); err != nil {
		return storeError(c, "moderate-post", err)
	}
	logger.AuditLogger.Info("Post moderated",
		zap.Int("post_id", req.PostID), zap.Bool("approved", req.Approved), zap.Int("moderator", callerID(c)))
	return ok(c, fiber.StatusOK, "Post moderated", fiber.Map{"postId": req.PostID, "moderated": req.Approved})
}

type CommentRequest struct {
	PostID  int    `json:"postId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *Handler) AddComment(c *fiber.Ctx) error {
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := config.Validate.Struct(req); err != nil {
		return badRequest(c, "add-comment", err)
	}

	comment := &models.BulletinComment{PostID: req.PostID, UserID: callerID(c), Content: req.Content}
	if _, err := h.Repo.AddComment(c.UserContext(), comment); err != nil {
		return storeError(c, "add-comment", err)
	}
	return ok(c, fiber.StatusCreated, "Comment added", comment)
}

func (h *Handler) GetComments(c *fiber.Ctx) error {
	postID, err := paramID(c, "postId")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	comments, err := h.Repo.ListComments(c.UserContext(), postID)
	if err != nil {
		return storeError(c, "get-comments", err)
	}
	return ok(c, fiber.StatusOK, "Comments found", comments)
}
