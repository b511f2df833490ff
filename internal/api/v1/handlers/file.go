package handlers

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 5 << 20

var allowedExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".pdf": true, ".mp4": true}

func validateFile(file *multipart.FileHeader) error {
	if file.Size > maxUploadSize {
		return fiber.NewError(fiber.StatusBadRequest, "File size exceeds the limit of 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExts[ext] {
		return fiber.NewError(fiber.StatusBadRequest, "File type not allowed")
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") && !strings.Contains(contentType, "pdf") && !strings.Contains(contentType, "video") {
		return fiber.NewError(fiber.StatusBadRequest, "File must be an image, video or PDF")
	}
	return nil
}

// saveMedia stores every file of the "media" form field under a random name
// and returns their public references.
func (h *Handler) saveMedia(c *fiber.Ctx, files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	if len(files) == 0 {
		return refs, nil
	}
	if err := os.MkdirAll(h.Config.UploadDir, os.ModePerm); err != nil {
		logger.ErrorLogger.Error("Error creating upload directory", zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Error creating upload directory")
	}

	for _, file := range files {
		if err := validateFile(file); err != nil {
			return nil, err
		}
		name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
		if err := c.SaveFile(file, filepath.Join(h.Config.UploadDir, name)); err != nil {
			logger.ErrorLogger.Error("Error saving file", zap.Error(err))
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Error saving file")
		}
		logger.AuditLogger.Info("File uploaded", zap.String("filename", name), zap.Int64("size", file.Size))
		refs = append(refs, "/uploads/"+name)
	}
	return refs, nil
}

func (h *Handler) GetFile(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("filename"))
	if name == "." || name == string(filepath.Separator) {
		return fail(c, fiber.StatusNotFound, "File not found")
	}
	path := filepath.Join(h.Config.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		return fail(c, fiber.StatusNotFound, "File not found")
	}
	return c.SendFile(path)
}
