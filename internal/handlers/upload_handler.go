package handlers

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/noteduco342/wavechat-backend/internal/httpx"
	"github.com/noteduco342/wavechat-backend/internal/storage"
)

// MaxUploadBytes bounds a single attachment.
const MaxUploadBytes = 10 * 1024 * 1024

type UploadHandler struct {
	blobs storage.BlobStore
}

func NewUploadHandler(blobs storage.BlobStore) *UploadHandler {
	return &UploadHandler{blobs: blobs}
}

// UploadAttachment accepts one multipart file, stores it under a random
// key, and returns the attachment descriptor the client embeds in its
// next send_message. Image attachments also get a bounded JPEG thumbnail.
func (h *UploadHandler) UploadAttachment(c *fiber.Ctx) error {
	if h.blobs == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
	}

	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		return httpx.BadRequest(c, "missing_attachment", "attachment file is required")
	}
	if fileHeader.Size > MaxUploadBytes {
		return httpx.BadRequest(c, "attachment_too_large", "Attachment is too large")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_attachment", "Invalid attachment upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return httpx.Internal(c, "attachment_read_failed")
	}
	if len(data) > MaxUploadBytes {
		return httpx.BadRequest(c, "attachment_too_large", "Attachment is too large")
	}

	ext := sanitizeExt(filepath.Ext(fileHeader.Filename))
	key := uuid.NewString() + ext

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.blobs.Put(c.Context(), key, data, contentType)
	if err != nil {
		log.Printf("Error storing attachment %s: %v", key, err)
		return httpx.Internal(c, "attachment_store_failed")
	}

	stored := storage.StoredFile{
		Filename:     key,
		OriginalName: fileHeader.Filename,
		Size:         int64(len(data)),
		URL:          url,
	}

	// Best effort: non-image attachments just skip the thumbnail.
	if thumb, err := storage.MakeThumbnail(data, storage.ThumbnailMaxDim); err == nil {
		thumbKey := strings.TrimSuffix(key, ext) + "_thumb.jpg"
		thumbURL, err := h.blobs.Put(c.Context(), thumbKey, thumb, "image/jpeg")
		if err != nil {
			log.Printf("Error storing thumbnail %s: %v", thumbKey, err)
		} else {
			stored.ThumbnailURL = thumbURL
		}
	} else if !errors.Is(err, storage.ErrUnsupported) && !errors.Is(err, storage.ErrInvalidImage) {
		log.Printf("Error generating thumbnail for %s: %v", key, err)
	}

	return c.JSON(stored)
}

// sanitizeExt keeps a short, harmless extension or drops it entirely.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") || strings.Contains(ext, "..") {
		return ""
	}
	return ext
}
