package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	applog "eclub/internal/log"
	"eclub/internal/upload"
)

type UploadHandler struct {
	Storage upload.Storage
	Limits  upload.Limits
	// Dir is the object prefix images are stored under.
	Dir string
}

func uploadStatus(err error) int {
	if errors.Is(err, upload.ErrTooLarge) {
		return fiber.StatusRequestEntityTooLarge
	}
	if errors.Is(err, upload.ErrUnsupportedType) {
		return fiber.StatusUnsupportedMediaType
	}
	return fiber.StatusBadRequest
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return "Image is too large"
	case errors.Is(err, upload.ErrUnsupportedType):
		return "Only JPEG, PNG, WebP or GIF images are accepted"
	}
	return "Please choose an image to upload"
}

// Image accepts a multipart "image" field and answers {"image_url": ...}.
func (h *UploadHandler) Image(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, "upload.image", upload.ErrEmpty, nil)
	}
	// Size first so oversized files are never opened.
	if err := upload.CheckSize(fh.Size, h.Limits); err != nil {
		return fail(c, "upload.image", err, nil)
	}

	f, err := fh.Open()
	if err != nil {
		return fail(c, "upload.image", fmt.Errorf("open upload: %w", err), nil)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fail(c, "upload.image", fmt.Errorf("read upload: %w", err), nil)
	}
	head = head[:n]
	ct := upload.Sniff(head)
	if err := upload.Check(ct, fh.Size, h.Limits); err != nil {
		return fail(c, "upload.image", err, map[string]any{"declared": fh.Header.Get("Content-Type")})
	}

	name := upload.ObjectName(h.Dir, ct)
	url, err := h.Storage.Put(c.UserContext(), name, ct, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		applog.Error(c, "upload.image.store.fail", err, map[string]any{"object": name})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save the image. Please try again."})
	}
	applog.Audit(c, "upload.image", map[string]any{"object": name, "type": ct, "bytes": fh.Size})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"image_url": url})
}
