package handler

import (
	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/style"
	"github.com/fekuna/omnipos-menu-service/internal/theme"
	"github.com/gofiber/fiber/v2"
)

type brandingUpdateRequest struct {
	Value any `json:"value"`
}

func (h *MenuHandler) GetBranding(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.branding.Snapshot()})
}

func (h *MenuHandler) GetThemeCSS(c *fiber.Ctx) error {
	css := h.head.Stylesheet(style.StylesheetID)
	if css == "" {
		css = style.RenderCSS(h.branding.Snapshot().Theme)
	}
	c.Set(fiber.HeaderContentType, "text/css; charset=utf-8")
	return c.SendString(css)
}

func (h *MenuHandler) GetHead(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"title":        h.head.Title(),
		"favicon":      h.head.Favicon(),
		"stylesheetId": style.StylesheetID,
	}})
}

func (h *MenuHandler) ListThemes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": theme.All()})
}

func (h *MenuHandler) UpdateBranding(c *fiber.Ctx) error {
	field, err := branding.ParseField(c.Params("field"))
	if err != nil {
		return badRequest(c, err)
	}
	var req brandingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	if err := h.branding.Update(c.UserContext(), field, req.Value); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": h.branding.Snapshot()})
}

func (h *MenuHandler) UploadLogo(c *fiber.Ctx) error {
	file, err := formImage(c, "logo")
	if err != nil {
		return badRequest(c, err)
	}
	if file == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "logo file is required",
		})
	}

	url, err := h.branding.UploadLogo(c.UserContext(), *file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"logoUrl": url}})
}

func (h *MenuHandler) ResetBranding(c *fiber.Ctx) error {
	if err := h.branding.ResetToDefaults(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": h.branding.Snapshot()})
}
