package handler

import (
	"fmt"
	"io"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	categorydto "github.com/fekuna/omnipos-menu-service/internal/category/dto"
	dishdto "github.com/fekuna/omnipos-menu-service/internal/dish/dto"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/gofiber/fiber/v2"
)

func (h *MenuHandler) ListVisibleCategories(c *fiber.Ctx) error {
	var parentID *string
	if p := c.Query("parent_id"); p != "" {
		parentID = &p
	}
	return c.JSON(fiber.Map{"success": true, "data": h.catalog.VisibleCategories(parentID)})
}

func (h *MenuHandler) ListVisibleDishes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.catalog.VisibleDishes(c.Params("id"))})
}

func (h *MenuHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.catalog.Snapshot()})
}

func (h *MenuHandler) CreateCategory(c *fiber.Ctx) error {
	var in categorydto.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	image, err := formImage(c, "image")
	if err != nil {
		return badRequest(c, err)
	}

	created, err := h.catalog.CreateCategory(c.UserContext(), in, image)
	if created == nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdBody(created, err))
}

func (h *MenuHandler) UpdateCategory(c *fiber.Ctx) error {
	var in categorydto.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	image, err := formImage(c, "image")
	if err != nil {
		return badRequest(c, err)
	}

	id := c.Params("id")
	if err := h.catalog.UpdateCategory(c.UserContext(), id, in, image); err != nil {
		return respondError(c, err)
	}
	updated, _ := h.catalog.Category(id)
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

func (h *MenuHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.catalog.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MenuHandler) ToggleCategoryVisibility(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalog.ToggleCategoryVisibility(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	updated, _ := h.catalog.Category(id)
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

func (h *MenuHandler) CreateDish(c *fiber.Ctx) error {
	var in dishdto.DishInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	image, err := formImage(c, "image")
	if err != nil {
		return badRequest(c, err)
	}

	created, err := h.catalog.CreateDish(c.UserContext(), in, image)
	if created == nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdBody(created, err))
}

func (h *MenuHandler) UpdateDish(c *fiber.Ctx) error {
	var in dishdto.DishInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	image, err := formImage(c, "image")
	if err != nil {
		return badRequest(c, err)
	}

	id := c.Params("id")
	if err := h.catalog.UpdateDish(c.UserContext(), id, in, image); err != nil {
		return respondError(c, err)
	}
	updated, _ := h.catalog.Dish(id)
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

func (h *MenuHandler) DeleteDish(c *fiber.Ctx) error {
	if err := h.catalog.DeleteDish(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MenuHandler) ToggleDishVisibility(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalog.ToggleDishVisibility(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	updated, _ := h.catalog.Dish(id)
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

// createdBody reports a record that exists even though attaching its
// image failed.
func createdBody(data any, attachErr error) fiber.Map {
	body := fiber.Map{"success": true, "data": data}
	if attachErr != nil {
		body["warning"] = apperr.Detail(attachErr)
	}
	return body
}

// formImage reads an optional multipart file. Requests that are not
// multipart carry no image.
func formImage(c *fiber.Ctx, field string) (*storage.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
