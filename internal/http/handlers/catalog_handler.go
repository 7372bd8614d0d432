package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomline/internal/catalog"
	"loomline/internal/reviews"
	"loomline/internal/validate"
)

type CatalogHandler struct {
	Catalog *catalog.Catalog
	Reviews *reviews.Ledger
}

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", fiber.Map{"Products": h.Catalog.List()})
}

func (h *CatalogHandler) ProductPage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.Lookup(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	list, err := h.Reviews.ListForProduct(id)
	if err != nil {
		return writeErr(c, err)
	}
	stats, err := h.Reviews.Stats(id)
	if err != nil {
		return writeErr(c, err)
	}
	return render(c, "product", fiber.Map{"Product": p, "Reviews": list, "Stats": stats})
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"products": h.Catalog.List()})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	p, err := h.Catalog.Lookup(id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(p)
}
