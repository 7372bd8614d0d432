package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomline/internal/domain"
	applog "loomline/internal/log"
	"loomline/internal/orders"
	"loomline/internal/store"
	"loomline/internal/validate"
)

type AdminHandler struct {
	Orders    *orders.Ledger
	Customers store.CustomerStore
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	list, err := h.Orders.ListAll(c.QueryInt("limit", 100))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"orders": list})
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	var req statusReq
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status required"})
	}
	o, err := h.Orders.TransitionStatus(id, domain.OrderStatus(req.Status))
	if err != nil {
		return writeErr(c, err)
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order_id": id, "status": o.Status})
	return c.JSON(o)
}

func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	list, err := h.Customers.List()
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"customers": list})
}
