package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomline/internal/domain"
	applog "loomline/internal/log"
	"loomline/internal/orders"
	"loomline/internal/validate"
)

type OrderHandler struct {
	Orders *orders.Ledger
}

// History lists the current customer's orders, newest first. Works for
// degraded handles too: the email index survives restarts.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	handle := currentHandle(c)
	list, err := h.Orders.ListFor(handle)
	if err != nil {
		return writeErr(c, err)
	}
	if handle.Degraded {
		applog.Info(c, "orders.history.degraded", map[string]any{"email": handle.Email})
	}
	return c.JSON(fiber.Map{"orders": list})
}

// View fetches one order by internal id or display order id. Customers
// only see their own orders; admins see all.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	o, err := h.Orders.Get(id)
	if err != nil {
		o, err = h.Orders.GetByDisplayID(id)
	}
	if err != nil {
		return writeErr(c, err)
	}
	handle := currentHandle(c)
	if !handle.IsAdmin() && o.CustomerEmail != domain.NormalizeEmail(handle.Email) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return c.JSON(o)
}
