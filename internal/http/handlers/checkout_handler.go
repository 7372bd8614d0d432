package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomline/internal/checkout"
	"loomline/internal/domain"
	applog "loomline/internal/log"
	"loomline/internal/orders"
	"loomline/internal/validate"
)

type CheckoutHandler struct {
	Checkout *checkout.Finalizer
	Orders   *orders.Ledger
}

type stageItemReq struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=50"`
}

type stageReq struct {
	Items         []stageItemReq `json:"items" validate:"required,min=1,dive"`
	Phone         string         `json:"phone" validate:"required"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=online cash-on-delivery"`
	Address       domain.Address `json:"shippingAddress"`
}

func (h *CheckoutHandler) Stage(c *fiber.Ctx) error {
	var req stageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := valid.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid checkout details"})
	}
	phone, ok := validate.Phone(req.Phone)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid phone number"})
	}
	in := checkout.StageInput{
		Phone:         phone,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		ShippingAddr:  req.Address,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, checkout.StageItem{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}
	res, err := h.Checkout.Stage(currentHandle(c), in)
	if err != nil {
		return writeErr(c, err)
	}
	applog.Audit(c, "checkout.stage", map[string]any{
		"display_order_id": res.DisplayOrderID,
		"persisted":        res.OrderID != "",
		"total":            res.Total,
	})
	return c.Status(fiber.StatusCreated).JSON(res)
}

type resendReq struct {
	DisplayOrderID string `json:"displayOrderId" validate:"required"`
}

func (h *CheckoutHandler) ResendOTP(c *fiber.Ctx) error {
	var req resendReq
	if err := c.BodyParser(&req); err != nil || req.DisplayOrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "displayOrderId required"})
	}
	if err := h.Checkout.Resend(req.DisplayOrderID); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"sent": true})
}

type verifyReq struct {
	DisplayOrderID string `json:"displayOrderId" validate:"required"`
	Code           string `json:"code" validate:"required"`
}

func (h *CheckoutHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	code, ok := validate.OTP(req.Code)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code must be six digits"})
	}
	o, err := h.Checkout.Verify(req.DisplayOrderID, code)
	if err != nil {
		applog.Security(c, "checkout.verify.fail", map[string]any{"display_order_id": req.DisplayOrderID, "reason": err.Error()})
		return writeErr(c, err)
	}
	applog.Audit(c, "checkout.commit", map[string]any{"order_id": o.ID, "display_order_id": o.DisplayOrderID})
	return c.JSON(o)
}

type paymentCallbackReq struct {
	OrderID string `json:"orderId" validate:"required"`
	Success bool   `json:"success"`
}

// PaymentCallback is the gateway's webhook. Paid promotes a pending
// order to confirmed inside the ledger.
func (h *CheckoutHandler) PaymentCallback(c *fiber.Ctx) error {
	var req paymentCallbackReq
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "orderId required"})
	}
	status := domain.PaymentFailed
	if req.Success {
		status = domain.PaymentPaid
	}
	o, err := h.Orders.UpdatePaymentStatus(req.OrderID, status)
	if err != nil {
		return writeErr(c, err)
	}
	applog.Audit(c, "payment.callback", map[string]any{"order_id": o.ID, "payment_status": o.PaymentStatus})
	return c.JSON(fiber.Map{"orderId": o.ID, "paymentStatus": o.PaymentStatus, "status": o.Status})
}
