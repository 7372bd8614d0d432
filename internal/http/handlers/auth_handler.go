package handlers

import (
	"github.com/gofiber/fiber/v2"

	"loomline/internal/identity"
	applog "loomline/internal/log"
	"loomline/internal/validate"
)

type AuthHandler struct {
	Identity *identity.Service
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=40"`
	Phone    string `json:"phone" validate:"omitempty,min=7,max=16"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := valid.Struct(&req); err != nil {
		applog.Security(c, "auth.register.invalid", nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid registration details"})
	}
	if !validate.Password(req.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "password must mix upper, lower and digits"})
	}
	cust, err := h.Identity.Register(identity.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return writeErr(c, err)
	}
	applog.Audit(c, "auth.register", map[string]any{"email": cust.Email})
	return c.Status(fiber.StatusCreated).JSON(cust)
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := valid.Struct(&req); err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	cust, token, err := h.Identity.Login(req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return writeErr(c, err)
	}
	applog.Audit(c, "auth.login.success", map[string]any{"email": cust.Email})
	return c.JSON(fiber.Map{"token": token, "customer": cust})
}
