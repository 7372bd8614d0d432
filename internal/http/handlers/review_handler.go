package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "loomline/internal/log"
	"loomline/internal/reviews"
	"loomline/internal/validate"
)

type ReviewHandler struct {
	Reviews *reviews.Ledger
}

type createReviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	var req createReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	r, err := h.Reviews.Create(currentHandle(c), productID, req.Rating, req.Comment)
	if err != nil {
		return writeErr(c, err)
	}
	applog.Audit(c, "review.create", map[string]any{
		"review_id": r.ID,
		"product":   productID,
		"verified":  r.VerifiedPurchase,
	})
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	list, err := h.Reviews.ListForProduct(productID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"reviews": list})
}

func (h *ReviewHandler) Stats(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	stats, err := h.Reviews.Stats(productID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(stats)
}

type voteReq struct {
	Helpful *bool `json:"helpful" validate:"required"`
}

func (h *ReviewHandler) Vote(c *fiber.Ctx) error {
	reviewID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	var req voteReq
	if err := c.BodyParser(&req); err != nil || req.Helpful == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "helpful flag required"})
	}
	count, err := h.Reviews.Vote(reviewID, currentHandle(c), *req.Helpful)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(fiber.Map{"newHelpfulCount": count})
}
