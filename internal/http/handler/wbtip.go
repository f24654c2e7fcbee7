package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/model"
	"whistlebox/internal/service"
)

// ReceiptHeader carries the whistleblower receipt. Receipts never appear in
// URLs so they stay out of access logs and proxies.
const ReceiptHeader = "X-Tip-Receipt"

type contentRequest struct {
	Content string `json:"content"`
}

func receiptFromCtx(c *fiber.Ctx) (string, bool) {
	r := strings.TrimSpace(c.Get(ReceiptHeader))
	return r, r != ""
}

func missingReceipt(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "RECEIPT_REQUIRED", "receipt is required")
}

func GetWhistleblowerTip(wb service.WhistleblowerTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, ok := receiptFromCtx(c)
		if !ok {
			return missingReceipt(c)
		}
		detail, err := wb.Read(c.UserContext(), receipt)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(detail)
	}
}

func DeleteWhistleblowerTip(wb service.WhistleblowerTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, ok := receiptFromCtx(c)
		if !ok {
			return missingReceipt(c)
		}
		if err := wb.DeleteSelf(c.UserContext(), receipt); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListWhistleblowerComments(wb service.WhistleblowerTipService, cs service.CommentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, ok := receiptFromCtx(c)
		if !ok {
			return missingReceipt(c)
		}
		itID, err := wb.InternalTipID(c.UserContext(), receipt)
		if err != nil {
			return serviceError(c, err)
		}
		comments, err := cs.ListByInternalTip(c.UserContext(), itID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(comments)
	}
}

func AddWhistleblowerComment(wb service.WhistleblowerTipService, cs service.CommentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, ok := receiptFromCtx(c)
		if !ok {
			return missingReceipt(c)
		}
		var req contentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		itID, err := wb.InternalTipID(c.UserContext(), receipt)
		if err != nil {
			return serviceError(c, err)
		}
		cm, err := cs.Add(c.UserContext(), itID, model.SourceWhistleblower, "", req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cm)
	}
}

func ListWhistleblowerMessages(ms service.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, ok := receiptFromCtx(c)
		if !ok {
			return missingReceipt(c)
		}
		msgs, err := ms.ListForWhistleblower(c.UserContext(), receipt, c.Params("receiver_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(msgs)
	}
}

func AddWhistleblowerMessage(ms service.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		receipt, ok := receiptFromCtx(c)
		if !ok {
			return missingReceipt(c)
		}
		var req contentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		msg, err := ms.AddFromWhistleblower(c.UserContext(), receipt, c.Params("receiver_id"), req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}
