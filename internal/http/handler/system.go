package handler

import (
	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/model"
	"whistlebox/internal/service"
)

// Notification kinds addressable under /system/notifications.
const (
	kindTips     = "tips"
	kindComments = "comments"
	kindMessages = "messages"
)

type markRequest struct {
	Mark string `json:"mark"`
}

// ListPendingNotifications lists tips, comments or messages by mark. The
// mark defaults to "not notified".
func ListPendingNotifications(rt service.ReceiverTipService, cs service.CommentService, ms service.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mark := model.NotificationMark(c.Query("mark", string(model.MarkNotNotified)))
		ctx := c.UserContext()

		var (
			items any
			err   error
		)
		switch c.Params("kind") {
		case kindTips:
			items, err = rt.ListByMark(ctx, mark)
		case kindComments:
			items, err = cs.ListByMark(ctx, mark)
		case kindMessages:
			items, err = ms.ListByMark(ctx, mark)
		default:
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "unknown notification kind")
		}
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(items)
	}
}

func SetNotificationMark(rt service.ReceiverTipService, cs service.CommentService, ms service.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req markRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		mark := model.NotificationMark(req.Mark)
		ctx, id := c.UserContext(), c.Params("id")

		var err error
		switch c.Params("kind") {
		case kindTips:
			err = rt.SetNotificationMark(ctx, id, mark)
		case kindComments:
			err = cs.SetNotificationMark(ctx, id, mark)
		case kindMessages:
			err = ms.SetNotificationMark(ctx, id, mark)
		default:
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "unknown notification kind")
		}
		if err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type registerFileRequest struct {
	InternalTipID string `json:"internaltip_id"`
	service.FileInput
}

// RegisterFile records an upload completed by the upload collaborator.
func RegisterFile(fs service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerFileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		f, err := fs.Register(c.UserContext(), req.InternalTipID, req.FileInput)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

func SetFileMark(fs service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req markRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := fs.SetMark(c.UserContext(), c.Params("id"), req.Mark); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListFiles filters by ?mark= when present.
func ListFiles(fs service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			files []model.File
			err   error
		)
		if mark := c.Query("mark"); mark != "" {
			files, err = fs.ListByMark(c.UserContext(), mark)
		} else {
			files, err = fs.ListAll(c.UserContext())
		}
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(files)
	}
}

func DeliverFiles(fs service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := fs.Deliver(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"created": n})
	}
}

// AddSystemComment posts an automated timeline entry regardless of the
// context's comment setting.
func AddSystemComment(cs service.CommentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req contentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		cm, err := cs.Add(c.UserContext(), c.Params("id"), model.SourceSystem, "", req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cm)
	}
}
