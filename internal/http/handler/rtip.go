package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/http/middleware"
	"whistlebox/internal/model"
	"whistlebox/internal/service"
)

// OwnReceiverTip admits receivers to /rtip/:id routes only for their own tips.
func OwnReceiverTip(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}
		owner, err := rt.Owner(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		if owner != id.Subject {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "operation not permitted")
		}
		return c.Next()
	}
}

func receiverID(c *fiber.Ctx) string {
	id, _ := middleware.IdentityFromCtx(c)
	return id.Subject
}

func ListMyReceiverTips(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tips, err := rt.ListByReceiver(c.UserContext(), receiverID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(tips)
	}
}

func GetReceiverTip(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := rt.Read(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(detail)
	}
}

// RemoveReceiverTip is the "remove myself" action. Sibling tips stay.
func RemoveReceiverTip(l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := l.RemoveReceiverTip(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(report)
	}
}

func DeleteSubmission(l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := l.DeleteByReceiver(c.UserContext(), receiverID(c), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(report)
	}
}

type operationRequest struct {
	Operation string          `json:"operation"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
}

// UpdateReceiverTip handles {"operation":"postpone"} and
// {"operation":"set","key":...,"value":...}.
func UpdateReceiverTip(rt service.ReceiverTipService, l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req operationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		switch req.Operation {
		case "postpone":
			exp, err := l.Postpone(c.UserContext(), receiverID(c), c.Params("id"))
			if err != nil {
				return serviceError(c, err)
			}
			return c.JSON(fiber.Map{"expiration_date": exp})
		case "set":
			var value any
			if err := json.Unmarshal(req.Value, &value); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid preference value")
			}
			if err := rt.SetPreference(c.UserContext(), c.Params("id"), req.Key, value); err != nil {
				return serviceError(c, err)
			}
			return c.SendStatus(fiber.StatusNoContent)
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_OPERATION", "unknown operation")
		}
	}
}

type voteRequest struct {
	Positive *bool `json:"positive"`
}

func CastVote(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req voteRequest
		if err := c.BodyParser(&req); err != nil || req.Positive == nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		itID, score, err := rt.CastPertinenceVote(c.UserContext(), c.Params("id"), *req.Positive)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"internaltip_id": itID, "pertinence": score})
	}
}

func ListSiblings(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sib, err := rt.ListSiblings(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(sib)
	}
}

func ListTipReceivers(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := rt.ListReceiversByTip(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(out)
	}
}

func ListOtherTips(rt service.ReceiverTipService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := rt.ListTipsByTip(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(out)
	}
}

func ListReceiverComments(rt service.ReceiverTipService, cs service.CommentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tip, err := rt.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		comments, err := cs.ListByInternalTip(c.UserContext(), tip.InternalTipID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(comments)
	}
}

func AddReceiverComment(rt service.ReceiverTipService, cs service.CommentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req contentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tip, err := rt.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		cm, err := cs.Add(c.UserContext(), tip.InternalTipID, model.SourceReceiver, tip.ReceiverID, req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cm)
	}
}

func ListReceiverMessages(ms service.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		msgs, err := ms.ListByReceiverTip(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(msgs)
	}
}

func AddReceiverMessage(ms service.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req contentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		msg, err := ms.Add(c.UserContext(), c.Params("id"), model.SourceReceiver, req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}

func ListReceiverFiles(fs service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, err := fs.ListReceiverFiles(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(files)
	}
}

func DownloadReceiverFile(fs service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		link, err := fs.Download(c.UserContext(), c.Params("id"), c.Params("rfile_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(link)
	}
}
