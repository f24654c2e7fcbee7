package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/jobs"
	"whistlebox/internal/model"
	"whistlebox/internal/service"
)

// JobRunner triggers a scheduled job out of band.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

func listHandler[T any](list func(ctx context.Context) ([]T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := list(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items, "total": len(items)})
	}
}

func TipCounts(l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := l.Counts(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(counts)
	}
}

func AdminDeleteTip(l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := l.Delete(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(report)
	}
}

func ListContextTips(l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bundles, err := l.ListByContext(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(bundles)
	}
}

func GetContext(d service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctxRow, err := d.GetContext(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(ctxRow)
	}
}

func PutContext(d service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Context
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		in.ID = c.Params("id")
		saved, err := d.SaveContext(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(saved)
	}
}

func GetReceiver(d service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := d.GetReceiver(c.UserContext(), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(r)
	}
}

func PutReceiver(d service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Receiver
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		in.ID = c.Params("id")
		saved, err := d.SaveReceiver(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(saved)
	}
}

// RunSweep runs the expiration job now and waits for it.
func RunSweep(r JobRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := r.RunNow(c.UserContext(), jobs.JobSweep)
		switch {
		case errors.Is(err, jobs.ErrBusy):
			return writeError(c, fiber.StatusConflict, "JOB_RUNNING", "sweep already running")
		case err != nil:
			return writeError(c, fiber.StatusInternalServerError, "JOB_FAILED", "sweep failed")
		}
		return c.JSON(fiber.Map{"job": jobs.JobSweep, "status": "completed"})
	}
}
