package middleware

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/applog"
)

// Logger writes one JSON access log line per request to stdout.
func Logger(loc *time.Location) fiber.Handler {
	return LoggerWithWriter(os.Stdout, loc)
}

// LoggerWithWriter logs request_id, method, path, status and latency (ms).
// Paths under /wbtip are logged by route pattern only and query strings are
// never logged, so receipts and tokens stay out of the log.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	log := applog.NewWriter(w, "http", loc)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		log.Info("request", map[string]any{
			"request_id": RequestIDFromCtx(c),
			"method":     c.Method(),
			"path":       loggedPath(c),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})
		return err
	}
}

func loggedPath(c *fiber.Ctx) string {
	if strings.HasPrefix(c.Path(), "/wbtip") {
		if p := c.Route().Path; p != "" {
			return p
		}
	}
	return c.Path()
}
