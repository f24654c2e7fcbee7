package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromCtx(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})

	t.Run("should replace oversized request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", maxRequestIDLen+1))

		resp, _ := app.Test(req)

		got := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, got)
		assert.LessOrEqual(t, len(got), maxRequestIDLen)
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_WhistleblowerPathsUseRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(LoggerWithWriter(&buf, time.UTC))
	app.Get("/wbtip/messages/:receiver_id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/wbtip/messages/r1?x=1", nil))

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "/wbtip/messages/:receiver_id", logData["path"])
	assert.NotContains(t, buf.String(), "x=1")
}

func TestAuthenticator(t *testing.T) {
	auth, err := NewAuthenticator("secret", "whistlebox-session")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/receiver", auth.Require(RoleReceiver), func(c *fiber.Ctx) error {
		id, ok := IdentityFromCtx(c)
		require.True(t, ok)
		return c.SendString(id.Subject)
	})

	get := func(header string) (int, string) {
		req := httptest.NewRequest("GET", "/receiver", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return resp.StatusCode, buf.String()
	}

	t.Run("valid receiver token", func(t *testing.T) {
		tok, err := auth.Issue("r1", RoleReceiver, time.Hour)
		require.NoError(t, err)

		status, body := get("Bearer " + tok)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "r1", body)
	})

	t.Run("missing header", func(t *testing.T) {
		status, _ := get("")
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("role not allowed", func(t *testing.T) {
		tok, err := auth.Issue("ops", RoleAdmin, time.Hour)
		require.NoError(t, err)

		status, _ := get("Bearer " + tok)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewAuthenticator("other", "whistlebox-session")
		require.NoError(t, err)
		tok, err := other.Issue("r1", RoleReceiver, time.Hour)
		require.NoError(t, err)

		status, _ := get("Bearer " + tok)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("other issuer", func(t *testing.T) {
		other, err := NewAuthenticator("secret", "elsewhere")
		require.NoError(t, err)
		tok, err := other.Issue("r1", RoleReceiver, time.Hour)
		require.NoError(t, err)

		status, _ := get("Bearer " + tok)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("expired", func(t *testing.T) {
		past := *auth
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := past.Issue("r1", RoleReceiver, time.Hour)
		require.NoError(t, err)

		status, _ := get("Bearer " + tok)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestNewAuthenticator_RequiresSecret(t *testing.T) {
	_, err := NewAuthenticator("", "whistlebox-session")
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(0.001, 2))
	app.Get("/wbtip", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/wbtip", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}
