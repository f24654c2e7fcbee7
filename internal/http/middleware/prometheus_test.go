package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	// Fresh registry per test; the collectors are not global.
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(pm.Handler())
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/wbtip", ok)
	app.Delete("/wbtip", ok)
	app.Get("/rtip/:id", ok)
	app.Get("/metrics", ok)
	app.Post("/rtip/:id/vote", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusConflict, "already voted")
	})
	return app, pm, reg
}

func TestPrometheusMiddleware_CountsByMethodRouteStatus(t *testing.T) {
	app, pm, _ := newPromApp(t)

	for _, r := range []struct{ method, target string }{
		{"GET", "/wbtip"},
		{"DELETE", "/wbtip"},
		{"POST", "/rtip/abc/vote"},
	} {
		_, err := app.Test(httptest.NewRequest(r.method, r.target, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/wbtip", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("DELETE", "/wbtip", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("POST", "/rtip/:id/vote", "409")))
}

func TestPrometheusMiddleware_TipIDsStayOutOfLabels(t *testing.T) {
	app, pm, reg := newPromApp(t)

	for _, id := range []string{"3f1c", "9a2e"} {
		_, err := app.Test(httptest.NewRequest("GET", "/rtip/"+id, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/rtip/:id", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.requestDuration))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				assert.False(t, strings.Contains(lp.GetValue(), "3f1c"), "label %s leaks a tip id", lp.GetName())
			}
		}
	}
}

func TestPrometheusMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	app, pm, _ := newPromApp(t)

	_, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)

	assert.Equal(t, 0, testutil.CollectAndCount(pm.requestCount))
}

func TestPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
