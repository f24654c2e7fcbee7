package jobs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/applog"
	"whistlebox/internal/ids"
	"whistlebox/internal/metrics"
	"whistlebox/internal/service"
	serviceMocks "whistlebox/internal/service/mocks"
)

func TestScheduler_Add(t *testing.T) {
	s := New(applog.Nop(), nil)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("a", time.Second, noop))
	assert.Error(t, s.Add("a", time.Second, noop))
	assert.Error(t, s.Add("b", 0, noop))
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	s := New(applog.Nop(), nil)
	require.NoError(t, s.Add("tick", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	s.Wait()

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_RunNow(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	s := New(applog.Nop(), m)
	require.NoError(t, s.Add("slow", time.Hour, func(context.Context) error {
		close(started)
		<-release
		return errors.New("boom")
	}))

	done := make(chan error)
	go func() { done <- s.RunNow(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), ErrBusy)
	close(release)
	assert.EqualError(t, <-done, "boom")

	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrUnknownJob)

	expected := `
# HELP job_runs_total Background job runs.
# TYPE job_runs_total counter
job_runs_total{job="slow",result="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "job_runs_total"))
}

func TestScheduler_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	var runs atomic.Int32
	s := New(applog.NewWriter(&buf, "jobs", time.UTC), nil)
	require.NoError(t, s.Add("flaky", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("db down")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	s.Wait()

	assert.Contains(t, buf.String(), `"event":"job_failed"`)
	assert.Contains(t, buf.String(), `"error_message":"db down"`)
}

func TestSweepAndDrain(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	lc := new(serviceMocks.MockLifecycleService)
	lc.On("Sweep", mock.Anything, now).Return(&service.SweepReport{InternalTips: 1}, nil)
	sd := new(serviceMocks.MockSecureDeleteService)
	sd.On("Drain", mock.Anything, 25).Return(nil, errors.New("list failed"))

	assert.NoError(t, Sweep(lc, ids.NewStubClock(now))(context.Background()))
	assert.EqualError(t, Drain(sd, 25)(context.Background()), "list failed")

	lc.AssertExpectations(t)
	sd.AssertExpectations(t)
}
