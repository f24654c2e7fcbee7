package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.TipFinalized(2, 1)
	m.Vote(true)
	m.Vote(true)
	m.Vote(false)
	m.Cascade("expired")
	m.WhistleblowerTipExpired()
	m.SecureDelete(true)
	m.SecureDelete(false)
	m.JobRun("sweep", time.Millisecond, nil)
	m.JobRun("sweep", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tipsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.receiverTipsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.receiversSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.votes.WithLabelValues("positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.votes.WithLabelValues("negative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cascades.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wbTipsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.secureDeletes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("sweep", "error")))
}

func TestLifecycle_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestLifecycle_NilIsNoop(t *testing.T) {
	var m *Lifecycle
	assert.NotPanics(t, func() {
		m.TipFinalized(1, 0)
		m.Vote(true)
		m.Cascade("deleted")
		m.ReceiptMiss()
		m.JobRun("drain", time.Second, nil)
	})
}
