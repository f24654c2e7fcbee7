package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle holds the prometheus collectors of the tip lifecycle.
// All methods are safe to call on a nil *Lifecycle.
type Lifecycle struct {
	tipsCreated         prometheus.Counter
	receiverTipsCreated prometheus.Counter
	receiversSkipped    prometheus.Counter
	votes               *prometheus.CounterVec
	cascades            *prometheus.CounterVec
	wbTipsExpired       prometheus.Counter
	receiptMisses       prometheus.Counter
	secureDeletes       *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Lifecycle, error) {
	m := &Lifecycle{
		tipsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tips_finalized_total",
			Help: "Submissions finalized into internal tips.",
		}),
		receiverTipsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receiver_tips_created_total",
			Help: "Receiver tips created at finalization.",
		}),
		receiversSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receiver_tips_skipped_total",
			Help: "Assigned receivers skipped at finalization because they no longer exist.",
		}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pertinence_votes_total",
			Help: "Pertinence votes cast by receivers.",
		}, []string{"vote"}),
		cascades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tip_cascades_total",
			Help: "Internal tips removed with all dependents.",
		}, []string{"reason"}),
		wbTipsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whistleblower_tips_expired_total",
			Help: "Whistleblower tips removed for inactivity.",
		}),
		receiptMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receipt_lookups_failed_total",
			Help: "Receipt lookups that matched no whistleblower tip.",
		}),
		secureDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secure_file_deletes_total",
			Help: "Stored objects processed by the secure delete drain.",
		}, []string{"result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Background job runs.",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Background job run duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}

	for _, c := range []prometheus.Collector{
		m.tipsCreated,
		m.receiverTipsCreated,
		m.receiversSkipped,
		m.votes,
		m.cascades,
		m.wbTipsExpired,
		m.receiptMisses,
		m.secureDeletes,
		m.jobRuns,
		m.jobDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Lifecycle) TipFinalized(receiverTips, skipped int) {
	if m == nil {
		return
	}
	m.tipsCreated.Inc()
	m.receiverTipsCreated.Add(float64(receiverTips))
	m.receiversSkipped.Add(float64(skipped))
}

func (m *Lifecycle) Vote(positive bool) {
	if m == nil {
		return
	}
	label := "negative"
	if positive {
		label = "positive"
	}
	m.votes.WithLabelValues(label).Inc()
}

// Cascade counts one full removal. reason is "deleted" or "expired".
func (m *Lifecycle) Cascade(reason string) {
	if m == nil {
		return
	}
	m.cascades.WithLabelValues(reason).Inc()
}

func (m *Lifecycle) WhistleblowerTipExpired() {
	if m == nil {
		return
	}
	m.wbTipsExpired.Inc()
}

func (m *Lifecycle) ReceiptMiss() {
	if m == nil {
		return
	}
	m.receiptMisses.Inc()
}

func (m *Lifecycle) SecureDelete(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.secureDeletes.WithLabelValues(result).Inc()
}

func (m *Lifecycle) JobRun(job string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(took.Seconds())
}
