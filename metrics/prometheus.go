package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for streaming runs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Streaming runs
	Runs        *prometheus.CounterVec
	RunFailures *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Samples and slots
	SamplesCaptured prometheus.Counter
	SamplesPlayed   prometheus.Counter
	EchoedSamples   prometheus.Counter
	Stalls          *prometheus.CounterVec

	// Display
	LEDFrames prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echobox_runs_total",
			Help: "Total number of streaming runs started",
		}, []string{"op"}),
		RunFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echobox_run_failures_total",
			Help: "Total number of streaming runs that did not complete",
		}, []string{"op"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "echobox_run_duration_seconds",
			Help:    "Duration of completed streaming runs",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to 32s
		}, []string{"op"}),

		SamplesCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_samples_captured_total",
			Help: "Total number of mono samples stored by capture",
		}),
		SamplesPlayed: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_samples_played_total",
			Help: "Total number of mono samples sent by playback",
		}),
		EchoedSamples: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_echoed_samples_total",
			Help: "Total number of played samples with the echo mixed in",
		}),
		Stalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echobox_channel_stalls_total",
			Help: "Total number of waits abandoned because the context ended",
		}, []string{"slot"}),

		LEDFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_led_frames_total",
			Help: "Total number of progress vectors pushed to the display",
		}),
	}
}

// RecordRun counts a finished run and, when it completed, its duration.
func (m *Metrics) RecordRun(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(op).Inc()
	if err != nil {
		m.RunFailures.WithLabelValues(op).Inc()
		return
	}
	m.RunDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) RecordCaptured(n int) {
	if m == nil {
		return
	}
	m.SamplesCaptured.Add(float64(n))
}

func (m *Metrics) RecordPlayed(n, echoed int) {
	if m == nil {
		return
	}
	m.SamplesPlayed.Add(float64(n))
	m.EchoedSamples.Add(float64(echoed))
}

func (m *Metrics) RecordStall(slot string) {
	if m == nil {
		return
	}
	m.Stalls.WithLabelValues(slot).Inc()
}

func (m *Metrics) RecordLEDFrame() {
	if m == nil {
		return
	}
	m.LEDFrames.Inc()
}
