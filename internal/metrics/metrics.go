package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

// Metrics records voice command outcomes. It implements voice.Observer.
type Metrics struct {
	registry *prometheus.Registry

	RecordingsTotal      *prometheus.CounterVec
	ClipBytes            prometheus.Histogram
	ClipDuration         prometheus.Histogram
	TranscriptionsTotal  *prometheus.CounterVec
	TranscriptionLatency prometheus.Histogram
	IntentsTotal         *prometheus.CounterVec
	PurchasesTotal       prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinevoice_recordings_total",
			Help: "Recordings finalized, by stop reason",
		}, []string{"reason"}),

		ClipBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinevoice_clip_bytes",
			Help:    "Size of finalized clips in bytes",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 10),
		}),

		ClipDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinevoice_clip_duration_seconds",
			Help:    "Audio length of finalized clips",
			Buckets: []float64{0.25, 0.5, 1, 2, 3, 4, 5, 10},
		}),

		TranscriptionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinevoice_transcriptions_total",
			Help: "Transcription requests, by status",
		}, []string{"status"}),

		TranscriptionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinevoice_transcription_latency_seconds",
			Help:    "Time spent waiting for transcriptions",
			Buckets: prometheus.DefBuckets,
		}),

		IntentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinevoice_intents_total",
			Help: "Interpreted voice commands, by context and intent",
		}, []string{"context", "intent"}),

		PurchasesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cinevoice_purchases_total",
			Help: "Completed ticket purchases",
		}),
	}
}

func (m *Metrics) RecordingStopped(clip *voice.AudioClip) {
	m.RecordingsTotal.WithLabelValues(string(clip.Reason)).Inc()
	m.ClipBytes.Observe(float64(clip.Len()))
	m.ClipDuration.Observe(clip.Duration.Seconds())
}

func (m *Metrics) Transcribed(latency time.Duration, err error) {
	status := "ok"
	switch {
	case errors.Is(err, voice.ErrEmptyTranscription):
		status = "empty"
	case err != nil:
		status = "error"
	}
	m.TranscriptionsTotal.WithLabelValues(status).Inc()
	m.TranscriptionLatency.Observe(latency.Seconds())
}

func (m *Metrics) Interpreted(c voice.Context, intent domain.Intent) {
	m.IntentsTotal.WithLabelValues(c.Name, intent.String()).Inc()
}

func (m *Metrics) PurchaseCompleted() {
	m.PurchasesTotal.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
