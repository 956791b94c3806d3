package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"cinevoice/internal/domain"
	"cinevoice/internal/metrics"
	"cinevoice/internal/voice"
)

func TestMetrics_RecordingStopped(t *testing.T) {
	m := metrics.New()

	clip := &voice.AudioClip{Data: make([]byte, 3200), Duration: 100 * time.Millisecond, Reason: voice.ReasonSilence}
	m.RecordingStopped(clip)
	m.RecordingStopped(clip)
	m.RecordingStopped(&voice.AudioClip{Reason: voice.ReasonTimeout})

	if got := testutil.ToFloat64(m.RecordingsTotal.WithLabelValues("silence")); got != 2 {
		t.Errorf("silence recordings: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RecordingsTotal.WithLabelValues("timeout")); got != 1 {
		t.Errorf("timeout recordings: got %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.ClipBytes); got != 1 {
		t.Errorf("clip bytes series: got %d, want 1", got)
	}
}

func TestMetrics_Transcribed(t *testing.T) {
	m := metrics.New()

	m.Transcribed(200*time.Millisecond, nil)
	m.Transcribed(time.Second, errors.New("boom"))
	m.Transcribed(300*time.Millisecond, nil)
	m.Transcribed(100*time.Millisecond, voice.ErrEmptyTranscription)

	if got := testutil.ToFloat64(m.TranscriptionsTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TranscriptionsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TranscriptionsTotal.WithLabelValues("empty")); got != 1 {
		t.Errorf("empty: got %v, want 1", got)
	}
}

func TestMetrics_Interpreted(t *testing.T) {
	m := metrics.New()
	c := voice.NavigationContext("movies", "")

	m.Interpreted(c, domain.Navigate(domain.TargetSeats))
	m.Interpreted(c, domain.Unrecognized)

	if got := testutil.ToFloat64(m.IntentsTotal.WithLabelValues("movies", "navigate(seats)")); got != 1 {
		t.Errorf("navigate: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IntentsTotal.WithLabelValues("movies", "unrecognized")); got != 1 {
		t.Errorf("unrecognized: got %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.PurchaseCompleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cinevoice_purchases_total 1") {
		t.Errorf("purchases counter missing from output:\n%s", rec.Body.String())
	}
}

func TestMetrics_IsObserver(t *testing.T) {
	var _ voice.Observer = metrics.New()
}
