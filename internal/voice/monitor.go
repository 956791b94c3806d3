package voice

import (
	"fmt"
	"sync"
	"time"
)

type MonitorConfig struct {
	Enabled          bool
	Threshold        float64
	QuietDuration    time.Duration
	MaxDuration      time.Duration
	FallbackDuration time.Duration
	FFTSize          int
	Smoothing        float64
	MinClipBytes     int
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:          true,
		Threshold:        0.01,
		QuietDuration:    800 * time.Millisecond,
		MaxDuration:      5000 * time.Millisecond,
		FallbackDuration: 3000 * time.Millisecond,
		FFTSize:          DefaultFFTSize,
		Smoothing:        DefaultSmoothing,
		MinClipBytes:     1000,
	}
}

// AmplitudeSample is the loudness of one analysed block and the audio time it
// covers.
type AmplitudeSample struct {
	Level    float64
	Duration time.Duration
}

// Monitor decides when a run of quiet samples is long enough to stop. Time is
// measured by summing sample durations, not by the wall clock.
type Monitor struct {
	threshold float64
	quiet     time.Duration

	elapsed          time.Duration
	silenceStartedAt *time.Duration
	fired            bool
}

func NewMonitor(threshold float64, quiet time.Duration) *Monitor {
	return &Monitor{threshold: threshold, quiet: quiet}
}

// Tick feeds one sample and returns true exactly once, on the sample that
// completes QuietDuration of uninterrupted quiet.
func (m *Monitor) Tick(s AmplitudeSample) bool {
	if m.fired {
		return false
	}

	start := m.elapsed
	m.elapsed += s.Duration

	if s.Level >= m.threshold {
		m.silenceStartedAt = nil
		return false
	}

	if m.silenceStartedAt == nil {
		m.silenceStartedAt = &start
	}
	if m.elapsed-*m.silenceStartedAt >= m.quiet {
		m.fired = true
		return true
	}
	return false
}

// Elapsed is the audio time seen so far.
func (m *Monitor) Elapsed() time.Duration {
	return m.elapsed
}

// Quiet reports how long the current quiet run has lasted.
func (m *Monitor) Quiet() time.Duration {
	if m.silenceStartedAt == nil {
		return 0
	}
	return m.elapsed - *m.silenceStartedAt
}

// MonitorHandle is a monitor attached to a live recording.
type MonitorHandle struct {
	session  *RecordingSession
	analyser *Analyser
	monitor  *Monitor
	stop     func()

	mu       sync.Mutex
	buf      []int16
	detached bool
	levels   []float64
}

// AttachMonitor taps the session's block stream and calls stop once the quiet
// run reaches cfg.QuietDuration. It fails with ErrMonitorUnavailable when
// the configuration cannot drive an analyser or the session is not live.
func AttachMonitor(session *RecordingSession, cfg MonitorConfig, stop func()) (*MonitorHandle, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: disabled", ErrMonitorUnavailable)
	}
	if cfg.QuietDuration <= 0 {
		return nil, fmt.Errorf("%w: quiet duration %v", ErrMonitorUnavailable, cfg.QuietDuration)
	}
	analyser, err := NewAnalyser(cfg.FFTSize, cfg.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMonitorUnavailable, err)
	}

	h := &MonitorHandle{
		session:  session,
		analyser: analyser,
		monitor:  NewMonitor(cfg.Threshold, cfg.QuietDuration),
		stop:     stop,
	}
	if err := session.AddTap(h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMonitorUnavailable, err)
	}
	return h, nil
}

// Observe implements Tap.
func (h *MonitorHandle) Observe(block []int16, f Format) bool {
	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		return false
	}

	h.buf = append(h.buf, mixdown(block, f.Channels)...)
	size := h.analyser.Size()
	tickDuration := f.Duration(size * max(f.Channels, 1))

	fired := false
	for len(h.buf) >= size {
		level := h.analyser.Level(h.buf[:size])
		h.buf = h.buf[size:]
		h.levels = append(h.levels, level)
		if h.monitor.Tick(AmplitudeSample{Level: level, Duration: tickDuration}) {
			fired = true
			h.detached = true
			break
		}
	}
	h.mu.Unlock()

	if fired {
		h.session.RemoveTap(h)
		if h.stop != nil {
			h.stop()
		}
	}
	return fired
}

// Detach disconnects the monitor. Safe to call more than once.
func (h *MonitorHandle) Detach() {
	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		return
	}
	h.detached = true
	h.mu.Unlock()

	h.session.RemoveTap(h)
}

// Levels returns every level computed so far.
func (h *MonitorHandle) Levels() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, len(h.levels))
	copy(out, h.levels)
	return out
}

// Elapsed is the audio time the monitor has analysed.
func (h *MonitorHandle) Elapsed() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.monitor.Elapsed()
}
