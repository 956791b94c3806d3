package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateFinalized State = "finalized"
)

// StopReason records why a recording ended.
type StopReason string

const (
	ReasonSilence   StopReason = "silence"
	ReasonTimeout   StopReason = "timeout"
	ReasonManual    StopReason = "manual"
	ReasonEnded     StopReason = "ended"
	ReasonError     StopReason = "error"
	ReasonCancelled StopReason = "cancelled"
)

const (
	DefaultChunkInterval = 250 * time.Millisecond
	minChunkInterval     = 100 * time.Millisecond
	maxChunkInterval     = 500 * time.Millisecond
)

// Recorder captures one RecordingSession at a time from a Device.
type Recorder struct {
	device        Device
	chunkInterval time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	active *RecordingSession
	busy   bool
}

func NewRecorder(device Device, chunkInterval time.Duration, logger *slog.Logger) *Recorder {
	if chunkInterval <= 0 {
		chunkInterval = DefaultChunkInterval
	}
	if chunkInterval < minChunkInterval {
		chunkInterval = minChunkInterval
	}
	if chunkInterval > maxChunkInterval {
		chunkInterval = maxChunkInterval
	}
	return &Recorder{
		device:        device,
		chunkInterval: chunkInterval,
		logger:        logger,
	}
}

func (r *Recorder) ChunkInterval() time.Duration {
	return r.chunkInterval
}

// Active returns the session currently recording, if any.
func (r *Recorder) Active() *RecordingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start opens the device and begins reading blocks in the background.
func (r *Recorder) Start(ctx context.Context, c Constraints) (*RecordingSession, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	r.busy = true
	r.mu.Unlock()

	track, err := r.device.Open(ctx, c)
	if err != nil {
		r.release(nil)
		return nil, fmt.Errorf("%w: opening %s: %w", ErrDeviceUnavailable, r.device.Name(), err)
	}

	format := track.Format()
	if format.BitDepth == 0 {
		format.BitDepth = 16
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s := &RecordingSession{
		ID:         uuid.NewString(),
		StartedAt:  time.Now(),
		format:     format,
		track:      track,
		cancel:     cancel,
		chunkBytes: format.Samples(r.chunkInterval) * 2,
		state:      StateRecording,
		loopDone:   make(chan struct{}),
		ended:      make(chan struct{}),
		done:       make(chan struct{}),
	}
	if s.chunkBytes <= 0 {
		s.chunkBytes = 2
	}

	r.mu.Lock()
	r.active = s
	r.mu.Unlock()

	r.logger.Debug("recording started",
		"session", s.ID,
		"device", r.device.Name(),
		"sampleRate", format.SampleRate,
		"channels", format.Channels,
	)

	go r.loop(loopCtx, s)

	return s, nil
}

func (r *Recorder) loop(ctx context.Context, s *RecordingSession) {
	defer close(s.loopDone)

	for {
		block, err := s.track.Read(ctx)
		if len(block) > 0 && s.consume(block) {
			s.finishLoop(ReasonSilence)
			return
		}
		if err == nil {
			continue
		}

		switch {
		case ctx.Err() != nil:
			s.finishLoop(ReasonCancelled)
		case errors.Is(err, io.EOF):
			s.finishLoop(ReasonEnded)
		default:
			r.logger.Error("reading audio track", "session", s.ID, "error", err)
			s.finishLoop(ReasonError)
		}
		return
	}
}

// Stop finalizes the session and returns its clip. Later calls return the
// same clip without touching the track again.
func (r *Recorder) Stop(s *RecordingSession, reason StopReason) (*AudioClip, error) {
	if s == nil {
		return nil, ErrNotRecording
	}
	s.stopOnce.Do(func() {
		s.clip, s.stopErr = r.finalize(s, reason)
	})
	return s.clip, s.stopErr
}

func (r *Recorder) finalize(s *RecordingSession, reason StopReason) (*AudioClip, error) {
	s.mu.Lock()
	if s.endReason != "" {
		reason = s.endReason
	}
	s.state = StateStopping
	s.mu.Unlock()

	s.detachTaps()
	s.cancel()
	<-s.loopDone
	closeErr := s.releaseTrack()

	s.mu.Lock()
	if len(s.pending) > 0 {
		s.chunks = append(s.chunks, s.pending)
		s.pending = nil
	}
	clip := newClip(s.ID, s.format, s.chunks, reason)
	s.state = StateFinalized
	s.mu.Unlock()

	close(s.done)
	r.release(s)

	r.logger.Debug("recording finalized",
		"session", s.ID,
		"reason", reason,
		"bytes", clip.Len(),
		"chunks", len(clip.Chunks),
		"duration", clip.Duration,
	)

	if closeErr != nil {
		r.logger.Warn("releasing audio track", "session", s.ID, "error", closeErr)
	}

	return clip, nil
}

func (r *Recorder) release(s *RecordingSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil || r.active == s {
		r.active = nil
		r.busy = false
	}
}

// RecordingSession is one capture from Start to Stop.
type RecordingSession struct {
	ID        string
	StartedAt time.Time

	format     Format
	track      Track
	cancel     context.CancelFunc
	chunkBytes int

	loopDone chan struct{}
	ended    chan struct{}
	done     chan struct{}

	mu        sync.Mutex
	state     State
	chunks    [][]byte
	pending   []byte
	taps      []Tap
	endReason StopReason
	endOnce   sync.Once

	releaseOnce sync.Once
	releaseErr  error

	stopOnce sync.Once
	clip     *AudioClip
	stopErr  error
}

func (s *RecordingSession) Format() Format {
	return s.format
}

func (s *RecordingSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ended is closed when the read loop stops on its own: a tap halted it, the
// track ran out, or reading failed.
func (s *RecordingSession) Ended() <-chan struct{} {
	return s.ended
}

// EndReason is set once Ended is closed.
func (s *RecordingSession) EndReason() StopReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// Done is closed once the session is finalized.
func (s *RecordingSession) Done() <-chan struct{} {
	return s.done
}

// Chunks returns a copy of the chunks emitted so far.
func (s *RecordingSession) Chunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// AddTap attaches t to the live block stream.
func (s *RecordingSession) AddTap(t Tap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return ErrNotRecording
	}
	s.taps = append(s.taps, t)
	return nil
}

func (s *RecordingSession) RemoveTap(t Tap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.taps {
		if existing == t {
			s.taps = append(s.taps[:i:i], s.taps[i+1:]...)
			return
		}
	}
}

type detacher interface {
	Detach()
}

func (s *RecordingSession) detachTaps() {
	s.mu.Lock()
	taps := s.taps
	s.taps = nil
	s.mu.Unlock()

	for _, t := range taps {
		if d, ok := t.(detacher); ok {
			d.Detach()
		}
	}
}

func (s *RecordingSession) releaseTrack() error {
	s.releaseOnce.Do(func() {
		s.releaseErr = s.track.Close()
	})
	return s.releaseErr
}

// consume keeps the block, cuts full chunks, and reports whether a tap asked
// to halt.
func (s *RecordingSession) consume(block []int16) bool {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return false
	}
	s.pending = append(s.pending, encodePCM(block)...)
	for len(s.pending) >= s.chunkBytes {
		chunk := make([]byte, s.chunkBytes)
		copy(chunk, s.pending)
		s.chunks = append(s.chunks, chunk)
		s.pending = append(s.pending[:0:0], s.pending[s.chunkBytes:]...)
	}
	taps := make([]Tap, len(s.taps))
	copy(taps, s.taps)
	s.mu.Unlock()

	halt := false
	for _, t := range taps {
		if t.Observe(block, s.format) {
			halt = true
		}
	}
	return halt
}

func (s *RecordingSession) finishLoop(reason StopReason) {
	s.detachTaps()
	s.releaseTrack()

	s.endOnce.Do(func() {
		s.mu.Lock()
		recording := s.state == StateRecording
		if recording {
			s.endReason = reason
		}
		s.mu.Unlock()
		close(s.ended)
	})
}
