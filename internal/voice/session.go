package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cinevoice/internal/domain"
)

type Transcriber interface {
	Transcribe(ctx context.Context, clip *AudioClip) (string, error)
}

// Speaker says text aloud and returns once it has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Observer is notified about each step of a voice command.
type Observer interface {
	RecordingStopped(clip *AudioClip)
	Transcribed(latency time.Duration, err error)
	Interpreted(c Context, intent domain.Intent)
}

type NoopObserver struct{}

func (NoopObserver) RecordingStopped(*AudioClip)       {}
func (NoopObserver) Transcribed(time.Duration, error)   {}
func (NoopObserver) Interpreted(Context, domain.Intent) {}

// ClipSink keeps finalized clips, e.g. for later inspection.
type ClipSink interface {
	Save(ctx context.Context, clip *AudioClip) error
}

type NoopSink struct{}

func (NoopSink) Save(context.Context, *AudioClip) error { return nil }

const (
	DefaultMaxAttempts    = 3
	DefaultReprompt       = "No te entendí. ¿Puedes repetirlo?"
	DefaultNoSpeechPrompt = "No te escuché. ¿Puedes repetirlo?"
)

type SessionConfig struct {
	Constraints    Constraints
	Monitor        MonitorConfig
	MaxAttempts    int
	NoSpeechPrompt string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Monitor:        DefaultMonitorConfig(),
		MaxAttempts:    DefaultMaxAttempts,
		NoSpeechPrompt: DefaultNoSpeechPrompt,
	}
}

// Result is the outcome of one listen cycle.
type Result struct {
	Intent     domain.Intent
	Text       string
	Clip       *AudioClip
	StopReason StopReason
}

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

func WithClipSink(sink ClipSink) Option {
	return func(s *Session) { s.sink = sink }
}

// Session runs speak, record, transcribe and interpret as one sequence.
type Session struct {
	recorder *Recorder
	stt      Transcriber
	speaker  Speaker
	observer Observer
	sink     ClipSink
	cfg      SessionConfig
	logger   *slog.Logger

	mu     sync.Mutex
	manual *manualStop
}

type manualStop struct {
	ch   chan struct{}
	once sync.Once
}

func NewSession(recorder *Recorder, stt Transcriber, speaker Speaker, cfg SessionConfig, logger *slog.Logger, opts ...Option) *Session {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.NoSpeechPrompt == "" {
		cfg.NoSpeechPrompt = DefaultNoSpeechPrompt
	}
	s := &Session{
		recorder: recorder,
		stt:      stt,
		speaker:  speaker,
		observer: NoopObserver{},
		sink:     NoopSink{},
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record captures one clip. It stops on sustained silence, on the maximum
// duration, on Stop, when the track ends, or when ctx is done. If the
// silence monitor cannot attach, the fallback duration is used instead.
func (s *Session) Record(ctx context.Context) (*AudioClip, error) {
	rs, err := s.recorder.Start(ctx, s.cfg.Constraints)
	if err != nil {
		return nil, err
	}

	manual := s.arm()
	defer s.disarm(manual)

	silenced := make(chan struct{})
	var silenceOnce sync.Once
	stop := func() {
		silenceOnce.Do(func() { close(silenced) })
	}

	limit := s.cfg.Monitor.MaxDuration
	handle, err := AttachMonitor(rs, s.cfg.Monitor, stop)
	if err != nil {
		limit = s.cfg.Monitor.FallbackDuration
		s.logger.Warn("silence monitor unavailable, using fixed timeout",
			"session", rs.ID,
			"timeout", limit,
			"error", err,
		)
	}

	timer := time.NewTimer(limit)
	defer timer.Stop()

	var reason StopReason
	select {
	case <-silenced:
		reason = ReasonSilence
	case <-rs.Ended():
		reason = rs.EndReason()
	case <-timer.C:
		reason = ReasonTimeout
	case <-manual.ch:
		reason = ReasonManual
	case <-ctx.Done():
		reason = ReasonCancelled
	}

	clip, err := s.recorder.Stop(rs, reason)
	if err != nil {
		return nil, fmt.Errorf("stopping recording: %w", err)
	}

	if handle != nil {
		s.logger.Debug("silence monitor detached", "session", rs.ID, "analysed", handle.Elapsed())
	}
	s.logger.Info("recording stopped",
		"session", clip.SessionID,
		"reason", clip.Reason,
		"bytes", clip.Len(),
		"duration", clip.Duration,
	)

	s.observer.RecordingStopped(clip)
	if err := s.sink.Save(ctx, clip); err != nil {
		s.logger.Warn("saving clip", "session", clip.SessionID, "error", err)
	}

	return clip, nil
}

// Stop ends the recording in progress.
func (s *Session) Stop() error {
	s.mu.Lock()
	m := s.manual
	s.mu.Unlock()

	if m == nil {
		return ErrNotRecording
	}
	m.once.Do(func() { close(m.ch) })
	return nil
}

func (s *Session) arm() *manualStop {
	m := &manualStop{ch: make(chan struct{})}
	s.mu.Lock()
	s.manual = m
	s.mu.Unlock()
	return m
}

func (s *Session) disarm(m *manualStop) {
	s.mu.Lock()
	if s.manual == m {
		s.manual = nil
	}
	s.mu.Unlock()
}

// Listen speaks prompt, waits for the speech to finish, then records,
// transcribes and interprets one utterance.
func (s *Session) Listen(ctx context.Context, prompt string, c Context) (Result, error) {
	text, res, err := s.listen(ctx, prompt)
	if err != nil {
		return res, err
	}

	res.Text = text
	res.Intent = Interpret(text, c)
	s.observer.Interpreted(c, res.Intent)

	s.logger.Info("voice command interpreted",
		"context", c.Name,
		"text", text,
		"intent", res.Intent.String(),
	)

	return res, nil
}

func (s *Session) listen(ctx context.Context, prompt string) (string, Result, error) {
	if prompt != "" {
		if err := s.speaker.Speak(ctx, prompt); err != nil {
			return "", Result{}, fmt.Errorf("speaking prompt: %w", err)
		}
	}

	clip, err := s.Record(ctx)
	if err != nil {
		return "", Result{}, err
	}
	res := Result{Clip: clip, StopReason: clip.Reason}

	if err := ctx.Err(); err != nil {
		return "", res, err
	}
	if clip.Len() < s.cfg.Monitor.MinClipBytes {
		return "", res, fmt.Errorf("%w: clip of %d bytes", ErrNoSpeech, clip.Len())
	}

	started := time.Now()
	text, err := s.stt.Transcribe(ctx, clip)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrEmptyTranscription
	}
	s.observer.Transcribed(time.Since(started), err)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", res, err
		}
		if !errors.Is(err, ErrTranscriptionFailed) {
			err = fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
		}
		return "", res, err
	}

	return text, res, nil
}

// Converse listens until an intent is recognized, re-prompting on
// unrecognized commands, failed transcriptions and clips too short to hold
// speech. It gives up with ErrTooManyAttempts after MaxAttempts listens.
func (s *Session) Converse(ctx context.Context, prompt string, c Context) (Result, error) {
	var last Result
	next := prompt

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		res, err := s.Listen(ctx, next, c)
		last = res

		switch {
		case err == nil && res.Intent.Recognized():
			return res, nil
		case err == nil:
			next = reprompt(c)
		case errors.Is(err, ErrNoSpeech), errors.Is(err, ErrEmptyTranscription):
			next = s.cfg.NoSpeechPrompt
		case errors.Is(err, ErrTranscriptionFailed):
			s.logger.Warn("transcription failed, asking again", "context", c.Name, "attempt", attempt, "error", err)
			next = reprompt(c)
		default:
			return res, err
		}
	}

	return last, fmt.Errorf("%w: %d in %s", ErrTooManyAttempts, s.cfg.MaxAttempts, c.Name)
}

// Dictate is Converse for free text: it returns the first transcription
// without interpreting it.
func (s *Session) Dictate(ctx context.Context, prompt string) (string, error) {
	next := prompt

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		text, _, err := s.listen(ctx, next)

		switch {
		case err == nil:
			return text, nil
		case errors.Is(err, ErrNoSpeech), errors.Is(err, ErrEmptyTranscription):
			next = s.cfg.NoSpeechPrompt
		case errors.Is(err, ErrTranscriptionFailed):
			s.logger.Warn("transcription failed, asking again", "attempt", attempt, "error", err)
			next = DefaultReprompt
		default:
			return "", err
		}
	}

	return "", fmt.Errorf("%w: %d while dictating", ErrTooManyAttempts, s.cfg.MaxAttempts)
}

// Say speaks text without recording.
func (s *Session) Say(ctx context.Context, text string) error {
	if err := s.speaker.Speak(ctx, text); err != nil {
		return fmt.Errorf("speaking: %w", err)
	}
	return nil
}

func reprompt(c Context) string {
	if c.Reprompt != "" {
		return c.Reprompt
	}
	return DefaultReprompt
}
