//go:build !portaudio

package audio

import (
	"context"
	"errors"
	"log/slog"

	"cinevoice/internal/voice"
)

var errNoPortAudio = errors.New("microphone capture needs a build with -tags portaudio")

// Microphone is unavailable in builds without portaudio. Use the file or
// http source instead.
type Microphone struct {
	logger *slog.Logger
}

func NewMicrophone(_, _ int, logger *slog.Logger) *Microphone {
	return &Microphone{logger: logger}
}

func (m *Microphone) Name() string {
	return "microphone"
}

func (m *Microphone) Open(context.Context, voice.Constraints) (voice.Track, error) {
	m.logger.Warn("microphone requested without portaudio support")
	return nil, errNoPortAudio
}
