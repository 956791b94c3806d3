//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"cinevoice/internal/voice"
)

const framesPerBuffer = 1024

type Microphone struct {
	sampleRate int
	channels   int
	logger     *slog.Logger
}

func NewMicrophone(sampleRate, channels int, logger *slog.Logger) *Microphone {
	return &Microphone{
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger,
	}
}

func (m *Microphone) Name() string {
	return "microphone"
}

// Open starts a capture stream on the default input device. Echo
// cancellation and noise suppression are not exposed by portaudio and are
// ignored.
func (m *Microphone) Open(_ context.Context, c voice.Constraints) (voice.Track, error) {
	sampleRate := m.sampleRate
	if c.SampleRate > 0 {
		sampleRate = c.SampleRate
	}
	channels := m.channels
	if c.ChannelCount > 0 {
		channels = c.ChannelCount
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(
		channels,
		0,
		float64(sampleRate),
		framesPerBuffer,
		buffer,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started", "sampleRate", sampleRate, "channels", channels)

	return &micTrack{
		stream: stream,
		buffer: buffer,
		format: voice.Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16},
		logger: m.logger,
	}, nil
}

type micTrack struct {
	stream *portaudio.Stream
	buffer []int16
	format voice.Format
	logger *slog.Logger

	closeOnce sync.Once
}

func (t *micTrack) Format() voice.Format {
	return t.format
}

func (t *micTrack) Read(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.stream.Read(); err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}
	block := make([]int16, len(t.buffer))
	copy(block, t.buffer)
	return block, nil
}

func (t *micTrack) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if stopErr := t.stream.Stop(); stopErr != nil {
			err = fmt.Errorf("stopping stream: %w", stopErr)
		}
		t.stream.Close()
		portaudio.Terminate()
		t.logger.Info("microphone released")
	})
	return err
}
