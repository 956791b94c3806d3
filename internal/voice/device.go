package voice

import (
	"context"
	"fmt"
	"time"
)

// Format describes interleaved signed PCM.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultFormat() Format {
	return Format{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}

// Duration returns the audio time covered by n interleaved samples.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Samples returns how many interleaved samples cover d.
func (f Format) Samples(d time.Duration) int {
	return int(d*time.Duration(f.SampleRate)/time.Second) * f.Channels
}

func (f Format) MIMEType() string {
	return fmt.Sprintf("audio/L16;rate=%d;channels=%d", f.SampleRate, f.Channels)
}

// Constraints are capture hints passed to a Device. Zero values leave the
// device default in place.
type Constraints struct {
	EchoCancellation *bool
	NoiseSuppression *bool
	SampleRate       int
	ChannelCount     int
}

// Device opens capture tracks. Open may block until audio is available.
type Device interface {
	Name() string
	Open(ctx context.Context, c Constraints) (Track, error)
}

// Track is a live capture. Read returns the next block of interleaved 16-bit
// samples and io.EOF once the source is exhausted. Close releases the
// underlying resource.
type Track interface {
	Format() Format
	Read(ctx context.Context) ([]int16, error)
	Close() error
}

// Tap observes every block the recorder reads. Returning true halts the
// recording after the block has been kept.
type Tap interface {
	Observe(block []int16, f Format) bool
}

func Bool(v bool) *bool {
	return &v
}
