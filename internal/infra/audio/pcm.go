package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-audio/wav"

	"cinevoice/internal/voice"
)

const defaultBlockSize = 1024

// DecodeWAV reads a PCM WAV file into 16-bit interleaved samples.
func DecodeWAV(r io.ReadSeeker) ([]int16, voice.Format, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, voice.Format{}, fmt.Errorf("not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, voice.Format{}, fmt.Errorf("decoding pcm: %w", err)
	}

	depth := int(dec.BitDepth)
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = to16(v, depth)
	}

	return samples, voice.Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   16,
	}, nil
}

func to16(v, depth int) int16 {
	switch {
	case depth == 8:
		return int16((v - 128) << 8)
	case depth > 16:
		return int16(v >> (depth - 16))
	default:
		return int16(v)
	}
}

// applyConstraints folds multichannel audio to mono when one channel is
// requested. Other constraints are left to the source.
func applyConstraints(samples []int16, f voice.Format, c voice.Constraints) ([]int16, voice.Format) {
	if c.ChannelCount != 1 || f.Channels <= 1 {
		return samples, f
	}
	mono := make([]int16, len(samples)/f.Channels)
	for i := range mono {
		var sum int
		for ch := 0; ch < f.Channels; ch++ {
			sum += int(samples[i*f.Channels+ch])
		}
		mono[i] = int16(sum / f.Channels)
	}
	f.Channels = 1
	return mono, f
}

// bufferTrack replays decoded samples in fixed blocks, optionally paced at
// the rate they would arrive from a live device.
type bufferTrack struct {
	format   voice.Format
	samples  []int16
	block    int
	realtime bool

	mu     sync.Mutex
	pos    int
	closed bool
}

func newBufferTrack(samples []int16, f voice.Format, block int, realtime bool) *bufferTrack {
	if block <= 0 {
		block = defaultBlockSize
	}
	block -= block % max(f.Channels, 1)
	return &bufferTrack{
		format:   f,
		samples:  samples,
		block:    max(block, 1),
		realtime: realtime,
	}
}

func (t *bufferTrack) Format() voice.Format {
	return t.format
}

func (t *bufferTrack) Read(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.closed || t.pos >= len(t.samples) {
		t.mu.Unlock()
		return nil, io.EOF
	}
	end := min(t.pos+t.block, len(t.samples))
	block := make([]int16, end-t.pos)
	copy(block, t.samples[t.pos:end])
	t.pos = end
	t.mu.Unlock()

	if t.realtime {
		timer := time.NewTimer(t.format.Duration(len(block)))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return block, nil
}

func (t *bufferTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
