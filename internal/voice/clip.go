package voice

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/zenwerk/go-wave"
)

// AudioClip is a finalized recording. It is never modified after Stop
// returns it.
type AudioClip struct {
	SessionID string
	Format    Format
	MIMEType  string
	Chunks    [][]byte
	Data      []byte
	Duration  time.Duration
	Reason    StopReason
}

func newClip(sessionID string, f Format, chunks [][]byte, reason StopReason) *AudioClip {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return &AudioClip{
		SessionID: sessionID,
		Format:    f,
		MIMEType:  f.MIMEType(),
		Chunks:    chunks,
		Data:      data,
		Duration:  f.Duration(len(data) / 2),
		Reason:    reason,
	}
}

func (c *AudioClip) Len() int {
	return len(c.Data)
}

// Samples decodes Data back into 16-bit samples.
func (c *AudioClip) Samples() []int16 {
	samples := make([]int16, len(c.Data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(c.Data[i*2:]))
	}
	return samples
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

// WAV wraps the clip in a RIFF container.
func (c *AudioClip) WAV() ([]byte, error) {
	buf := nopCloser{Buffer: &bytes.Buffer{}}

	w, err := wave.NewWriter(wave.WriterParam{
		Out:           buf,
		Channel:       c.Format.Channels,
		SampleRate:    c.Format.SampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		return nil, fmt.Errorf("creating wav writer: %w", err)
	}

	if _, err := w.WriteSample16(c.Samples()); err != nil {
		return nil, fmt.Errorf("writing samples: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing wav writer: %w", err)
	}

	return buf.Bytes(), nil
}

func encodePCM(block []int16) []byte {
	out := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
