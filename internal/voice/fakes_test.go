package voice_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cinevoice/internal/voice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

func silence(int) int16 { return 0 }

func noise(seed int64, amplitude float64) func(int) int16 {
	rng := rand.New(rand.NewSource(seed))
	return func(int) int16 {
		return int16((rng.Float64()*2 - 1) * amplitude * 32767)
	}
}

// fakeTrack yields total samples in blocks of blockSize. A negative total
// never runs out. pace sleeps between blocks.
type fakeTrack struct {
	format    voice.Format
	blockSize int
	total     int
	gen       func(int) int16
	pace      time.Duration
	closes    *atomic.Int32

	pos int
}

func (t *fakeTrack) Format() voice.Format { return t.format }

func (t *fakeTrack) Read(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.total >= 0 && t.pos >= t.total {
		return nil, io.EOF
	}
	if t.pace > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.pace):
		}
	}

	n := t.blockSize
	if t.total >= 0 && t.total-t.pos < n {
		n = t.total - t.pos
	}
	block := make([]int16, n)
	for i := range block {
		block[i] = t.gen(t.pos + i)
	}
	t.pos += n
	return block, nil
}

func (t *fakeTrack) Close() error {
	t.closes.Add(1)
	return nil
}

type fakeDevice struct {
	format    voice.Format
	blockSize int
	total     int
	gen       func() func(int) int16
	pace      time.Duration
	openErr   error
	log       *eventLog

	opens  atomic.Int32
	closes atomic.Int32
	last   voice.Constraints
}

func newFakeDevice(total int, gen func() func(int) int16) *fakeDevice {
	return &fakeDevice{
		format:    voice.DefaultFormat(),
		blockSize: 256,
		total:     total,
		gen:       gen,
	}
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Open(_ context.Context, c voice.Constraints) (voice.Track, error) {
	d.log.add("open")
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opens.Add(1)
	d.last = c
	return &fakeTrack{
		format:    d.format,
		blockSize: d.blockSize,
		total:     d.total,
		gen:       d.gen(),
		pace:      d.pace,
		closes:    &d.closes,
	}, nil
}

type fakeSpeaker struct {
	log    *eventLog
	spoken []string
}

func (s *fakeSpeaker) Speak(_ context.Context, text string) error {
	s.log.add("speak:" + text)
	s.spoken = append(s.spoken, text)
	return nil
}

type transcription struct {
	text string
	err  error
}

type fakeTranscriber struct {
	mu      sync.Mutex
	replies []transcription
	calls   int
	sizes   []int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, clip *voice.AudioClip) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes = append(f.sizes, clip.Len())
	if len(f.replies) == 0 {
		f.calls++
		return "", errors.New("no reply configured")
	}
	idx := f.calls
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	f.calls++
	r := f.replies[idx]
	return r.text, r.err
}

func testMonitorConfig() voice.MonitorConfig {
	cfg := voice.DefaultMonitorConfig()
	cfg.FFTSize = 1024
	return cfg
}
