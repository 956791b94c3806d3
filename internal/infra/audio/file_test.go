package audio_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"

	"cinevoice/internal/infra/audio"
	"cinevoice/internal/voice"
)

func readAll(t *testing.T, track voice.Track) []int16 {
	t.Helper()
	var out []int16
	for {
		block, err := track.Read(context.Background())
		out = append(out, block...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("reading track: %v", err)
		}
	}
}

func TestFileDevice_PlaysFilesInOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWAV(t, fs, "/audio/b.wav", ramp(800), 16000, 1)
	writeWAV(t, fs, "/audio/a.wav", ramp(1600), 16000, 1)
	afero.WriteFile(fs, "/audio/notes.txt", []byte("ignore me"), 0644)

	device := audio.NewFileDevice(fs, "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond, BlockSize: 256}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := device.Open(ctx, voice.Constraints{})
	if err != nil {
		t.Fatalf("opening first: %v", err)
	}
	if got := len(readAll(t, first)); got != 1600 {
		t.Errorf("first track: got %d samples, want 1600 (a.wav)", got)
	}
	first.Close()

	second, err := device.Open(ctx, voice.Constraints{})
	if err != nil {
		t.Fatalf("opening second: %v", err)
	}
	if got := len(readAll(t, second)); got != 800 {
		t.Errorf("second track: got %d samples, want 800 (b.wav)", got)
	}

	for _, name := range []string{"/audio/a.wav.processed", "/audio/b.wav.processed"} {
		if ok, _ := afero.Exists(fs, name); !ok {
			t.Errorf("%s not created", name)
		}
	}
}

func TestFileDevice_WaitsForFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	device := audio.NewFileDevice(fs, "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond}, discardLogger())

	late := wavBytes(t, ramp(400), 8000, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		afero.WriteFile(fs, "/audio/late.wav", late, 0644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	track, err := device.Open(ctx, voice.Constraints{})
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if track.Format().SampleRate != 8000 {
		t.Errorf("sample rate: got %d, want 8000", track.Format().SampleRate)
	}
}

func TestFileDevice_OpenCancelled(t *testing.T) {
	device := audio.NewFileDevice(afero.NewMemMapFs(), "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := device.Open(ctx, voice.Constraints{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestFileDevice_SkipsInvalidFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/audio/a.wav", []byte("RIFF....garbage"), 0644)
	writeWAV(t, fs, "/audio/b.wav", ramp(500), 16000, 1)

	device := audio.NewFileDevice(fs, "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond}, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	track, err := device.Open(ctx, voice.Constraints{})
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if got := len(readAll(t, track)); got != 500 {
		t.Errorf("got %d samples, want 500", got)
	}
}

func TestFileDevice_DownmixesToMono(t *testing.T) {
	fs := afero.NewMemMapFs()
	stereo := make([]int, 2000)
	for i := range stereo {
		if i%2 == 0 {
			stereo[i] = 1000
		} else {
			stereo[i] = 3000
		}
	}
	writeWAV(t, fs, "/audio/stereo.wav", stereo, 16000, 2)

	device := audio.NewFileDevice(fs, "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond}, discardLogger())
	track, err := device.Open(context.Background(), voice.Constraints{ChannelCount: 1})
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if track.Format().Channels != 1 {
		t.Fatalf("channels: got %d, want 1", track.Format().Channels)
	}
	samples := readAll(t, track)
	if len(samples) != 1000 || samples[0] != 2000 {
		t.Errorf("got %d samples, first %d", len(samples), samples[0])
	}
}

func TestFileDevice_RealtimePacing(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWAV(t, fs, "/audio/a.wav", ramp(1600), 16000, 1)

	device := audio.NewFileDevice(fs, "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond, BlockSize: 800, Realtime: true}, discardLogger())
	track, err := device.Open(context.Background(), voice.Constraints{})
	if err != nil {
		t.Fatalf("opening: %v", err)
	}

	started := time.Now()
	readAll(t, track)
	if elapsed := time.Since(started); elapsed < 90*time.Millisecond {
		t.Errorf("100ms of audio played in %v", elapsed)
	}
}

func TestFileDevice_ClosedTrackEnds(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWAV(t, fs, "/audio/a.wav", ramp(4000), 16000, 1)

	device := audio.NewFileDevice(fs, "/audio", audio.FileOptions{PollInterval: 10 * time.Millisecond, BlockSize: 100}, discardLogger())
	track, err := device.Open(context.Background(), voice.Constraints{})
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	track.Close()
	if _, err := track.Read(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after close, got %v", err)
	}
}
