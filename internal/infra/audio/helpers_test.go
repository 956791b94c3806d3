package audio_test

import (
	"io"
	"log/slog"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeWAV encodes samples as a 16-bit WAV file on fs.
func writeWAV(t *testing.T, fs afero.Fs, path string, samples []int, rate, channels int) {
	t.Helper()
	f, err := fs.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
}

// wavBytes returns samples encoded as a WAV file.
func wavBytes(t *testing.T, samples []int, rate, channels int) []byte {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeWAV(t, fs, "/clip.wav", samples, rate, channels)
	data, err := afero.ReadFile(fs, "/clip.wav")
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	return data
}

func ramp(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i%2000 - 1000
	}
	return out
}
