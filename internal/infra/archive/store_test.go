package archive_test

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"path"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"cinevoice/internal/infra/archive"
	"cinevoice/internal/voice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClip(id string, samples []int16) *voice.AudioClip {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	f := voice.DefaultFormat()
	return &voice.AudioClip{
		SessionID: id,
		Format:    f,
		MIMEType:  f.MIMEType(),
		Chunks:    [][]byte{data},
		Data:      data,
		Duration:  f.Duration(len(samples)),
		Reason:    voice.ReasonSilence,
	}
}

func stepClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestStore_SaveWritesDecodableWAV(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := archive.NewStore(fs, "/clips", 0, discardLogger())
	store.SetClock(stepClock(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)))

	samples := []int16{0, 100, -100, 32767, -32768, 5}
	if err := store.Save(context.Background(), testClip("abc", samples)); err != nil {
		t.Fatalf("saving: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if want := "20240501T200001.000_silence_abc.wav"; entries[0].Name != want {
		t.Errorf("name: got %q, want %q", entries[0].Name, want)
	}

	f, err := fs.Open(path.Join("/clips", entries[0].Name))
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("archived file is not a valid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if dec.SampleRate != 16000 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format: got %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, want := range samples {
		if buf.Data[i] != int(want) {
			t.Errorf("sample %d: got %d, want %d", i, buf.Data[i], want)
		}
	}
}

func TestStore_SkipsEmptyClip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := archive.NewStore(fs, "/clips", 0, discardLogger())

	if err := store.Save(context.Background(), testClip("empty", nil)); err != nil {
		t.Fatalf("saving: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	store := archive.NewStore(afero.NewMemMapFs(), "/nowhere", 0, discardLogger())

	entries, err := store.List()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if entries != nil {
		t.Errorf("got %v, want nil", entries)
	}
}

func TestStore_PrunesOldest(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := archive.NewStore(fs, "/clips", 2, discardLogger())
	store.SetClock(stepClock(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)))

	for _, id := range []string{"one", "two", "three"} {
		if err := store.Save(context.Background(), testClip(id, []int16{1, 2, 3})); err != nil {
			t.Fatalf("saving %s: %v", id, err)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "20240501T200003.000_silence_three.wav" {
		t.Errorf("newest: got %q", entries[0].Name)
	}
	if entries[1].Name != "20240501T200002.000_silence_two.wav" {
		t.Errorf("second: got %q", entries[1].Name)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	store := archive.NewStore(afero.NewMemMapFs(), "/clips", 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, testClip("x", []int16{1})); err == nil {
		t.Error("expected error for cancelled context")
	}
}
