package archive

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"cinevoice/internal/voice"
)

// Entry describes one archived clip.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store writes finalized clips to disk as WAV files. MaxFiles > 0 keeps only
// the newest clips.
type Store struct {
	fs       afero.Fs
	dir      string
	maxFiles int
	logger   *slog.Logger
	now      func() time.Time
}

func NewStore(fs afero.Fs, dir string, maxFiles int, logger *slog.Logger) *Store {
	return &Store{
		fs:       fs,
		dir:      dir,
		maxFiles: maxFiles,
		logger:   logger,
		now:      time.Now,
	}
}

// Save implements voice.ClipSink. Empty clips are skipped.
func (s *Store) Save(ctx context.Context, clip *voice.AudioClip) error {
	if clip == nil || clip.Len() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.wav", s.now().UTC().Format("20060102T150405.000"), clip.Reason, clip.SessionID)
	p := path.Join(s.dir, name)

	f, err := s.fs.Create(p)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	if err := encode(f, clip); err != nil {
		f.Close()
		s.fs.Remove(p)
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}

	s.logger.Debug("clip archived", "file", p, "bytes", clip.Len())

	if s.maxFiles > 0 {
		if err := s.prune(); err != nil {
			s.logger.Warn("pruning archive", "error", err)
		}
	}
	return nil
}

func encode(f afero.File, clip *voice.AudioClip) error {
	enc := wav.NewEncoder(f, clip.Format.SampleRate, 16, clip.Format.Channels, 1)

	samples := clip.Samples()
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: clip.Format.Channels,
			SampleRate:  clip.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// List returns archived clips, newest first.
func (s *Store) List() ([]Entry, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		exists, _ := afero.DirExists(s.fs, s.dir)
		if !exists {
			return nil, nil
		}
		return nil, fmt.Errorf("reading archive dir: %w", err)
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".wav") {
			continue
		}
		entries = append(entries, Entry{
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// Names start with a UTC timestamp.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

func (s *Store) prune() error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	if len(entries) <= s.maxFiles {
		return nil
	}
	for _, e := range entries[s.maxFiles:] {
		if err := s.fs.Remove(path.Join(s.dir, e.Name)); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name, err)
		}
	}
	return nil
}
