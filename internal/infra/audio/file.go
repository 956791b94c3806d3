package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"cinevoice/internal/voice"
)

type FileOptions struct {
	PollInterval time.Duration
	BlockSize    int
	Realtime     bool
}

// FileDevice plays WAV files dropped into a directory, oldest name first.
// Each file is one recording; played files are renamed with a .processed
// suffix.
type FileDevice struct {
	fs     afero.Fs
	dir    string
	opts   FileOptions
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string]bool
}

func NewFileDevice(fs afero.Fs, dir string, opts FileOptions, logger *slog.Logger) *FileDevice {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = defaultBlockSize
	}
	return &FileDevice{
		fs:        fs,
		dir:       dir,
		opts:      opts,
		logger:    logger,
		processed: make(map[string]bool),
	}
}

func (f *FileDevice) Name() string {
	return "file"
}

// Open waits until a new file is available.
func (f *FileDevice) Open(ctx context.Context, c voice.Constraints) (voice.Track, error) {
	if err := f.fs.MkdirAll(f.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	ticker := time.NewTicker(f.opts.PollInterval)
	defer ticker.Stop()

	for {
		track, err := f.checkForNewFile(c)
		if err != nil {
			return nil, err
		}
		if track != nil {
			return track, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileDevice) checkForNewFile(c voice.Constraints) (voice.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}
		f.processed[path] = true

		samples, format, err := f.decode(path)
		if err != nil {
			f.logger.Warn("skipping audio file", "path", path, "error", err)
			continue
		}

		if err := f.fs.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking audio file processed", "path", path, "error", err)
		}

		samples, format = applyConstraints(samples, format, c)
		f.logger.Info("playing audio file", "path", path, "duration", format.Duration(len(samples)))
		return newBufferTrack(samples, format, f.opts.BlockSize, f.opts.Realtime), nil
	}

	return nil, nil
}

func (f *FileDevice) decode(path string) ([]int16, voice.Format, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, voice.Format{}, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return DecodeWAV(file)
}
