package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"cinevoice/config"
	"cinevoice/internal/application"
	"cinevoice/internal/domain"
	"cinevoice/internal/infra"
	"cinevoice/internal/infra/archive"
	"cinevoice/internal/infra/audio"
	"cinevoice/internal/infra/backend"
	"cinevoice/internal/infra/speech"
	"cinevoice/internal/metrics"
	"cinevoice/internal/output"
	"cinevoice/internal/voice"
)

// App holds the wired components shared by the CLI commands.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Backend   *backend.Client
	Device    voice.Device
	Recorder  *voice.Recorder
	Voice     *voice.Session
	Formatter *output.Formatter
	Metrics   *metrics.Metrics
	Archive   *archive.Store

	httpDevice    *audio.HTTPDevice
	metricsServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, out io.Writer) (*App, error) {
	formatter := output.NewFormatter(out)

	client, err := backend.NewClient(backendConfig(cfg.Backend, cfg.Session.Language, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	device, httpDevice := createDevice(cfg.Audio, logger)

	chunkInterval := config.Duration(logger, "audio.chunk_interval", cfg.Audio.ChunkInterval, voice.DefaultChunkInterval)
	recorder := voice.NewRecorder(device, chunkInterval, logger)

	var speaker voice.Speaker = formatter
	if cfg.Speech.Command != "" {
		cmd, err := speech.NewCommandSpeaker(cfg.Speech.Command, cfg.Speech.Voice, logger)
		if err != nil {
			return nil, fmt.Errorf("creating speaker: %w", err)
		}
		speaker = cmd
	}

	m := metrics.New()
	opts := []voice.Option{voice.WithObserver(m)}

	var store *archive.Store
	if cfg.Archive.Enabled {
		store = archive.NewStore(afero.NewOsFs(), cfg.Archive.Dir, cfg.Archive.MaxFiles, logger)
		opts = append(opts, voice.WithClipSink(store))
	}

	session := voice.NewSession(recorder, client, speaker, sessionConfig(cfg, logger), logger, opts...)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Backend:    client,
		Device:     device,
		Recorder:   recorder,
		Voice:      session,
		Formatter:  formatter,
		Metrics:    m,
		Archive:    store,
		httpDevice: httpDevice,
	}, nil
}

// Start launches the background servers: the audio upload endpoint when the
// http source is configured, and the metrics endpoint when an address is set.
func (a *App) Start(ctx context.Context) error {
	if a.httpDevice != nil {
		if err := a.httpDevice.Start(ctx); err != nil {
			return fmt.Errorf("starting audio endpoint: %w", err)
		}
	}

	if addr := a.Config.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", a.Metrics.Handler())

		a.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.Logger.Info("metrics server starting", "addr", addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.httpDevice != nil {
		if err := a.httpDevice.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping metrics server: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Flow builds the page flow reading typed answers from in.
func (a *App) Flow(in io.Reader, out io.Writer) *application.Flow {
	return application.NewFlow(
		a.Backend,
		a.Voice,
		output.NewConsole(in, out),
		a.Formatter,
		a.Logger,
		application.WithPurchaseHook(func(domain.Purchase) {
			a.Metrics.PurchaseCompleted()
		}),
	)
}

func createDevice(cfg config.AudioConfig, logger *slog.Logger) (voice.Device, *audio.HTTPDevice) {
	switch cfg.Source {
	case "http":
		d := audio.NewHTTPDevice(cfg.HTTPAddr, cfg.AuthToken, logger)
		return d, d
	case "file":
		return audio.NewFileDevice(afero.NewOsFs(), cfg.FileDir, audio.FileOptions{Realtime: true}, logger), nil
	case "microphone":
		return audio.NewMicrophone(cfg.SampleRate, cfg.Channels, logger), nil
	default:
		logger.Warn("unknown audio source, using microphone", "source", cfg.Source)
		return audio.NewMicrophone(cfg.SampleRate, cfg.Channels, logger), nil
	}
}

func backendConfig(cfg config.BackendConfig, language string, logger *slog.Logger) backend.Config {
	retry := infra.DefaultRetryConfig()
	retry.MaxAttempts = cfg.RetryAttempts

	return backend.Config{
		BaseURL:         cfg.BaseURL,
		Timeout:         config.Duration(logger, "backend.timeout", cfg.Timeout, 30*time.Second),
		Retry:           retry,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  config.Duration(logger, "backend.breaker_timeout", cfg.BreakerTimeout, 30*time.Second),
		Language:        language,
	}
}

func sessionConfig(cfg *config.Config, logger *slog.Logger) voice.SessionConfig {
	defaults := voice.DefaultMonitorConfig()
	mc := cfg.Monitor

	return voice.SessionConfig{
		Constraints: voice.Constraints{
			EchoCancellation: cfg.Audio.EchoCancellation,
			NoiseSuppression: cfg.Audio.NoiseSuppression,
			SampleRate:       cfg.Audio.SampleRate,
			ChannelCount:     cfg.Audio.Channels,
		},
		Monitor: voice.MonitorConfig{
			Enabled:          mc.Enabled == nil || *mc.Enabled,
			Threshold:        mc.Threshold,
			QuietDuration:    config.Duration(logger, "monitor.quiet_duration", mc.QuietDuration, defaults.QuietDuration),
			MaxDuration:      config.Duration(logger, "monitor.max_duration", mc.MaxDuration, defaults.MaxDuration),
			FallbackDuration: config.Duration(logger, "monitor.fallback_duration", mc.FallbackDuration, defaults.FallbackDuration),
			FFTSize:          mc.FFTSize,
			Smoothing:        mc.Smoothing,
			MinClipBytes:     mc.MinClipBytes,
		},
		MaxAttempts: cfg.Session.MaxAttempts,
	}
}
