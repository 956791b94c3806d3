package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"cinevoice/internal/voice"
)

const (
	maxUploadBytes  = 10 << 20
	uploadQueueSize = 10
	uploadsPerMin   = 30
)

type upload struct {
	samples []int16
	format  voice.Format
}

// HTTPDevice receives WAV recordings pushed by a kiosk or browser. Each
// accepted upload is handed to the next Open as one track.
type HTTPDevice struct {
	addr      string
	authToken string
	blockSize int
	logger    *slog.Logger

	mux     *http.ServeMux
	limiter *RateLimiter
	uploads chan upload
	stopped chan struct{}

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	stopOnce sync.Once
}

func NewHTTPDevice(addr string, authToken string, logger *slog.Logger) *HTTPDevice {
	h := &HTTPDevice{
		addr:      addr,
		authToken: authToken,
		blockSize: defaultBlockSize,
		logger:    logger,
		mux:       http.NewServeMux(),
		limiter:   NewRateLimiter(uploadsPerMin, time.Minute),
		uploads:   make(chan upload, uploadQueueSize),
		stopped:   make(chan struct{}),
	}
	h.mux.HandleFunc("POST /audio", h.limiter.Middleware(h.handleUpload))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPDevice) Name() string {
	return "http"
}

func (h *HTTPDevice) Handler() http.Handler {
	return h.mux
}

// Addr is the bound address once started, the configured one otherwise.
func (h *HTTPDevice) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return h.addr
}

// Start binds the listener and serves uploads in the background. Bind errors
// are returned; a second Start is a no-op.
func (h *HTTPDevice) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.listener = ln
	h.server = &http.Server{
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	server := h.server
	go func() {
		h.logger.Info("audio upload server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("audio upload server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down and fails pending and later Opens.
func (h *HTTPDevice) Stop() error {
	h.stopOnce.Do(func() { close(h.stopped) })

	h.mu.Lock()
	server := h.server
	h.server = nil
	h.listener = nil
	h.mu.Unlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := server.Close(); err != nil {
			return fmt.Errorf("closing audio upload server: %w", err)
		}
	}
	return nil
}

// Open waits for the next upload.
func (h *HTTPDevice) Open(ctx context.Context, c voice.Constraints) (voice.Track, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.stopped:
		return nil, errors.New("http device stopped")
	case u := <-h.uploads:
		samples, format := applyConstraints(u.samples, u.format, c)
		return newBufferTrack(samples, format, h.blockSize, false), nil
	}
}

func (h *HTTPDevice) authorized(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token == h.authToken
}

func (h *HTTPDevice) handleUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if !h.authorized(r) {
		h.logger.Warn("unauthorized audio upload", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		h.logger.Error("reading audio upload", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	samples, format, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		h.logger.Warn("rejecting audio upload", "error", err)
		http.Error(w, "audio must be a PCM wav file", http.StatusUnsupportedMediaType)
		return
	}

	select {
	case h.uploads <- upload{samples: samples, format: format}:
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	duration := format.Duration(len(samples))
	h.logger.Info("audio upload queued", "bytes", len(data), "duration", duration)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":      "received",
		"bytes":       len(data),
		"duration_ms": duration.Milliseconds(),
	})
}

func (h *HTTPDevice) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.server != nil
	h.mu.Unlock()

	status, code := "ok", http.StatusOK
	if !running {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"running":    running,
		"queue_size": len(h.uploads),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
