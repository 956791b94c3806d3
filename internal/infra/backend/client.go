package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"cinevoice/internal/domain"
	"cinevoice/internal/infra"
	"cinevoice/internal/voice"
)

var (
	// ErrRequestFailed is returned when the backend answers success:false.
	ErrRequestFailed = errors.New("backend request failed")
	ErrNotFound      = errors.New("backend endpoint not found")
	ErrUnavailable   = errors.New("backend unavailable")
)

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	Retry           infra.RetryConfig
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// Language is sent along with audio as a transcription hint.
	Language string
}

// Client talks to the ticketing backend. The backend keeps the visitor's
// selection in a cookie session, so one Client is one visitor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      infra.RetryConfig
	breaker    *gobreaker.CircuitBreaker
	language   string
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = infra.DefaultRetryConfig()
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		retry:    cfg.Retry,
		language: cfg.Language,
		logger:   logger,
	}

	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

// Transcribe uploads the clip as WAV and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, clip *voice.AudioClip) (string, error) {
	wav, err := clip.WAV()
	if err != nil {
		return "", fmt.Errorf("%w: encoding clip: %w", voice.ErrTranscriptionFailed, err)
	}

	var result transcribeResponse
	err = c.call(ctx, http.MethodPost, "/transcribe", multipartBody(wav, c.language), &result)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", voice.ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(result.Text)
	c.logger.Debug("clip transcribed", "session", clip.SessionID, "bytes", len(wav), "text", text)
	if text == "" {
		return "", voice.ErrEmptyTranscription
	}
	return text, nil
}

// Recommend asks for movies matching a free-text description.
func (c *Client) Recommend(ctx context.Context, text string) ([]domain.Movie, error) {
	var result recommendResponse
	if err := c.call(ctx, http.MethodPost, "/recommend", jsonBody(map[string]string{"text": text}), &result); err != nil {
		return nil, err
	}

	movies := make([]domain.Movie, 0, len(result.Recommendations))
	for _, m := range result.Recommendations {
		movies = append(movies, m.toDomain())
	}
	return movies, nil
}

func (c *Client) SelectMovie(ctx context.Context, movie domain.Movie) error {
	var result envelope
	return c.call(ctx, http.MethodPost, "/select_movie", jsonBody(map[string]any{"movie": movieFromDomain(movie)}), &result)
}

func (c *Client) SelectSeats(ctx context.Context, seats []domain.SeatID) error {
	var result envelope
	return c.call(ctx, http.MethodPost, "/select_seats", jsonBody(map[string]any{"seats": fromSeatIDs(seats)}), &result)
}

// SaveFood stores the food selection. Older backends only expose
// /select_food.
func (c *Client) SaveFood(ctx context.Context, food []string) error {
	if food == nil {
		food = []string{}
	}
	body := jsonBody(map[string]any{"food": food})

	var result envelope
	err := c.call(ctx, http.MethodPost, "/save_food", body, &result)
	if errors.Is(err, ErrNotFound) {
		return c.call(ctx, http.MethodPost, "/select_food", body, &result)
	}
	return err
}

func (c *Client) Session(ctx context.Context) (domain.SessionSnapshot, error) {
	var result sessionResponse
	if err := c.call(ctx, http.MethodGet, "/get_session", nil, &result); err != nil {
		return domain.SessionSnapshot{}, err
	}
	return result.Session.toDomain(), nil
}

func (c *Client) ConfirmPurchase(ctx context.Context) (domain.Purchase, error) {
	var result purchaseResponse
	if err := c.call(ctx, http.MethodPost, "/confirm_purchase", nil, &result); err != nil {
		return domain.Purchase{}, err
	}
	return domain.Purchase{
		Movie: result.Purchase.Movie.title,
		Seats: toSeatIDs(result.Purchase.Seats),
		Food:  result.Purchase.Food,
	}, nil
}

func (c *Client) ClearSession(ctx context.Context) error {
	var result envelope
	return c.call(ctx, http.MethodPost, "/clear_session", nil, &result)
}

// OccupiedSeats lists seats that cannot be booked. A backend without the
// endpoint has no occupied seats.
func (c *Client) OccupiedSeats(ctx context.Context) ([]domain.SeatID, error) {
	var result occupiedResponse
	err := c.call(ctx, http.MethodGet, "/get_occupied_seats", nil, &result)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSeatIDs(result.OccupiedSeats), nil
}

// body builds a fresh request body for every attempt.
type body func() (io.Reader, string, error)

func jsonBody(v any) body {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func multipartBody(wav []byte, language string) body {
	return func() (io.Reader, string, error) {
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)

		part, err := writer.CreateFormFile("audio", "audio.wav")
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}
		if _, err = part.Write(wav); err != nil {
			return nil, "", fmt.Errorf("writing audio: %w", err)
		}
		if language != "" {
			if err = writer.WriteField("language", language); err != nil {
				return nil, "", fmt.Errorf("writing language field: %w", err)
			}
		}
		if err = writer.Close(); err != nil {
			return nil, "", fmt.Errorf("closing writer: %w", err)
		}
		return buf, writer.FormDataContentType(), nil
	}
}

type enveloped interface {
	status() envelope
}

func (e envelope) status() envelope { return e }

// call retries transport failures and 5xx answers. Client errors and
// success:false answers are returned at once and do not count against the
// breaker.
func (c *Client) call(ctx context.Context, method, path string, b body, out enveloped) error {
	return infra.WithRetry(ctx, c.retry, func() error {
		var logical error
		_, err := c.breaker.Execute(func() (interface{}, error) {
			var transport error
			logical, transport = c.roundTrip(ctx, method, path, b, out)
			return nil, transport
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return infra.Permanent(fmt.Errorf("%w: %w", ErrUnavailable, err))
		case err != nil:
			c.logger.Debug("backend call failed", "method", method, "path", path, "error", err)
			return err
		case logical != nil:
			return infra.Permanent(logical)
		}
		return nil
	})
}

func (c *Client) roundTrip(ctx context.Context, method, path string, b body, out enveloped) (logical, transport error) {
	var (
		reader      io.Reader
		contentType string
	)
	if b != nil {
		var err error
		reader, contentType, err = b()
		if err != nil {
			return err, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err), nil
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err(), nil
		}
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path), nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := fmt.Errorf("backend %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
		if infra.IsRetryableHTTPStatus(resp.StatusCode) {
			return nil, apiErr
		}
		return apiErr, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err), nil
	}

	if status := out.status(); !status.Success {
		msg := status.Error
		if msg == "" {
			msg = status.Message
		}
		return fmt.Errorf("%w: %s %s: %s", ErrRequestFailed, method, path, msg), nil
	}

	return nil, nil
}
