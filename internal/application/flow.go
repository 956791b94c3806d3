package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

type Page string

const (
	PageMovies  Page = "movies"
	PageFood    Page = "food"
	PageSeats   Page = "seats"
	PagePayment Page = "payment"
	PageDone    Page = "done"
)

func pageFor(t domain.Target) Page {
	switch t {
	case domain.TargetFood:
		return PageFood
	case domain.TargetSeats:
		return PageSeats
	case domain.TargetPayment:
		return PagePayment
	}
	return PageMovies
}

type FlowOption func(*Flow)

// WithPurchaseHook registers fn to run after a purchase is confirmed.
func WithPurchaseHook(fn func(domain.Purchase)) FlowOption {
	return func(f *Flow) { f.onPurchase = fn }
}

// Flow walks a visitor through movies, food, seats and payment. Each page
// accepts typed commands or, on an empty line, a spoken one.
type Flow struct {
	backend    Backend
	voice      Voice
	prompter   Prompter
	display    Display
	logger     *slog.Logger
	onPurchase func(domain.Purchase)
}

func NewFlow(
	backend Backend,
	v Voice,
	prompter Prompter,
	display Display,
	logger *slog.Logger,
	opts ...FlowOption,
) *Flow {
	f := &Flow{
		backend:  backend,
		voice:    v,
		prompter: prompter,
		display:  display,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run starts from a cleared session and returns once a purchase is
// confirmed, ctx ends, or input is exhausted.
func (f *Flow) Run(ctx context.Context) (domain.Purchase, error) {
	if err := f.backend.ClearSession(ctx); err != nil {
		return domain.Purchase{}, fmt.Errorf("clearing session: %w", err)
	}

	var (
		page     = PageMovies
		state    domain.SelectionState
		purchase domain.Purchase
	)

	for page != PageDone {
		if err := ctx.Err(); err != nil {
			return domain.Purchase{}, err
		}

		current := page
		f.logger.Info("entering page", "page", current)

		var err error
		switch current {
		case PageMovies:
			page, state, err = f.movies(ctx, state)
		case PageFood:
			page, state, err = f.food(ctx, state)
		case PageSeats:
			page, state, err = f.seats(ctx, state)
		case PagePayment:
			page, purchase, err = f.payment(ctx, state)
		default:
			return domain.Purchase{}, fmt.Errorf("unknown page %q", current)
		}
		if err != nil {
			return domain.Purchase{}, fmt.Errorf("%s page: %w", current, err)
		}
	}

	return purchase, nil
}

// ask returns the typed answer or, on an empty line, a dictated one.
func (f *Flow) ask(ctx context.Context, prompt string) (string, error) {
	line, err := f.prompter.ReadLine(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if line = strings.TrimSpace(line); line != "" {
		return line, nil
	}

	text, err := f.voice.Dictate(ctx, prompt)
	if err != nil {
		return "", err
	}
	f.display.Info(fmt.Sprintf("Escuché: %q", text))
	return text, nil
}

// confirm asks a yes/no question. Typed answers use the same lexicon as
// spoken ones.
func (f *Flow) confirm(ctx context.Context, prompt string, c voice.Context) (domain.Intent, error) {
	for range voice.DefaultMaxAttempts {
		line, err := f.prompter.ReadLine(ctx, prompt)
		if err != nil {
			return domain.Unrecognized, fmt.Errorf("reading input: %w", err)
		}

		if line = strings.TrimSpace(line); line == "" {
			res, err := f.voice.Converse(ctx, prompt, c)
			if err != nil {
				return domain.Unrecognized, err
			}
			f.display.Info(fmt.Sprintf("Escuché: %q", res.Text))
			return res.Intent, nil
		}

		if intent := voice.Interpret(line, c); intent.Recognized() {
			return intent, nil
		}
		f.display.Warning(c.Reprompt)
	}
	return domain.Unrecognized, fmt.Errorf("%w: %s", voice.ErrTooManyAttempts, c.Name)
}

func (f *Flow) say(ctx context.Context, text string) {
	if err := f.voice.Say(ctx, text); err != nil && ctx.Err() == nil {
		f.logger.Warn("speaking", "error", err)
	}
}

// report shows a failed step to the visitor. It returns nil when the page
// can carry on and the error when the flow has to end.
func (f *Flow) report(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) {
		return err
	}

	f.logger.Warn("step failed", "error", err)
	f.display.Error(describe(err))
	return nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, voice.ErrDeviceUnavailable):
		return "Micrófono no disponible. Escribe tu respuesta."
	case errors.Is(err, voice.ErrTooManyAttempts):
		return "No pude entenderte. Inténtalo de nuevo o escribe tu respuesta."
	case errors.Is(err, voice.ErrNoSpeech):
		return "No te escuché."
	case errors.Is(err, voice.ErrTranscriptionFailed):
		return "No pude transcribir el audio."
	}
	return err.Error()
}
