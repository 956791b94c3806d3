package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBackend struct {
	mu sync.Mutex

	movies   []domain.Movie
	occupied []domain.SeatID

	// ignoreMovie makes /select_movie succeed without the session recording
	// it.
	ignoreMovie  bool
	recommendErr error
	purchaseErr  error

	movie *domain.Movie
	seats []domain.SeatID
	food  []string

	calls []string
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

func (b *fakeBackend) Recommend(_ context.Context, text string) ([]domain.Movie, error) {
	b.record("recommend:" + text)
	if b.recommendErr != nil {
		return nil, b.recommendErr
	}
	return b.movies, nil
}

func (b *fakeBackend) SelectMovie(_ context.Context, movie domain.Movie) error {
	b.record("select_movie:" + movie.Title)
	if !b.ignoreMovie {
		b.movie = &movie
	}
	return nil
}

func (b *fakeBackend) SelectSeats(_ context.Context, seats []domain.SeatID) error {
	b.record("select_seats:" + domain.JoinSeats(seats))
	b.seats = slices.Clone(seats)
	return nil
}

func (b *fakeBackend) SaveFood(_ context.Context, food []string) error {
	b.record("save_food:" + strings.Join(food, ","))
	b.food = slices.Clone(food)
	return nil
}

func (b *fakeBackend) Session(_ context.Context) (domain.SessionSnapshot, error) {
	b.record("get_session")
	s := domain.SessionSnapshot{Seats: b.seats, Food: b.food}
	if b.movie != nil {
		s.MovieSelected = true
		s.Movie = b.movie.Title
	}
	return s, nil
}

func (b *fakeBackend) ConfirmPurchase(_ context.Context) (domain.Purchase, error) {
	b.record("confirm_purchase")
	if b.purchaseErr != nil {
		return domain.Purchase{}, b.purchaseErr
	}
	p := domain.Purchase{Seats: b.seats, Food: b.food}
	if b.movie != nil {
		p.Movie = b.movie.Title
	}
	return p, nil
}

func (b *fakeBackend) ClearSession(_ context.Context) error {
	b.record("clear_session")
	b.movie = nil
	b.seats = nil
	b.food = nil
	return nil
}

func (b *fakeBackend) OccupiedSeats(_ context.Context) ([]domain.SeatID, error) {
	b.record("get_occupied_seats")
	return b.occupied, nil
}

type fakePrompter struct {
	lines   []string
	prompts []string
}

func (p *fakePrompter) ReadLine(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

type dictation struct {
	text string
	err  error
}

type fakeVoice struct {
	dictations    []dictation
	conversations []voice.Result
	converseErr   error

	said     []string
	contexts []string
}

func (v *fakeVoice) Dictate(_ context.Context, _ string) (string, error) {
	if len(v.dictations) == 0 {
		return "", errors.New("no dictation scripted")
	}
	d := v.dictations[0]
	v.dictations = v.dictations[1:]
	return d.text, d.err
}

func (v *fakeVoice) Converse(_ context.Context, _ string, c voice.Context) (voice.Result, error) {
	v.contexts = append(v.contexts, c.Name)
	if v.converseErr != nil {
		return voice.Result{}, v.converseErr
	}
	if len(v.conversations) == 0 {
		return voice.Result{}, errors.New("no conversation scripted")
	}
	r := v.conversations[0]
	v.conversations = v.conversations[1:]
	return r, nil
}

func (v *fakeVoice) Say(_ context.Context, text string) error {
	v.said = append(v.said, text)
	return nil
}

type fakeDisplay struct {
	movies    [][]domain.Movie
	selected  []domain.Movie
	grids     int
	menus     int
	summaries []domain.Quote
	receipts  []string
	infos     []string
	warnings  []string
	errors    []string
}

func (d *fakeDisplay) Movies(movies []domain.Movie)  { d.movies = append(d.movies, movies) }
func (d *fakeDisplay) MovieSelected(m domain.Movie)  { d.selected = append(d.selected, m) }
func (d *fakeDisplay) FoodMenu([]string)             { d.menus++ }
func (d *fakeDisplay) SeatGrid(_, _ []domain.SeatID) { d.grids++ }
func (d *fakeDisplay) Info(msg string)               { d.infos = append(d.infos, msg) }
func (d *fakeDisplay) Warning(msg string)            { d.warnings = append(d.warnings, msg) }
func (d *fakeDisplay) Error(msg string)              { d.errors = append(d.errors, msg) }

func (d *fakeDisplay) Summary(_ domain.SessionSnapshot, q domain.Quote) {
	d.summaries = append(d.summaries, q)
}

func (d *fakeDisplay) Receipt(_ domain.Purchase, _ domain.Quote, code string) {
	d.receipts = append(d.receipts, code)
}
