package application

import (
	"context"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

// Backend is the ticketing service. It keeps the visitor's selection in its
// own session.
type Backend interface {
	Recommend(ctx context.Context, text string) ([]domain.Movie, error)
	SelectMovie(ctx context.Context, movie domain.Movie) error
	SelectSeats(ctx context.Context, seats []domain.SeatID) error
	SaveFood(ctx context.Context, food []string) error
	Session(ctx context.Context) (domain.SessionSnapshot, error)
	ConfirmPurchase(ctx context.Context) (domain.Purchase, error)
	ClearSession(ctx context.Context) error
	OccupiedSeats(ctx context.Context) ([]domain.SeatID, error)
}

// Voice is the spoken side of the conversation.
type Voice interface {
	Converse(ctx context.Context, prompt string, c voice.Context) (voice.Result, error)
	Dictate(ctx context.Context, prompt string) (string, error)
	Say(ctx context.Context, text string) error
}

// Prompter reads typed answers. An empty line hands the turn to voice.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

type Display interface {
	Movies(movies []domain.Movie)
	MovieSelected(movie domain.Movie)
	FoodMenu(selected []string)
	SeatGrid(selected, occupied []domain.SeatID)
	Summary(session domain.SessionSnapshot, quote domain.Quote)
	Receipt(purchase domain.Purchase, quote domain.Quote, code string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}
