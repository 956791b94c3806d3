package output_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"cinevoice/internal/domain"
	"cinevoice/internal/output"
	"cinevoice/internal/voice"
)

func TestFormatter_Movies(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewFormatter(&buf)

	f.Movies([]domain.Movie{
		{Title: "Inception", Year: "2010", Genres: "Action, Sci-Fi", Director: "Christopher Nolan", Rating: 8.8},
		{Title: "Up", Year: "2009"},
	})

	out := buf.String()
	for _, want := range []string{"1. ", "Inception", "(2010)", "Action · Sci-Fi", "Christopher Nolan", "2. ", "Up"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatter_FoodMenuMarksSelection(t *testing.T) {
	var buf bytes.Buffer
	output.NewFormatter(&buf).FoodMenu([]string{"Nachos"})

	out := buf.String()
	if !strings.Contains(out, "[x]") {
		t.Errorf("selected item not marked:\n%s", out)
	}
	if strings.Count(out, "[ ]") != len(domain.FoodMenu)-1 {
		t.Errorf("expected %d unselected items:\n%s", len(domain.FoodMenu)-1, out)
	}
	if !strings.Contains(out, "$8.000") {
		t.Errorf("price missing:\n%s", out)
	}
}

func TestRenderSeatGrid(t *testing.T) {
	grid := output.RenderSeatGrid([]domain.SeatID{"B2"}, []domain.SeatID{"A3"})

	lines := strings.Split(grid, "\n")
	// screen, column header and six rows
	if len(lines) != 2+len(domain.SeatRows) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), 2+len(domain.SeatRows), grid)
	}
	if !strings.Contains(lines[0], "PANTALLA") {
		t.Errorf("screen label missing: %q", lines[0])
	}
	for i, row := range domain.SeatRows {
		if !strings.HasPrefix(lines[2+i], string(row)+" ") {
			t.Errorf("row %d: got %q", i, lines[2+i])
		}
		if got := strings.Count(lines[2+i], "■"); got != domain.SeatColumns {
			t.Errorf("row %c: got %d seats, want %d", row, got, domain.SeatColumns)
		}
	}
}

func TestFormatter_SummaryAndReceipt(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewFormatter(&buf)

	snapshot := domain.SessionSnapshot{
		MovieSelected: true,
		Movie:         "Up",
		Seats:         []domain.SeatID{"A1", "A2"},
		Food:          []string{"Agua"},
	}
	quote := domain.QuoteFor(snapshot.Seats, snapshot.Food)
	f.Summary(snapshot, quote)
	f.Receipt(domain.Purchase{Movie: "Up", Seats: snapshot.Seats, Food: snapshot.Food}, quote, "CINE-ABCD1234")

	out := buf.String()
	for _, want := range []string{"Up", "A1, A2", "Agua", "$30.000", "$8.000", "$38.000", "CINE-ABCD1234"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatter_SessionWithoutMovie(t *testing.T) {
	var buf bytes.Buffer
	output.NewFormatter(&buf).Session(domain.SessionSnapshot{})

	if !strings.Contains(buf.String(), "No hay película seleccionada") {
		t.Errorf("got %q", buf.String())
	}
}

func TestFormatter_ClipAndIntent(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewFormatter(&buf)

	f.Clip(&voice.AudioClip{Data: make([]byte, 2000), Duration: 62500 * time.Microsecond, Reason: voice.ReasonSilence})
	f.Intent("vamos a pagar", domain.Navigate(domain.TargetPayment))

	out := buf.String()
	for _, want := range []string{"silence", "2000 bytes", "navigate(payment)", `"vamos a pagar"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatter_Speak(t *testing.T) {
	var buf bytes.Buffer
	f := output.NewFormatter(&buf)

	if err := f.Speak(context.Background(), "Hola"); err != nil {
		t.Fatalf("speaking: %v", err)
	}
	if !strings.Contains(buf.String(), "Hola") {
		t.Errorf("got %q", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Speak(ctx, "Adiós"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestConsole_ReadLine(t *testing.T) {
	var out bytes.Buffer
	c := output.NewConsole(strings.NewReader("drama\n\nsí\n"), &out)
	ctx := context.Background()

	for _, want := range []string{"drama", "", "sí"} {
		got, err := c.ReadLine(ctx, "¿Qué quieres?")
		if err != nil {
			t.Fatalf("reading: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	if _, err := c.ReadLine(ctx, "¿Algo más?"); !errors.Is(err, io.EOF) {
		t.Errorf("got %v, want io.EOF", err)
	}
	if !strings.Contains(out.String(), "¿Qué quieres?") {
		t.Errorf("prompt not printed: %q", out.String())
	}
}

func TestConsole_ReadLineCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	c := output.NewConsole(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.ReadLine(ctx, "?"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestFormatter_ClipEntry(t *testing.T) {
	var buf bytes.Buffer
	output.NewFormatter(&buf).ClipEntry("clip.wav", 3200, time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC))

	for _, want := range []string{"clip.wav", "3200 bytes", "2024-05-01 20:00:00"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q: %q", want, buf.String())
		}
	}
}
