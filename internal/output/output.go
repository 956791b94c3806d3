package output

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Speak prints text as the assistant's line. It stands in for a speech
// synthesizer on terminals without one.
func (f *Formatter) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(f.w, "🔊 %s\n", SpeechStyle.Render(text))
	return nil
}

func (f *Formatter) Movies(movies []domain.Movie) {
	fmt.Fprintf(f.w, "%s\n\n", TitleStyle.Render("🎬 Recomendaciones"))
	for i, m := range movies {
		stars := strings.Repeat("★", m.Stars()) + strings.Repeat("☆", 5-m.Stars())
		fmt.Fprintf(f.w, "  %d. %s %s %s\n", i+1, TitleStyle.Render(m.Title), DimStyle.Render("("+m.Year+")"), PriceStyle.Render(stars))
		if genres := m.GenreList(); len(genres) > 0 {
			fmt.Fprintf(f.w, "     %s\n", DimStyle.Render(strings.Join(genres, " · ")))
		}
		if m.Director != "" {
			fmt.Fprintf(f.w, "     Dirección: %s\n", m.Director)
		}
		if m.Plot != "" {
			fmt.Fprintf(f.w, "     %s\n", DimStyle.Render(m.Plot))
		}
	}
	fmt.Fprintln(f.w)
}

func (f *Formatter) MovieSelected(m domain.Movie) {
	fmt.Fprintf(f.w, "✅ Película seleccionada: %s\n", TitleStyle.Render(m.Title))
}

func (f *Formatter) FoodMenu(selected []string) {
	fmt.Fprintf(f.w, "%s %s\n\n", TitleStyle.Render("🍿 Comida"), DimStyle.Render(domain.FormatPrice(domain.FoodPrice)+" c/u"))
	for i, item := range domain.FoodMenu {
		mark := "[ ]"
		label := item
		if slices.Contains(selected, item) {
			mark = SuccessStyle.Render("[x]")
			label = SuccessStyle.Render(item)
		}
		fmt.Fprintf(f.w, "  %s %d. %s\n", mark, i+1, label)
	}
	fmt.Fprintln(f.w)
}

func (f *Formatter) SeatGrid(selected, occupied []domain.SeatID) {
	fmt.Fprintf(f.w, "%s %s\n\n", TitleStyle.Render("💺 Asientos"), DimStyle.Render(domain.FormatPrice(domain.SeatPrice)+" c/u"))
	fmt.Fprintln(f.w, RenderSeatGrid(selected, occupied))
	fmt.Fprintf(f.w, "\n  %s libre  %s elegido  %s ocupado\n\n",
		SeatFreeStyle.Render("■"), SeatSelectedStyle.Render("■"), SeatOccupiedStyle.Render("■"))
}

// RenderSeatGrid draws the screen and the A-F by 1-8 seat map.
func RenderSeatGrid(selected, occupied []domain.SeatID) string {
	var b strings.Builder

	width := domain.SeatColumns * 3
	b.WriteString("   " + DimStyle.Render(lipgloss.PlaceHorizontal(width, lipgloss.Center, "PANTALLA")) + "\n")

	b.WriteString("  ")
	for col := 1; col <= domain.SeatColumns; col++ {
		fmt.Fprintf(&b, "%3d", col)
	}
	b.WriteString("\n")

	for _, row := range domain.SeatGrid() {
		b.WriteString(string(row[0][0]) + " ")
		for _, seat := range row {
			cell := "  ■"
			switch {
			case slices.Contains(occupied, seat):
				cell = SeatOccupiedStyle.Render(cell)
			case slices.Contains(selected, seat):
				cell = SeatSelectedStyle.Render(cell)
			default:
				cell = SeatFreeStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) Summary(s domain.SessionSnapshot, q domain.Quote) {
	lines := []string{
		TitleStyle.Render("🧾 Resumen"),
		"",
		"Película: " + s.Movie,
		fmt.Sprintf("Asientos: %s  %s", orNone(domain.JoinSeats(s.Seats)), PriceStyle.Render(domain.FormatPrice(q.Seats))),
		fmt.Sprintf("Comida:   %s  %s", orNone(strings.Join(s.Food, ", ")), PriceStyle.Render(domain.FormatPrice(q.Food))),
		"",
		"Total:    " + PriceStyle.Render(domain.FormatPrice(q.Total)),
	}
	fmt.Fprintln(f.w, PanelStyle.Render(strings.Join(lines, "\n")))
}

func (f *Formatter) Receipt(p domain.Purchase, q domain.Quote, code string) {
	lines := []string{
		SuccessStyle.Render("🎟️  ¡Compra confirmada!"),
		"",
		"Código:   " + TitleStyle.Render(code),
		"Película: " + p.Movie,
		"Asientos: " + orNone(domain.JoinSeats(p.Seats)),
		"Comida:   " + orNone(strings.Join(p.Food, ", ")),
		"Total:    " + PriceStyle.Render(domain.FormatPrice(q.Total)),
	}
	fmt.Fprintln(f.w, PanelStyle.Render(strings.Join(lines, "\n")))
}

// Session prints what the backend holds for the visitor.
func (f *Formatter) Session(s domain.SessionSnapshot) {
	if !s.MovieSelected {
		f.Info("No hay película seleccionada")
		return
	}
	f.Summary(s, domain.QuoteFor(s.Seats, s.Food))
}

// Clip reports a finished recording.
func (f *Formatter) Clip(clip *voice.AudioClip) {
	fmt.Fprintf(f.w, "⏹️  Grabación detenida (%s): %s, %d bytes\n",
		clip.Reason, clip.Duration.Round(time.Millisecond), clip.Len())
}

func (f *Formatter) ClipEntry(name string, size int64, modTime time.Time) {
	fmt.Fprintf(f.w, "  %s %s %s\n", name, DimStyle.Render(fmt.Sprintf("%d bytes", size)), DimStyle.Render(modTime.Format(time.DateTime)))
}

// Intent reports how a command was understood.
func (f *Formatter) Intent(text string, intent domain.Intent) {
	fmt.Fprintf(f.w, "💬 %q → %s\n", text, TitleStyle.Render(intent.String()))
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", ErrorStyle.Render(msg))
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", SuccessStyle.Render(msg))
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", WarningStyle.Render(msg))
}

func orNone(s string) string {
	if s == "" {
		return DimStyle.Render("ninguno")
	}
	return s
}
