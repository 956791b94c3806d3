package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"cinevoice/internal/domain"
)

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

type movieJSON struct {
	Title    string     `json:"title"`
	Year     flexString `json:"year"`
	Genres   string     `json:"genres"`
	Actors   string     `json:"actors"`
	Director string     `json:"director"`
	Rating   flexString `json:"rating"`
	Plot     string     `json:"plot"`
	Mood     string     `json:"mood"`
}

func (m movieJSON) toDomain() domain.Movie {
	return domain.Movie{
		Title:    m.Title,
		Year:     string(m.Year),
		Genres:   m.Genres,
		Actors:   m.Actors,
		Director: m.Director,
		Rating:   m.Rating.float(),
		Plot:     m.Plot,
		Mood:     m.Mood,
	}
}

type movieRequest struct {
	Title    string  `json:"title"`
	Year     string  `json:"year,omitempty"`
	Genres   string  `json:"genres,omitempty"`
	Actors   string  `json:"actors,omitempty"`
	Director string  `json:"director,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Plot     string  `json:"plot,omitempty"`
	Mood     string  `json:"mood,omitempty"`
}

func movieFromDomain(m domain.Movie) movieRequest {
	return movieRequest{
		Title:    m.Title,
		Year:     m.Year,
		Genres:   m.Genres,
		Actors:   m.Actors,
		Director: m.Director,
		Rating:   m.Rating,
		Plot:     m.Plot,
		Mood:     m.Mood,
	}
}

// movieRef is either a movie object or a bare title.
type movieRef struct {
	title string
}

func (r *movieRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.title)
	case data[0] == '{':
		var m movieJSON
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		r.title = m.Title
		return nil
	default:
		return nil
	}
}

type transcribeResponse struct {
	envelope
	Text   string `json:"text"`
	Action string `json:"action"`
}

type recommendResponse struct {
	envelope
	Recommendations []movieJSON `json:"recommendations"`
}

type sessionJSON struct {
	Movie         movieRef `json:"movie"`
	CurrentMovie  movieRef `json:"peliculaActual"`
	MovieSelected bool     `json:"peliculaSeleccionada"`
	Seats         []string `json:"seats"`
	Food          []string `json:"food"`
}

func (s sessionJSON) toDomain() domain.SessionSnapshot {
	title := s.Movie.title
	if title == "" {
		title = s.CurrentMovie.title
	}
	return domain.SessionSnapshot{
		MovieSelected: s.MovieSelected,
		Movie:         title,
		Seats:         toSeatIDs(s.Seats),
		Food:          s.Food,
	}
}

type sessionResponse struct {
	envelope
	Session sessionJSON `json:"session"`
}

type purchaseJSON struct {
	Movie movieRef `json:"movie"`
	Seats []string `json:"seats"`
	Food  []string `json:"food"`
}

type purchaseResponse struct {
	envelope
	Purchase purchaseJSON `json:"purchase"`
}

type occupiedResponse struct {
	envelope
	OccupiedSeats []string `json:"occupied_seats"`
}

func toSeatIDs(seats []string) []domain.SeatID {
	out := make([]domain.SeatID, 0, len(seats))
	for _, s := range seats {
		out = append(out, domain.SeatID(strings.ToUpper(strings.TrimSpace(s))))
	}
	return out
}

func fromSeatIDs(seats []domain.SeatID) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = string(s)
	}
	return out
}
