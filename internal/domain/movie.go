package domain

import "strings"

type Movie struct {
	Title    string
	Year     string
	Genres   string
	Actors   string
	Director string
	Rating   float64
	Plot     string
	Mood     string
}

// GenreList splits the comma separated genre string returned by the backend.
func (m Movie) GenreList() []string {
	if m.Genres == "" {
		return nil
	}
	parts := strings.Split(m.Genres, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// Stars renders the rating out of 10 as up to five stars.
func (m Movie) Stars() int {
	rating := m.Rating
	if rating <= 0 {
		rating = 7
	}
	stars := int(rating / 2)
	if stars > 5 {
		stars = 5
	}
	return stars
}

// SessionSnapshot mirrors what the backend holds for the current visitor.
type SessionSnapshot struct {
	MovieSelected bool
	Movie         string
	Seats         []SeatID
	Food          []string
}

type Purchase struct {
	Movie string
	Seats []SeatID
	Food  []string
}
