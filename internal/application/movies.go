package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

const (
	moviesPrompt   = "¿Qué tipo de película te gustaría ver?"
	pickPrompt     = "Elige una película por número o título, o describe otra."
	moviesReprompt = "Di 'comida' para continuar o 'cambiar' para buscar otra película."
)

var moviesContext = voice.NavigationContext("movies", moviesReprompt)

var ordinals = map[string]int{
	"primera": 1, "uno": 1,
	"segunda": 2, "dos": 2,
	"tercera": 3, "tres": 3,
	"cuarta": 4, "cuatro": 4,
	"quinta": 5, "cinco": 5,
}

func (f *Flow) movies(ctx context.Context, st domain.SelectionState) (Page, domain.SelectionState, error) {
	var recs []domain.Movie

	for {
		prompt := moviesPrompt
		switch {
		case st.HasMovie():
			prompt = fmt.Sprintf("Has elegido %s. %s", st.Movie.Title, moviesReprompt)
		case len(recs) > 0:
			prompt = pickPrompt
		}

		text, err := f.ask(ctx, prompt)
		if err != nil {
			if err := f.report(ctx, err); err != nil {
				return PageMovies, st, err
			}
			continue
		}

		// Commands only apply once a movie is selected. Before that every line
		// is a search or a pick.
		if st.HasMovie() {
			switch intent := voice.Interpret(text, moviesContext); intent.Kind {
			case domain.IntentNavigate:
				selected, err := f.movieSelected(ctx)
				if err != nil {
					if err := f.report(ctx, err); err != nil {
						return PageMovies, st, err
					}
					continue
				}
				if !selected {
					f.display.Warning("Primero selecciona una película.")
					continue
				}
				return pageFor(intent.Target), st, nil

			case domain.IntentRetry:
				if err := f.backend.ClearSession(ctx); err != nil {
					if err := f.report(ctx, err); err != nil {
						return PageMovies, st, err
					}
					continue
				}
				st = domain.SelectionState{}
				recs = nil
				f.display.Info("Selección borrada. Busquemos otra película.")
				continue
			}
		}

		found, ok, err := f.searchOrPick(ctx, text, recs, &st)
		if err != nil {
			return PageMovies, st, err
		}
		if ok {
			recs = found
		}
	}
}

// searchOrPick selects a movie from recs when text names one. Otherwise,
// with no movie selected, text is sent to the recommender and the new list
// is returned with ok set. A non-nil error ends the page.
func (f *Flow) searchOrPick(ctx context.Context, text string, recs []domain.Movie, st *domain.SelectionState) (found []domain.Movie, ok bool, err error) {
	if m, picked := pickMovie(text, recs); picked {
		if err := f.backend.SelectMovie(ctx, m); err != nil {
			return nil, false, f.report(ctx, err)
		}
		*st = st.WithMovie(m)
		f.logger.Info("movie selected", "title", m.Title)
		f.display.MovieSelected(m)
		f.say(ctx, fmt.Sprintf("Has seleccionado %s.", m.Title))
		return nil, false, nil
	}

	if st.HasMovie() {
		f.display.Warning(moviesReprompt)
		return nil, false, nil
	}

	found, err = f.backend.Recommend(ctx, text)
	if err != nil {
		return nil, false, f.report(ctx, err)
	}
	if len(found) == 0 {
		f.display.Warning("No encontré películas para esa descripción.")
		return nil, false, nil
	}
	f.display.Movies(found)
	return found, true, nil
}

func (f *Flow) movieSelected(ctx context.Context) (bool, error) {
	snapshot, err := f.backend.Session(ctx)
	if err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return snapshot.MovieSelected, nil
}

// pickMovie matches a list number, an ordinal or a title against the
// recommendations on screen.
func pickMovie(text string, recs []domain.Movie) (domain.Movie, bool) {
	if len(recs) == 0 {
		return domain.Movie{}, false
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimPrefix(normalized, "la ")

	n, err := strconv.Atoi(normalized)
	if err != nil {
		n = ordinals[normalized]
	}
	if n >= 1 && n <= len(recs) {
		return recs[n-1], true
	}

	for _, m := range recs {
		if m.Title != "" && strings.Contains(normalized, strings.ToLower(m.Title)) {
			return m, true
		}
	}
	return domain.Movie{}, false
}
