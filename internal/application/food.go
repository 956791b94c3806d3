package application

import (
	"context"
	"strconv"
	"strings"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

const (
	foodPrompt   = "¿Qué quieres comer? Di el nombre de un producto o 'continuar' para elegir asientos."
	foodReprompt = "Di el nombre de un producto, 'continuar' para elegir asientos o 'volver' para cambiar de película."
)

var foodContext = voice.Context{
	Name:     "food",
	Mode:     voice.ModeNavigation,
	Reprompt: foodReprompt,
	Rules: []voice.Rule{
		{
			Intent:  domain.Navigate(domain.TargetSeats),
			Phrases: []string{"asientos", "butacas", "lugares", "continuar", "siguiente", "seguir", "avanzar", "listo"},
		},
		{
			Intent:  domain.Cancel,
			Phrases: []string{"volver", "regresar", "atrás"},
		},
	},
}

func (f *Flow) food(ctx context.Context, st domain.SelectionState) (Page, domain.SelectionState, error) {
	for {
		f.display.FoodMenu(st.Food)

		text, err := f.ask(ctx, foodPrompt)
		if err != nil {
			if err := f.report(ctx, err); err != nil {
				return PageFood, st, err
			}
			continue
		}

		if items := findFoodItems(text); len(items) > 0 {
			next := st
			for _, item := range items {
				next = next.ToggleFood(item)
			}
			if err := f.backend.SaveFood(ctx, next.Food); err != nil {
				if err := f.report(ctx, err); err != nil {
					return PageFood, st, err
				}
				continue
			}
			st = next
			f.logger.Info("food updated", "food", strings.Join(st.Food, ","))
			continue
		}

		switch intent := voice.Interpret(text, foodContext); intent.Kind {
		case domain.IntentNavigate:
			return PageSeats, st, nil
		case domain.IntentCancel:
			return PageMovies, st, nil
		}
		f.display.Warning(foodReprompt)
	}
}

// findFoodItems returns the menu items named in text. Typed menu numbers are
// accepted when no item is named.
func findFoodItems(text string) []string {
	normalized := strings.ToLower(text)

	var items []string
	for _, item := range domain.FoodMenu {
		if strings.Contains(normalized, strings.ToLower(item)) {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		return items
	}

	for _, field := range strings.Fields(normalized) {
		n, err := strconv.Atoi(strings.Trim(field, ",."))
		if err != nil || n < 1 || n > len(domain.FoodMenu) {
			continue
		}
		items = append(items, domain.FoodMenu[n-1])
	}
	return items
}
