package application

import (
	"context"
	"fmt"
	"slices"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

const (
	seatsPrompt   = "¿Qué asientos quieres? Di por ejemplo 'A3 y A4', o 'continuar' para pagar."
	seatsReprompt = "Di los asientos que quieres, 'continuar' para pagar, 'comida' para volver o 'borrar' para empezar de nuevo."
	seatsConfirm  = "Responde SÍ para confirmar o NO para volver a elegir."
)

var (
	seatsContext = voice.Context{
		Name:     "seats",
		Mode:     voice.ModeNavigation,
		Reprompt: seatsReprompt,
		Rules: []voice.Rule{
			{
				Intent:  domain.Navigate(domain.TargetPayment),
				Phrases: []string{"continuar", "siguiente", "seguir", "avanzar", "pagar", "pago", "comprar", "finalizar", "listo"},
			},
			{
				Intent:  domain.Navigate(domain.TargetFood),
				Phrases: []string{"comida"},
			},
			{
				Intent:  domain.Cancel,
				Phrases: []string{"borrar", "limpiar"},
			},
		},
	}

	seatConfirmationContext = voice.ConfirmationContext("seat-confirmation", seatsConfirm)
)

func (f *Flow) seats(ctx context.Context, st domain.SelectionState) (Page, domain.SelectionState, error) {
	occupied, err := f.backend.OccupiedSeats(ctx)
	if err != nil {
		if err := f.report(ctx, err); err != nil {
			return PageSeats, st, err
		}
	}

	for {
		f.display.SeatGrid(st.Seats, occupied)

		text, err := f.ask(ctx, seatsPrompt)
		if err != nil {
			if err := f.report(ctx, err); err != nil {
				return PageSeats, st, err
			}
			continue
		}

		if ids := domain.FindSeatIDs(text); len(ids) > 0 {
			for _, id := range ids {
				if slices.Contains(occupied, id) {
					f.display.Warning(fmt.Sprintf("El asiento %s está ocupado.", id))
					continue
				}
				st = st.ToggleSeat(id)
			}
			continue
		}

		switch intent := voice.Interpret(text, seatsContext); intent {
		case domain.Navigate(domain.TargetFood):
			return PageFood, st, nil

		case domain.Cancel:
			st = st.ClearSeats()
			f.display.Info("Selección de asientos reiniciada.")
			continue

		case domain.Navigate(domain.TargetPayment):
			if len(st.Seats) == 0 {
				f.display.Warning("Selecciona al menos un asiento.")
				continue
			}

			answer, err := f.confirm(ctx, seatConfirmationPrompt(st.Seats), seatConfirmationContext)
			if err != nil {
				if err := f.report(ctx, err); err != nil {
					return PageSeats, st, err
				}
				continue
			}
			if answer != domain.Confirm {
				st = st.ClearSeats()
				f.display.Info("Selección de asientos reiniciada.")
				continue
			}

			if err := f.backend.SelectSeats(ctx, st.Seats); err != nil {
				if err := f.report(ctx, err); err != nil {
					return PageSeats, st, err
				}
				continue
			}
			f.logger.Info("seats confirmed", "seats", domain.JoinSeats(st.Seats))
			return PagePayment, st, nil
		}

		f.display.Warning(seatsReprompt)
	}
}

func seatConfirmationPrompt(seats []domain.SeatID) string {
	return fmt.Sprintf("Has seleccionado %d asiento(s): %s. ¿Estás seguro? %s",
		len(seats), domain.JoinSeats(seats), seatsConfirm)
}
