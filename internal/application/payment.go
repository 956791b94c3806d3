package application

import (
	"context"
	"fmt"

	"cinevoice/internal/domain"
	"cinevoice/internal/voice"
)

var paymentContext = voice.ConfirmationContext("payment", "Responde SÍ para pagar o NO para volver.")

// payment shows the server-side summary and completes the purchase. A
// cancelled payment goes back to the food page.
func (f *Flow) payment(ctx context.Context, st domain.SelectionState) (Page, domain.Purchase, error) {
	snapshot, err := f.backend.Session(ctx)
	if err != nil {
		if err := f.report(ctx, fmt.Errorf("loading session: %w", err)); err != nil {
			return PagePayment, domain.Purchase{}, err
		}
		return PageSeats, domain.Purchase{}, nil
	}

	if !snapshot.MovieSelected {
		f.display.Warning("Primero selecciona una película.")
		return PageMovies, domain.Purchase{}, nil
	}
	if len(snapshot.Seats) == 0 {
		f.display.Warning("Primero elige tus asientos.")
		return PageSeats, domain.Purchase{}, nil
	}

	quote := domain.QuoteFor(snapshot.Seats, snapshot.Food)
	f.display.Summary(snapshot, quote)

	prompt := fmt.Sprintf("El total es %s. ¿Confirmas la compra? Responde SÍ o NO.", domain.FormatPrice(quote.Total))
	answer, err := f.confirm(ctx, prompt, paymentContext)
	if err != nil {
		if err := f.report(ctx, err); err != nil {
			return PagePayment, domain.Purchase{}, err
		}
		return PagePayment, domain.Purchase{}, nil
	}
	if answer != domain.Confirm {
		f.display.Info("Compra cancelada.")
		return PageFood, domain.Purchase{}, nil
	}

	purchase, err := f.backend.ConfirmPurchase(ctx)
	if err != nil {
		if err := f.report(ctx, fmt.Errorf("confirming purchase: %w", err)); err != nil {
			return PagePayment, domain.Purchase{}, err
		}
		return PagePayment, domain.Purchase{}, nil
	}
	if purchase.Movie == "" {
		purchase = domain.Purchase{Movie: snapshot.Movie, Seats: snapshot.Seats, Food: snapshot.Food}
	}
	if purchase.Movie == "" && st.HasMovie() {
		purchase.Movie = st.Movie.Title
	}

	code := domain.NewReceiptCode()
	f.display.Receipt(purchase, quote, code)
	f.say(ctx, fmt.Sprintf("¡Compra confirmada! Tu código es %s.", code))

	f.logger.Info("purchase confirmed",
		"movie", purchase.Movie,
		"seats", domain.JoinSeats(purchase.Seats),
		"total", quote.Total,
		"code", code,
	)

	if f.onPurchase != nil {
		f.onPurchase(purchase)
	}
	return PageDone, purchase, nil
}
