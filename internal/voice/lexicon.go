package voice

import (
	"slices"

	"cinevoice/internal/domain"
)

// Rule maps any of its phrases to an intent.
type Rule struct {
	Intent  domain.Intent
	Phrases []string
}

var (
	affirmativeRule = Rule{
		Intent:  domain.Confirm,
		Phrases: []string{"sí", "si", "confirmo", "confirmar", "acepto", "aceptar", "correcto", "vale", "de acuerdo", "ok"},
	}
	negativeRule = Rule{
		Intent:  domain.Cancel,
		Phrases: []string{"no", "cancelar", "rechazar", "incorrecto", "equivocado", "volver"},
	}

	foodRule = Rule{
		Intent:  domain.Navigate(domain.TargetFood),
		Phrases: []string{"comida", "continuar", "siguiente", "seguir", "avanzar"},
	}
	seatsRule = Rule{
		Intent:  domain.Navigate(domain.TargetSeats),
		Phrases: []string{"asientos", "butacas", "lugares"},
	}
	paymentRule = Rule{
		Intent:  domain.Navigate(domain.TargetPayment),
		Phrases: []string{"pagar", "pago", "comprar", "finalizar"},
	}
	restartRule = Rule{
		Intent:  domain.Retry,
		Phrases: []string{"cambiar", "otra", "nueva"},
	}
)

var (
	confirmationRules = []Rule{affirmativeRule, negativeRule}
	navigationRules   = []Rule{foodRule, seatsRule, paymentRule, restartRule}
)

// ConfirmationRules returns a copy of the yes/no tables.
func ConfirmationRules() []Rule {
	return cloneRules(confirmationRules)
}

// NavigationRules returns a copy of the destination tables in priority order.
func NavigationRules() []Rule {
	return cloneRules(navigationRules)
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Intent: r.Intent, Phrases: slices.Clone(r.Phrases)}
	}
	return out
}
