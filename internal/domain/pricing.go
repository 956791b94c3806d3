package domain

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	SeatPrice = 15000
	FoodPrice = 8000
)

// FoodMenu is the fixed concessions menu.
var FoodMenu = []string{
	"Crispetas",
	"Gaseosa",
	"Nachos",
	"Perro caliente",
	"Combo pareja",
	"Agua",
}

type Quote struct {
	Seats int
	Food  int
	Total int
}

func QuoteFor(seats []SeatID, food []string) Quote {
	q := Quote{
		Seats: len(seats) * SeatPrice,
		Food:  len(food) * FoodPrice,
	}
	q.Total = q.Seats + q.Food
	return q
}

// FormatPrice renders an amount in pesos with dot thousands separators,
// e.g. $38.000.
func FormatPrice(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return "$" + sign + string(out)
}

const receiptAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReceiptCode returns a booking code such as CINE-7QK2M0ZD.
func NewReceiptCode() string {
	code := make([]byte, 8)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(receiptAlphabet))))
		if err != nil {
			n = big.NewInt(int64(i))
		}
		code[i] = receiptAlphabet[n.Int64()]
	}
	return "CINE-" + string(code)
}
