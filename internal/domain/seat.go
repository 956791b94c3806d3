package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	SeatRows    = "ABCDEF"
	SeatColumns = 8
)

// SeatID identifies a seat as {row letter}{column number}, A1 through F8.
type SeatID string

var seatPattern = regexp.MustCompile(`(?i)\b([a-f])\s?([1-8])\b`)

func ParseSeatID(s string) (SeatID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return "", fmt.Errorf("invalid seat %q", s)
	}
	if !strings.ContainsRune(SeatRows, rune(s[0])) {
		return "", fmt.Errorf("invalid seat row %q", s[:1])
	}
	col, err := strconv.Atoi(s[1:])
	if err != nil || col < 1 || col > SeatColumns {
		return "", fmt.Errorf("invalid seat column %q", s[1:])
	}
	return SeatID(s), nil
}

// FindSeatIDs extracts every seat mentioned in free text, e.g. "a1 y b 3".
func FindSeatIDs(text string) []SeatID {
	matches := seatPattern.FindAllStringSubmatch(text, -1)
	seats := make([]SeatID, 0, len(matches))
	for _, m := range matches {
		seats = append(seats, SeatID(strings.ToUpper(m[1])+m[2]))
	}
	return seats
}

// SeatGrid returns every seat in row-major order.
func SeatGrid() [][]SeatID {
	grid := make([][]SeatID, 0, len(SeatRows))
	for _, row := range SeatRows {
		seats := make([]SeatID, 0, SeatColumns)
		for col := 1; col <= SeatColumns; col++ {
			seats = append(seats, SeatID(fmt.Sprintf("%c%d", row, col)))
		}
		grid = append(grid, seats)
	}
	return grid
}

func JoinSeats(seats []SeatID) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
