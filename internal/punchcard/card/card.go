package card

import (
	"fmt"
	"strings"

	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
)

// Card is one punch card as read from the deck, rows top to bottom.
type Card struct {
	Index int      `json:"index"` // 0-based position in the deck
	Line  int      `json:"line"`  // input line of the first row, 1-based
	Rows  []string `json:"rows"`
}

// Columns is the width of the card, taken from its first row.
func (c Card) Columns() int {
	if len(c.Rows) == 0 {
		return 0
	}
	return len(c.Rows[0])
}

// Punched reports whether row has a '1' at column. Rows that are missing or
// too short read as unpunched.
func (c Card) Punched(row, column int) bool {
	if row < 0 || row >= len(c.Rows) || column < 0 || column >= len(c.Rows[row]) {
		return false
	}
	return c.Rows[row][column] == '1'
}

// FormatError describes input that does not fit the card layout. Card is -1
// when the line could not be tied to a card.
type FormatError struct {
	Card   int    `json:"card"`
	Line   int    `json:"line,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason"`
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Card >= 0:
		return fmt.Sprintf("card %d line %d: %s", e.Card+1, e.Line, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	default:
		return fmt.Sprintf("card %d: %s", e.Card+1, e.Reason)
	}
}

// Normalize fits c to exactly cipher.Rows rows. Short cards are padded with
// unpunched rows and ragged rows are reported; both come back as warnings.
// A card with too many rows cannot be decoded and is returned as an error.
func (c Card) Normalize() (Card, []*FormatError, error) {
	if len(c.Rows) > cipher.Rows {
		return c, nil, &FormatError{
			Card:   c.Index,
			Line:   c.Line,
			Reason: fmt.Sprintf("card has %d rows, at most %d allowed", len(c.Rows), cipher.Rows),
		}
	}

	var warnings []*FormatError
	width := c.Columns()
	for i, row := range c.Rows {
		if len(row) != width {
			warnings = append(warnings, &FormatError{
				Card:   c.Index,
				Line:   c.Line + i,
				Text:   row,
				Reason: fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), width),
			})
			break
		}
	}

	if len(c.Rows) < cipher.Rows {
		warnings = append(warnings, &FormatError{
			Card:   c.Index,
			Line:   c.Line,
			Reason: fmt.Sprintf("card has %d rows, padding to %d", len(c.Rows), cipher.Rows),
		})
		rows := make([]string, cipher.Rows)
		copy(rows, c.Rows)
		blank := strings.Repeat("0", width)
		for i := len(c.Rows); i < cipher.Rows; i++ {
			rows[i] = blank
		}
		c.Rows = rows
	}

	return c, warnings, nil
}
