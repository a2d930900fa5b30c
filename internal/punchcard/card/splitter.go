package card

import (
	"strings"
)

type lineKind int

const (
	blankLine lineKind = iota
	rowLine
	separatorLine
	invalidLine
)

func classify(line string) lineKind {
	if line == "" {
		return blankLine
	}
	if onlyOf(line, "-") {
		return separatorLine
	}
	if onlyOf(line, "01") {
		return rowLine
	}
	return invalidLine
}

func onlyOf(s, set string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(set, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Split cuts a deck into cards. Runs of '-' separate cards, blank lines are
// ignored and any other line is reported as a FormatError and skipped. Empty
// cards, including one after a trailing separator, are not emitted.
func Split(raw string) ([]Card, []*FormatError) {
	var (
		cards    []Card
		warnings []*FormatError
		current  Card
	)

	flush := func() {
		if len(current.Rows) == 0 {
			return
		}
		current.Index = len(cards)
		cards = append(cards, current)
		current = Card{}
	}

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch classify(line) {
		case blankLine:
		case separatorLine:
			flush()
		case rowLine:
			if len(current.Rows) == 0 {
				current.Line = i + 1
			}
			current.Rows = append(current.Rows, line)
		case invalidLine:
			warnings = append(warnings, &FormatError{
				Card:   len(cards),
				Line:   i + 1,
				Text:   line,
				Reason: "line is neither a card row nor a separator",
			})
		}
	}
	flush()

	return cards, warnings
}
