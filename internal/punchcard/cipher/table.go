package cipher

import (
	"fmt"
	"sort"
	"sync"
)

const (
	// Rows is the number of punch positions in one card column.
	Rows = 12

	// ZoneRows are rows 0..2 (the 12, 11 and 0 punches on a physical card).
	ZoneRows = 3

	// markerRow is combined with a digit row to reach the special characters.
	markerRow = Rows - 2

	// specialRowStart is the first digit row used by the special region.
	specialRowStart = 4
	specialRowEnd   = markerRow
)

// Blank is the character stored for a column with no punches.
const Blank rune = 0

// specials is assigned zone by zone: the zone punch alone first, then the
// zone combined with the marker row and rows 4 through 9.
var specials = []rune{
	Blank, ':', '#', '@', '\'', '=', '"',
	'&', '[', '.', '<', '(', '+', '!',
	'-', ']', '$', '*', ')', ';', '^',
	'0', '\\', ',', '%', '_', '>', '?',
}

// Pattern is a column of a card. Bit i is set when row i is punched.
type Pattern uint16

// PatternOf builds a pattern from the punched rows.
func PatternOf(rows ...int) Pattern {
	var p Pattern
	for _, r := range rows {
		p = p.With(r)
	}
	return p
}

func (p Pattern) With(row int) Pattern {
	if row < 0 || row >= Rows {
		return p
	}
	return p | 1<<uint(row)
}

func (p Pattern) Has(row int) bool {
	return row >= 0 && row < Rows && p&(1<<uint(row)) != 0
}

// Punched lists the rows set in p, lowest first.
func (p Pattern) Punched() []int {
	rows := []int{}
	for r := 0; r < Rows; r++ {
		if p.Has(r) {
			rows = append(rows, r)
		}
	}
	return rows
}

func (p Pattern) String() string {
	b := make([]byte, Rows)
	for r := 0; r < Rows; r++ {
		b[r] = '0'
		if p.Has(r) {
			b[r] = '1'
		}
	}
	return string(b)
}

// Region tells which part of the table an entry came from.
type Region int

const (
	Alphanumeric Region = iota
	Special
)

func (r Region) String() string {
	if r == Special {
		return "special"
	}
	return "alphanumeric"
}

type Entry struct {
	Pattern Pattern
	Char    rune
	Region  Region
}

// Table maps column patterns to characters. It is never modified after Build
// returns and may be shared between goroutines.
type Table struct {
	chars   map[Pattern]rune
	regions map[Pattern]Region
}

// Lookup returns the character for p and whether p has an entry.
func (t *Table) Lookup(p Pattern) (rune, bool) {
	c, ok := t.chars[p]
	return c, ok
}

func (t *Table) Len() int {
	return len(t.chars)
}

// Entries returns every entry ordered by pattern.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.chars))
	for p, c := range t.chars {
		out = append(out, Entry{Pattern: p, Char: c, Region: t.regions[p]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

func (t *Table) add(p Pattern, c rune, region Region) error {
	if prev, ok := t.chars[p]; ok {
		return fmt.Errorf("pattern %s already mapped to %q, cannot map to %q", p, prev, c)
	}
	t.chars[p] = c
	t.regions[p] = region
	return nil
}

// Build constructs the punch card table.
func Build() (*Table, error) {
	t := &Table{
		chars:   make(map[Pattern]rune, 64),
		regions: make(map[Pattern]Region, 64),
	}

	// zone 0 means no zone punch; zone z > 0 punches row z-1
	next := '1'
	for zone := 0; zone <= ZoneRows; zone++ {
		for row := ZoneRows; row < Rows; row++ {
			p := zonePattern(zone).With(row)
			if zone == ZoneRows && row == ZoneRows {
				if err := t.add(p, '/', Alphanumeric); err != nil {
					return nil, err
				}
				continue
			}
			if err := t.add(p, next, Alphanumeric); err != nil {
				return nil, err
			}
			if next == '9' {
				next = 'A'
			} else {
				next++
			}
		}
	}

	i := 0
	for zone := 0; zone <= ZoneRows; zone++ {
		if err := t.add(zonePattern(zone), specials[i], Special); err != nil {
			return nil, err
		}
		i++
		for row := specialRowStart; row < specialRowEnd; row++ {
			p := zonePattern(zone).With(markerRow).With(row)
			if err := t.add(p, specials[i], Special); err != nil {
				return nil, err
			}
			i++
		}
	}

	return t, nil
}

func zonePattern(zone int) Pattern {
	if zone == 0 {
		return 0
	}
	return PatternOf(zone - 1)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the table built once for the process.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Build()
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}
