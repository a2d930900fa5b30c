package decoder

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/avvvet/punchcard-services/internal/punchcard/card"
	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
)

// Policy decides what a column with no table entry turns into.
type Policy int

const (
	// Skip drops the column from the message.
	Skip Policy = iota
	// Placeholder writes Options.Placeholder in place of the column.
	Placeholder
	// Fail rejects the whole card.
	Fail
)

func (p Policy) String() string {
	switch p {
	case Placeholder:
		return "placeholder"
	case Fail:
		return "fail"
	default:
		return "skip"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return Skip, nil
	case "placeholder":
		return Placeholder, nil
	case "fail":
		return Fail, nil
	}
	return Skip, errors.Errorf("unknown undefined pattern policy %q", s)
}

// UnmarshalText lets a Policy be read straight from configuration.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

const DefaultPlaceholder = '�'

type Options struct {
	Policy      Policy
	Placeholder rune
	// BlankAsSpace decodes unpunched columns to ' ' instead of nothing.
	// The Placeholder policy always does.
	BlankAsSpace bool
}

// UndefinedPatternError is a column whose pattern is not in the table.
type UndefinedPatternError struct {
	Column  int            `json:"column"`
	Pattern cipher.Pattern `json:"pattern"`
}

func (e *UndefinedPatternError) Error() string {
	return fmt.Sprintf("column %d: no character for pattern %s", e.Column+1, e.Pattern)
}

// Decoder turns cards into text using a fixed table.
type Decoder struct {
	table *cipher.Table
	opts  Options
}

func New(table *cipher.Table, opts Options) *Decoder {
	if opts.Placeholder == 0 {
		opts.Placeholder = DefaultPlaceholder
	}
	return &Decoder{table: table, opts: opts}
}

func (d *Decoder) Options() Options {
	return d.opts
}

// ColumnPattern reads one column of c across all rows.
func ColumnPattern(c card.Card, column int) cipher.Pattern {
	var p cipher.Pattern
	for row := 0; row < cipher.Rows; row++ {
		if c.Punched(row, column) {
			p = p.With(row)
		}
	}
	return p
}

// Decode reads c left to right. Columns missing from the table are handled
// by the policy and returned so the caller can report them; only the Fail
// policy turns them into an error.
func (d *Decoder) Decode(c card.Card) (string, []*UndefinedPatternError, error) {
	var (
		sb        strings.Builder
		undefined []*UndefinedPatternError
	)

	for col := 0; col < c.Columns(); col++ {
		p := ColumnPattern(c, col)
		ch, ok := d.table.Lookup(p)
		if !ok {
			u := &UndefinedPatternError{Column: col, Pattern: p}
			undefined = append(undefined, u)
			switch d.opts.Policy {
			case Fail:
				return "", undefined, errors.Wrapf(u, "card %d", c.Index+1)
			case Placeholder:
				sb.WriteRune(d.opts.Placeholder)
			}
			continue
		}
		if ch == cipher.Blank {
			// placeholder output keeps one rune per column
			if d.opts.BlankAsSpace || d.opts.Policy == Placeholder {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteRune(ch)
	}

	return sb.String(), undefined, nil
}
