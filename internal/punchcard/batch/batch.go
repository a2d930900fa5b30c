package batch

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/punchcard-services/internal/punchcard/card"
	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
	"github.com/avvvet/punchcard-services/internal/punchcard/decoder"
)

// IOError means the deck could not be read. Nothing is decoded after it.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ReadFile loads the whole deck into memory.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Path: path, Err: errors.WithStack(err)}
	}
	return string(data), nil
}

// Deck is a split but not yet decoded input.
type Deck struct {
	Cards    []card.Card
	Warnings []*card.FormatError
}

// Result is the outcome for one card. Err is set when the card could not be
// decoded; Message then holds whatever was recovered, usually nothing.
type Result struct {
	Index     int
	Message   string
	Warnings  []*card.FormatError
	Undefined []*decoder.UndefinedPatternError
	Err       error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Batch holds one Result per card, in deck order.
type Batch struct {
	Results  []Result
	Warnings []*card.FormatError
}

// Messages maps the 0-based card index to its decoded text. Failed cards are
// left out.
func (b *Batch) Messages() map[int]string {
	out := make(map[int]string, len(b.Results))
	for _, r := range b.Results {
		if !r.Failed() {
			out[r.Index] = r.Message
		}
	}
	return out
}

func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Driver runs split and decode over a whole deck. It holds no state between
// runs and may be used concurrently.
type Driver struct {
	decoder *decoder.Decoder
}

func NewDriver(table *cipher.Table, opts decoder.Options) *Driver {
	return &Driver{decoder: decoder.New(table, opts)}
}

func (d *Driver) Options() decoder.Options {
	return d.decoder.Options()
}

func (d *Driver) Parse(raw string) Deck {
	cards, warnings := card.Split(raw)
	for _, w := range warnings {
		log.WithFields(log.Fields{"card": w.Card + 1, "line": w.Line}).Warnf("skipping line: %s", w.Reason)
	}
	return Deck{Cards: cards, Warnings: warnings}
}

// Decode never stops early: a card that fails is recorded and the next one
// is decoded.
func (d *Driver) Decode(deck Deck) *Batch {
	b := &Batch{
		Results:  make([]Result, 0, len(deck.Cards)),
		Warnings: deck.Warnings,
	}
	for i, c := range deck.Cards {
		c.Index = i
		b.Results = append(b.Results, d.decodeCard(c))
	}
	return b
}

func (d *Driver) decodeCard(c card.Card) Result {
	res := Result{Index: c.Index}
	fields := log.Fields{"card": c.Index + 1}

	normalized, warnings, err := c.Normalize()
	res.Warnings = warnings
	for _, w := range warnings {
		log.WithFields(fields).Warn(w.Reason)
	}
	if err != nil {
		log.WithFields(fields).Errorf("card rejected: %s", err)
		res.Err = err
		return res
	}

	msg, undefined, err := d.decoder.Decode(normalized)
	res.Undefined = undefined
	for _, u := range undefined {
		log.WithFields(fields).WithField("column", u.Column+1).Debugf("undefined pattern %s", u.Pattern)
	}
	if err != nil {
		log.WithFields(fields).Errorf("card failed: %s", err)
		res.Err = err
		return res
	}
	res.Message = msg
	return res
}

// Run splits and decodes raw in one go.
func (d *Driver) Run(raw string) *Batch {
	return d.Decode(d.Parse(raw))
}

// RunFile reads path and decodes it. Only an IOError is returned; all other
// problems are recorded on the batch.
func (d *Driver) RunFile(path string) (*Batch, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Run(raw), nil
}
