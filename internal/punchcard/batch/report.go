package batch

import (
	"fmt"
	"io"
	"strings"
)

const (
	StepReading  = "Reading data from the file."
	StepParsing  = "Parsing the file"
	StepDecoding = "Decoding the Punch Cards"
	StepPrinting = "Printing Messages"
)

// Printer writes the console report: banner, progress and the messages.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) heading(title string) {
	fmt.Fprintln(p.w, title)
	fmt.Fprintln(p.w, strings.Repeat("-", len(title)))
}

func (p *Printer) Banner() {
	p.heading("Welcome to the Punch Card Decoding Service!")
	fmt.Fprintln(p.w)
	p.heading("Progress")
}

func (p *Printer) Progress(step string) {
	fmt.Fprintln(p.w, step)
}

// Messages prints each card with its 1-based number. A failed card shows its
// error instead of text.
func (p *Printer) Messages(b *Batch) {
	fmt.Fprintln(p.w)
	p.heading("Messages")
	fmt.Fprintln(p.w)
	for _, r := range b.Results {
		fmt.Fprintf(p.w, "Message %d:\n", r.Index+1)
		if r.Failed() {
			fmt.Fprintf(p.w, "[error] %v\n", r.Err)
		} else {
			fmt.Fprintln(p.w, r.Message)
		}
		fmt.Fprintln(p.w)
	}
}
