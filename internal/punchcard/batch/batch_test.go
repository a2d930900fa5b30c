package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/punchcard-services/internal/punchcard/card"
	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
	"github.com/avvvet/punchcard-services/internal/punchcard/decoder"
)

// encode renders text as one card, looking each character up in the table.
func encode(t *testing.T, text string) string {
	t.Helper()

	byChar := map[rune]cipher.Pattern{}
	for _, e := range cipher.Default().Entries() {
		byChar[e.Char] = e.Pattern
	}

	rows := make([][]byte, cipher.Rows)
	for _, ch := range text {
		p, ok := byChar[ch]
		require.True(t, ok, "no pattern for %q", ch)
		for r := range rows {
			bit := byte('0')
			if p.Has(r) {
				bit = '1'
			}
			rows[r] = append(rows[r], bit)
		}
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = string(r)
	}
	return strings.Join(lines, "\n")
}

func newDriver(opts decoder.Options) *Driver {
	return NewDriver(cipher.Default(), opts)
}

func TestRunTwoCards(t *testing.T) {
	raw := encode(t, "HELLO") + "\n-----\n" + encode(t, "WORLD/42?") + "\n"

	b := newDriver(decoder.Options{}).Run(raw)
	require.Len(t, b.Results, 2)
	assert.Equal(t, "HELLO", b.Results[0].Message)
	assert.Equal(t, "WORLD/42?", b.Results[1].Message)
	assert.Equal(t, map[int]string{0: "HELLO", 1: "WORLD/42?"}, b.Messages())
	assert.Zero(t, b.Failed())
}

func TestRunEmptyInput(t *testing.T) {
	b := newDriver(decoder.Options{}).Run("")
	assert.Empty(t, b.Results)
	assert.Empty(t, b.Messages())
}

func TestRunTrailingSeparatorAddsNoCard(t *testing.T) {
	b := newDriver(decoder.Options{}).Run(encode(t, "A") + "\n----\n")
	require.Len(t, b.Results, 1)
	assert.Equal(t, "A", b.Results[0].Message)
}

func TestRunSingleColumn(t *testing.T) {
	rows := []string{"0", "0", "0", "1", "0", "0", "0", "0", "0", "0", "0", "0"}
	raw := strings.Join(rows, "\n") + "\n----\n"

	deck := newDriver(decoder.Options{}).Parse(raw)
	require.Len(t, deck.Cards, 1)
	require.Len(t, deck.Cards[0].Rows, 12)

	b := newDriver(decoder.Options{}).Decode(deck)
	require.Len(t, b.Results, 1)
	assert.Equal(t, "1", b.Results[0].Message)
}

func TestFailedCardDoesNotStopBatch(t *testing.T) {
	tall := encode(t, "X") + "\n0"
	raw := encode(t, "OK") + "\n---\n" + tall + "\n---\n" + encode(t, "GO")

	b := newDriver(decoder.Options{}).Run(raw)
	require.Len(t, b.Results, 3)
	assert.Equal(t, "OK", b.Results[0].Message)
	assert.True(t, b.Results[1].Failed())
	assert.Equal(t, "GO", b.Results[2].Message)
	assert.Equal(t, 1, b.Failed())
	assert.NotContains(t, b.Messages(), 1)

	var fe *card.FormatError
	require.True(t, errors.As(b.Results[1].Err, &fe))
	assert.Equal(t, 1, fe.Card)
}

func TestFailPolicyIsPerCard(t *testing.T) {
	bad := "1\n1\n1\n0\n0\n0\n0\n0\n0\n0\n0\n0"
	raw := bad + "\n---\n" + encode(t, "Z")

	b := newDriver(decoder.Options{Policy: decoder.Fail}).Run(raw)
	require.Len(t, b.Results, 2)
	assert.True(t, b.Results[0].Failed())
	assert.Len(t, b.Results[0].Undefined, 1)
	assert.Equal(t, "Z", b.Results[1].Message)
}

func TestShortCardIsPadded(t *testing.T) {
	// zone row 0 and digit row 3 only; the rest of the card is missing
	raw := "1\n0\n0\n1\n"

	b := newDriver(decoder.Options{}).Run(raw)
	require.Len(t, b.Results, 1)
	assert.False(t, b.Results[0].Failed())
	assert.Equal(t, "A", b.Results[0].Message)
	assert.NotEmpty(t, b.Results[0].Warnings)
}

func TestInvalidLinesAreWarnings(t *testing.T) {
	raw := "garbage\n" + encode(t, "Q")

	b := newDriver(decoder.Options{}).Run(raw)
	require.Len(t, b.Results, 1)
	assert.Equal(t, "Q", b.Results[0].Message)
	require.Len(t, b.Warnings, 1)
	assert.Equal(t, 1, b.Warnings[0].Line)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.txt")
	require.NoError(t, os.WriteFile(path, []byte(encode(t, "FILE")+"\n----\n"), 0644))

	b, err := newDriver(decoder.Options{}).RunFile(path)
	require.NoError(t, err)
	require.Len(t, b.Results, 1)
	assert.Equal(t, "FILE", b.Results[0].Message)
}

func TestRunFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	b, err := newDriver(decoder.Options{}).RunFile(path)
	assert.Nil(t, b)
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
	assert.True(t, os.IsNotExist(errors.Cause(ioErr.Err)))
}

func TestPrinter(t *testing.T) {
	b := newDriver(decoder.Options{}).Run(encode(t, "HI") + "\n---\n" + encode(t, "X") + "\n0")

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Banner()
	p.Progress(StepReading)
	p.Messages(b)

	out := buf.String()
	assert.Contains(t, out, "Welcome to the Punch Card Decoding Service!")
	assert.Contains(t, out, StepReading)
	assert.Contains(t, out, "Message 1:\nHI\n\n")
	assert.Contains(t, out, "Message 2:\n[error]")
	assert.Less(t, strings.Index(out, "Message 1:"), strings.Index(out, "Message 2:"))
}
