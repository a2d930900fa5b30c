package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSize(t *testing.T) {
	table, err := Build()
	require.NoError(t, err)

	// 36 alphanumeric slots (one of them '/') and 28 specials
	assert.Equal(t, 64, table.Len())
}

func TestDigitRows(t *testing.T) {
	table := Default()

	want := "123456789"
	for i, row := 0, ZoneRows; row < Rows; i, row = i+1, row+1 {
		c, ok := table.Lookup(PatternOf(row))
		require.True(t, ok, "row %d", row)
		assert.Equal(t, rune(want[i]), c, "row %d", row)
	}

	c, _ := table.Lookup(PatternOf(3))
	assert.Equal(t, '1', c)
	c, _ = table.Lookup(PatternOf(11))
	assert.Equal(t, '9', c)
}

func TestLetters(t *testing.T) {
	table := Default()

	tests := []struct {
		zone  int
		first rune
		count int
		start int
	}{
		{zone: 0, first: 'A', count: 9, start: 3},
		{zone: 1, first: 'J', count: 9, start: 3},
		{zone: 2, first: 'S', count: 8, start: 4},
	}

	for _, tt := range tests {
		for i := 0; i < tt.count; i++ {
			c, ok := table.Lookup(PatternOf(tt.zone, tt.start+i))
			require.True(t, ok)
			assert.Equal(t, tt.first+rune(i), c, "zone %d row %d", tt.zone, tt.start+i)
		}
	}
}

func TestSlashSlot(t *testing.T) {
	c, ok := Default().Lookup(PatternOf(2, 3))
	require.True(t, ok)
	assert.Equal(t, '/', c)

	// the slash does not consume a letter
	c, _ = Default().Lookup(PatternOf(2, 4))
	assert.Equal(t, 'S', c)
	c, _ = Default().Lookup(PatternOf(2, 11))
	assert.Equal(t, 'Z', c)
}

func TestSpecials(t *testing.T) {
	table := Default()

	tests := []struct {
		rows []int
		want rune
	}{
		{rows: nil, want: Blank},
		{rows: []int{4, 10}, want: ':'},
		{rows: []int{9, 10}, want: '"'},
		{rows: []int{0}, want: '&'},
		{rows: []int{0, 5, 10}, want: '.'},
		{rows: []int{0, 9, 10}, want: '!'},
		{rows: []int{1}, want: '-'},
		{rows: []int{1, 6, 10}, want: '*'},
		{rows: []int{1, 9, 10}, want: '^'},
		{rows: []int{2}, want: '0'},
		{rows: []int{2, 4, 10}, want: '\\'},
		{rows: []int{2, 5, 10}, want: ','},
		{rows: []int{2, 9, 10}, want: '?'},
	}

	for _, tt := range tests {
		c, ok := table.Lookup(PatternOf(tt.rows...))
		require.True(t, ok, "rows %v", tt.rows)
		assert.Equal(t, tt.want, c, "rows %v", tt.rows)
	}
}

func TestRegionsDisjoint(t *testing.T) {
	table := Default()

	seen := map[Pattern]Region{}
	chars := map[rune]Pattern{}
	var alnum, special int
	for _, e := range table.Entries() {
		_, dup := seen[e.Pattern]
		require.False(t, dup, "pattern %s listed twice", e.Pattern)
		seen[e.Pattern] = e.Region

		prev, dupChar := chars[e.Char]
		assert.False(t, dupChar, "char %q for %s and %s", e.Char, prev, e.Pattern)
		chars[e.Char] = e.Pattern

		if e.Region == Special {
			special++
		} else {
			alnum++
		}
	}
	assert.Equal(t, 36, alnum)
	assert.Equal(t, 28, special)
}

func TestEntriesSorted(t *testing.T) {
	entries := Default().Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, uint16(entries[i-1].Pattern), uint16(entries[i].Pattern))
	}
}

func TestUndefined(t *testing.T) {
	_, ok := Default().Lookup(PatternOf(3, 4))
	assert.False(t, ok)
	_, ok = Default().Lookup(PatternOf(0, 1, 2))
	assert.False(t, ok)
}

func TestPatternString(t *testing.T) {
	p := PatternOf(0, 3, 11)
	assert.Equal(t, "100100000001", p.String())
	assert.Equal(t, []int{0, 3, 11}, p.Punched())
	assert.True(t, p.Has(3))
	assert.False(t, p.Has(4))
	assert.Equal(t, p, p.With(12))
}
