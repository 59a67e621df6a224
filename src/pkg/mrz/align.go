// Package mrz normalizes and parses the two-line machine readable zone of
// passport-style (TD3) documents.
package mrz

import "strings"

const (
	// LineWidth is the width of a TD3 MRZ line.
	LineWidth = 44

	NameFiller    = '<'
	NumericFiller = '0'
)

// Aligned holds two MRZ lines forced to equal length.
type Aligned struct {
	Line1    string
	Line2    string
	Padded   bool
	PadChar  byte
	PadCount int
}

/*
Align makes two recognized MRZ lines the same length.

Both lines are first truncated to LineWidth. If the second line is longer,
the first is padded at the end with NameFiller; otherwise the second line
is padded with NumericFiller until the lengths match. Equal-length input
comes back unchanged. Applying Align to its own output is a no-op.
*/
func Align(line1, line2 string) Aligned {
	line1 = truncate(line1, LineWidth)
	line2 = truncate(line2, LineWidth)

	a := Aligned{Line1: line1, Line2: line2}
	switch {
	case len(line2) > len(line1):
		a.PadChar = NameFiller
		a.PadCount = len(line2) - len(line1)
		a.Line1 = line1 + strings.Repeat(string(NameFiller), a.PadCount)
	case len(line1) > len(line2):
		a.PadChar = NumericFiller
		a.PadCount = len(line1) - len(line2)
		a.Line2 = line2 + strings.Repeat(string(NumericFiller), a.PadCount)
	}
	a.Padded = a.PadCount > 0
	return a
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
