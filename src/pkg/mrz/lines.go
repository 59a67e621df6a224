package mrz

import (
	"regexp"
	"strings"
)

// lineRegexp matches a cleaned candidate MRZ line. Real lines are 44
// characters but OCR often drops a few trailing fillers.
var lineRegexp = regexp.MustCompile(`^[A-Z0-9<]{30,}$`)

// CleanLine uppercases raw OCR output and strips whitespace, which never
// appears inside an MRZ line.
func CleanLine(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		case '«':
			return '<'
		}
		return r
	}, strings.ToUpper(raw))
}

// LooksLikeLine reports whether a cleaned line could be part of an MRZ.
func LooksLikeLine(cleaned string) bool {
	return lineRegexp.MatchString(cleaned) && strings.Contains(cleaned, "<")
}

/*
PickLines returns the last two MRZ-like lines among the candidates, in
their original order. The MRZ is printed at the bottom of the data page,
so later lines win over earlier ones.
*/
func PickLines(candidates []string) (lines [2]string, indexes [2]int, ok bool) {
	found := make([]int, 0, len(candidates))
	for i, candidate := range candidates {
		if LooksLikeLine(CleanLine(candidate)) {
			found = append(found, i)
		}
	}
	if len(found) < 2 {
		return lines, indexes, false
	}

	indexes = [2]int{found[len(found)-2], found[len(found)-1]}
	lines = [2]string{CleanLine(candidates[indexes[0]]), CleanLine(candidates[indexes[1]])}
	return lines, indexes, true
}
