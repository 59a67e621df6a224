package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

/*
DisplayDate turns an MRZ YYMMDD date into YYYY-MM-DD.

Two-digit years up to the current year's last two digits belong to the
current century, later ones to the previous century. Anything that is not
a real calendar date becomes unknown.
*/
func DisplayDate(raw string, now time.Time, unknown string) string {
	if len(raw) != 6 || strings.TrimLeft(raw, "0123456789") != "" {
		return unknown
	}
	yy, _ := strconv.Atoi(raw[0:2])

	century := now.Year() / 100 * 100
	if yy > now.Year()%100 {
		century -= 100
	}

	parsed, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%s-%s", century+yy, raw[2:4], raw[4:6]))
	if err != nil {
		return unknown
	}
	return parsed.Format("2006-01-02")
}

// DisplaySex maps an MRZ sex code to its label; unmapped codes are unknown.
func DisplaySex(code string, labels map[string]string, unknown string) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return unknown
}

// DisplayNationality maps a nationality code to its label. Codes without a
// label are shown as they are.
func DisplayNationality(code string, labels map[string]string) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return code
}
