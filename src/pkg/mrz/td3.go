package mrz

import (
	"fmt"
	"strings"

	"mrz-labeler/src/pkg/failure"
)

// FieldNames lists the parsed fields in report column order.
var FieldNames = []string{
	"documentCode",
	"issuingState",
	"lastName",
	"firstName",
	"documentNumber",
	"documentNumberCheckDigit",
	"nationality",
	"birthDate",
	"birthDateCheckDigit",
	"sex",
	"expirationDate",
	"expirationDateCheckDigit",
	"personalNumber",
	"personalNumberCheckDigit",
	"compositeCheckDigit",
}

// Fields is a parsed TD3 MRZ. Dates stay in their raw YYMMDD form.
type Fields struct {
	DocumentCode             string `json:"documentCode"`
	IssuingState             string `json:"issuingState"`
	LastName                 string `json:"lastName"`
	FirstName                string `json:"firstName"`
	DocumentNumber           string `json:"documentNumber"`
	DocumentNumberCheckDigit string `json:"documentNumberCheckDigit"`
	Nationality              string `json:"nationality"`
	BirthDate                string `json:"birthDate"`
	BirthDateCheckDigit      string `json:"birthDateCheckDigit"`
	Sex                      string `json:"sex"`
	ExpirationDate           string `json:"expirationDate"`
	ExpirationDateCheckDigit string `json:"expirationDateCheckDigit"`
	PersonalNumber           string `json:"personalNumber"`
	PersonalNumberCheckDigit string `json:"personalNumberCheckDigit"`
	CompositeCheckDigit      string `json:"compositeCheckDigit"`

	// Invalid names the fields whose check digit does not match.
	Invalid []string `json:"invalid,omitempty"`
}

// Values returns the fields in FieldNames order.
func (f Fields) Values() []string {
	return []string{
		f.DocumentCode,
		f.IssuingState,
		f.LastName,
		f.FirstName,
		f.DocumentNumber,
		f.DocumentNumberCheckDigit,
		f.Nationality,
		f.BirthDate,
		f.BirthDateCheckDigit,
		f.Sex,
		f.ExpirationDate,
		f.ExpirationDateCheckDigit,
		f.PersonalNumber,
		f.PersonalNumberCheckDigit,
		f.CompositeCheckDigit,
	}
}

func (f Fields) IsInvalid(field string) bool {
	for _, name := range f.Invalid {
		if name == field {
			return true
		}
	}
	return false
}

type Parser interface {
	Parse(line1, line2 string) (Fields, error)
}

// TD3Parser parses 2x44 passport MRZs following ICAO 9303.
type TD3Parser struct{}

/*
Parse decodes two aligned MRZ lines.

Structural problems (wrong length, characters outside A-Z 0-9 <, a letter
in a check digit position) fail with a failure.Normalization error. A check
digit that is well formed but wrong does not fail the parse; the affected
field is listed in Fields.Invalid instead.
*/
func (TD3Parser) Parse(line1, line2 string) (fields Fields, err error) {
	for i, line := range []string{line1, line2} {
		if len(line) != LineWidth {
			return fields, failure.Newf(failure.Normalization, "parse td3", "line %d has length %d, want %d", i+1, len(line), LineWidth)
		}
		if pos := strings.IndexFunc(line, func(r rune) bool { return charValue(r) < 0 }); pos >= 0 {
			return fields, failure.Newf(failure.Normalization, "parse td3", "line %d has invalid character %q at %d", i+1, line[pos], pos)
		}
	}
	for _, pos := range []int{9, 19, 27, 42, 43} {
		if c := line2[pos]; c != '<' && (c < '0' || c > '9') {
			return fields, failure.Newf(failure.Normalization, "parse td3", "check digit position %d holds %q", pos, c)
		}
	}

	fields.DocumentCode = trimFiller(line1[0:2])
	fields.IssuingState = trimFiller(line1[2:5])
	fields.LastName, fields.FirstName = splitNames(line1[5:44])

	fields.DocumentNumber = trimFiller(line2[0:9])
	fields.DocumentNumberCheckDigit = line2[9:10]
	fields.Nationality = trimFiller(line2[10:13])
	fields.BirthDate = line2[13:19]
	fields.BirthDateCheckDigit = line2[19:20]
	fields.Sex = line2[20:21]
	fields.ExpirationDate = line2[21:27]
	fields.ExpirationDateCheckDigit = line2[27:28]
	fields.PersonalNumber = trimFiller(line2[28:42])
	fields.PersonalNumberCheckDigit = line2[42:43]
	fields.CompositeCheckDigit = line2[43:44]

	checks := []struct {
		field string
		data  string
		digit byte
	}{
		{"documentNumber", line2[0:9], line2[9]},
		{"birthDate", line2[13:19], line2[19]},
		{"expirationDate", line2[21:27], line2[27]},
		{"personalNumber", line2[28:42], line2[42]},
		{"compositeCheckDigit", line2[0:10] + line2[13:20] + line2[21:43], line2[43]},
	}
	for _, check := range checks {
		if CheckDigit(check.data) != digitValue(check.digit) {
			fields.Invalid = append(fields.Invalid, check.field)
		}
	}
	return fields, nil
}

// CheckDigit computes the ICAO 9303 check digit with weights 7, 3, 1.
// Characters outside the MRZ alphabet count as zero.
func CheckDigit(data string) int {
	weights := [3]int{7, 3, 1}
	sum := 0
	for i, r := range data {
		v := charValue(r)
		if v < 0 {
			v = 0
		}
		sum += v * weights[i%3]
	}
	return sum % 10
}

func charValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	case r == '<':
		return 0
	}
	return -1
}

// digitValue reads a check digit position; a filler counts as zero.
func digitValue(c byte) int {
	if c == '<' {
		return 0
	}
	return int(c - '0')
}

func trimFiller(s string) string {
	return strings.TrimRight(s, string(NameFiller))
}

// splitNames splits the name area on the first "<<" into primary and
// secondary identifiers, turning single fillers into spaces.
func splitNames(area string) (last, first string) {
	area = trimFiller(area)
	primary, secondary, _ := strings.Cut(area, "<<")
	return fillersToSpaces(primary), fillersToSpaces(secondary)
}

func fillersToSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == NameFiller }), " ")
}

func (f Fields) String() string {
	return fmt.Sprintf("%s %s/%s %s", f.DocumentCode, f.LastName, f.FirstName, f.DocumentNumber)
}
