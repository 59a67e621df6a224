package mrz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mrz-labeler/src/pkg/failure"
)

const (
	specimenLine1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	specimenLine2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

func TestAlignPadsShorterLine(t *testing.T) {
	line1 := strings.Repeat("A", 42)
	line2 := strings.Repeat("1", 44)

	got := Align(line1, line2)
	if len(got.Line1) != 44 || len(got.Line2) != 44 {
		t.Fatalf("lengths = %d/%d, want 44/44", len(got.Line1), len(got.Line2))
	}
	if !strings.HasSuffix(got.Line1, "<<") || got.PadChar != NameFiller || got.PadCount != 2 || !got.Padded {
		t.Fatalf("unexpected alignment of short first line: %+v", got)
	}

	got = Align(line2, line1)
	if !strings.HasSuffix(got.Line2, "00") || got.PadChar != NumericFiller || got.PadCount != 2 {
		t.Fatalf("unexpected alignment of short second line: %+v", got)
	}
}

func TestAlignTruncatesAndIsIdempotent(t *testing.T) {
	got := Align(strings.Repeat("B", 50), strings.Repeat("2", 47))
	if len(got.Line1) != LineWidth || len(got.Line2) != LineWidth || got.Padded {
		t.Fatalf("Align over-long = %+v", got)
	}

	once := Align("P<ABC", "123456789")
	twice := Align(once.Line1, once.Line2)
	if twice.Line1 != once.Line1 || twice.Line2 != once.Line2 || twice.Padded {
		t.Fatalf("Align is not idempotent: %+v then %+v", once, twice)
	}
}

func TestParseSpecimen(t *testing.T) {
	fields, err := TD3Parser{}.Parse(specimenLine1, specimenLine2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := Fields{
		DocumentCode:             "P",
		IssuingState:             "UTO",
		LastName:                 "ERIKSSON",
		FirstName:                "ANNA MARIA",
		DocumentNumber:           "L898902C3",
		DocumentNumberCheckDigit: "6",
		Nationality:              "UTO",
		BirthDate:                "740812",
		BirthDateCheckDigit:      "2",
		Sex:                      "F",
		ExpirationDate:           "120415",
		ExpirationDateCheckDigit: "9",
		PersonalNumber:           "ZE184226B",
		PersonalNumberCheckDigit: "1",
		CompositeCheckDigit:      "0",
	}
	if fmt.Sprint(fields.Values()) != fmt.Sprint(want.Values()) {
		t.Fatalf("Values() = %q\nwant      %q", fields.Values(), want.Values())
	}
	if len(fields.Invalid) != 0 {
		t.Fatalf("specimen reported invalid fields %v", fields.Invalid)
	}
}

func TestParseRecordsChecksumMismatch(t *testing.T) {
	tampered := "L898902C37" + specimenLine2[10:]

	fields, err := TD3Parser{}.Parse(specimenLine1, tampered)
	if err != nil {
		t.Fatalf("a wrong check digit must not fail the parse: %v", err)
	}
	if !fields.IsInvalid("documentNumber") || !fields.IsInvalid("compositeCheckDigit") {
		t.Fatalf("Invalid = %v, want documentNumber and compositeCheckDigit", fields.Invalid)
	}
	if fields.IsInvalid("birthDate") {
		t.Fatalf("birthDate check digit is still correct")
	}
}

func TestParseStructuralFailures(t *testing.T) {
	cases := map[string][2]string{
		"short line":        {specimenLine1[:43], specimenLine2},
		"lowercase":         {strings.ToLower(specimenLine1), specimenLine2},
		"letter in check":   {specimenLine1, "L898902C3X" + specimenLine2[10:]},
		"punctuation":       {specimenLine1, "L898902C3-" + specimenLine2[10:]},
		"empty second line": {specimenLine1, ""},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := TD3Parser{}.Parse(lines[0], lines[1])
			if !errors.Is(err, failure.ErrNormalization) {
				t.Fatalf("err = %v, want a normalization failure", err)
			}
		})
	}
}

func TestCheckDigit(t *testing.T) {
	cases := map[string]int{
		"L898902C3":      6,
		"740812":         2,
		"120415":         9,
		"ZE184226B<<<<<": 1,
		"":               0,
	}
	for data, want := range cases {
		if got := CheckDigit(data); got != want {
			t.Errorf("CheckDigit(%q) = %d, want %d", data, got, want)
		}
	}
}

func TestPickLinesTakesLastTwoCandidates(t *testing.T) {
	candidates := []string{
		"PASSPORT",
		"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
		"some footer noise",
		"p<utoeriksson<<anna<maria<<<<<<<<<<<<<<<<<<<",
		"L898902C3 6UTO7408122F1204159ZE184226B<<<<<10",
	}
	lines, indexes, ok := PickLines(candidates)
	if !ok {
		t.Fatalf("PickLines found no MRZ")
	}
	if indexes != [2]int{3, 4} {
		t.Fatalf("indexes = %v, want [3 4]", indexes)
	}
	if lines[0] != specimenLine1 || lines[1] != specimenLine2 {
		t.Fatalf("lines = %q", lines)
	}

	if _, _, ok := PickLines([]string{"HELLO", specimenLine1}); ok {
		t.Fatalf("a single MRZ-like line is not enough")
	}
}
