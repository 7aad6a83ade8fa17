package core

// convert.go maps raw CSV rows to Card records. Conversion is type coercion
// only: domain values (rarity names, set codes, cost notation) are passed
// through untouched, and anything that cannot be coerced fails the row rather
// than being silently defaulted.

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// BuildOptions controls optional value transforms applied by BuildCard.
type BuildOptions struct {
	// UnescapeText turns the literal two-character sequence `\n` in the card
	// text into a real newline.
	UnescapeText bool
}

// errNotFinite rejects NaN and Inf, which ParseFloat accepts.
var errNotFinite = errors.New("value is not a finite number")

// ParseManaValue converts a manaValue cell ("3", "3.0", " 0.5 ") to float64.
// Surrounding whitespace is ignored. Empty, non-numeric and non-finite values
// are errors.
func ParseManaValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, numErr.Err
		}
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// UnescapeText replaces escaped newlines (backslash followed by 'n') with '\n'.
func UnescapeText(s string) string {
	if !strings.Contains(s, `\n`) {
		return s
	}
	return strings.ReplaceAll(s, `\n`, "\n")
}

// BuildCard converts one raw row into a Card. It performs no I/O.
// A missing required column is a structural error; a failed numeric
// conversion is a coercion error.
func BuildCard(row RawRow, opts BuildOptions) (Card, error) {
	for _, col := range CardColumns {
		if _, ok := row[col]; !ok {
			return Card{}, structuralError(0, col, errors.New("column missing from row"))
		}
	}

	manaValue, err := ParseManaValue(row[ColManaValue])
	if err != nil {
		return Card{}, coercionError(ColManaValue, row[ColManaValue], err)
	}

	text := row[ColText]
	if opts.UnescapeText {
		text = UnescapeText(text)
	}

	return Card{
		UUID:      row[ColUUID],
		ManaValue: manaValue,
		ManaCost:  row[ColManaCost],
		Name:      row[ColName],
		Rarity:    row[ColRarity],
		SetCode:   row[ColSetCode],
		Subtype:   row[ColSubtypes],
		Text:      text,
		Type:      row[ColType],
	}, nil
}
