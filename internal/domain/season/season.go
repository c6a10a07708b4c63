// Package season derives football season labels and ages from calendar dates.
//
// A season runs July through June, so a label always names two consecutive
// calendar years, e.g. "2022-2023".
package season

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartMonth is the first month of a season.
const StartMonth = time.July

// ErrInvalidLabel reports a season label that is not "YYYY-YYYY" with
// consecutive years.
var ErrInvalidLabel = errors.New("invalid season label")

// Label returns the season containing t.
func Label(t time.Time) string {
	y := t.Year()
	if t.Month() >= StartMonth {
		return fmt.Sprintf("%d-%d", y, y+1)
	}
	return fmt.Sprintf("%d-%d", y-1, y)
}

// Parse splits a label into its start and end years.
func Parse(label string) (int, int, error) {
	first, second, ok := strings.Cut(strings.TrimSpace(label), "-")
	if !ok || len(first) != 4 || len(second) != 4 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	start, err := strconv.Atoi(first)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	end, err := strconv.Atoi(second)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	if end != start+1 {
		return 0, 0, fmt.Errorf("%w: %q years are not consecutive", ErrInvalidLabel, label)
	}
	return start, end, nil
}

// ReferenceDate is the age anchor of a season: January 1 of its second year.
func ReferenceDate(label string) (time.Time, error) {
	_, end, err := Parse(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(end, time.January, 1, 0, 0, 0, 0, time.UTC), nil
}

// Age is the number of whole years between dob and the season's reference
// date, floored.
func Age(dob time.Time, label string) (int, error) {
	ref, err := ReferenceDate(label)
	if err != nil {
		return 0, err
	}
	return YearsBetween(dob, ref), nil
}

// YearsBetween returns completed years from `from` to `to`.
func YearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

// TableSuffix turns a label into an identifier fragment ("2023-2024" -> "2023_2024").
func TableSuffix(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), "-", "_")
}
