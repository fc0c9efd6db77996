// Package civil resolves UTC offsets for civil dates from rule-based DST windows.
//
// The rolling-Sunday families approximate legal DST rules. They ignore
// historical rule changes and the time of day a transition happens, and they
// are kept that way on purpose so existing outputs do not shift.
package civil

import (
	"strings"
	"time"

	"astroref/internal/errs"
)

// RuleKind selects the DST predicate a rule evaluates.
type RuleKind string

const (
	// Fixed regions never shift.
	Fixed RuleKind = "fixed"
	// Northern is active April..October, from the second Sunday of March, and
	// before the first Sunday of November.
	Northern RuleKind = "northern"
	// Southern is active November..March, from the first Sunday of October,
	// and before the first Sunday of April.
	Southern RuleKind = "southern"
)

// ParseKind maps config spellings onto a RuleKind.
func ParseKind(s string) (RuleKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "none", "no-dst", "no_dst":
		return Fixed, true
	case "northern", "north", "northern-rolling-sunday":
		return Northern, true
	case "southern", "south", "southern-rolling-sunday":
		return Southern, true
	default:
		return "", false
	}
}

// Rule is a region's standard and daylight offsets in hours.
type Rule struct {
	Standard float64  `json:"standard" yaml:"standard"`
	DST      float64  `json:"dst" yaml:"dst"`
	Kind     RuleKind `json:"kind" yaml:"kind"`
}

// ResolveOffset returns the UTC offset in hours in effect on the civil date.
func ResolveOffset(rule Rule, year, month, day int) (float64, error) {
	if err := ValidateDate(year, month, day); err != nil {
		return 0, err
	}
	if IsDST(rule, year, month, day) {
		return rule.DST, nil
	}
	return rule.Standard, nil
}

// IsDST evaluates the rule's DST predicate. The date is assumed valid.
func IsDST(rule Rule, year, month, day int) bool {
	switch rule.Kind {
	case Northern:
		switch {
		case month >= 4 && month <= 10:
			return true
		case month == 3:
			return day >= nthSunday(year, 3, 2)
		case month == 11:
			return day < nthSunday(year, 11, 1)
		}
		return false
	case Southern:
		switch {
		case month >= 11 || month <= 3:
			return true
		case month == 10:
			return day >= nthSunday(year, 10, 1)
		case month == 4:
			return day < nthSunday(year, 4, 1)
		}
		return false
	default:
		return false
	}
}

// nthSunday returns the day of month of the n-th Sunday, derived from the
// weekday of the 1st.
func nthSunday(year, month, n int) int {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday()
	firstSunday := 1 + (7-int(first))%7
	return firstSunday + 7*(n-1)
}

// DaysIn returns the length of a Gregorian month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateDate rejects months and days outside the Gregorian calendar.
func ValidateDate(year, month, day int) error {
	if month < 1 || month > 12 {
		return errs.Invalid("civil.validate_date", "month", "month %d out of range 1..12", month)
	}
	if day < 1 || day > DaysIn(year, month) {
		return errs.Invalid("civil.validate_date", "day", "day %d out of range for %04d-%02d", day, year, month)
	}
	return nil
}

// ToUTC converts a local civil time under rule to a UTC instant.
func ToUTC(rule Rule, year, month, day, hour, minute int) (time.Time, error) {
	offset, err := ResolveOffset(rule, year, month, day)
	if err != nil {
		return time.Time{}, err
	}
	if hour < 0 || hour > 23 {
		return time.Time{}, errs.Invalid("civil.to_utc", "hour", "hour %d out of range 0..23", hour)
	}
	if minute < 0 || minute > 59 {
		return time.Time{}, errs.Invalid("civil.to_utc", "minute", "minute %d out of range 0..59", minute)
	}
	local := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return local.Add(-time.Duration(offset * float64(time.Hour))), nil
}
