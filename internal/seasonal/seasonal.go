// Package seasonal maps calendar days onto recurring yearly ranges such as
// sun-sign seasons and the stages of the year wheel.
//
// Day-of-year uses a fixed non-leap table, so from March onward a leap year's
// boundaries land one calendar day early. The behavior is kept as is.
package seasonal

import (
	"time"

	"astroref/internal/zodiac"
)

var cumulativeDays = [13]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

// DayOfYear returns 1..365 for a month/day pair using non-leap month lengths.
// Out-of-range months are clamped; days are not checked.
func DayOfYear(month, day int) int {
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}
	return cumulativeDays[month-1] + day
}

// Range is an inclusive span of calendar days; End may precede Start when the
// range crosses the new year.
type Range struct {
	StartMonth int `json:"start_month" yaml:"start_month"`
	StartDay   int `json:"start_day" yaml:"start_day"`
	EndMonth   int `json:"end_month" yaml:"end_month"`
	EndDay     int `json:"end_day" yaml:"end_day"`
}

// Start is the range's first day-of-year.
func (r Range) Start() int { return DayOfYear(r.StartMonth, r.StartDay) }

// End is the range's last day-of-year.
func (r Range) End() int { return DayOfYear(r.EndMonth, r.EndDay) }

// Wraps reports whether the range crosses December 31.
func (r Range) Wraps() bool { return r.Start() > r.End() }

// Matches reports whether doy falls inside r.
func Matches(doy int, r Range) bool {
	start, end := r.Start(), r.End()
	if start <= end {
		return doy >= start && doy <= end
	}
	return doy >= start || doy <= end
}

// Current returns the index of the first range containing doy. Overlaps and
// gaps are not detected: the first match wins and a gap yields ok == false.
func Current(doy int, ranges []Range) (int, bool) {
	for i, r := range ranges {
		if Matches(doy, r) {
			return i, true
		}
	}
	return -1, false
}

// DayOf returns the day-of-year of now's civil date in its own location.
func DayOf(now time.Time) int {
	return DayOfYear(int(now.Month()), now.Day())
}

// SignRanges are the tropical sun-sign seasons, indexed like zodiac.Sign.
var SignRanges = [zodiac.SignCount]Range{
	zodiac.Aries:       {3, 21, 4, 19},
	zodiac.Taurus:      {4, 20, 5, 20},
	zodiac.Gemini:      {5, 21, 6, 20},
	zodiac.Cancer:      {6, 21, 7, 22},
	zodiac.Leo:         {7, 23, 8, 22},
	zodiac.Virgo:       {8, 23, 9, 22},
	zodiac.Libra:       {9, 23, 10, 22},
	zodiac.Scorpio:     {10, 23, 11, 21},
	zodiac.Sagittarius: {11, 22, 12, 21},
	zodiac.Capricorn:   {12, 22, 1, 19},
	zodiac.Aquarius:    {1, 20, 2, 18},
	zodiac.Pisces:      {2, 19, 3, 20},
}

// SignOn returns the sun sign season containing now.
func SignOn(now time.Time) (zodiac.Sign, bool) {
	idx, ok := Current(DayOf(now), SignRanges[:])
	if !ok {
		return 0, false
	}
	return zodiac.Sign(idx), true
}

// Stage is a named segment of the mythic year.
type Stage struct {
	Name  string `json:"name" yaml:"name"`
	Range Range  `json:"range" yaml:"range"`
}

// Stages is the eight-fold year wheel, starting at the winter solstice.
var Stages = []Stage{
	{Name: "Yule", Range: Range{12, 21, 1, 31}},
	{Name: "Imbolc", Range: Range{2, 1, 3, 19}},
	{Name: "Ostara", Range: Range{3, 20, 4, 30}},
	{Name: "Beltane", Range: Range{5, 1, 6, 20}},
	{Name: "Litha", Range: Range{6, 21, 7, 31}},
	{Name: "Lughnasadh", Range: Range{8, 1, 9, 21}},
	{Name: "Mabon", Range: Range{9, 22, 10, 31}},
	{Name: "Samhain", Range: Range{11, 1, 12, 20}},
}

// StageRanges projects stages onto their ranges for Current.
func StageRanges(stages []Stage) []Range {
	out := make([]Range, len(stages))
	for i, s := range stages {
		out[i] = s.Range
	}
	return out
}

// StageOn returns the index into stages of the stage containing now.
func StageOn(now time.Time, stages []Stage) (int, bool) {
	return Current(DayOf(now), StageRanges(stages))
}
