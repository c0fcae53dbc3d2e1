// Package jalali converts between Gregorian and Jalali (Persian solar) civil dates.
//
// Conversions go through Julian day numbers and the break-year table of the
// astronomical Jalali calendar, so they are exact per calendar day for every year
// in [MinYear, MaxYear].
package jalali

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid jalali date")

const (
	MinYear = 1
	MaxYear = 3177
)

// Jalali years at which the 33-year leap cycle shifts.
var breaks = [...]int{
	-61, 9, 38, 199, 426, 686, 756, 818, 1111, 1181, 1210,
	1635, 2060, 2097, 2192, 2262, 2324, 2394, 2456, 3178,
}

// unixEpochJDN is the Julian day number of 1970-01-01.
const unixEpochJDN = 2440588

var (
	minDate = MustNew(MinYear, 1, 1)
	maxDate = MustNew(MaxYear, 12, DaysInMonth(MaxYear, 12))
)

var monthNames = [...]string{
	"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
}

// Date is a valid Jalali civil date. The zero value is not a valid date; use New.
type Date struct {
	year  int
	month int
	day   int
}

// New builds a Date, failing with ErrInvalidDate when the month or day is out of
// range for that year. It never clamps.
func New(year, month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, fmt.Errorf("%w: year %d outside [%d, %d]", ErrInvalidDate, year, MinYear, MaxYear)
	}
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("%w: month %d in %04d", ErrInvalidDate, month, year)
	}
	if dim := DaysInMonth(year, month); day < 1 || day > dim {
		return Date{}, fmt.Errorf("%w: day %d in %04d/%02d (has %d days)", ErrInvalidDate, day, year, month, dim)
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustNew is New that panics; intended for constants and tests.
func MustNew(year, month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromGregorian converts a Gregorian civil date.
func FromGregorian(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d does not exist", ErrInvalidDate, year, int(month), day)
	}
	jy, jm, jd := d2j(gregorianToJDN(year, int(month), day))
	return New(jy, jm, jd)
}

// FromTime converts the civil date of t as observed in t's own location.
// It panics if t lies outside the supported range.
func FromTime(t time.Time) Date {
	d, err := FromGregorian(t.Year(), t.Month(), t.Day())
	if err != nil {
		panic(err)
	}
	return d
}

// IsLeap reports whether the Jalali year has 366 days (Esfand has 30 days).
func IsLeap(year int) bool {
	return jalCal(year).leap == 0
}

// DaysInMonth returns the length of month in year, or 0 for an invalid month.
func DaysInMonth(year, month int) int {
	switch {
	case month >= 1 && month <= 6:
		return 31
	case month >= 7 && month <= 11:
		return 30
	case month == 12:
		if IsLeap(year) {
			return 30
		}
		return 29
	}
	return 0
}

// MonthName returns the Persian name of month, or an empty string.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

func (d Date) Year() int  { return d.year }
func (d Date) Month() int { return d.month }
func (d Date) Day() int   { return d.day }

func (d Date) IsZero() bool { return d == Date{} }

// Gregorian returns the equivalent Gregorian civil date.
func (d Date) Gregorian() (year int, month time.Month, day int) {
	gy, gm, gd := jdnToGregorian(d.jdn())
	return gy, time.Month(gm), gd
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	gy, gm, gd := d.Gregorian()
	return time.Date(gy, gm, gd, 0, 0, 0, 0, loc)
}

func (d Date) Period() Period {
	return Period{Year: d.year, Month: d.month}
}

// AddDays shifts d by n calendar days; n may be negative. Results outside
// [MinYear, MaxYear] fail with ErrInvalidDate.
func (d Date) AddDays(n int) (Date, error) {
	j := d.jdn() + n
	if j < minDate.jdn() || j > maxDate.jdn() {
		return Date{}, fmt.Errorf("%w: %s %+d days leaves [%04d, %04d]", ErrInvalidDate, d, n, MinYear, MaxYear)
	}
	return New(d2j(j))
}

func (d Date) Equal(o Date) bool  { return d == o }
func (d Date) Before(o Date) bool { return d.jdn() < o.jdn() }
func (d Date) After(o Date) bool  { return d.jdn() > o.jdn() }

// String formats d as "1403/07/05".
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.year, d.month, d.day)
}

// Format renders d for people, e.g. "5 مهر 1403".
func (d Date) Format() string {
	return fmt.Sprintf("%d %s %d", d.day, MonthName(d.month), d.year)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse reads "YYYY/MM/DD" or "YYYY-MM-DD".
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i] = n
	}
	return New(nums[0], nums[1], nums[2])
}

func (d Date) jdn() int {
	r := jalCal(d.year)
	return gregorianToJDN(r.gy, 3, r.march) + (d.month-1)*31 - d.month/7*(d.month-7) + d.day - 1
}

type yearInfo struct {
	leap  int // years since the last leap year; 0 means this year is leap
	gy    int // Gregorian year in which this Jalali year starts
	march int // day in March of 1 Farvardin
}

// jalCal uses truncating division and remainder throughout, as Go's / and % do.
func jalCal(jy int) yearInfo {
	gy := jy + 621
	leapJ := -14
	jp := breaks[0]
	jump := 0
	for i := 1; i < len(breaks); i++ {
		jm := breaks[i]
		jump = jm - jp
		if jy < jm {
			break
		}
		leapJ += jump/33*8 + (jump%33)/4
		jp = jm
	}

	n := jy - jp
	leapJ += n/33*8 + (n%33+3)/4
	if jump%33 == 4 && jump-n == 4 {
		leapJ++
	}

	leapG := gy/4 - (gy/100+1)*3/4 - 150
	march := 20 + leapJ - leapG

	if jump-n < 6 {
		n = n - jump + (jump+4)/33*33
	}
	leap := ((n+1)%33 - 1) % 4
	if leap == -1 {
		leap = 4
	}

	return yearInfo{leap: leap, gy: gy, march: march}
}

func d2j(jdn int) (jy, jm, jd int) {
	gy, _, _ := jdnToGregorian(jdn)
	jy = gy - 621
	r := jalCal(jy)
	k := jdn - gregorianToJDN(gy, 3, r.march)

	if k >= 0 {
		if k <= 185 {
			return jy, 1 + k/31, k%31 + 1
		}
		k -= 186
	} else {
		jy--
		k += 179
		if r.leap == 1 {
			k++
		}
	}
	return jy, 7 + k/30, k%30 + 1
}

func gregorianToJDN(year, month, day int) int {
	secs := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Unix()
	return int(secs/86400) + unixEpochJDN
}

func jdnToGregorian(jdn int) (year, month, day int) {
	t := time.Unix(int64(jdn-unixEpochJDN)*86400, 0).UTC()
	return t.Year(), int(t.Month()), t.Day()
}
