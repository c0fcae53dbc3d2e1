package jalali

import (
	"fmt"
	"strconv"
	"strings"
)

// Period identifies one donation cycle: a Jalali year and month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("%w: year %d outside [%d, %d]", ErrInvalidDate, p.Year, MinYear, MaxYear)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d in %04d", ErrInvalidDate, p.Month, p.Year)
	}
	return nil
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Days() int {
	return DaysInMonth(p.Year, p.Month)
}

func (p Period) FirstDay() (Date, error) {
	return New(p.Year, p.Month, 1)
}

func (p Period) LastDay() (Date, error) {
	if err := p.Validate(); err != nil {
		return Date{}, err
	}
	return New(p.Year, p.Month, p.Days())
}

// Contains reports whether d falls inside p.
func (p Period) Contains(d Date) bool {
	return d.year == p.Year && d.month == p.Month
}

// String formats p as "1403/07".
func (p Period) String() string {
	return fmt.Sprintf("%04d/%02d", p.Year, p.Month)
}

// Title renders p for people, e.g. "مهر 1403".
func (p Period) Title() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}

// ParsePeriod reads "YYYY/MM" or "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: period %q", ErrInvalidDate, s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: period %q", ErrInvalidDate, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: period %q", ErrInvalidDate, s)
	}
	return NewPeriod(y, m)
}
