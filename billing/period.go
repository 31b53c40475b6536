package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The billing cycle key
// =============================================================================

// Period is a calendar month. Every enrollment record belongs to exactly
// one period, and generation replaces a period as a whole.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates year and month.
func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 2000 || year > 9999 || month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, int(month))
	}
	return Period{Year: year, Month: month}, nil
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return NewPeriod(t.Year(), t.Month())
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// String returns "YYYY-MM", which also sorts chronologically.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Next() Period     { return PeriodOf(p.Start().AddDate(0, 1, 0)) }
func (p Period) Previous() Period { return PeriodOf(p.Start().AddDate(0, -1, 0)) }

func (p Period) Before(other Period) bool { return p.String() < other.String() }
func (p Period) IsZero() bool             { return p.Year == 0 && p.Month == 0 }
