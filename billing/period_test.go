package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/billing"
)

func TestParsePeriod(t *testing.T) {
	p, err := billing.ParsePeriod("2026-03")
	require.NoError(t, err)
	assert.Equal(t, billing.Period{Year: 2026, Month: time.March}, p)
	assert.Equal(t, "2026-03", p.String())
}

func TestParsePeriod_Invalid(t *testing.T) {
	for _, s := range []string{"", "2026", "2026-13", "2026-00", "03-2026", "1999-12", "2026-3-1"} {
		_, err := billing.ParsePeriod(s)
		assert.ErrorIs(t, err, billing.ErrInvalidPeriod, s)
		assert.True(t, billing.IsClientError(err), s)
	}
}

func TestPeriod_Bounds(t *testing.T) {
	feb := billing.Period{Year: 2028, Month: time.February}

	assert.Equal(t, time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC), feb.Start())
	assert.Equal(t, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC), feb.End())
}

func TestPeriod_Navigation(t *testing.T) {
	dec := billing.Period{Year: 2025, Month: time.December}

	assert.Equal(t, billing.Period{Year: 2026, Month: time.January}, dec.Next())
	assert.Equal(t, billing.Period{Year: 2025, Month: time.November}, dec.Previous())
	assert.True(t, dec.Before(dec.Next()))
	assert.False(t, dec.Next().Before(dec))
	assert.Equal(t, dec, billing.PeriodOf(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
}
