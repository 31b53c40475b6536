package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/pricing"
)

func TestNewTable_RejectsNegativePrices(t *testing.T) {
	cfg := pricing.DefaultTableConfig()
	cfg.SiblingsMultiplePrice = -1

	_, err := pricing.NewTable(cfg)

	var invErr *pricing.InvalidInputError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "siblings_multiple_price", invErr.Field)
}

func TestNewTable_RejectsBadInPersonEntries(t *testing.T) {
	cfg := pricing.DefaultTableConfig()
	cfg.InPersonPrices = map[string]int64{"": 1000}
	_, err := pricing.NewTable(cfg)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)

	cfg.InPersonPrices = map[string]int64{"robotica": -5}
	_, err = pricing.NewTable(cfg)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestTable_IsIsolatedFromCallerMaps(t *testing.T) {
	cfg := pricing.DefaultTableConfig()
	prices := map[string]int64{"robotica": 70000}
	cfg.InPersonPrices = prices

	table, err := pricing.NewTable(cfg)
	require.NoError(t, err)

	// Mutating the input after construction has no effect
	prices["robotica"] = 1
	got, ok := table.InPersonPrice("robotica")
	require.True(t, ok)
	assert.Equal(t, int64(70000), got)

	// Nor does mutating what Config hands back
	out := table.Config()
	out.InPersonPrices["robotica"] = 2
	got, _ = table.InPersonPrice("robotica")
	assert.Equal(t, int64(70000), got)
}

func TestDefaultTable(t *testing.T) {
	table := pricing.DefaultTable()

	assert.Equal(t, int64(50000), table.SingleActivityPrice())
	assert.Equal(t, int64(44000), table.MultipleActivitiesPrice())
	assert.Equal(t, int64(44000), table.SiblingsBasicPrice())
	assert.Equal(t, int64(38000), table.SiblingsMultiplePrice())
	assert.Equal(t, int64(44000), table.VirtualAddOnPrice())
	assert.Equal(t, []string{pricing.DefaultInPersonCode}, table.InPersonCodes())
}

func TestSummarize(t *testing.T) {
	table := pricing.DefaultTable()
	a, err := pricing.Evaluate(table, shape(2, "club-mate"))
	require.NoError(t, err)
	b, err := pricing.Evaluate(table, shape(2, "club-mate", "programacion"))
	require.NoError(t, err)

	totals := pricing.Summarize([]pricing.Outcome{a, b})

	assert.Equal(t, 2, totals.Count)
	assert.Equal(t, int64(150000), totals.Subtotal)
	assert.Equal(t, int64(44000+76000), totals.Total)
	assert.Equal(t, int64(30000), totals.DiscountTotal)
	assert.True(t, totals.HasKind(pricing.KindSiblingsBasic))
	assert.False(t, totals.HasKind(pricing.KindMultipleActivities))
}

func TestSummarize_Empty(t *testing.T) {
	totals := pricing.Summarize(nil)
	assert.Zero(t, totals.Count)
	assert.Zero(t, totals.Total)
}
