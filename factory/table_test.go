package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/factory"
	"github.com/mateatletas/cuotas/pricing"
)

func TestParseTable_PartialOverride(t *testing.T) {
	f := factory.NewTableFactory()

	table, err := f.ParseTable(`{
		"single_activity_price": 52000,
		"colonia": {"inscription_fee": 30000}
	}`)
	require.NoError(t, err)

	assert.Equal(t, int64(52000), table.SingleActivityPrice())
	// Untouched fields keep the defaults
	assert.Equal(t, int64(44000), table.MultipleActivitiesPrice())
	assert.Equal(t, int64(38000), table.SiblingsMultiplePrice())
	cfg := table.Config()
	assert.Equal(t, int64(55000), cfg.Colonia.CoursePrice)
	assert.Equal(t, int64(30000), cfg.Colonia.InscriptionFee)

	price, ok := table.InPersonPrice(pricing.DefaultInPersonCode)
	assert.True(t, ok)
	assert.Equal(t, int64(60000), price)
}

func TestParseTable_InPersonMapReplaced(t *testing.T) {
	table, err := factory.NewTableFactory().ParseTable(`{"in_person_prices": {"taller": 70000}}`)
	require.NoError(t, err)

	_, ok := table.InPersonPrice(pricing.DefaultInPersonCode)
	assert.False(t, ok)
	assert.Equal(t, []string{"taller"}, table.InPersonCodes())
}

func TestParseTable_Invalid(t *testing.T) {
	f := factory.NewTableFactory()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"single_activity_price":`},
		{"wrong type", `{"single_activity_price": "cheap"}`},
		{"negative price", `{"siblings_basic_price": -1}`},
		{"empty in-person code", `{"in_person_prices": {"": 1000}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseTable(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestLoadTableFile(t *testing.T) {
	f := factory.NewTableFactory()

	// Empty path means defaults
	table, err := f.LoadTableFile("")
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultTableConfig(), table.Config())

	path := filepath.Join(t.TempDir(), "precios.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"virtual_addon_price": 40000}`), 0o644))

	table, err = f.LoadTableFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), table.VirtualAddOnPrice())

	_, err = f.LoadTableFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDefaultTableJSON_RoundTrips(t *testing.T) {
	table, err := factory.NewTableFactory().ParseTable(factory.DefaultTableJSON())
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultTableConfig(), table.Config())
}
