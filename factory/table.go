/*
Package factory provides JSON to Go price table conversion.

PURPOSE:
  Converts a JSON price list into a pricing.Table. Prices change every
  season; keeping them in a file lets the club update the list without a
  new release.

JSON SCHEMA:
  {
    "single_activity_price": 50000,
    "multiple_activities_price": 44000,
    "siblings_basic_price": 44000,
    "siblings_multiple_price": 38000,
    "virtual_addon_price": 44000,
    "in_person_prices": {"presencial": 60000},
    "colonia": {
      "course_price": 55000,
      "inscription_fee": 25000
    }
  }

DEFAULTS:
  Every field is optional. A missing field keeps the club's current list
  price (pricing.DefaultTableConfig). A present in_person_prices object
  replaces the default map entirely.

USAGE:
  f := factory.NewTableFactory()

  // From JSON string
  table, err := f.ParseTable(jsonString)

  // From a file, "" meaning defaults
  table, err := f.LoadTableFile(cfg.PricingFile)

SEE ALSO:
  - pricing/table.go: Table type definition
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mateatletas/cuotas/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TableJSON is the JSON representation of a price table.
type TableJSON struct {
	SingleActivityPrice     *int64           `json:"single_activity_price,omitempty"`
	MultipleActivitiesPrice *int64           `json:"multiple_activities_price,omitempty"`
	SiblingsBasicPrice      *int64           `json:"siblings_basic_price,omitempty"`
	SiblingsMultiplePrice   *int64           `json:"siblings_multiple_price,omitempty"`
	VirtualAddOnPrice       *int64           `json:"virtual_addon_price,omitempty"`
	InPersonPrices          map[string]int64 `json:"in_person_prices,omitempty"`
	Colonia                 *ColoniaJSON     `json:"colonia,omitempty"`
}

// ColoniaJSON represents summer camp prices.
type ColoniaJSON struct {
	CoursePrice    *int64 `json:"course_price,omitempty"`
	InscriptionFee *int64 `json:"inscription_fee,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// TableFactory creates price tables from JSON.
type TableFactory struct {
	// Defaults fills the fields a document leaves out.
	Defaults pricing.TableConfig
}

// NewTableFactory creates a factory that defaults to the club's list prices.
func NewTableFactory() *TableFactory {
	return &TableFactory{Defaults: pricing.DefaultTableConfig()}
}

// ParseTable parses a JSON string into a price table.
func (f *TableFactory) ParseTable(jsonStr string) (*pricing.Table, error) {
	var tj TableJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return nil, fmt.Errorf("failed to parse price table JSON: %w", err)
	}
	return f.FromJSON(tj)
}

// LoadTableFile reads a price table file. An empty path returns the
// default table.
func (f *TableFactory) LoadTableFile(path string) (*pricing.Table, error) {
	if path == "" {
		return f.FromJSON(TableJSON{})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table %s: %w", path, err)
	}
	table, err := f.ParseTable(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// FromJSON converts a TableJSON to a validated table.
func (f *TableFactory) FromJSON(tj TableJSON) (*pricing.Table, error) {
	cfg := f.Defaults
	override(&cfg.SingleActivityPrice, tj.SingleActivityPrice)
	override(&cfg.MultipleActivitiesPrice, tj.MultipleActivitiesPrice)
	override(&cfg.SiblingsBasicPrice, tj.SiblingsBasicPrice)
	override(&cfg.SiblingsMultiplePrice, tj.SiblingsMultiplePrice)
	override(&cfg.VirtualAddOnPrice, tj.VirtualAddOnPrice)
	if tj.InPersonPrices != nil {
		cfg.InPersonPrices = tj.InPersonPrices
	}
	if tj.Colonia != nil {
		override(&cfg.Colonia.CoursePrice, tj.Colonia.CoursePrice)
		override(&cfg.Colonia.InscriptionFee, tj.Colonia.InscriptionFee)
	}

	table, err := pricing.NewTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid price table: %w", err)
	}
	return table, nil
}

// ToJSON converts a table back to its JSON form, with every field set.
func (f *TableFactory) ToJSON(t *pricing.Table) TableJSON {
	cfg := t.Config()
	return TableJSON{
		SingleActivityPrice:     ptr(cfg.SingleActivityPrice),
		MultipleActivitiesPrice: ptr(cfg.MultipleActivitiesPrice),
		SiblingsBasicPrice:      ptr(cfg.SiblingsBasicPrice),
		SiblingsMultiplePrice:   ptr(cfg.SiblingsMultiplePrice),
		VirtualAddOnPrice:       ptr(cfg.VirtualAddOnPrice),
		InPersonPrices:          cfg.InPersonPrices,
		Colonia: &ColoniaJSON{
			CoursePrice:    ptr(cfg.Colonia.CoursePrice),
			InscriptionFee: ptr(cfg.Colonia.InscriptionFee),
		},
	}
}

// DefaultTableJSON returns the club's current list as an indented JSON
// document, a starting point for a pricing file.
func DefaultTableJSON() string {
	f := NewTableFactory()
	data, _ := json.MarshalIndent(f.ToJSON(pricing.DefaultTable()), "", "  ")
	return string(data)
}

// =============================================================================
// HELPERS
// =============================================================================

func override(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func ptr(v int64) *int64 { return &v }
