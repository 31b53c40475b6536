package pricing

import "sort"

// DefaultInPersonCode is the in-person offering priced by DefaultTable.
const DefaultInPersonCode = "presencial"

// TableConfig is the plain-data form of a Table. It is what configuration
// files decode into; NewTable validates it and freezes it.
type TableConfig struct {
	SingleActivityPrice     int64
	MultipleActivitiesPrice int64
	SiblingsBasicPrice      int64
	SiblingsMultiplePrice   int64
	VirtualAddOnPrice       int64
	InPersonPrices          map[string]int64
	Colonia                 ColoniaConfig
}

// ColoniaConfig holds summer camp prices.
type ColoniaConfig struct {
	CoursePrice    int64
	InscriptionFee int64
}

// DefaultTableConfig returns the club's current list prices.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		SingleActivityPrice:     50000,
		MultipleActivitiesPrice: 44000,
		SiblingsBasicPrice:      44000,
		SiblingsMultiplePrice:   38000,
		VirtualAddOnPrice:       44000,
		InPersonPrices:          map[string]int64{DefaultInPersonCode: 60000},
		Colonia: ColoniaConfig{
			CoursePrice:    55000,
			InscriptionFee: 25000,
		},
	}
}

// Table is the immutable price list injected into the evaluator.
// It is safe for concurrent use.
type Table struct {
	cfg TableConfig
}

// NewTable validates cfg and returns a Table holding its own copy of it.
func NewTable(cfg TableConfig) (*Table, error) {
	fields := []struct {
		name  string
		value int64
	}{
		{"single_activity_price", cfg.SingleActivityPrice},
		{"multiple_activities_price", cfg.MultipleActivitiesPrice},
		{"siblings_basic_price", cfg.SiblingsBasicPrice},
		{"siblings_multiple_price", cfg.SiblingsMultiplePrice},
		{"virtual_addon_price", cfg.VirtualAddOnPrice},
		{"colonia.course_price", cfg.Colonia.CoursePrice},
		{"colonia.inscription_fee", cfg.Colonia.InscriptionFee},
	}
	for _, f := range fields {
		if f.value < 0 {
			return nil, invalid(f.name, f.value, "price must be non-negative")
		}
	}

	prices := make(map[string]int64, len(cfg.InPersonPrices))
	for code, price := range cfg.InPersonPrices {
		if code == "" {
			return nil, invalid("in_person_prices", code, "activity code must not be empty")
		}
		if price < 0 {
			return nil, invalid("in_person_prices."+code, price, "price must be non-negative")
		}
		prices[code] = price
	}
	cfg.InPersonPrices = prices

	return &Table{cfg: cfg}, nil
}

// DefaultTable returns a Table built from DefaultTableConfig.
func DefaultTable() *Table {
	t, err := NewTable(DefaultTableConfig())
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) SingleActivityPrice() int64     { return t.cfg.SingleActivityPrice }
func (t *Table) MultipleActivitiesPrice() int64 { return t.cfg.MultipleActivitiesPrice }
func (t *Table) SiblingsBasicPrice() int64      { return t.cfg.SiblingsBasicPrice }
func (t *Table) SiblingsMultiplePrice() int64   { return t.cfg.SiblingsMultiplePrice }
func (t *Table) VirtualAddOnPrice() int64       { return t.cfg.VirtualAddOnPrice }
func (t *Table) ColoniaCoursePrice() int64      { return t.cfg.Colonia.CoursePrice }
func (t *Table) ColoniaInscriptionFee() int64   { return t.cfg.Colonia.InscriptionFee }

// InPersonPrice returns the list price of an in-person offering.
func (t *Table) InPersonPrice(code string) (int64, bool) {
	p, ok := t.cfg.InPersonPrices[code]
	return p, ok
}

// InPersonCodes returns the known in-person codes, sorted.
func (t *Table) InPersonCodes() []string {
	codes := make([]string, 0, len(t.cfg.InPersonPrices))
	for code := range t.cfg.InPersonPrices {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Config returns a copy of the table's configuration.
func (t *Table) Config() TableConfig {
	cfg := t.cfg
	cfg.InPersonPrices = make(map[string]int64, len(t.cfg.InPersonPrices))
	for code, price := range t.cfg.InPersonPrices {
		cfg.InPersonPrices[code] = price
	}
	return cfg
}
