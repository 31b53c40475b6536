package pricing

// Totals aggregates a set of outcomes, typically one tutor's or one
// period's.
type Totals struct {
	Count         int
	Subtotal      int64 // sum of base prices
	Total         int64 // sum of final prices
	DiscountTotal int64 // Subtotal - Total
	ByKind        map[Kind]int
}

// Summarize adds up outcomes.
func Summarize(outcomes []Outcome) Totals {
	t := Totals{ByKind: make(map[Kind]int)}
	for _, o := range outcomes {
		t.Count++
		t.Subtotal += o.BasePrice
		t.Total += o.FinalPrice
		t.ByKind[o.Kind]++
	}
	t.DiscountTotal = t.Subtotal - t.Total
	return t
}

// HasKind reports whether any summarized outcome had kind k.
func (t Totals) HasKind(k Kind) bool {
	return t.ByKind[k] > 0
}
