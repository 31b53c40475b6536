/*
Package pricing provides the monthly fee calculator.

PURPOSE:
  This package turns the enrollment shape of one student (siblings,
  activities, in-person offering) into a priced outcome. It has no I/O
  and no shared mutable state: every function is a pure function of its
  arguments and an injected, immutable Table.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shape: What one student is enrolled in for a billing period
  - Outcome: The priced result, with discount classification and audit text
  - Kind: The discount classification stored on each record
  - Branch: Which rule of the decision table fired

DECISION TABLE (first match wins):
  1. In-person activity present  -> in-person price (+ virtual add-ons)
  2. Single student, 1 activity  -> solo flat rate
  3. Single student, N activities -> multi price x N
  4. Siblings, 1 activity each   -> sibling flat rate
  5. Siblings, N activities      -> sibling multi price x N

USAGE:
  table := pricing.DefaultTable()
  out, err := pricing.Evaluate(table, pricing.Shape{
      StudentID:     "est-1",
      TutorID:       "tutor-1",
      SiblingCount:  2,
      ActivityCodes: []string{"club-mate"},
  })
  // out.FinalPrice == 44000, out.Kind == pricing.KindSiblingsBasic

SEE ALSO:
  - table.go: Prices and construction
  - evaluator.go: The decision table
  - discount.go: Percentage helpers
  - colonia.go: Summer camp pricing
*/
package pricing

// =============================================================================
// DISCOUNT KIND - Persisted classification
// =============================================================================

type Kind string

const (
	KindNone               Kind = "none"
	KindMultipleActivities Kind = "multiple_activities"
	KindSiblingsBasic      Kind = "siblings_basic"
	KindSiblingsMultiple   Kind = "siblings_multiple"
)

// Kinds lists every discount kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindNone, KindMultipleActivities, KindSiblingsBasic, KindSiblingsMultiple}
}

// =============================================================================
// BRANCH - Which rule of the decision table fired
// =============================================================================

type Branch int

const (
	BranchInPerson Branch = iota + 1
	BranchSolo
	BranchMultipleActivities
	BranchSiblingsBasic
	BranchSiblingsMultiple
)

func (b Branch) String() string {
	switch b {
	case BranchInPerson:
		return "in_person"
	case BranchSolo:
		return "solo"
	case BranchMultipleActivities:
		return "multiple_activities"
	case BranchSiblingsBasic:
		return "siblings_basic"
	case BranchSiblingsMultiple:
		return "siblings_multiple"
	}
	return "unknown"
}

// =============================================================================
// SHAPE / OUTCOME
// =============================================================================

// Shape is the enrollment of one student for one period.
// InPersonActivity is empty when the student has no in-person offering.
type Shape struct {
	StudentID        string
	TutorID          string
	SiblingCount     int
	ActivityCodes    []string
	InPersonActivity string
}

func (s Shape) hasInPerson() bool { return s.InPersonActivity != "" }

// Outcome is the priced result for one Shape.
//
// DiscountAmount is BasePrice - FinalPrice. In the in-person branch the
// base is the in-person list price alone, so virtual add-ons make it
// negative.
type Outcome struct {
	StudentID      string
	TutorID        string
	Branch         Branch
	Kind           Kind
	BasePrice      int64
	FinalPrice     int64
	DiscountAmount int64
	Explanation    string
}
