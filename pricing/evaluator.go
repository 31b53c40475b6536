package pricing

import (
	"fmt"
)

// Evaluate prices one shape against the table.
//
// The only error it returns is *InvalidInputError, for shapes that should
// have been filtered upstream: no activities, a sibling count below one,
// repeated activity codes, or an in-person code that is not enrolled or
// not priced.
func Evaluate(t *Table, s Shape) (Outcome, error) {
	if err := validateShape(t, s); err != nil {
		return Outcome{}, err
	}

	out := Outcome{StudentID: s.StudentID, TutorID: s.TutorID}
	n := int64(len(s.ActivityCodes))

	switch out.Branch = classify(s); out.Branch {
	case BranchInPerson:
		// Siblings never discount an in-person enrollment.
		base, _ := t.InPersonPrice(s.InPersonActivity)
		virtual := n - 1
		out.Kind = KindNone
		out.BasePrice = base
		out.FinalPrice = base + virtual*t.VirtualAddOnPrice()
		if virtual == 0 {
			out.Explanation = fmt.Sprintf("in-person %s: %d, sibling discounts do not apply",
				s.InPersonActivity, out.FinalPrice)
		} else {
			out.Explanation = fmt.Sprintf("in-person %s %d + %d virtual x %d = %d, sibling discounts do not apply",
				s.InPersonActivity, base, virtual, t.VirtualAddOnPrice(), out.FinalPrice)
		}

	case BranchSolo:
		out.Kind = KindNone
		out.BasePrice = t.SingleActivityPrice()
		out.FinalPrice = t.SingleActivityPrice()
		out.Explanation = fmt.Sprintf("1 student, 1 activity: %d, no discount", out.FinalPrice)

	case BranchMultipleActivities:
		out.Kind = KindMultipleActivities
		out.BasePrice = t.SingleActivityPrice() * n
		out.FinalPrice = t.MultipleActivitiesPrice() * n
		out.Explanation = fmt.Sprintf("1 student, %d activities x %d = %d, multiple activities discount",
			n, t.MultipleActivitiesPrice(), out.FinalPrice)

	case BranchSiblingsBasic:
		out.Kind = KindSiblingsBasic
		out.BasePrice = t.SingleActivityPrice()
		out.FinalPrice = t.SiblingsBasicPrice()
		out.Explanation = fmt.Sprintf("%d siblings, 1 activity: %d, siblings basic discount",
			s.SiblingCount, out.FinalPrice)

	case BranchSiblingsMultiple:
		out.Kind = KindSiblingsMultiple
		out.BasePrice = t.SingleActivityPrice() * n
		out.FinalPrice = t.SiblingsMultiplePrice() * n
		out.Explanation = fmt.Sprintf("%d siblings, %d activities x %d = %d, siblings multiple discount",
			s.SiblingCount, n, t.SiblingsMultiplePrice(), out.FinalPrice)

	default:
		// classify is total over validated shapes.
		panic(fmt.Sprintf("pricing: unclassified shape for student %q", s.StudentID))
	}

	out.DiscountAmount = out.BasePrice - out.FinalPrice
	return out, nil
}

// classify picks the first matching rule. Callers must validate s first.
func classify(s Shape) Branch {
	single := len(s.ActivityCodes) == 1
	switch {
	case s.hasInPerson():
		return BranchInPerson
	case s.SiblingCount == 1 && single:
		return BranchSolo
	case s.SiblingCount == 1:
		return BranchMultipleActivities
	case single:
		return BranchSiblingsBasic
	default:
		return BranchSiblingsMultiple
	}
}

func validateShape(t *Table, s Shape) error {
	if len(s.ActivityCodes) == 0 {
		return invalid("activity_codes", s.StudentID, "student has no activities")
	}
	if s.SiblingCount < 1 {
		return invalid("sibling_count", s.SiblingCount, "must be at least 1")
	}

	seen := make(map[string]bool, len(s.ActivityCodes))
	for _, code := range s.ActivityCodes {
		if code == "" {
			return invalid("activity_codes", s.StudentID, "empty activity code")
		}
		if seen[code] {
			return invalid("activity_codes", code, "activity listed twice")
		}
		seen[code] = true
	}

	if s.hasInPerson() {
		if !seen[s.InPersonActivity] {
			return invalid("in_person_activity", s.InPersonActivity, "not among the student's activities")
		}
		if _, ok := t.InPersonPrice(s.InPersonActivity); !ok {
			return invalid("in_person_activity", s.InPersonActivity, "no price for in-person offering")
		}
	}
	return nil
}
