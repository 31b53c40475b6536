/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the pricing and billing model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Collaborators:
    TutorDTO, StudentDTO, ActivityDTO, EnrollActivityRequest

  Pricing:
    QuoteRequest, QuoteDTO, ColoniaQuoteRequest, ColoniaQuoteDTO
    (GET /api/pricing returns factory.TableJSON)

  Generation:
    GenerationDTO, EnrollmentDTO, TotalsDTO, RunDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the pricing package, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/table.go: TableJSON type
*/
package api

import (
	"time"

	"github.com/mateatletas/cuotas/billing"
	"github.com/mateatletas/cuotas/pricing"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// TutorDTO represents a tutor in API requests and responses.
type TutorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// StudentDTO represents a student in API requests and responses.
type StudentDTO struct {
	ID      string `json:"id"`
	TutorID string `json:"tutor_id"`
	Name    string `json:"name"`
}

// ActivityDTO represents a weekly class.
type ActivityDTO struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	InPerson bool   `json:"in_person"`
}

// EnrollActivityRequest enrolls a student in an activity from a period on.
type EnrollActivityRequest struct {
	ActivityCode string `json:"activity_code"`
	From         string `json:"from"`         // YYYY-MM
	To           string `json:"to,omitempty"` // YYYY-MM, empty = open-ended
}

// =============================================================================
// PRICING
// =============================================================================

// QuoteRequest is a pricing shape submitted for evaluation.
type QuoteRequest struct {
	StudentID        string   `json:"student_id,omitempty"`
	TutorID          string   `json:"tutor_id,omitempty"`
	SiblingCount     int      `json:"sibling_count"`
	ActivityCodes    []string `json:"activity_codes"`
	InPersonActivity string   `json:"in_person_activity,omitempty"`
}

func (q QuoteRequest) shape() pricing.Shape {
	return pricing.Shape{
		StudentID:        q.StudentID,
		TutorID:          q.TutorID,
		SiblingCount:     q.SiblingCount,
		ActivityCodes:    q.ActivityCodes,
		InPersonActivity: q.InPersonActivity,
	}
}

// QuoteDTO is the priced outcome of a shape.
type QuoteDTO struct {
	StudentID      string `json:"student_id,omitempty"`
	TutorID        string `json:"tutor_id,omitempty"`
	Branch         int    `json:"branch"`
	BranchName     string `json:"branch_name"`
	Kind           string `json:"kind"`
	BasePrice      int64  `json:"base_price"`
	FinalPrice     int64  `json:"final_price"`
	DiscountAmount int64  `json:"discount_amount"`
	Explanation    string `json:"explanation"`
}

func toQuoteDTO(o pricing.Outcome) QuoteDTO {
	return QuoteDTO{
		StudentID:      o.StudentID,
		TutorID:        o.TutorID,
		Branch:         int(o.Branch),
		BranchName:     o.Branch.String(),
		Kind:           string(o.Kind),
		BasePrice:      o.BasePrice,
		FinalPrice:     o.FinalPrice,
		DiscountAmount: o.DiscountAmount,
		Explanation:    o.Explanation,
	}
}

// ColoniaQuoteRequest lists how many courses each child takes.
type ColoniaQuoteRequest struct {
	CoursesPerStudent []int `json:"courses_per_student"`
}

// ColoniaQuoteDTO is a summer camp quote.
type ColoniaQuoteDTO struct {
	Students        int   `json:"students"`
	TotalCourses    int   `json:"total_courses"`
	DiscountPercent int   `json:"discount_percent"`
	CoursePrice     int64 `json:"course_price"`
	MonthlyTotal    int64 `json:"monthly_total"`
	InscriptionFees int64 `json:"inscription_fees"`
}

// =============================================================================
// GENERATION
// =============================================================================

// EnrollmentDTO is one stored monthly record.
type EnrollmentDTO struct {
	ID            string   `json:"id"`
	Period        string   `json:"period"`
	StudentID     string   `json:"student_id"`
	TutorID       string   `json:"tutor_id"`
	ActivityCodes []string `json:"activity_codes"`
	Branch        int      `json:"branch"`
	Kind          string   `json:"kind"`
	BasePrice     int64    `json:"base_price"`
	FinalPrice    int64    `json:"final_price"`
	Discount      int64    `json:"discount"`
	Explanation   string   `json:"explanation"`
	CreatedAt     string   `json:"created_at"`
}

func toEnrollmentDTO(e billing.Enrollment) EnrollmentDTO {
	return EnrollmentDTO{
		ID:            e.ID,
		Period:        e.Period.String(),
		StudentID:     e.StudentID,
		TutorID:       e.TutorID,
		ActivityCodes: e.ActivityCodes,
		Branch:        int(e.Branch),
		Kind:          string(e.Kind),
		BasePrice:     e.BasePrice,
		FinalPrice:    e.FinalPrice,
		Discount:      e.Discount,
		Explanation:   e.Explanation,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}

// TotalsDTO aggregates a period's records.
type TotalsDTO struct {
	Period        string         `json:"period"`
	Count         int            `json:"count"`
	Subtotal      int64          `json:"subtotal"`
	Total         int64          `json:"total"`
	DiscountTotal int64          `json:"discount_total"`
	ByKind        map[string]int `json:"by_kind"`
}

func toTotalsDTO(p billing.Period, t pricing.Totals) TotalsDTO {
	byKind := make(map[string]int, len(t.ByKind))
	for k, n := range t.ByKind {
		byKind[string(k)] = n
	}
	return TotalsDTO{
		Period:        p.String(),
		Count:         t.Count,
		Subtotal:      t.Subtotal,
		Total:         t.Total,
		DiscountTotal: t.DiscountTotal,
		ByKind:        byKind,
	}
}

// SkippedDTO is a student left without a record.
type SkippedDTO struct {
	StudentID string `json:"student_id"`
	TutorID   string `json:"tutor_id"`
	Reason    string `json:"reason"`
}

// GenerationDTO reports a generation run.
type GenerationDTO struct {
	RunID      string       `json:"run_id"`
	Period     string       `json:"period"`
	Families   int          `json:"families"`
	Records    int          `json:"records"`
	Revenue    int64        `json:"revenue"`
	Cleared    int          `json:"cleared"`
	Ineligible int          `json:"ineligible"`
	Totals     TotalsDTO    `json:"totals"`
	Skipped    []SkippedDTO `json:"skipped"`
	Error      string       `json:"error,omitempty"`
}

func toGenerationDTO(s *billing.Summary) GenerationDTO {
	skipped := make([]SkippedDTO, len(s.Skipped))
	for i, sk := range s.Skipped {
		skipped[i] = SkippedDTO{StudentID: sk.StudentID, TutorID: sk.TutorID, Reason: sk.Reason}
	}
	return GenerationDTO{
		RunID:      s.RunID,
		Period:     s.Period.String(),
		Families:   s.Families,
		Records:    s.Records,
		Revenue:    s.Revenue,
		Cleared:    s.Cleared,
		Ineligible: s.Ineligible,
		Totals:     toTotalsDTO(s.Period, s.Totals),
		Skipped:    skipped,
	}
}

// RunDTO is one generation audit row.
type RunDTO struct {
	ID          string `json:"id"`
	Period      string `json:"period"`
	Status      string `json:"status"`
	Records     int    `json:"records"`
	Revenue     int64  `json:"revenue"`
	Skipped     int    `json:"skipped"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`
}

func toRunDTO(r billing.Run) RunDTO {
	return RunDTO{
		ID:          r.ID,
		Period:      r.Period.String(),
		Status:      string(r.Status),
		Records:     r.Records,
		Revenue:     r.Revenue,
		Skipped:     r.Skipped,
		Error:       r.Error,
		StartedAt:   r.StartedAt.Format(time.RFC3339),
		CompletedAt: r.CompletedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Expected    int64  `json:"expected_total"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	Period     string `json:"period,omitempty"` // defaults to the current month
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
