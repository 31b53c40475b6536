/*
store.go - Collaborator interfaces for monthly generation

PURPOSE:
  The generator owns no data. It reads families from a Source and writes
  one Enrollment per priced student to a Store. Both are interfaces so the
  same run works against SQLite in production and memory in tests.

KEY INTERFACES:
  Source:      Tutors, their students, and each student's activities
  Store:       Replace-per-period enrollment persistence
  RunRecorder: Optional audit of each run (checked with a type assertion)

REPLACE SEMANTICS:
  ClearPeriod removes every record of a period before regeneration. There
  is no cross-student transaction: a failure after N saves leaves N
  records committed, and the operator re-runs the period.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - billing/store/memory.go: In-memory for tests and development

SEE ALSO:
  - generator.go: Uses these interfaces
*/
package billing

import (
	"context"
	"time"

	"github.com/mateatletas/cuotas/pricing"
)

// =============================================================================
// SOURCE DATA
// =============================================================================

// Activity is one weekly class a student attends in a period.
type Activity struct {
	Code     string
	Name     string
	InPerson bool
}

// Student is billed through its family's tutor.
type Student struct {
	ID         string
	Name       string
	Activities []Activity
}

// Family is a tutor and every student they pay for. The students of a
// family form its sibling group.
type Family struct {
	TutorID   string
	TutorName string
	Students  []Student
}

// =============================================================================
// RECORDS
// =============================================================================

// Enrollment is the persisted monthly fee of one student.
type Enrollment struct {
	ID            string
	Period        Period
	StudentID     string
	TutorID       string
	ActivityCodes []string
	Branch        pricing.Branch
	Kind          pricing.Kind
	BasePrice     int64
	FinalPrice    int64
	Discount      int64
	Explanation   string
	CreatedAt     time.Time
}

// Outcome converts the record back into the pricing result it stores.
func (e Enrollment) Outcome() pricing.Outcome {
	return pricing.Outcome{
		StudentID:      e.StudentID,
		TutorID:        e.TutorID,
		Branch:         e.Branch,
		Kind:           e.Kind,
		BasePrice:      e.BasePrice,
		FinalPrice:     e.FinalPrice,
		DiscountAmount: e.Discount,
		Explanation:    e.Explanation,
	}
}

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the audit row of one generation.
type Run struct {
	ID          string
	Period      Period
	Status      RunStatus
	Records     int
	Revenue     int64
	Skipped     int
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// =============================================================================
// INTERFACES
// =============================================================================

// Source supplies the families to bill for a period. Only activities
// active during the period are returned.
type Source interface {
	LoadFamilies(ctx context.Context, period Period) ([]Family, error)
}

// Store persists enrollments.
type Store interface {
	// ClearPeriod deletes every enrollment of the period and returns how
	// many were removed.
	ClearPeriod(ctx context.Context, period Period) (int, error)

	// SaveEnrollment writes one record.
	SaveEnrollment(ctx context.Context, e Enrollment) error

	// ListEnrollments returns the records of a period, ordered by tutor
	// then student.
	ListEnrollments(ctx context.Context, period Period) ([]Enrollment, error)
}

// RunRecorder is implemented by stores that keep a run audit log.
type RunRecorder interface {
	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, period *Period) ([]Run, error)
}
