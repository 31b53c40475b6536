/*
Package billing generates the monthly enrollment records of the club.

PURPOSE:
  For one period, price every eligible student with the pricing engine and
  persist one record per student. Re-running a period replaces its
  records, so a failed or outdated run is fixed by running it again.

RUN SEQUENCE:
  1. Load families from the Source (nothing is touched if this fails)
  2. Clear the period's existing records
  3. For each family, count siblings with at least one activity
  4. Build each student's shape and evaluate it
  5. Save the record; stop at the first store failure
  6. Record the run (if the store keeps an audit log) and return a Summary

FAILURE MODEL:
  - Invalid student data: skipped, listed in Summary.Skipped, run goes on
  - Store failure: run stops, the partial Summary is returned together
    with a *StoreError; records already saved stay saved

SEE ALSO:
  - store.go: Source / Store interfaces
  - pricing/evaluator.go: The decision table
*/
package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mateatletas/cuotas/pricing"
)

// SkippedStudent is a student left without a record because its data
// could not be priced.
type SkippedStudent struct {
	StudentID string
	TutorID   string
	Reason    string
}

// Summary reports one generation run.
type Summary struct {
	RunID      string
	Period     Period
	Families   int
	Records    int
	Revenue    int64
	Cleared    int // records removed from a previous run
	Ineligible int // students with no activities
	Totals     pricing.Totals
	Skipped    []SkippedStudent
}

// Generator prices and persists a period.
type Generator struct {
	Source Source
	Store  Store
	Table  *pricing.Table
	Logger *slog.Logger

	Now   func() time.Time
	NewID func() string
}

// NewGenerator wires a generator with real clock and UUID ids.
// A nil logger discards output.
func NewGenerator(src Source, store Store, table *pricing.Table, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		Source: src,
		Store:  store,
		Table:  table,
		Logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// Generate runs the period. On a store failure it returns the partial
// summary alongside the error.
func (g *Generator) Generate(ctx context.Context, period Period) (*Summary, error) {
	started := g.Now()
	summary := &Summary{RunID: g.NewID(), Period: period}
	log := g.Logger.With("period", period.String(), "run_id", summary.RunID)

	err := g.generate(ctx, log, summary)
	g.recordRun(ctx, log, summary, started, err)
	if err != nil {
		log.Error("generation failed", "records", summary.Records, "error", err)
		return summary, err
	}

	log.Info("generation completed",
		"families", summary.Families,
		"records", summary.Records,
		"revenue", summary.Revenue,
		"cleared", summary.Cleared,
		"skipped", len(summary.Skipped))
	return summary, nil
}

func (g *Generator) generate(ctx context.Context, log *slog.Logger, summary *Summary) error {
	period := summary.Period

	families, err := g.Source.LoadFamilies(ctx, period)
	if err != nil {
		return &StoreError{Op: "load", Period: period, Err: err}
	}
	summary.Families = len(families)

	cleared, err := g.Store.ClearPeriod(ctx, period)
	if err != nil {
		return &StoreError{Op: "clear", Period: period, Err: err}
	}
	summary.Cleared = cleared

	var outcomes []pricing.Outcome
	defer func() { summary.Totals = pricing.Summarize(outcomes) }()

	for _, fam := range families {
		siblings := eligibleStudents(fam)
		summary.Ineligible += len(fam.Students) - siblings

		for _, st := range fam.Students {
			if err := ctx.Err(); err != nil {
				return err
			}

			shape, ok, err := ShapeFor(fam.TutorID, st, siblings)
			if !ok {
				continue
			}
			var out pricing.Outcome
			if err == nil {
				out, err = pricing.Evaluate(g.Table, shape)
			}
			if err != nil {
				if !pricing.IsInvalidInput(err) {
					return err
				}
				log.Warn("student skipped", "student_id", st.ID, "tutor_id", fam.TutorID, "reason", err)
				summary.Skipped = append(summary.Skipped, SkippedStudent{
					StudentID: st.ID,
					TutorID:   fam.TutorID,
					Reason:    err.Error(),
				})
				continue
			}

			rec := Enrollment{
				ID:            g.NewID(),
				Period:        period,
				StudentID:     st.ID,
				TutorID:       fam.TutorID,
				ActivityCodes: shape.ActivityCodes,
				Branch:        out.Branch,
				Kind:          out.Kind,
				BasePrice:     out.BasePrice,
				FinalPrice:    out.FinalPrice,
				Discount:      out.DiscountAmount,
				Explanation:   out.Explanation,
				CreatedAt:     g.Now(),
			}
			if err := g.Store.SaveEnrollment(ctx, rec); err != nil {
				return &StoreError{Op: "save", Period: period, StudentID: st.ID, Err: err}
			}

			log.Debug("student priced", "student_id", st.ID, "kind", out.Kind, "final_price", out.FinalPrice)
			outcomes = append(outcomes, out)
			summary.Records++
			summary.Revenue += out.FinalPrice
		}
	}
	return nil
}

func (g *Generator) recordRun(ctx context.Context, log *slog.Logger, s *Summary, started time.Time, runErr error) {
	rec, ok := g.Store.(RunRecorder)
	if !ok {
		return
	}
	run := Run{
		ID:          s.RunID,
		Period:      s.Period,
		Status:      RunCompleted,
		Records:     s.Records,
		Revenue:     s.Revenue,
		Skipped:     len(s.Skipped),
		StartedAt:   started,
		CompletedAt: g.Now(),
	}
	if runErr != nil {
		run.Status = RunFailed
		run.Error = runErr.Error()
	}
	// The run's own context may be canceled already; the audit row still
	// needs to land.
	if err := rec.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record run", "error", err)
	}
}

// eligibleStudents counts the students of a family that have at least one
// activity. Only they make up the sibling group.
func eligibleStudents(f Family) int {
	n := 0
	for _, st := range f.Students {
		if len(distinctActivities(st.Activities)) > 0 {
			n++
		}
	}
	return n
}

// ShapeFor builds the pricing shape of a student. ok is false for students
// with no activities, who get no record at all.
//
// Activity codes are de-duplicated keeping first occurrence order. More
// than one in-person activity cannot be priced and is reported as invalid
// input.
func ShapeFor(tutorID string, st Student, siblings int) (shape pricing.Shape, ok bool, err error) {
	acts := distinctActivities(st.Activities)
	if len(acts) == 0 {
		return pricing.Shape{}, false, nil
	}

	shape = pricing.Shape{
		StudentID:     st.ID,
		TutorID:       tutorID,
		SiblingCount:  siblings,
		ActivityCodes: make([]string, 0, len(acts)),
	}
	var inPerson []string
	for _, a := range acts {
		shape.ActivityCodes = append(shape.ActivityCodes, a.Code)
		if a.InPerson {
			inPerson = append(inPerson, a.Code)
		}
	}

	switch len(inPerson) {
	case 0:
	case 1:
		shape.InPersonActivity = inPerson[0]
	default:
		return shape, true, &pricing.InvalidInputError{
			Field:  "in_person_activity",
			Value:  inPerson,
			Reason: "more than one in-person activity",
		}
	}
	return shape, true, nil
}

func distinctActivities(acts []Activity) []Activity {
	seen := make(map[string]bool, len(acts))
	out := make([]Activity, 0, len(acts))
	for _, a := range acts {
		if a.Code == "" || seen[a.Code] {
			continue
		}
		seen[a.Code] = true
		out = append(out, a)
	}
	return out
}

// PeriodTotals adds up the stored records of a period.
func PeriodTotals(ctx context.Context, store Store, period Period) (pricing.Totals, error) {
	recs, err := store.ListEnrollments(ctx, period)
	if err != nil {
		return pricing.Totals{}, &StoreError{Op: "list", Period: period, Err: err}
	}
	outcomes := make([]pricing.Outcome, len(recs))
	for i, r := range recs {
		outcomes[i] = r.Outcome()
	}
	return pricing.Summarize(outcomes), nil
}

// IsCanceled reports whether a run stopped because its context ended.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
