/*
handlers.go - HTTP API handlers for the monthly fee engine

PURPOSE:
  Exposes the pricing engine and the monthly generator via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  the pricing and billing packages.

ENDPOINTS:
  Pricing:
    GET    /api/pricing                         Active price table
    POST   /api/quotes                          Evaluate one student shape
    POST   /api/colonia/quotes                  Summer camp quote

  Collaborators:
    GET    /api/tutors                          List tutors
    POST   /api/tutors                          Create/update tutor
    GET    /api/tutors/{id}                     Tutor with students
    POST   /api/students                        Create/update student
    GET    /api/activities                      List activities
    POST   /api/activities                      Create/update activity
    POST   /api/students/{id}/activities        Enroll student in activity

  Periods:
    POST   /api/periods/{period}/generate       Generate monthly records
    GET    /api/periods/{period}/enrollments    Records (?tutor_id=)
    GET    /api/periods/{period}/totals         Period totals
    GET    /api/runs                            Generation audit (?period=)

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Table: Active price table, fixed at startup
  - Generator: Monthly record generator over Store

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (pricing.Evaluate, Generator.Generate)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, invalid period
  - 404: Unknown tutor, student or activity
  - 500: Store failures (generation returns its partial summary too)

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateatletas/cuotas/billing"
	"github.com/mateatletas/cuotas/factory"
	"github.com/mateatletas/cuotas/pricing"
	"github.com/mateatletas/cuotas/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Table        *pricing.Table
	TableFactory *factory.TableFactory
	Generator    *billing.Generator
	Logger       *slog.Logger

	// One generation at a time, from the API or the scheduler
	genMu sync.Mutex

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler over the store and price table.
// A nil logger discards output.
func NewHandler(store *sqlite.Store, table *pricing.Table, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		Store:        store,
		Table:        table,
		TableFactory: factory.NewTableFactory(),
		Generator:    billing.NewGenerator(store, store, table, logger),
		Logger:       logger,
	}
}

// GeneratePeriod runs the generator, serialized with any other run.
func (h *Handler) GeneratePeriod(ctx context.Context, period billing.Period) (*billing.Summary, error) {
	h.genMu.Lock()
	defer h.genMu.Unlock()
	return h.Generator.Generate(ctx, period)
}

// =============================================================================
// PRICING HANDLERS
// =============================================================================

// GetPricing returns the active price table.
func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.TableFactory.ToJSON(h.Table))
}

// CreateQuote evaluates a single student shape without storing anything.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	out, err := pricing.Evaluate(h.Table, req.shape())
	if err != nil {
		writeDomainError(w, "Failed to evaluate quote", err)
		return
	}

	writeJSON(w, http.StatusOK, toQuoteDTO(out))
}

// CreateColoniaQuote prices a family for the summer camp.
func (h *Handler) CreateColoniaQuote(w http.ResponseWriter, r *http.Request) {
	var req ColoniaQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	q, err := pricing.QuoteColonia(h.Table, req.CoursesPerStudent)
	if err != nil {
		writeDomainError(w, "Failed to quote colonia", err)
		return
	}

	writeJSON(w, http.StatusOK, ColoniaQuoteDTO{
		Students:        q.Students,
		TotalCourses:    q.TotalCourses,
		DiscountPercent: q.DiscountPercent,
		CoursePrice:     q.CoursePrice,
		MonthlyTotal:    q.MonthlyTotal,
		InscriptionFees: q.InscriptionFees,
	})
}

// =============================================================================
// COLLABORATOR HANDLERS
// =============================================================================

// ListTutors returns all tutors.
func (h *Handler) ListTutors(w http.ResponseWriter, r *http.Request) {
	tutors, err := h.Store.ListTutors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tutors", err)
		return
	}

	dtos := make([]TutorDTO, len(tutors))
	for i, t := range tutors {
		dtos[i] = TutorDTO{
			ID:        t.ID,
			Name:      t.Name,
			Email:     t.Email,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetTutor returns a tutor with their students.
func (h *Handler) GetTutor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tutor, err := h.Store.GetTutor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tutor", err)
		return
	}
	if tutor == nil {
		writeError(w, http.StatusNotFound, "Tutor not found", nil)
		return
	}

	students, err := h.Store.ListStudents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}
	studentDTOs := make([]StudentDTO, len(students))
	for i, st := range students {
		studentDTOs[i] = StudentDTO{ID: st.ID, TutorID: st.TutorID, Name: st.Name}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tutor": TutorDTO{
			ID:        tutor.ID,
			Name:      tutor.Name,
			Email:     tutor.Email,
			CreatedAt: tutor.CreatedAt.Format(time.RFC3339),
		},
		"students": studentDTOs,
	})
}

// CreateTutor creates or updates a tutor.
func (h *Handler) CreateTutor(w http.ResponseWriter, r *http.Request) {
	var req TutorDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	tutor := sqlite.Tutor{ID: req.ID, Name: req.Name, Email: req.Email}
	if err := h.Store.SaveTutor(r.Context(), tutor); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tutor", err)
		return
	}

	writeJSON(w, http.StatusCreated, TutorDTO{ID: tutor.ID, Name: tutor.Name, Email: tutor.Email})
}

// CreateStudent creates or updates a student of an existing tutor.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" || req.TutorID == "" {
		writeError(w, http.StatusBadRequest, "id, name and tutor_id are required", nil)
		return
	}

	tutor, err := h.Store.GetTutor(r.Context(), req.TutorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tutor", err)
		return
	}
	if tutor == nil {
		writeError(w, http.StatusNotFound, "Tutor not found", nil)
		return
	}

	st := sqlite.StudentRecord{ID: req.ID, TutorID: req.TutorID, Name: req.Name}
	if err := h.Store.SaveStudent(r.Context(), st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save student", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// ListActivities returns all activities.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := h.Store.ListActivities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activities", err)
		return
	}

	dtos := make([]ActivityDTO, len(acts))
	for i, a := range acts {
		dtos[i] = ActivityDTO{Code: a.Code, Name: a.Name, InPerson: a.InPerson}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateActivity creates or updates an activity. In-person activities
// need a price in the active table.
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "code and name are required", nil)
		return
	}
	if req.InPerson {
		if _, ok := h.Table.InPersonPrice(req.Code); !ok {
			writeError(w, http.StatusBadRequest, "In-person activity has no price in the active table", nil)
			return
		}
	}

	act := sqlite.ActivityRecord{Code: req.Code, Name: req.Name, InPerson: req.InPerson}
	if err := h.Store.SaveActivity(r.Context(), act); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save activity", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// EnrollStudent records that a student attends an activity.
func (h *Handler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	ctx := r.Context()

	var req EnrollActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	from, err := billing.ParsePeriod(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from period (use YYYY-MM)", err)
		return
	}
	var to *billing.Period
	if req.To != "" {
		p, err := billing.ParsePeriod(req.To)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to period (use YYYY-MM)", err)
			return
		}
		to = &p
	}

	st, err := h.Store.GetStudent(ctx, studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	act, err := h.Store.GetActivity(ctx, req.ActivityCode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get activity", err)
		return
	}
	if act == nil {
		writeError(w, http.StatusNotFound, "Activity not found", nil)
		return
	}

	if err := h.Store.Enroll(ctx, studentID, act.Code, from, to); err != nil {
		writeDomainError(w, "Failed to enroll student", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"student_id":    studentID,
		"activity_code": act.Code,
		"from":          from.String(),
		"to":            req.To,
	})
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// Generate replaces the period's monthly records.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	summary, err := h.GeneratePeriod(r.Context(), period)
	if err != nil {
		if summary == nil {
			writeError(w, http.StatusInternalServerError, "Generation failed", err)
			return
		}
		dto := toGenerationDTO(summary)
		dto.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, dto)
		return
	}

	writeJSON(w, http.StatusOK, toGenerationDTO(summary))
}

// ListEnrollments returns a period's records, optionally for one tutor.
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	var (
		recs []billing.Enrollment
		err  error
	)
	if tutorID := r.URL.Query().Get("tutor_id"); tutorID != "" {
		recs, err = h.Store.ListEnrollmentsByTutor(r.Context(), period, tutorID)
	} else {
		recs, err = h.Store.ListEnrollments(r.Context(), period)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}

	dtos := make([]EnrollmentDTO, len(recs))
	for i, e := range recs {
		dtos[i] = toEnrollmentDTO(e)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetTotals adds up a period's stored records.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	totals, err := billing.PeriodTotals(r.Context(), h.Store, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute totals", err)
		return
	}

	writeJSON(w, http.StatusOK, toTotalsDTO(period, totals))
}

// ListRuns returns the generation audit log, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	var filter *billing.Period
	if s := r.URL.Query().Get("period"); s != "" {
		p, err := billing.ParsePeriod(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
			return
		}
		filter = &p
	}

	runs, err := h.Store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.setScenario("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func periodParam(w http.ResponseWriter, r *http.Request) (billing.Period, bool) {
	p, err := billing.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
		return billing.Period{}, false
	}
	return p, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps pricing and billing errors to a status code.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if billing.IsClientError(err) {
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}
