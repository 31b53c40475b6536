/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built club families that exercise every branch of the
	discount table. Loading a scenario and generating its period gives a
	known monthly total.

AVAILABLE SCENARIOS:

	solo-single:       One student, one activity (list price)
	solo-multiple:     One student, three activities
	siblings-basic:    Two siblings, one activity each
	siblings-multiple: Two siblings, two activities each
	in-person:         In-person student with virtual add-ons, plus a sibling
	full-club:         All of the above in one database

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create the club's activities
 3. Create tutors and students
 4. Enroll students from the chosen period on (open-ended)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "full-club", "period": "2026-03"}

	POST /api/periods/2026-03/generate

ADDING NEW SCENARIOS:
 1. Add a demoFamily set
 2. Add an entry to 'scenarios' with its expected total

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - pricing/evaluator.go: The branches each scenario covers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mateatletas/cuotas/billing"
	"github.com/mateatletas/cuotas/pricing"
	"github.com/mateatletas/cuotas/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var clubActivities = []sqlite.ActivityRecord{
	{Code: "club-mate", Name: "Club de Matemática"},
	{Code: "programacion", Name: "Programación"},
	{Code: "ajedrez", Name: "Ajedrez"},
	{Code: pricing.DefaultInPersonCode, Name: "Clase presencial", InPerson: true},
}

type demoStudent struct {
	id         string
	name       string
	activities []string
}

type demoFamily struct {
	tutorID   string
	tutorName string
	students  []demoStudent
}

var (
	soloSingle = demoFamily{"tutor-a", "Andrea Acosta", []demoStudent{
		{"est-a1", "Abril", []string{"club-mate"}},
	}}
	soloMultiple = demoFamily{"tutor-b", "Bruno Benítez", []demoStudent{
		{"est-b1", "Bautista", []string{"club-mate", "programacion", "ajedrez"}},
	}}
	siblingsBasic = demoFamily{"tutor-c", "Carla Castro", []demoStudent{
		{"est-c1", "Camila", []string{"club-mate"}},
		{"est-c2", "Ciro", []string{"club-mate"}},
	}}
	siblingsMultiple = demoFamily{"tutor-d", "Diego Domínguez", []demoStudent{
		{"est-d1", "Delfina", []string{"club-mate", "programacion"}},
		{"est-d2", "Dante", []string{"club-mate", "programacion"}},
	}}
	inPerson = demoFamily{"tutor-e", "Elena Espósito", []demoStudent{
		{"est-e1", "Emma", []string{pricing.DefaultInPersonCode, "club-mate", "programacion"}},
		{"est-e2", "Enzo", []string{"club-mate"}},
	}}
)

type scenario struct {
	ScenarioDTO
	families []demoFamily
}

// Expected totals use the default price table.
var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "solo-single",
			Name:        "Solo Student",
			Description: "One student with one activity pays the list price",
			Expected:    50000,
		},
		families: []demoFamily{soloSingle},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "solo-multiple",
			Name:        "Multiple Activities",
			Description: "One student with three activities gets the multiple activities price",
			Expected:    3 * 44000,
		},
		families: []demoFamily{soloMultiple},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "siblings-basic",
			Name:        "Siblings",
			Description: "Two siblings with one activity each get the siblings basic price",
			Expected:    2 * 44000,
		},
		families: []demoFamily{siblingsBasic},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "siblings-multiple",
			Name:        "Siblings, Multiple Activities",
			Description: "Two siblings with two activities each get the siblings multiple price",
			Expected:    2 * 2 * 38000,
		},
		families: []demoFamily{siblingsMultiple},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "in-person",
			Name:        "In-Person Class",
			Description: "In-person price plus virtual add-ons; sibling discount does not apply to that student",
			Expected:    60000 + 2*44000 + 44000,
		},
		families: []demoFamily{inPerson},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "full-club",
			Name:        "Full Club",
			Description: "Every family above in one database",
			Expected:    50000 + 3*44000 + 2*44000 + 2*2*38000 + 60000 + 2*44000 + 44000,
		},
		families: []demoFamily{soloSingle, soloMultiple, siblingsBasic, siblingsMultiple, inPerson},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sc, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	from := billing.PeriodOf(time.Now())
	if req.Period != "" {
		p, err := billing.ParsePeriod(req.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
			return
		}
		from = p
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	if err := h.loadFamilies(ctx, sc.families, from); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.setScenario(sc.ID)
	h.Logger.Info("scenario loaded", "scenario", sc.ID, "from", from.String())

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "loaded",
		"scenario":       sc.ID,
		"period":         from.String(),
		"expected_total": sc.Expected,
	})
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFamilies(ctx context.Context, families []demoFamily, from billing.Period) error {
	for _, a := range clubActivities {
		if err := h.Store.SaveActivity(ctx, a); err != nil {
			return fmt.Errorf("activity %s: %w", a.Code, err)
		}
	}

	for _, f := range families {
		if err := h.Store.SaveTutor(ctx, sqlite.Tutor{ID: f.tutorID, Name: f.tutorName}); err != nil {
			return fmt.Errorf("tutor %s: %w", f.tutorID, err)
		}
		for _, st := range f.students {
			rec := sqlite.StudentRecord{ID: st.id, TutorID: f.tutorID, Name: st.name}
			if err := h.Store.SaveStudent(ctx, rec); err != nil {
				return fmt.Errorf("student %s: %w", st.id, err)
			}
			for _, code := range st.activities {
				if err := h.Store.Enroll(ctx, st.id, code, from, nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
