/*
handlers_test.go - HTTP tests for the API

Tests for:
- Quotes for every branch of the discount table
- Collaborator data entry and enrollment
- Period generation, records and totals
- Scenario loading end to end
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/api"
	"github.com/mateatletas/cuotas/pricing"
	"github.com/mateatletas/cuotas/store/sqlite"
)

type testServer struct {
	handler *api.Handler
	store   *sqlite.Store
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := api.NewHandler(store, pricing.DefaultTable(), nil)
	return &testServer{handler: h, store: store, router: api.NewRouter(h)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// QUOTES
// =============================================================================

func TestCreateQuote_Branches(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		req   api.QuoteRequest
		kind  pricing.Kind
		final int64
	}{
		{"solo single", api.QuoteRequest{SiblingCount: 1, ActivityCodes: []string{"a"}}, pricing.KindNone, 50000},
		{"solo multiple", api.QuoteRequest{SiblingCount: 1, ActivityCodes: []string{"a", "b", "c"}}, pricing.KindMultipleActivities, 132000},
		{"siblings basic", api.QuoteRequest{SiblingCount: 2, ActivityCodes: []string{"a"}}, pricing.KindSiblingsBasic, 44000},
		{"siblings multiple", api.QuoteRequest{SiblingCount: 3, ActivityCodes: []string{"a", "b"}}, pricing.KindSiblingsMultiple, 76000},
		{"in-person", api.QuoteRequest{
			SiblingCount:     2,
			ActivityCodes:    []string{pricing.DefaultInPersonCode, "a", "b"},
			InPersonActivity: pricing.DefaultInPersonCode,
		}, pricing.KindNone, 148000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/quotes", tt.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			q := decode[api.QuoteDTO](t, rec)
			assert.Equal(t, string(tt.kind), q.Kind)
			assert.Equal(t, tt.final, q.FinalPrice)
			assert.Equal(t, q.BasePrice-q.FinalPrice, q.DiscountAmount)
			assert.NotEmpty(t, q.Explanation)
		})
	}
}

func TestCreateQuote_InvalidShape(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN a shape with no activities
	rec := ts.do(t, http.MethodPost, "/api/quotes", api.QuoteRequest{SiblingCount: 1})

	// THEN it is rejected as client input
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "activity_codes")
}

func TestCreateColoniaQuote(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/colonia/quotes", api.ColoniaQuoteRequest{CoursesPerStudent: []int{2, 2}})
	require.Equal(t, http.StatusOK, rec.Code)

	q := decode[api.ColoniaQuoteDTO](t, rec)
	assert.Equal(t, 20, q.DiscountPercent)
	assert.Equal(t, int64(44000), q.CoursePrice)
	assert.Equal(t, int64(176000), q.MonthlyTotal)
	assert.Equal(t, int64(50000), q.InscriptionFees)

	rec = ts.do(t, http.MethodPost, "/api/colonia/quotes", api.ColoniaQuoteRequest{CoursesPerStudent: []int{-1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPricing(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/pricing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 50000, body["single_activity_price"])
	assert.EqualValues(t, 38000, body["siblings_multiple_price"])
}

// =============================================================================
// COLLABORATORS
// =============================================================================

func TestCollaborators_AndGeneration(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN a tutor with two children enrolled through the API
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/tutors", api.TutorDTO{ID: "t1", Name: "Laura"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/students", api.StudentDTO{ID: "s1", TutorID: "t1", Name: "Ana"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/students", api.StudentDTO{ID: "s2", TutorID: "t1", Name: "Beto"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/activities", api.ActivityDTO{Code: "chess", Name: "Chess"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/activities", api.ActivityDTO{Code: "robotics", Name: "Robotics"}).Code)

	for _, enr := range []struct{ student, code string }{
		{"s1", "chess"}, {"s1", "robotics"}, {"s2", "chess"}, {"s2", "robotics"},
	} {
		rec := ts.do(t, http.MethodPost, "/api/students/"+enr.student+"/activities",
			api.EnrollActivityRequest{ActivityCode: enr.code, From: "2026-03"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	// WHEN March is generated
	rec := ts.do(t, http.MethodPost, "/api/periods/2026-03/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN both siblings get the siblings multiple price
	gen := decode[api.GenerationDTO](t, rec)
	assert.Equal(t, 2, gen.Records)
	assert.Equal(t, int64(4*38000), gen.Revenue)
	assert.Empty(t, gen.Skipped)

	recs := decode[[]api.EnrollmentDTO](t, ts.do(t, http.MethodGet, "/api/periods/2026-03/enrollments?tutor_id=t1", nil))
	require.Len(t, recs, 2)
	assert.Equal(t, string(pricing.KindSiblingsMultiple), recs[0].Kind)

	totals := decode[api.TotalsDTO](t, ts.do(t, http.MethodGet, "/api/periods/2026-03/totals", nil))
	assert.Equal(t, int64(4*38000), totals.Total)
	assert.Equal(t, int64(4*50000), totals.Subtotal)
	assert.Equal(t, 2, totals.ByKind[string(pricing.KindSiblingsMultiple)])

	// AND February, before the enrollments started, is empty
	gen = decode[api.GenerationDTO](t, ts.do(t, http.MethodPost, "/api/periods/2026-02/generate", nil))
	assert.Equal(t, 0, gen.Records)

	runs := decode[[]api.RunDTO](t, ts.do(t, http.MethodGet, "/api/runs?period=2026-03", nil))
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
}

func TestCollaborators_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"tutor without name", http.MethodPost, "/api/tutors", api.TutorDTO{ID: "t1"}, http.StatusBadRequest},
		{"student of unknown tutor", http.MethodPost, "/api/students", api.StudentDTO{ID: "s1", TutorID: "ghost", Name: "Ana"}, http.StatusNotFound},
		{"unpriced in-person activity", http.MethodPost, "/api/activities", api.ActivityDTO{Code: "taller", Name: "Taller", InPerson: true}, http.StatusBadRequest},
		{"enroll unknown student", http.MethodPost, "/api/students/ghost/activities", api.EnrollActivityRequest{ActivityCode: "chess", From: "2026-03"}, http.StatusNotFound},
		{"enroll bad period", http.MethodPost, "/api/students/ghost/activities", api.EnrollActivityRequest{ActivityCode: "chess", From: "March"}, http.StatusBadRequest},
		{"unknown tutor", http.MethodGet, "/api/tutors/ghost", nil, http.StatusNotFound},
		{"bad period in path", http.MethodPost, "/api/periods/2026-13/generate", nil, http.StatusBadRequest},
		{"bad period filter", http.MethodGet, "/api/runs?period=x", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ExpectedTotals(t *testing.T) {
	ts := newTestServer(t)

	list := decode[[]api.ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios", nil))
	require.NotEmpty(t, list)

	for _, sc := range list {
		t.Run(sc.ID, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: sc.ID, Period: "2026-03"})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			gen := decode[api.GenerationDTO](t, ts.do(t, http.MethodPost, "/api/periods/2026-03/generate", nil))
			assert.Equal(t, sc.Expected, gen.Revenue)
			assert.Empty(t, gen.Skipped)

			current := decode[api.ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios/current", nil))
			assert.Equal(t, sc.ID, current.ID)
		})
	}
}

func TestScenarios_UnknownAndReset(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "full-club", Period: "2026-03"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	tutors := decode[[]api.TutorDTO](t, ts.do(t, http.MethodGet, "/api/tutors", nil))
	assert.Empty(t, tutors)
}
