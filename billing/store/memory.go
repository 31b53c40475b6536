// Package store provides in-memory billing stores.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mateatletas/cuotas/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements billing.Source, billing.Store and billing.RunRecorder.
// Families are returned for every period; activity validity windows are
// a concern of the SQLite store.
type Memory struct {
	mu          sync.RWMutex
	families    []billing.Family
	enrollments map[billing.Period][]billing.Enrollment
	runs        []billing.Run
}

var (
	_ billing.Source      = (*Memory)(nil)
	_ billing.Store       = (*Memory)(nil)
	_ billing.RunRecorder = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{enrollments: make(map[billing.Period][]billing.Enrollment)}
}

// AddFamily registers a family, replacing any family with the same tutor.
func (m *Memory) AddFamily(f billing.Family) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f = copyFamily(f)
	for i := range m.families {
		if m.families[i].TutorID == f.TutorID {
			m.families[i] = f
			return
		}
	}
	m.families = append(m.families, f)
}

func (m *Memory) LoadFamilies(_ context.Context, _ billing.Period) ([]billing.Family, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Family, len(m.families))
	for i, f := range m.families {
		result[i] = copyFamily(f)
	}
	return result, nil
}

func (m *Memory) ClearPeriod(_ context.Context, period billing.Period) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.enrollments[period])
	delete(m.enrollments, period)
	return n, nil
}

func (m *Memory) SaveEnrollment(_ context.Context, e billing.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ActivityCodes = append([]string(nil), e.ActivityCodes...)
	m.enrollments[e.Period] = append(m.enrollments[e.Period], e)
	return nil
}

func (m *Memory) ListEnrollments(_ context.Context, period billing.Period) ([]billing.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Enrollment, len(m.enrollments[period]))
	copy(result, m.enrollments[period])
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].TutorID != result[j].TutorID {
			return result[i].TutorID < result[j].TutorID
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

func (m *Memory) SaveRun(_ context.Context, run billing.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)
	return nil
}

// ListRuns returns runs newest first, optionally for one period.
func (m *Memory) ListRuns(_ context.Context, period *billing.Period) ([]billing.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if period == nil || m.runs[i].Period == *period {
			result = append(result, m.runs[i])
		}
	}
	return result, nil
}

func copyFamily(f billing.Family) billing.Family {
	students := make([]billing.Student, len(f.Students))
	for i, st := range f.Students {
		st.Activities = append([]billing.Activity(nil), st.Activities...)
		students[i] = st
	}
	f.Students = students
	return f
}
