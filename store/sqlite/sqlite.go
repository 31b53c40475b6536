/*
Package sqlite provides a SQLite-backed implementation of the billing
storage interfaces.

PURPOSE:
  Holds the collaborator data the fee engine reads (tutors, students,
  activities and who attends what) and the monthly records it writes.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  billing.Source:      LoadFamilies
  billing.Store:       ClearPeriod, SaveEnrollment, ListEnrollments
  billing.RunRecorder: SaveRun, ListRuns

KEY TABLES:
  tutors:              Paying guardians
  students:            Learners, each billed through one tutor
  activities:          Weekly classes, flagged in-person or virtual
  student_activities:  Attendance windows [from_period, to_period]
  monthly_enrollments: One priced record per student per period
  generation_runs:     Audit log of generation runs

REPLACE SEMANTICS:
  Unlike an append-only ledger, monthly_enrollments is replaced per
  period: ClearPeriod deletes a period's rows and generation writes them
  again. UNIQUE(period, student_id) guards against double records.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/cuotas.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  gen := billing.NewGenerator(store, store, table, logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mateatletas/cuotas/billing"
	"github.com/mateatletas/cuotas/pricing"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ billing.Source      = (*Store)(nil)
	_ billing.Store       = (*Store)(nil)
	_ billing.RunRecorder = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tutors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		tutor_id TEXT NOT NULL REFERENCES tutors(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_tutor
		ON students(tutor_id);

	CREATE TABLE IF NOT EXISTS activities (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		in_person BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Periods are stored as YYYY-MM, which compares chronologically
	CREATE TABLE IF NOT EXISTS student_activities (
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		activity_code TEXT NOT NULL REFERENCES activities(code),
		from_period TEXT NOT NULL,
		to_period TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (student_id, activity_code, from_period)
	);

	CREATE INDEX IF NOT EXISTS idx_student_activities_window
		ON student_activities(from_period, to_period);

	CREATE TABLE IF NOT EXISTS monthly_enrollments (
		id TEXT PRIMARY KEY,
		period TEXT NOT NULL,
		student_id TEXT NOT NULL,
		tutor_id TEXT NOT NULL,
		activity_codes_json TEXT NOT NULL,
		branch INTEGER NOT NULL,
		kind TEXT NOT NULL,
		base_price INTEGER NOT NULL,
		final_price INTEGER NOT NULL,
		discount INTEGER NOT NULL,
		explanation TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(period, student_id)
	);

	CREATE INDEX IF NOT EXISTS idx_enrollments_period_tutor
		ON monthly_enrollments(period, tutor_id);

	CREATE TABLE IF NOT EXISTS generation_runs (
		id TEXT PRIMARY KEY,
		period TEXT NOT NULL,
		status TEXT NOT NULL,
		records INTEGER NOT NULL DEFAULT 0,
		revenue INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generation_runs_period
		ON generation_runs(period, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TUTORS / STUDENTS / ACTIVITIES
// =============================================================================

// Tutor is a paying guardian.
type Tutor struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// StudentRecord is a stored student.
type StudentRecord struct {
	ID        string
	TutorID   string
	Name      string
	CreatedAt time.Time
}

// ActivityRecord is a stored weekly class.
type ActivityRecord struct {
	Code      string
	Name      string
	InPerson  bool
	CreatedAt time.Time
}

// SaveTutor creates or updates a tutor.
func (s *Store) SaveTutor(ctx context.Context, t Tutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO tutors (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Name, nullString(t.Email),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetTutor retrieves a tutor by ID. Returns nil if it does not exist.
func (s *Store) GetTutor(ctx context.Context, id string) (*Tutor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t Tutor
	var email sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM tutors WHERE id = ?",
		id,
	).Scan(&t.ID, &t.Name, &email, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.Email = email.String
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

// ListTutors returns all tutors ordered by name.
func (s *Store) ListTutors(ctx context.Context) ([]Tutor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM tutors ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tutors []Tutor
	for rows.Next() {
		var t Tutor
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &email, &createdAt); err != nil {
			return nil, err
		}
		t.Email = email.String
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tutors = append(tutors, t)
	}
	return tutors, rows.Err()
}

// SaveStudent creates or updates a student.
func (s *Store) SaveStudent(ctx context.Context, st StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO students (id, tutor_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tutor_id = excluded.tutor_id,
			name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.TutorID, st.Name,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetStudent retrieves a student by ID. Returns nil if it does not exist.
func (s *Store) GetStudent(ctx context.Context, id string) (*StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st StudentRecord
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, tutor_id, name, created_at FROM students WHERE id = ?",
		id,
	).Scan(&st.ID, &st.TutorID, &st.Name, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &st, nil
}

// ListStudents returns the students of a tutor.
func (s *Store) ListStudents(ctx context.Context, tutorID string) ([]StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, tutor_id, name, created_at FROM students WHERE tutor_id = ? ORDER BY id",
		tutorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []StudentRecord
	for rows.Next() {
		var st StudentRecord
		var createdAt string
		if err := rows.Scan(&st.ID, &st.TutorID, &st.Name, &createdAt); err != nil {
			return nil, err
		}
		st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		students = append(students, st)
	}
	return students, rows.Err()
}

// SaveActivity creates or updates an activity.
func (s *Store) SaveActivity(ctx context.Context, a ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO activities (code, name, in_person, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			in_person = excluded.in_person
	`
	_, err := s.db.ExecContext(ctx, query,
		a.Code, a.Name, a.InPerson,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListActivities returns all activities ordered by code.
func (s *Store) ListActivities(ctx context.Context) ([]ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT code, name, in_person, created_at FROM activities ORDER BY code",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var acts []ActivityRecord
	for rows.Next() {
		var a ActivityRecord
		var createdAt string
		if err := rows.Scan(&a.Code, &a.Name, &a.InPerson, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		acts = append(acts, a)
	}
	return acts, rows.Err()
}

// GetActivity retrieves an activity by code. Returns nil if it does not exist.
func (s *Store) GetActivity(ctx context.Context, code string) (*ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a ActivityRecord
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT code, name, in_person, created_at FROM activities WHERE code = ?",
		code,
	).Scan(&a.Code, &a.Name, &a.InPerson, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// Enroll records that a student attends an activity from one period on.
// A nil to leaves the enrollment open-ended.
func (s *Store) Enroll(ctx context.Context, studentID, activityCode string, from billing.Period, to *billing.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toPeriod sql.NullString
	if to != nil {
		if to.Before(from) {
			return fmt.Errorf("%w: enrollment ends %s before it starts %s", billing.ErrInvalidPeriod, to, from)
		}
		toPeriod = sql.NullString{String: to.String(), Valid: true}
	}

	query := `
		INSERT INTO student_activities (student_id, activity_code, from_period, to_period, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id, activity_code, from_period) DO UPDATE SET
			to_period = excluded.to_period
	`
	_, err := s.db.ExecContext(ctx, query,
		studentID, activityCode, from.String(), toPeriod,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to enroll %s in %s: %w", studentID, activityCode, err)
	}
	return nil
}

// =============================================================================
// SOURCE (billing.Source interface)
// =============================================================================

// LoadFamilies returns every tutor with their students and the activities
// each student attends during the period. Students with no activity in
// the period are included with an empty list.
func (s *Store) LoadFamilies(ctx context.Context, period billing.Period) ([]billing.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT t.id, t.name, st.id, st.name, a.code, a.name, a.in_person
		FROM tutors t
		JOIN students st ON st.tutor_id = t.id
		LEFT JOIN student_activities sa
			ON sa.student_id = st.id
			AND sa.from_period <= ?
			AND (sa.to_period IS NULL OR sa.to_period >= ?)
		LEFT JOIN activities a ON a.code = sa.activity_code
		ORDER BY t.id, st.id, sa.from_period, sa.activity_code
	`
	p := period.String()
	rows, err := s.db.QueryContext(ctx, query, p, p)
	if err != nil {
		return nil, fmt.Errorf("failed to load families: %w", err)
	}
	defer rows.Close()

	var families []billing.Family
	for rows.Next() {
		var (
			tutorID, tutorName, studentID, studentName string
			code, actName                              sql.NullString
			inPerson                                   sql.NullBool
		)
		if err := rows.Scan(&tutorID, &tutorName, &studentID, &studentName, &code, &actName, &inPerson); err != nil {
			return nil, fmt.Errorf("failed to scan family row: %w", err)
		}

		if n := len(families); n == 0 || families[n-1].TutorID != tutorID {
			families = append(families, billing.Family{TutorID: tutorID, TutorName: tutorName})
		}
		fam := &families[len(families)-1]

		if n := len(fam.Students); n == 0 || fam.Students[n-1].ID != studentID {
			fam.Students = append(fam.Students, billing.Student{ID: studentID, Name: studentName})
		}
		st := &fam.Students[len(fam.Students)-1]

		if code.Valid {
			st.Activities = append(st.Activities, billing.Activity{
				Code:     code.String,
				Name:     actName.String,
				InPerson: inPerson.Bool,
			})
		}
	}
	return families, rows.Err()
}

// =============================================================================
// ENROLLMENT STORE (billing.Store interface)
// =============================================================================

// ClearPeriod deletes every record of the period.
func (s *Store) ClearPeriod(ctx context.Context, period billing.Period) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM monthly_enrollments WHERE period = ?", period.String())
	if err != nil {
		return 0, fmt.Errorf("failed to clear period %s: %w", period, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SaveEnrollment inserts one record.
func (s *Store) SaveEnrollment(ctx context.Context, e billing.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	codesJSON, err := json.Marshal(e.ActivityCodes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO monthly_enrollments
		(id, period, student_id, tutor_id, activity_codes_json, branch, kind,
		 base_price, final_price, discount, explanation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.Period.String(), e.StudentID, e.TutorID, string(codesJSON),
		int(e.Branch), string(e.Kind),
		e.BasePrice, e.FinalPrice, e.Discount, e.Explanation,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("student %s already has a record for %s: %w", e.StudentID, e.Period, err)
		}
		return fmt.Errorf("failed to save enrollment: %w", err)
	}
	return nil
}

// ListEnrollments returns the records of a period.
func (s *Store) ListEnrollments(ctx context.Context, period billing.Period) ([]billing.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEnrollments(ctx, enrollmentSelect+`
		WHERE period = ?
		ORDER BY tutor_id, student_id
	`, period.String())
}

// ListEnrollmentsByTutor returns one tutor's records of a period.
func (s *Store) ListEnrollmentsByTutor(ctx context.Context, period billing.Period, tutorID string) ([]billing.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEnrollments(ctx, enrollmentSelect+`
		WHERE period = ? AND tutor_id = ?
		ORDER BY student_id
	`, period.String(), tutorID)
}

const enrollmentSelect = `
	SELECT id, period, student_id, tutor_id, activity_codes_json, branch, kind,
	       base_price, final_price, discount, explanation, created_at
	FROM monthly_enrollments
`

func (s *Store) queryEnrollments(ctx context.Context, query string, args ...any) ([]billing.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var result []billing.Enrollment
	for rows.Next() {
		var (
			e                           billing.Enrollment
			period, codesJSON, kind, at string
			branch                      int
		)
		err := rows.Scan(&e.ID, &period, &e.StudentID, &e.TutorID, &codesJSON, &branch, &kind,
			&e.BasePrice, &e.FinalPrice, &e.Discount, &e.Explanation, &at)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if e.Period, err = billing.ParsePeriod(period); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(codesJSON), &e.ActivityCodes); err != nil {
			return nil, fmt.Errorf("corrupt activity codes for %s: %w", e.ID, err)
		}
		e.Branch = pricing.Branch(branch)
		e.Kind = pricing.Kind(kind)
		e.CreatedAt, _ = time.Parse(time.RFC3339, at)
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// RUN LOG (billing.RunRecorder interface)
// =============================================================================

// SaveRun records a generation run.
func (s *Store) SaveRun(ctx context.Context, r billing.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO generation_runs
		(id, period, status, records, revenue, skipped, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			records = excluded.records,
			revenue = excluded.revenue,
			skipped = excluded.skipped,
			error = excluded.error,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Period.String(), string(r.Status), r.Records, r.Revenue, r.Skipped,
		nullString(r.Error),
		r.StartedAt.UTC().Format(time.RFC3339),
		r.CompletedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListRuns returns runs newest first, optionally for one period.
func (s *Store) ListRuns(ctx context.Context, period *billing.Period) ([]billing.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, period, status, records, revenue, skipped, error, started_at, completed_at
		FROM generation_runs
	`
	var args []any
	if period != nil {
		query += " WHERE period = ?"
		args = append(args, period.String())
	}
	query += " ORDER BY started_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []billing.Run
	for rows.Next() {
		var (
			r                            billing.Run
			p, status, started, finished string
			errText                      sql.NullString
		)
		if err := rows.Scan(&r.ID, &p, &status, &r.Records, &r.Revenue, &r.Skipped,
			&errText, &started, &finished); err != nil {
			return nil, err
		}
		if r.Period, err = billing.ParsePeriod(p); err != nil {
			return nil, err
		}
		r.Status = billing.RunStatus(status)
		r.Error = errText.String
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.CompletedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IsPeriodGenerated reports whether a completed run exists for the period.
func (s *Store) IsPeriodGenerated(ctx context.Context, period billing.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM generation_runs WHERE period = ? AND status = ?",
		period.String(), string(billing.RunCompleted),
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"monthly_enrollments", "generation_runs", "student_activities",
		"students", "activities", "tutors",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
