package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/billing"
	"github.com/mateatletas/cuotas/store/sqlite"
)

func TestRun_GeneratesPeriod(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cuotas.db")
	ctx := context.Background()

	// GIVEN a database with one solo student
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SaveTutor(ctx, sqlite.Tutor{ID: "t1", Name: "Laura"}))
	require.NoError(t, store.SaveStudent(ctx, sqlite.StudentRecord{ID: "s1", TutorID: "t1", Name: "Ana"}))
	require.NoError(t, store.SaveActivity(ctx, sqlite.ActivityRecord{Code: "chess", Name: "Chess"}))
	mar, _ := billing.ParsePeriod("2026-03")
	require.NoError(t, store.Enroll(ctx, "s1", "chess", mar, nil))
	require.NoError(t, store.Close())

	// WHEN the command runs for March
	var out bytes.Buffer
	err = run([]string{"-period", "2026-03", "-db", dbPath, "-env", filepath.Join(t.TempDir(), "none.env")}, &out)

	// THEN the summary is printed
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2026-03")
	assert.Contains(t, out.String(), "50000")
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer

	assert.Error(t, run([]string{}, &out))
	assert.ErrorIs(t, run([]string{"-period", "2026-13"}, &out), billing.ErrInvalidPeriod)
}

func TestRun_PrintPricing(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-print-pricing"}, &out))
	assert.Contains(t, out.String(), `"single_activity_price": 50000`)
}
