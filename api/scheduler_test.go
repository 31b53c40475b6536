package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/api"
	"github.com/mateatletas/cuotas/billing"
)

func TestScheduler_GeneratesCurrentMonthOnce(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	rec := ts.do(t, "POST", "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "siblings-basic", Period: "2026-05"})
	require.Equal(t, 200, rec.Code)

	s := api.NewGenerationScheduler(ts.handler)
	s.Now = func() time.Time { return time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC) }

	// WHEN the scheduler checks twice in the same month
	assert.True(t, s.CheckAndGenerate(ctx))
	assert.False(t, s.CheckAndGenerate(ctx))

	// THEN exactly one completed run exists
	may := billing.Period{Year: 2026, Month: time.May}
	runs, err := ts.store.ListRuns(ctx, &may)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, billing.RunCompleted, runs[0].Status)
	assert.Equal(t, int64(2*44000), runs[0].Revenue)
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	ts := newTestServer(t)

	s := api.NewGenerationScheduler(ts.handler)
	s.Start()
	s.Stop()

	runs, err := ts.store.ListRuns(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
