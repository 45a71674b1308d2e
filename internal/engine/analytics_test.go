package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/testutil"
	"github.com/Veraticus/leadflow/internal/testutil/leads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionFunnel(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b leads.Builder) leads.Builder {
		return b.WithFixture(leads.FixtureFullPipeline).
			WithStatus(leads.LeadArchitect, model.LeadStatusConverted).
			WithStatus(leads.LeadBuilder, model.LeadStatusQualified).
			WithStatus(leads.LeadContractor, model.LeadStatusQualified)
	})
	h := newHarnessWithDB(t, db, mediumHomeowner)

	funnel, err := h.engine.ConversionFunnel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []FunnelStage{
		{Status: model.LeadStatusNew, Count: 3},
		{Status: model.LeadStatusContacted, Count: 0},
		{Status: model.LeadStatusNurturing, Count: 0},
		{Status: model.LeadStatusQualified, Count: 2},
		{Status: model.LeadStatusConverted, Count: 1},
		{Status: model.LeadStatusLost, Count: 0},
	}, funnel)
}

func TestDashboardAndSLAPerformance(t *testing.T) {
	h := newHarness(t, highArchitect)
	ctx := context.Background()

	architect, err := h.engine.Submit(ctx, submission(t, leads.LeadArchitect))
	require.NoError(t, err)
	h.categorizer.Output = mediumHomeowner
	homeowner, err := h.engine.Submit(ctx, submission(t, leads.LeadHomeowner))
	require.NoError(t, err)
	_, err = h.engine.Submit(ctx, submission(t, leads.LeadContractor))
	require.NoError(t, err)

	_, err = h.engine.CompleteAssignment(ctx, architect.Assignment.ID, testNow.Add(20*time.Minute))
	require.NoError(t, err)
	_, err = h.engine.CompleteAssignment(ctx, homeowner.Assignment.ID, testNow.Add(25*time.Hour))
	require.NoError(t, err)
	_, err = h.engine.UpdateStatus(ctx, architect.Lead.ID, model.LeadStatusConverted, "")
	require.NoError(t, err)

	perf, err := h.engine.SLAPerformance(ctx)
	require.NoError(t, err)
	assert.Equal(t, SLAPerformance{
		TotalAssignments:       3,
		Completed:              2,
		SLAMetRate:             50,
		AvgResponseTimeMinutes: 760,
	}, perf)

	dash, err := h.engine.Dashboard(ctx, testNow.Add(26*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, dash.TotalLeads)
	assert.Equal(t, 0, dash.NewLeadsToday)
	assert.Equal(t, 3, dash.PendingFollowUps)
	assert.Equal(t, 1, dash.PendingApprovals)
	assert.Equal(t, 1, dash.SLAViolations)
	assert.Equal(t, 760.0, dash.AvgResponseTimeMinutes)
	assert.Equal(t, 33.33, dash.ConversionRate)

	today, err := h.engine.Dashboard(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, today.NewLeadsToday)
	assert.Equal(t, 0, today.SLAViolations)
}
