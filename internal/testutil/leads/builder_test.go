package leads_test

import (
	"context"
	"testing"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/Veraticus/leadflow/internal/testutil"
	"github.com/Veraticus/leadflow/internal/testutil/leads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_WithLead(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b leads.Builder) leads.Builder {
		return b.WithLead(leads.LeadArchitect)
	})
	ctx := context.Background()

	seeded := db.Leads.MustFind(t, leads.LeadArchitect)
	got, err := db.Storage.GetLead(ctx, seeded.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Architect", got.Role)
	assert.Equal(t, model.LeadStatusNew, got.Status)

	products, err := db.Storage.ListProducts(ctx, seeded.Lead.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "5000", products[0].Quantity.Raw)
}

func TestBuilder_FixtureAndStatus(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b leads.Builder) leads.Builder {
		return b.WithFixture(leads.FixtureFullPipeline).
			WithStatus(leads.LeadBuilder, model.LeadStatusConverted)
	})

	all, err := db.Storage.ListLeads(context.Background(), service.LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(leads.FixtureFullPipeline.Leads()))

	converted, err := db.Storage.ListLeads(context.Background(), service.LeadFilter{Status: model.LeadStatusConverted})
	require.NoError(t, err)
	require.Len(t, converted, 1)
	assert.Equal(t, leads.LeadBuilder.String(), converted[0].Name)
}

func TestSubmission_ReturnsCopy(t *testing.T) {
	sub, ok := leads.Submission(leads.LeadBuilder)
	require.True(t, ok)
	sub.Products[0].Product = "changed"

	again, _ := leads.Submission(leads.LeadBuilder)
	assert.Equal(t, "Double Hung Window", again.Products[0].Product)

	_, ok = leads.Submission("Nobody")
	assert.False(t, ok)
}
