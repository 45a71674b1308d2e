package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// createTestStorage opens a migrated database in a temp directory.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testLead(id string, created time.Time) *model.Lead {
	return &model.Lead{
		ID:        id,
		Name:      "Jane Architect",
		Email:     "jane@studio.example",
		Phone:     "+1 415 555 0100",
		Company:   "Studio J",
		Role:      "Architect",
		Location:  "San Francisco",
		Message:   "Need a quote",
		Source:    model.DefaultLeadSource,
		Status:    model.LeadStatusNew,
		CreatedAt: created,
	}
}

func seedLead(t *testing.T, s *SQLiteStorage, id string, created time.Time) *model.Lead {
	t.Helper()
	lead := testLead(id, created)
	require.NoError(t, s.CreateLead(context.Background(), lead))
	return lead
}

func TestSQLiteStorage_LeadRoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	lead := seedLead(t, store, "lead-1", baseTime)

	got, err := store.GetLead(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, lead.Name, got.Name)
	assert.Equal(t, lead.Email, got.Email)
	assert.Equal(t, lead.Role, got.Role)
	assert.Equal(t, model.LeadStatusNew, got.Status)
	assert.True(t, got.CreatedAt.Equal(baseTime))
	assert.True(t, got.UpdatedAt.Equal(baseTime), "updated_at defaults to created_at")
	assert.Nil(t, got.LastContactAt)

	contacted := baseTime.Add(2 * time.Hour)
	got.Status = model.LeadStatusContacted
	got.LastContactAt = &contacted
	got.UpdatedAt = contacted
	require.NoError(t, store.UpdateLead(ctx, got))

	again, err := store.GetLead(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, again.Status)
	require.NotNil(t, again.LastContactAt)
	assert.True(t, again.LastContactAt.Equal(contacted))
}

func TestSQLiteStorage_NotFound(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		call func() error
		name string
	}{
		{name: "get lead", call: func() error { _, err := store.GetLead(ctx, "missing"); return err }},
		{name: "update lead", call: func() error { return store.UpdateLead(ctx, testLead("missing", baseTime)) }},
		{name: "get activity", call: func() error { _, err := store.GetActivity(ctx, "missing"); return err }},
		{name: "get assignment", call: func() error { _, err := store.GetAssignment(ctx, "missing"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrNotFound), "got %v", err)
		})
	}
}

func TestSQLiteStorage_DuplicateLeadIsPersistenceError(t *testing.T) {
	store := createTestStorage(t)
	seedLead(t, store, "lead-1", baseTime)

	err := store.CreateLead(context.Background(), testLead("lead-1", baseTime))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestSQLiteStorage_ListLeads(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		seedLead(t, store, id, baseTime.Add(time.Duration(i)*time.Minute))
	}
	lost, err := store.GetLead(ctx, "b")
	require.NoError(t, err)
	lost.Status = model.LeadStatusLost
	require.NoError(t, store.UpdateLead(ctx, lost))

	ids := func(leads []model.Lead) []string {
		out := make([]string, 0, len(leads))
		for _, l := range leads {
			out = append(out, l.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		want   []string
		filter service.LeadFilter
	}{
		{name: "all newest first", want: []string{"d", "c", "b", "a"}},
		{name: "status", filter: service.LeadFilter{Status: model.LeadStatusNew}, want: []string{"d", "c", "a"}},
		{name: "limit", filter: service.LeadFilter{Limit: 2}, want: []string{"d", "c"}},
		{name: "limit and offset", filter: service.LeadFilter{Limit: 2, Offset: 2}, want: []string{"b", "a"}},
		{name: "offset only", filter: service.LeadFilter{Offset: 3}, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads, err := store.ListLeads(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(leads))
		})
	}
}

func TestSQLiteStorage_Products(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)

	products := []model.ProductInterest{
		{ID: "p1", LeadID: "lead-1", Category: "Tile", Product: "Marble Hex", Quantity: model.NumericQuantity(150), CreatedAt: baseTime},
		{ID: "p2", LeadID: "lead-1", Category: "Stone", Product: "Slate", Quantity: model.TextQuantity(" 40 "), Notes: "grey", CreatedAt: baseTime},
		{ID: "p3", LeadID: "lead-1", Category: "Stone", Product: "Granite", CreatedAt: baseTime},
	}
	require.NoError(t, store.CreateProducts(ctx, products))

	got, err := store.ListProducts(ctx, "lead-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Marble Hex", got[0].Product)
	assert.Equal(t, model.NumericQuantity(150), got[0].Quantity)
	assert.Equal(t, model.TextQuantity(" 40 "), got[1].Quantity)
	assert.Equal(t, "grey", got[1].Notes)
	assert.True(t, got[2].Quantity.IsZero())

	none, err := store.ListProducts(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_CreateProductsIsAtomic(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)

	products := []model.ProductInterest{
		{ID: "p1", LeadID: "lead-1", Category: "Tile", Product: "Marble", CreatedAt: baseTime},
		{ID: "p1", LeadID: "lead-1", Category: "Tile", Product: "Marble again", CreatedAt: baseTime},
	}
	require.Error(t, store.CreateProducts(ctx, products))

	got, err := store.ListProducts(ctx, "lead-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStorage_ActivityMetadataRoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)

	tests := []struct {
		meta model.ActivityMetadata
		name string
	}{
		{name: "ai result", meta: &model.AIResultMetadata{
			RuleName: model.RuleArchitectVIP,
			CategorizationResult: model.CategorizationResult{
				Timestamp:     baseTime,
				Model:         "gpt-4o-mini",
				PromptVersion: "v1.1",
				Method:        model.MethodAI,
				Attempt:       2,
				Input:         model.CategorizationInput{Role: "Architect", Products: []string{"Marble"}},
				Output: model.Categorization{
					Priority: model.PriorityHigh, Intent: model.IntentQuoteRequest,
					LeadType: model.LeadTypeArchitect, SuggestedActions: []string{"call"},
				},
			},
		}},
		{name: "follow up", meta: &model.FollowUpMetadata{
			ScheduledFor: baseTime.Add(30 * time.Minute),
			Action:       model.FollowUpCall,
			Reason:       "high priority",
			Priority:     model.PriorityHigh,
		}},
		{name: "approval", meta: &model.ApprovalMetadata{
			CreatedAt:      baseTime,
			ApprovalType:   model.ApprovalBulkDiscount,
			LeadName:       "Jane",
			LeadEmail:      "jane@studio.example",
			Priority:       model.PriorityHigh,
			MatchedReasons: []model.ApprovalReason{model.ApprovalLargeQuantity, model.ApprovalBulkDiscount},
			Details:        model.ApprovalDetails{Keywords: []string{"bulk"}},
		}},
		{name: "status change", meta: &model.StatusChangeMetadata{
			OldStatus: model.LeadStatusNew, NewStatus: model.LeadStatusContacted, ChangedBy: "ops",
		}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &model.Activity{
				ID:        "act-" + string(rune('a'+i)),
				LeadID:    "lead-1",
				Type:      tt.meta.ActivityType(),
				Status:    model.ActivityPending,
				Message:   tt.name,
				ActorType: model.ActorSystem,
				Metadata:  tt.meta,
				CreatedAt: baseTime,
			}
			require.NoError(t, store.CreateActivity(ctx, a))

			got, err := store.GetActivity(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, a.Type, got.Type)
			assert.Equal(t, tt.meta, got.Metadata)
		})
	}
}

func TestSQLiteStorage_CreateActivityIsIdempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)

	a := &model.Activity{
		ID: "act-1", LeadID: "lead-1", Type: model.ActivityNote, Status: model.ActivityCompleted,
		Message: "first", ActorType: model.ActorUser, CreatedAt: baseTime,
	}
	require.NoError(t, store.CreateActivity(ctx, a))

	retry := *a
	retry.Message = "second"
	require.NoError(t, store.CreateActivity(ctx, &retry))

	all, err := store.ListActivities(ctx, service.ActivityFilter{LeadID: "lead-1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "first", all[0].Message)
}

func TestSQLiteStorage_ActivityMetadataTypeMismatch(t *testing.T) {
	store := createTestStorage(t)
	seedLead(t, store, "lead-1", baseTime)

	a := &model.Activity{
		ID: "act-1", LeadID: "lead-1", Type: model.ActivityEmail, Status: model.ActivityCompleted,
		ActorType: model.ActorSystem, Metadata: &model.NoteMetadata{}, CreatedAt: baseTime,
	}
	err := store.CreateActivity(context.Background(), a)
	assert.ErrorIs(t, err, ErrInvalidActivity)
}

func TestSQLiteStorage_ListActivities(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)
	seedLead(t, store, "lead-2", baseTime)

	add := func(id, lead string, typ model.ActivityType, status model.ActivityStatus, offset time.Duration) {
		meta, err := model.DecodeMetadata(typ, nil)
		require.NoError(t, err)
		require.NoError(t, store.CreateActivity(ctx, &model.Activity{
			ID: id, LeadID: lead, Type: typ, Status: status, ActorType: model.ActorSystem,
			Metadata: meta, CreatedAt: baseTime.Add(offset),
		}))
	}
	add("a1", "lead-1", model.ActivityAIResult, model.ActivityCompleted, 0)
	add("a2", "lead-1", model.ActivityFollowUp, model.ActivityPending, time.Second)
	add("a3", "lead-2", model.ActivityFollowUp, model.ActivityCompleted, 2*time.Second)
	add("a4", "lead-2", model.ActivityApproval, model.ActivityPending, 3*time.Second)
	// Same timestamp as a4; insertion order breaks the tie.
	add("a5", "lead-2", model.ActivityNote, model.ActivityCompleted, 3*time.Second)

	ids := func(list []model.Activity) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		want   []string
		filter service.ActivityFilter
	}{
		{name: "all", want: []string{"a1", "a2", "a3", "a4", "a5"}},
		{name: "newest first", filter: service.ActivityFilter{NewestFirst: true}, want: []string{"a5", "a4", "a3", "a2", "a1"}},
		{name: "by lead", filter: service.ActivityFilter{LeadID: "lead-1"}, want: []string{"a1", "a2"}},
		{name: "by type", filter: service.ActivityFilter{Type: model.ActivityFollowUp}, want: []string{"a2", "a3"}},
		{name: "pending follow-ups", filter: service.ActivityFilter{Type: model.ActivityFollowUp, Status: model.ActivityPending}, want: []string{"a2"}},
		{name: "limit", filter: service.ActivityFilter{NewestFirst: true, Limit: 2}, want: []string{"a5", "a4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListActivities(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSQLiteStorage_UpdateActivity(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)

	a := &model.Activity{
		ID: "fu-1", LeadID: "lead-1", Type: model.ActivityFollowUp, Status: model.ActivityPending,
		ActorType: model.ActorSystem, CreatedAt: baseTime,
		Metadata: &model.FollowUpMetadata{ScheduledFor: baseTime, Action: model.FollowUpCall, Priority: model.PriorityHigh},
	}
	require.NoError(t, store.CreateActivity(ctx, a))

	done := baseTime.Add(time.Hour)
	meta := a.Metadata.(*model.FollowUpMetadata)
	meta.CompletedAt = &done
	meta.CompletionNotes = "left voicemail"
	a.Status = model.ActivityCompleted
	a.ActorType = model.ActorUser
	a.ActorID = "sam"
	a.UpdatedAt = done
	require.NoError(t, store.UpdateActivity(ctx, a))

	got, err := store.GetActivity(ctx, "fu-1")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityCompleted, got.Status)
	assert.Equal(t, "sam", got.ActorID)
	gotMeta, ok := got.Metadata.(*model.FollowUpMetadata)
	require.True(t, ok)
	assert.Equal(t, "left voicemail", gotMeta.CompletionNotes)
	require.NotNil(t, gotMeta.CompletedAt)
	assert.True(t, gotMeta.CompletedAt.Equal(done))
}

func TestSQLiteStorage_Assignments(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)

	a := &model.Assignment{
		ID: "as-1", LeadID: "lead-1", OwnerID: model.SystemOwnerID, OwnerName: model.SystemOwnerName,
		Status: model.AssignmentActive, AssignedAt: baseTime, SLADeadline: baseTime.Add(time.Hour),
	}
	require.NoError(t, store.CreateAssignment(ctx, a))

	got, err := store.GetAssignment(ctx, "as-1")
	require.NoError(t, err)
	assert.Nil(t, got.SLAMet)
	assert.Nil(t, got.ResponseTimeMinutes)
	assert.True(t, got.SLADeadline.Equal(baseTime.Add(time.Hour)))

	got.Complete(baseTime.Add(45 * time.Minute))
	require.NoError(t, store.UpdateAssignment(ctx, got))

	done, err := store.GetAssignment(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentCompleted, done.Status)
	require.NotNil(t, done.SLAMet)
	assert.True(t, *done.SLAMet)
	require.NotNil(t, done.ResponseTimeMinutes)
	assert.Equal(t, 45, *done.ResponseTimeMinutes)

	active, err := store.ListAssignments(ctx, service.AssignmentFilter{Status: model.AssignmentActive})
	require.NoError(t, err)
	assert.Empty(t, active)

	byLead, err := store.ListAssignments(ctx, service.AssignmentFilter{LeadID: "lead-1"})
	require.NoError(t, err)
	assert.Len(t, byLead, 1)
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(context.Background()))

	seedLead(t, store, "lead-1", baseTime)
	leads, err := store.ListLeads(context.Background(), service.LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestSQLiteStorage_Backup(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedLead(t, store, "lead-1", baseTime)
	seedLead(t, store, "lead-2", baseTime)

	dest := filepath.Join(t.TempDir(), "backups", "leads.db")
	info, err := store.Backup(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, info.RowCounts["leads"])
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.Positive(t, info.FileSize)
	assert.FileExists(t, dest+".meta.json")

	restored, err := NewSQLiteStorage(dest)
	require.NoError(t, err)
	defer func() { _ = restored.Close() }()
	got, err := restored.GetLead(ctx, "lead-2")
	require.NoError(t, err)
	assert.Equal(t, "Jane Architect", got.Name)

	_, err = store.Backup(ctx, dest)
	assert.ErrorIs(t, err, ErrBackupExists)
}
