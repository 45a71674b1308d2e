package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/testutil"
	"github.com/Veraticus/leadflow/internal/testutil/leads"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, cat model.Categorization, checks ...HealthCheck) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return testNow }

	eng, err := engine.New(engine.Deps{
		Store:       db.Storage,
		Categorizer: testutil.NewFixedCategorizer(cat),
		Mailer:      &testutil.RecordingMailer{Now: testNow},
		Logger:      logger,
		Now:         now,
	})
	require.NoError(t, err)

	return NewRouter(Deps{Engine: eng, Logger: logger, Now: now, Version: "test", Checks: checks})
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type intakeResponse struct {
	Lead       model.Lead        `json:"lead"`
	RuleName   string            `json:"rule_name"`
	Assignment *model.Assignment `json:"assignment"`
	Approval   *struct {
		ID string `json:"id"`
	} `json:"approval"`
	FollowUp *struct {
		ID string `json:"id"`
	} `json:"follow_up"`
	EmailSent bool `json:"email_sent"`
}

func submitLead(t *testing.T, h http.Handler, name leads.LeadName) intakeResponse {
	t.Helper()
	sub, ok := leads.Submission(name)
	require.True(t, ok)
	w := do(t, h, http.MethodPost, "/api/leads", sub)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[intakeResponse](t, w)
}

var highArchitect = model.Categorization{
	Priority: model.PriorityHigh,
	Intent:   model.IntentQuoteRequest,
	LeadType: model.LeadTypeArchitect,
}

func TestCreateLead(t *testing.T) {
	h := newTestRouter(t, highArchitect)

	res := submitLead(t, h, leads.LeadArchitect)
	assert.Equal(t, "architect_vip", res.RuleName)
	assert.True(t, res.EmailSent)
	require.NotNil(t, res.Assignment)
	assert.Equal(t, testNow.Add(time.Hour), res.Assignment.SLADeadline)
	require.NotNil(t, res.Approval)
	require.NotNil(t, res.FollowUp)

	w := do(t, h, http.MethodGet, "/api/leads/"+res.Lead.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	details := decode[model.LeadDetails](t, w)
	assert.Len(t, details.Activities, 5)
	assert.Len(t, details.Products, 1)
}

func TestCreateLead_Validation(t *testing.T) {
	h := newTestRouter(t, highArchitect)

	w := do(t, h, http.MethodPost, "/api/leads", map[string]any{"name": "X", "email": "bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_submission", decode[APIError](t, w).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLead_AcceptsNumericAndTextQuantities(t *testing.T) {
	h := newTestRouter(t, highArchitect)

	body := `{"name":"Ada Stone","email":"ada@example.com","role":"Builder",
		"product_interests":[{"category":"Brick","product":"Clay Brick","quantity":250},
		{"category":"Mortar","product":"Type S","quantity":"a pallet"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Products []model.ProductInterest `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Products, 2)
	assert.Equal(t, "250", res.Products[0].Quantity.Raw)
	assert.True(t, res.Products[0].Quantity.Numeric)
	assert.Equal(t, "a pallet", res.Products[1].Quantity.Raw)
}

func TestLeadRoutes(t *testing.T) {
	h := newTestRouter(t, highArchitect)
	res := submitLead(t, h, leads.LeadArchitect)
	base := "/api/leads/" + res.Lead.ID

	w := do(t, h, http.MethodPut, base+"/status", map[string]string{"status": "contacted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "contacted", decode[map[string]any](t, w)["new_status"])

	w = do(t, h, http.MethodPut, base+"/status", map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, base, map[string]string{"company": "Whitfield & Co"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Whitfield & Co", decode[model.Lead](t, w).Company)

	w = do(t, h, http.MethodPost, base+"/recategorize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/leads?status=contacted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Lead](t, w), 1)

	w = do(t, h, http.MethodGet, "/api/leads?status=new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, h, http.MethodGet, "/api/leads?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/leads/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApprovalRoutes(t *testing.T) {
	h := newTestRouter(t, highArchitect)
	first := submitLead(t, h, leads.LeadArchitect)
	second := submitLead(t, h, leads.LeadArchitect)

	w := do(t, h, http.MethodGet, "/api/approvals/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = do(t, h, http.MethodPost, "/api/approvals/"+first.Approval.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/approvals/"+first.Approval.ID+"/approve", map[string]string{"notes": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/approvals/"+second.Approval.ID+"/reject", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reason_required", decode[APIError](t, w).Code)

	w = do(t, h, http.MethodPost, "/api/approvals/"+second.Approval.ID+"/reject", map[string]string{"reason": "margin"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/approvals/approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = do(t, h, http.MethodGet, "/api/approvals/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.ApprovalStats{Approved: 1, Rejected: 1, Total: 2}, decode[engine.ApprovalStats](t, w))
}

func TestFollowUpRoutes(t *testing.T) {
	h := newTestRouter(t, highArchitect)
	res := submitLead(t, h, leads.LeadArchitect)
	base := "/api/follow-ups/" + res.FollowUp.ID

	w := do(t, h, http.MethodGet, "/api/follow-ups/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]map[string]any](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "Dana Whitfield", items[0]["lead_name"])

	w = do(t, h, http.MethodPost, base+"/snooze", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, base+"/snooze", map[string]string{"snooze_until": "2025-03-10T00:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_snooze", decode[APIError](t, w).Code)

	w = do(t, h, http.MethodPost, base+"/snooze", map[string]string{"snooze_until": "2025-03-16T09:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/follow-ups/snoozed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = do(t, h, http.MethodPost, base+"/complete", map[string]string{"notes": "spoke with client"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/follow-ups/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.FollowUpStats{Completed: 1, Total: 1}, decode[engine.FollowUpStats](t, w))

	w = do(t, h, http.MethodGet, "/api/follow-ups/due", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestAssignmentAndAnalyticsRoutes(t *testing.T) {
	h := newTestRouter(t, highArchitect)
	res := submitLead(t, h, leads.LeadArchitect)

	w := do(t, h, http.MethodGet, "/api/assignments/violations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, h, http.MethodPost, "/api/assignments/"+res.Assignment.ID+"/reassign", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/assignments/"+res.Assignment.ID+"/reassign", map[string]string{"owner_id": "rep-2", "owner_name": "Rep Two"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	next := decode[model.Assignment](t, w)
	assert.Equal(t, "Rep Two", next.OwnerName)

	w = do(t, h, http.MethodPost, "/api/assignments/"+next.ID+"/complete", map[string]string{"completed_at": "2025-03-14T15:30:00Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[model.Assignment](t, w)
	require.NotNil(t, done.SLAMet)
	assert.True(t, *done.SLAMet)

	w = do(t, h, http.MethodGet, "/api/analytics/sla-performance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	perf := decode[engine.SLAPerformance](t, w)
	assert.Equal(t, 2, perf.TotalAssignments)
	assert.Equal(t, 1, perf.Completed)
	assert.Equal(t, 100.0, perf.SLAMetRate)

	w = do(t, h, http.MethodGet, "/api/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode[engine.Dashboard](t, w)
	assert.Equal(t, 1, dash.TotalLeads)
	assert.Equal(t, 1, dash.NewLeadsToday)

	w = do(t, h, http.MethodGet, "/api/analytics/conversion", nil)
	require.Equal(t, http.StatusOK, w.Code)
	funnel := decode[struct {
		Funnel []engine.FunnelStage `json:"funnel"`
	}](t, w)
	assert.Len(t, funnel.Funnel, len(model.LeadStatuses))
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	h := newTestRouter(t, highArchitect, ok)

	w := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])

	failing := HealthCheck{Name: "email", Check: func(context.Context) error { return errors.New("not configured") }}
	h = newTestRouter(t, highArchitect, ok, failing)
	w = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body = decode[map[string]any](t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error: not configured", body["services"].(map[string]any)["email"])
}

func TestRequestLogger_EchoesRequestID(t *testing.T) {
	h := newTestRouter(t, highArchitect)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = do(t, h, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
