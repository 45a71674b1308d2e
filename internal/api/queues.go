package api

import (
	"net/http"
	"path"
	"time"

	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/gin-gonic/gin"
)

type notesRequest struct {
	Notes string `json:"notes"`
	Actor string `json:"actor"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

type snoozeRequest struct {
	SnoozeUntil *time.Time `json:"snooze_until"`
}

type reassignRequest struct {
	OwnerID   string     `json:"owner_id" binding:"required"`
	OwnerName string     `json:"owner_name"`
	Deadline  *time.Time `json:"sla_deadline"`
	Reason    string     `json:"reason"`
}

type completeAssignmentRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid request body", err)
		return false
	}
	return true
}

func (h *handler) listApprovals(c *gin.Context) {
	status := model.ActivityStatus(path.Base(c.FullPath()))
	approvals, err := h.engine.ListApprovals(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	if approvals == nil {
		approvals = []model.Activity{}
	}
	c.JSON(http.StatusOK, approvals)
}

func (h *handler) approvalStats(c *gin.Context) {
	stats, err := h.engine.ApprovalStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) approve(c *gin.Context) {
	var req notesRequest
	if !bindOptional(c, &req) {
		return
	}
	a, err := h.engine.Approve(c.Request.Context(), c.Param("id"), req.Notes, req.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": a.Status, "notes": req.Notes})
}

func (h *handler) reject(c *gin.Context) {
	var req rejectRequest
	if !bindOptional(c, &req) {
		return
	}
	a, err := h.engine.Reject(c.Request.Context(), c.Param("id"), req.Reason, req.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": a.Status, "reason": req.Reason})
}

func (h *handler) listFollowUps(c *gin.Context) {
	view := engine.FollowUpView(path.Base(c.FullPath()))
	items, err := h.engine.ListFollowUps(c.Request.Context(), view)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *handler) dueFollowUps(c *gin.Context) {
	items, err := h.engine.DueFollowUps(c.Request.Context(), h.now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *handler) followUpStats(c *gin.Context) {
	stats, err := h.engine.FollowUpStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) completeFollowUp(c *gin.Context) {
	var req notesRequest
	if !bindOptional(c, &req) {
		return
	}
	if _, err := h.engine.CompleteFollowUp(c.Request.Context(), c.Param("id"), req.Notes); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Follow-up marked as completed"})
}

func (h *handler) snoozeFollowUp(c *gin.Context) {
	var req snoozeRequest
	if !bindOptional(c, &req) {
		return
	}
	if req.SnoozeUntil == nil {
		badRequest(c, "snooze_until is required", nil)
		return
	}
	a, err := h.engine.SnoozeFollowUp(c.Request.Context(), c.Param("id"), *req.SnoozeUntil)
	if err != nil {
		writeError(c, err)
		return
	}
	until := a.Metadata.(*model.FollowUpMetadata).ScheduledFor
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Follow-up snoozed until " + until.Format(time.RFC3339),
	})
}

func (h *handler) slaViolations(c *gin.Context) {
	violations, err := h.engine.SLAViolations(c.Request.Context(), h.now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	if violations == nil {
		violations = []model.SLAViolation{}
	}
	c.JSON(http.StatusOK, violations)
}

func (h *handler) completeAssignment(c *gin.Context) {
	var req completeAssignmentRequest
	if !bindOptional(c, &req) {
		return
	}
	var at time.Time
	if req.CompletedAt != nil {
		at = *req.CompletedAt
	}
	a, err := h.engine.CompleteAssignment(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handler) reassign(c *gin.Context) {
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "owner_id is required", err)
		return
	}
	r := engine.Reassignment{OwnerID: req.OwnerID, OwnerName: req.OwnerName, Reason: req.Reason}
	if req.Deadline != nil {
		r.Deadline = *req.Deadline
	}
	a, err := h.engine.Reassign(c.Request.Context(), c.Param("id"), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handler) dashboard(c *gin.Context) {
	d, err := h.engine.Dashboard(c.Request.Context(), h.now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handler) conversion(c *gin.Context) {
	funnel, err := h.engine.ConversionFunnel(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funnel": funnel})
}

func (h *handler) slaPerformance(c *gin.Context) {
	p, err := h.engine.SLAPerformance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
