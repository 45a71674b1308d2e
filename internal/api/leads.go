package api

import (
	"net/http"
	"strconv"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultLeadLimit = 50

type statusRequest struct {
	Status model.LeadStatus `json:"status" binding:"required"`
	Actor  string           `json:"actor"`
}

func (h *handler) createLead(c *gin.Context) {
	var sub model.LeadSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	res, err := h.engine.Submit(c.Request.Context(), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handler) listLeads(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultLeadLimit)
	if err != nil {
		badRequest(c, "limit must be an integer", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, "offset must be an integer", err)
		return
	}

	leads, err := h.engine.ListLeads(c.Request.Context(), service.LeadFilter{
		Status: model.LeadStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

func (h *handler) getLead(c *gin.Context) {
	details, err := h.engine.GetLeadDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *handler) updateLead(c *gin.Context) {
	var update model.LeadUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	lead, err := h.engine.UpdateLead(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required", err)
		return
	}

	lead, err := h.engine.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "new_status": lead.Status, "lead": lead})
}

func (h *handler) recategorize(c *gin.Context) {
	result, err := h.engine.Recategorize(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ai_result": result})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
