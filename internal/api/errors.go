package api

import (
	"errors"
	"net/http"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/gin-gonic/gin"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{common.ErrNotFound, http.StatusNotFound, "not_found"},
	{common.ErrInvalidSubmission, http.StatusUnprocessableEntity, "invalid_submission"},
	{common.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{common.ErrReasonRequired, http.StatusBadRequest, "reason_required"},
	{common.ErrInvalidSnooze, http.StatusBadRequest, "invalid_snooze"},
	{common.ErrAlreadyResolved, http.StatusConflict, "already_resolved"},
	{common.ErrWrongActivityType, http.StatusConflict, "wrong_activity_type"},
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, APIError{Code: e.code, Message: err.Error()})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, APIError{
		Code:    "internal",
		Message: http.StatusText(http.StatusInternalServerError),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(http.StatusBadRequest, APIError{Code: "bad_request", Message: message})
}
