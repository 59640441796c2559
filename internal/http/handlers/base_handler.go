// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nearmatch/internal/modules/location"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/modules/tracking"
	"nearmatch/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts Firebase-style UIDs: 1 to 128 ASCII letters, digits, '-' or '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

// pathID returns the :id parameter or writes 400 and returns false.
func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return types.ID(id), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracking.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, profile.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, location.ErrPermissionDenied):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, location.ErrServiceUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, tracking.ErrAlreadyActive), errors.Is(err, tracking.ErrStopped):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrStoreFailure):
		writeError(c, http.StatusServiceUnavailable, "store unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
