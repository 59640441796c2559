// README: Device location uploads and location permission/service status.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nearmatch/internal/modules/location"
	"nearmatch/internal/modules/tracking"
	"nearmatch/internal/types"
)

type LocationHandler struct {
	engine *tracking.Engine
}

func NewLocationHandler(engine *tracking.Engine) *LocationHandler {
	return &LocationHandler{engine: engine}
}

type locationRequest struct {
	Lat       *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng       *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
	AccuracyM float64  `json:"accuracy_m" binding:"gte=0"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid location")
		return
	}
	fix := types.Coordinate{Lat: *req.Lat, Lng: *req.Lng, AccuracyM: req.AccuracyM}
	if err := h.engine.RecordLocation(c.Request.Context(), id, fix); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

type statusRequest struct {
	Enabled    bool   `json:"enabled"`
	Permission string `json:"permission" binding:"required,oneof=unknown denied denied_forever while_in_use always"`
}

// Status records what the device reports about its location service and
// permission; the next Start is checked against it.
func (h *LocationHandler) Status(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid status")
		return
	}
	h.engine.Provider(id).SetStatus(req.Enabled, location.PermissionState(req.Permission))
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
