// README: Profile writes, device token registration and the current match list.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"nearmatch/internal/modules/profile"
	"nearmatch/internal/modules/tracking"
	"nearmatch/internal/types"
)

type ProfileWriter interface {
	Upsert(ctx context.Context, p profile.Profile) error
	SetDeviceToken(ctx context.Context, id types.ID, token string) error
}

type ProfileHandler struct {
	profiles ProfileWriter
	engine   *tracking.Engine
}

func NewProfileHandler(profiles ProfileWriter, engine *tracking.Engine) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, engine: engine}
}

func (h *ProfileHandler) Put(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid profile body")
		return
	}
	p := req.toProfile(id)
	if err := h.profiles.Upsert(c.Request.Context(), p); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

type deviceTokenRequest struct {
	Token string `json:"token"`
}

// DeviceToken registers the FCM token; an empty token revokes notifications.
func (h *ProfileHandler) DeviceToken(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid token body")
		return
	}
	if err := h.profiles.SetDeviceToken(c.Request.Context(), id, req.Token); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *ProfileHandler) Matches(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	views, err := h.engine.CurrentMatches(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": views})
}
