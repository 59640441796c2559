// README: Tracking session handlers: start, stop and the server-sent event stream.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nearmatch/internal/modules/profile"
	"nearmatch/internal/modules/tracking"
	"nearmatch/internal/types"
)

type TrackingHandler struct {
	engine *tracking.Engine
	log    *zap.Logger
}

func NewTrackingHandler(engine *tracking.Engine, log *zap.Logger) *TrackingHandler {
	return &TrackingHandler{engine: engine, log: log}
}

type profileRequest struct {
	Name      string   `json:"name"`
	Age       int      `json:"age" binding:"gte=0,lte=130"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

func (r profileRequest) toProfile(id types.ID) profile.Profile {
	return profile.Profile{
		UserID:    id,
		Name:      r.Name,
		Age:       r.Age,
		Bio:       r.Bio,
		Interests: profile.NormalizeInterests(r.Interests),
	}
}

// Start begins tracking. An optional JSON profile body overrides the stored one.
func (h *TrackingHandler) Start(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var override *profile.Profile
	if c.Request.ContentLength > 0 {
		var req profileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid profile body")
			return
		}
		p := req.toProfile(id)
		override = &p
	}

	if _, err := h.engine.StartTracking(c.Request.Context(), id, override); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": string(tracking.StateActive)})
}

func (h *TrackingHandler) Stop(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.engine.StopTracking(id)
	writeJSON(c, http.StatusOK, gin.H{"status": string(tracking.StateStopped)})
}

// Events streams the running session's events until it stops or the client leaves.
func (h *TrackingHandler) Events(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if h.engine.State(id) != tracking.StateActive {
		writeError(c, http.StatusConflict, "tracking is not active")
		return
	}
	events := h.engine.Events(id)
	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case ev, open := <-events:
			if !open {
				c.SSEvent("stopped", gin.H{"status": string(tracking.StateStopped)})
				return false
			}
			c.SSEvent(string(ev.Kind), ev)
			return true
		}
	})
	h.log.Debug("event stream closed", zap.String("user_id", string(id)))
}
