package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/relocation-intake/internal/domain/events"
	"github.com/yungbote/relocation-intake/internal/http/response"
	"github.com/yungbote/relocation-intake/internal/pkg/ctxutil"
	"github.com/yungbote/relocation-intake/internal/services"
)

const (
	defaultLatestLimit = 20
	maxLatestLimit     = 200
)

// EventHandler exposes the caller's own event log. Events are written by the intake
// flow only; there is no ingest endpoint.
type EventHandler struct {
	events services.EventLog
}

func NewEventHandler(events services.EventLog) *EventHandler {
	return &EventHandler{events: events}
}

// GET /api/events?type=
func (h *EventHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID := ctxutil.UserID(ctx)
	eventType := strings.TrimSpace(c.Query("type"))
	if eventType == "" {
		evs, err := h.events.ListUserEvents(ctx, userID)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"events": evs})
		return
	}
	if !events.IsEventType(eventType) {
		response.RespondError(c, http.StatusBadRequest, "invalid_event_type", nil)
		return
	}
	evs, err := h.events.ListEventsByType(ctx, userID, eventType)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": evs})
}

// GET /api/events/latest?limit=
func (h *EventHandler) Latest(c *gin.Context) {
	limit := defaultLatestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = min(n, maxLatestLimit)
	}
	ctx := c.Request.Context()
	evs, err := h.events.ListLatestEvents(ctx, ctxutil.UserID(ctx), limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": evs})
}

// GET /api/events/summary
func (h *EventHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	sum, err := h.events.GetUserSummary(ctx, ctxutil.UserID(ctx))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}
