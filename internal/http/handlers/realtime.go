package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/relocation-intake/internal/pkg/ctxutil"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(baseLog *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: baseLog.With("handler", "RealtimeHandler"), hub: hub}
}

// SSEStream subscribes the connection to the caller's channel, which carries job
// lifecycle events for their intake rounds. It blocks until the client disconnects.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	client := h.hub.NewSSEClient(userID)
	h.log.Info("SSEStream open", "user_id", userID.String(), "sse_client_id", client.ID.String())

	h.hub.AddChannel(client, userID.String())
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}
