package handler

import (
	"net/http"

	"notespace/config"
	"notespace/services"
	"notespace/usecase"
	"notespace/utils"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the process-level endpoints: health and the
// notification feed.
type StatsHandler struct {
	sessions *usecase.SessionManager
	feed     *services.NotificationFeed
	backend  string
}

func NewStatsHandler(sessions *usecase.SessionManager, feed *services.NotificationFeed, backend string) *StatsHandler {
	return &StatsHandler{
		sessions: sessions,
		feed:     feed,
		backend:  backend,
	}
}

// Health answers 200 while the remote service is reachable and 503
// otherwise. The body is the same in both cases.
func (h *StatsHandler) Health(c *gin.Context) {
	connected := h.sessions.Connected()

	body := gin.H{
		"status":    "ok",
		"connected": connected,
		"session":   h.sessions.State(),
		"backend":   h.backend,
		"system":    utils.GetSystemStats(c.Request.Context()),
	}
	if h.backend == config.BackendMongo {
		body["mongo_pool"] = utils.GetMongoPoolStats()
	}

	status := http.StatusOK
	if !connected {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, &utils.Response{Status: status, Data: body})
}

// Notifications hands out and forgets every pending notification.
func (h *StatsHandler) Notifications(c *gin.Context) {
	notifications := h.feed.Drain()
	utils.Success(c, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}
