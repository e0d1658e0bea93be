package handler

import (
	"net/http"

	"github.com/clipfeed/clipfeed/internal/service"
)

type HealthHandler struct {
	feedService *service.FeedService
}

func NewHealthHandler(feedService *service.FeedService) *HealthHandler {
	return &HealthHandler{feedService: feedService}
}

type healthResponse struct {
	OK bool `json:"ok"`
	service.FeedStats
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{OK: true, FeedStats: h.feedService.Stats()})
}
