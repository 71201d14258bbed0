package handlers

import (
	"github.com/gin-gonic/gin"

	"gomoku_arena/internal/config"
	"gomoku_arena/internal/repository"
	"gomoku_arena/internal/ws"
)

type Handler struct {
	Coord   *ws.Coordinator
	Matches *repository.MatchRepository // nil, если postgres не настроен
	Cfg     *config.Config
}

func New(coord *ws.Coordinator, matches *repository.MatchRepository, cfg *config.Config) *Handler {
	return &Handler{Coord: coord, Matches: matches, Cfg: cfg}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/ws", h.WS())

	api := r.Group("/api")
	{
		api.POST("/auth/guest", h.GuestAuth)
		api.GET("/rooms", h.Rooms)
		api.GET("/matches", h.MatchHistory)
	}
}
