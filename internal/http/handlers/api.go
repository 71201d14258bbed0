package handlers

import (
	"net/http"
	"strconv"

	"gomoku_arena/internal/domain"
	"gomoku_arena/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Выпуск анонимной гостевой личности. Клиент хранит токен и предъявляет
// его в query при открытии вебсокета.
func (h *Handler) GuestAuth(c *gin.Context) {
	token, playerID, err := service.IssueGuestToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"player_id": playerID,
	})
}

// Каталог комнат поверх обычного HTTP - то же, что room_list в сокете
func (h *Handler) Rooms(c *gin.Context) {
	list, err := h.Coord.Directory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	if list == nil {
		list = []domain.RoomSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": list})
}

// История партий игрока из postgres
func (h *Handler) MatchHistory(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}

	playerID := c.Query("player")
	if playerID == "" {
		// без явного параметра берем личность из токена
		token := c.Query("token")
		id, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		playerID = id
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx := c.Request.Context()
	matches, err := h.Matches.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	wins, err := h.Matches.CountWins(ctx, playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}

	if matches == nil {
		matches = []domain.Match{}
	}
	c.JSON(http.StatusOK, gin.H{
		"player_id": playerID,
		"wins":      wins,
		"matches":   matches,
	})
}
