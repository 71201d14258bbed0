package handlers

import (
	"log"
	"net/http"

	"gomoku_arena/internal/service"
	"gomoku_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func (h *Handler) WS() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Проверка JWT токена
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		playerID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		allowedOrigin := h.Cfg.AllowedOrigin
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		// обновление вебсокета
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("ws upgrade error:", err)
			return
		}

		// handle различает параллельные соединения одной личности:
		// реконнект с новой вкладки не путается со старым сокетом
		client := ws.NewClient(playerID, uuid.NewString(), conn, h.Coord)

		go client.Run()
	}
}
