package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendTimeout = 2 * time.Second
)

// Client - одно живое websocket-соединение. PlayerID стабилен между
// реконнектами (субъект JWT), Handle - одноразовый идентификатор именно
// этого подключения.
type Client struct {
	PlayerID string
	Handle   string
	Conn     *websocket.Conn
	Send     chan []byte
	Done     chan struct{}

	coord *Coordinator

	mu     sync.Mutex
	roomID string
}

func NewClient(playerID, handle string, conn *websocket.Conn, coord *Coordinator) *Client {
	return &Client{
		PlayerID: playerID,
		Handle:   handle,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Done:     make(chan struct{}),
		coord:    coord,
	}
}

func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoomID(id string) {
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

// push ставит кадр в очередь записи. Медленного клиента не ждем дольше
// sendTimeout - кадр теряется, состояние все равно восстановит game_sync
// при реконнекте.
func (c *Client) push(data []byte) {
	select {
	case c.Send <- data:
	case <-time.After(sendTimeout):
		log.Printf("Client.push: ❌ timeout sending to player=%s", c.PlayerID)
	}
}

func (c *Client) Run() {
	go c.writePump()

	// новому соединению сразу отдаем каталог комнат
	c.coord.Register(c)

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.coord.OnDisconnect(c)
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			log.Printf("Client.readPump: player=%s read error: %v", c.PlayerID, err)
			break
		}
		c.coord.HandleIntent(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("Client.writePump: player=%s write error: %v", c.PlayerID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
