package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// ChatMessage is the wire shape on the support chat socket. Inbound
// messages carry type "message" with content, userId and timestamp;
// replies are either {type:"message", content} or {type:"error", message}.
type ChatMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Message   string `json:"message,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ParseChatMessage validates one inbound frame. A non-nil error reply
// means the frame was rejected and the reply should go back to the sender.
func ParseChatMessage(raw []byte) (*ChatMessage, *ChatMessage) {
	var msg ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &ChatMessage{Type: "error", Message: "invalid message format"}
	}
	if msg.Type != "message" {
		return nil, &ChatMessage{Type: "error", Message: "unsupported message type: " + msg.Type}
	}
	if msg.Content == "" {
		return nil, &ChatMessage{Type: "error", Message: "message content is required"}
	}
	return &msg, nil
}

type ChatClient struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	relay  *ChatRelay
}

// ChatRelay is the hub behind the support chat modal. Every connected
// client receives every accepted message; a single Run loop owns the
// client map.
type ChatRelay struct {
	clients    map[*ChatClient]bool
	broadcast  chan []byte
	register   chan *ChatClient
	unregister chan *ChatClient
	once       sync.Once
}

func NewChatRelay() *ChatRelay {
	return &ChatRelay{
		clients:    make(map[*ChatClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *ChatClient),
		unregister: make(chan *ChatClient),
	}
}

// Start launches the hub loop. Safe to call more than once.
func (r *ChatRelay) Start() {
	r.once.Do(func() {
		go r.run()
	})
}

func (r *ChatRelay) run() {
	for {
		select {
		case client := <-r.register:
			r.clients[client] = true
		case client := <-r.unregister:
			if _, ok := r.clients[client]; ok {
				delete(r.clients, client)
				close(client.Send)
			}
		case data := <-r.broadcast:
			for client := range r.clients {
				select {
				case client.Send <- data:
				default:
					close(client.Send)
					delete(r.clients, client)
				}
			}
		}
	}
}

// Join attaches a websocket connection to the relay and starts its pumps.
func (r *ChatRelay) Join(conn *websocket.Conn, userID string) {
	client := &ChatClient{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 16),
		relay:  r,
	}
	r.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *ChatClient) readPump() {
	defer func() {
		c.relay.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("chat read error for user %s: %v", c.UserID, err)
			}
			return
		}

		msg, errReply := ParseChatMessage(raw)
		if errReply != nil {
			data, _ := json.Marshal(errReply)
			select {
			case c.Send <- data:
			default:
			}
			continue
		}

		// stamp the sender server-side; clients cannot speak for others
		msg.UserID = c.UserID
		if msg.Timestamp == 0 {
			msg.Timestamp = time.Now().UnixMilli()
		}

		reply := ChatMessage{Type: "message", Content: msg.Content, UserID: msg.UserID, Timestamp: msg.Timestamp}
		data, err := json.Marshal(reply)
		if err != nil {
			continue
		}
		c.relay.broadcast <- data
	}
}

func (c *ChatClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
