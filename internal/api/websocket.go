package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mealwise/internal/agents"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSConnection maintains the WebSocket connection with the client
type WSConnection struct {
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	server *Server
}

// ProgressEvent is streamed to the client as each agent starts and
// finishes.
type ProgressEvent struct {
	Type   string `json:"type"`
	Agent  string `json:"agent"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ResultEvent carries the final pipeline output.
type ResultEvent struct {
	Type     string          `json:"type"`
	Response string          `json:"response"`
	Session  *agents.Session `json:"session"`
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	wsConn := &WSConnection{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	// Start the read and write pumps
	go wsConn.writePump()
	go wsConn.readPump()
}

// readPump pumps messages from the WebSocket connection to the handler
func (c *WSConnection) readPump() {
	defer func() {
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512 * 1024) // 512KB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Handle the message
		c.handleMessage(message)
	}
}

// writePump pumps messages from the server to the WebSocket connection
func (c *WSConnection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The channel was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming recommendation requests
func (c *WSConnection) handleMessage(message []byte) {
	var req RecommendRequest
	if err := json.Unmarshal(message, &req); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		c.sendError("invalid request")
		return
	}

	// Run the pipeline in the background, streaming progress
	go func() {
		recorder := c.server.agentProgressRecorder()
		progress := func(role agents.AgentRole, done bool, err error) {
			recorder(role, done, err)
			c.sendProgress(role, done, err)
		}

		start := time.Now()
		response, session, apiErr := c.server.runRecommendation(context.Background(), &req, progress)
		c.server.recordRequestMetrics("recommendation_ws", time.Since(start), apiErr == nil)

		if apiErr != nil {
			c.sendError(apiErr.Message)
			return
		}
		c.sendResult(response, session)
	}()
}

// sendProgress streams an agent progress event to the client
func (c *WSConnection) sendProgress(role agents.AgentRole, done bool, err error) {
	event := ProgressEvent{
		Type:   "progress",
		Agent:  role.DisplayName(),
		Status: "started",
	}
	if done {
		event.Status = "completed"
		if err != nil {
			event.Status = "failed"
			event.Error = err.Error()
		}
	}
	c.enqueue(event)
}

// sendResult sends the final pipeline output to the client
func (c *WSConnection) sendResult(response string, session *agents.Session) {
	c.enqueue(ResultEvent{Type: "result", Response: response, Session: session})
}

// sendError sends an error message to the client
func (c *WSConnection) sendError(message string) {
	c.enqueue(map[string]string{"type": "error", "error": message})
}

func (c *WSConnection) enqueue(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case c.send <- data:
	default:
		log.Println("WebSocket buffer full, dropping message")
	}
}
