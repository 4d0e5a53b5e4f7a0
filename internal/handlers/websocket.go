package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every websocket frame.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is a log line broadcast to websocket clients.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// StatusUpdate is sent to each client on connect so it can render service
// state immediately. Clients compare ServerInstanceID across reconnects to
// detect a server restart and clear stale state.
type StatusUpdate struct {
	Service          string `json:"service"`
	Status           string `json:"status"`
	ServerInstanceID string `json:"serverInstanceId"`
}

// ScanUpdate mirrors the scan lifecycle event payload for websocket clients.
type ScanUpdate struct {
	RunID       string `json:"run_id"`
	IndexName   string `json:"index_name"`
	Direction   string `json:"direction,omitempty"`
	Status      string `json:"status"`
	ResultCount int    `json:"result_count,omitempty"`
	RankedCount int    `json:"ranked_count,omitempty"`
	TotalMs     int64  `json:"total_ms,omitempty"`
	Error       string `json:"error,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// WebSocketHandler fans scan lifecycle events and log lines out to every
// connected client. Each connection gets its own write mutex so concurrent
// broadcasts never interleave frames.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	allowedEvents    map[string]bool          // Whitelist of events to broadcast (empty = allow all)
	throttlers       map[string]*rate.Limiter // Rate limiters for high-frequency events
	serverInstanceID string
}

// NewWebSocketHandler creates the handler and subscribes it to scan events
// when an event service is provided.
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	// Empty whitelist means allow all events.
	h.allowedEvents = make(map[string]bool)
	if config != nil && len(config.AllowedEvents) > 0 {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}
		logger.Debug().
			Int("allowed_events", len(h.allowedEvents)).
			Msg("Initialized event whitelist for WebSocketHandler")
	}

	// No throttler for an event type means no throttling.
	h.throttlers = make(map[string]*rate.Limiter)
	if config != nil && len(config.ThrottleIntervals) > 0 {
		for eventType, intervalStr := range config.ThrottleIntervals {
			duration, err := time.ParseDuration(intervalStr)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("event_type", eventType).
					Str("interval", intervalStr).
					Msg("Failed to parse throttle interval - skipping throttler")
				continue
			}
			h.throttlers[eventType] = rate.NewLimiter(rate.Every(duration), 1)
			logger.Debug().
				Str("event_type", eventType).
				Str("interval", intervalStr).
				Msg("Throttler initialized for event type")
		}
	}

	if eventService != nil {
		h.SubscribeToScanEvents()
	}

	return h
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	// Send initial status
	h.sendStatus(conn)

	// Handle client disconnection
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// broadcast marshals the message once and writes it to every connected
// client under that client's write mutex.
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("message_type", msg.Type).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("message_type", msg.Type).Msg("Failed to send websocket message to client")
		}
	}
}

// BroadcastStatus sends a status update to all connected clients
func (h *WebSocketHandler) BroadcastStatus(status StatusUpdate) {
	h.broadcast(WSMessage{Type: "status", Payload: status})
}

// BroadcastScanUpdate sends a scan lifecycle update to all connected clients
func (h *WebSocketHandler) BroadcastScanUpdate(update ScanUpdate) {
	h.broadcast(WSMessage{Type: "scan_status", Payload: update})
}

// BroadcastLog sends a log entry to all connected clients
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast(WSMessage{Type: "log", Payload: entry})
}

// SendLog broadcasts a single log line with the current timestamp.
func (h *WebSocketHandler) SendLog(level, message string) {
	h.BroadcastLog(LogEntry{
		Timestamp: time.Now().Format("15:04:05"),
		Level:     strings.ToLower(level),
		Message:   message,
	})
}

// sendStatus sends current status to a specific client
func (h *WebSocketHandler) sendStatus(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "status",
		Payload: StatusUpdate{
			Service:          "ONLINE",
			Status:           "ONLINE",
			ServerInstanceID: h.serverInstanceID,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal initial status")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send initial status")
		}
	}
}

// SubscribeToScanEvents bridges scan lifecycle events from the event bus to
// websocket clients. Log entries published on the bus are forwarded on the
// log stream.
func (h *WebSocketHandler) SubscribeToScanEvents() {
	if h.eventService == nil {
		return
	}

	scanEvents := []interfaces.EventType{
		interfaces.EventScanStarted,
		interfaces.EventScanCompleted,
		interfaces.EventScanFailed,
	}
	for _, eventType := range scanEvents {
		et := eventType
		h.eventService.Subscribe(et, func(ctx context.Context, event interfaces.Event) error {
			h.handleScanEvent(string(et), event)
			return nil
		})
	}

	h.eventService.Subscribe(interfaces.EventLogEntry, func(ctx context.Context, event interfaces.Event) error {
		payload, ok := event.Payload.(map[string]interface{})
		if !ok {
			return nil
		}
		if !h.shouldBroadcastEvent(string(interfaces.EventLogEntry)) {
			return nil
		}

		entry := LogEntry{
			Timestamp: getString(payload, "timestamp"),
			Level:     getString(payload, "level"),
			Message:   getString(payload, "message"),
		}
		if entry.Timestamp == "" {
			entry.Timestamp = time.Now().Format("15:04:05")
		}
		h.BroadcastLog(entry)
		return nil
	})
}

// handleScanEvent converts a scan event payload into a websocket update.
func (h *WebSocketHandler) handleScanEvent(eventType string, event interfaces.Event) {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		h.logger.Warn().Str("event_type", eventType).Msg("Invalid scan event payload type")
		return
	}

	if !h.shouldBroadcastEvent(eventType) {
		return
	}

	update := ScanUpdate{
		RunID:       getString(payload, "run_id"),
		IndexName:   getString(payload, "index_name"),
		Direction:   getString(payload, "direction"),
		Status:      getString(payload, "status"),
		ResultCount: getInt(payload, "result_count"),
		RankedCount: getInt(payload, "ranked_count"),
		TotalMs:     int64(getInt(payload, "total_ms")),
		Error:       getString(payload, "error"),
		Timestamp:   getString(payload, "timestamp"),
	}
	if update.Timestamp == "" {
		update.Timestamp = time.Now().Format(time.RFC3339)
	}

	h.BroadcastScanUpdate(update)
}

// shouldBroadcastEvent checks the whitelist and the per-event rate limiter.
func (h *WebSocketHandler) shouldBroadcastEvent(eventType string) bool {
	if len(h.allowedEvents) > 0 && !h.allowedEvents[eventType] {
		return false
	}

	if limiter, ok := h.throttlers[eventType]; ok {
		if !limiter.Allow() {
			h.logger.Debug().
				Str("event_type", eventType).
				Msg("Event throttled - rate limit exceeded")
			return false
		}
	}

	return true
}

// Helper functions for safe type conversion from map[string]interface{}
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if val, ok := m[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
