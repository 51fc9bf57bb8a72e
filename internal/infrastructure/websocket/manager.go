package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"campusmarket/pkg/logger"
)

// WSMessage is the envelope for every frame on the realtime channel.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Manager tracks presence and conversation rooms for all live connections.
// A user may hold several connections at once (multi-tab); "online" means at
// least one of them is still open. Delivery is fire-and-forget: a frame that
// cannot be handed to a connection is dropped, the store stays authoritative.
type Manager struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
	rooms map[string]map[*Client]struct{}

	Register   chan *Client
	Unregister chan *Client
}

func NewManager() *Manager {
	return &Manager{
		users:      make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)

			case client := <-m.Unregister:
				m.removeClient(client)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) addClient(client *Client) {
	m.mu.Lock()
	conns, known := m.users[client.UserID]
	if !known {
		conns = make(map[*Client]struct{})
		m.users[client.UserID] = conns
	}
	conns[client] = struct{}{}
	first := len(conns) == 1
	m.mu.Unlock()

	logger.Info("WebSocket: client registered for user %s", client.UserID)

	if first {
		m.Broadcast(EventUserOnline, PresenceData{UserID: client.UserID})
	}
}

func (m *Manager) removeClient(client *Client) {
	m.mu.Lock()
	conns, known := m.users[client.UserID]
	if !known {
		m.mu.Unlock()
		return
	}
	if _, ok := conns[client]; !ok {
		m.mu.Unlock()
		return
	}

	delete(conns, client)
	last := len(conns) == 0
	if last {
		delete(m.users, client.UserID)
	}

	for roomID := range client.rooms {
		if members, ok := m.rooms[roomID]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(m.rooms, roomID)
			}
		}
	}
	m.mu.Unlock()

	client.closeSend()

	logger.Info("WebSocket: client unregistered for user %s", client.UserID)

	// Offline is only detected on connection close, so presence stays
	// approximate.
	if last {
		m.Broadcast(EventUserOffline, PresenceData{UserID: client.UserID})
	}
}

func (m *Manager) joinRoom(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		m.rooms[roomID] = members
	}
	members[client] = struct{}{}
	client.rooms[roomID] = struct{}{}
}

func (m *Manager) leaveRoom(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, ok := m.rooms[roomID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

// IsOnline reports whether the user has at least one live connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID]) > 0
}

// NotifyUser delivers an event to every open session of one user. It backs
// the caller-scoped notifications of the conversation service (unread
// resets, inbox removals).
func (m *Manager) NotifyUser(userID string, event string, payload interface{}) {
	frame, err := marshalFrame(event, payload)
	if err != nil {
		return
	}

	m.mu.RLock()
	conns := make([]*Client, 0, len(m.users[userID]))
	for client := range m.users[userID] {
		conns = append(conns, client)
	}
	m.mu.RUnlock()

	for _, client := range conns {
		client.enqueue(frame)
	}
}

// NotifyConversation delivers an event to every connection currently joined
// to the conversation's room.
func (m *Manager) NotifyConversation(conversationID string, event string, payload interface{}) {
	m.sendToRoom(conversationID, event, payload, "")
}

// Broadcast delivers an event to every live connection.
func (m *Manager) Broadcast(event string, payload interface{}) {
	frame, err := marshalFrame(event, payload)
	if err != nil {
		return
	}

	m.mu.RLock()
	var conns []*Client
	for _, clients := range m.users {
		for client := range clients {
			conns = append(conns, client)
		}
	}
	m.mu.RUnlock()

	for _, client := range conns {
		client.enqueue(frame)
	}
}

func (m *Manager) sendToRoom(roomID, event string, payload interface{}, exceptUserID string) {
	frame, err := marshalFrame(event, payload)
	if err != nil {
		return
	}

	m.mu.RLock()
	conns := make([]*Client, 0, len(m.rooms[roomID]))
	for client := range m.rooms[roomID] {
		if exceptUserID != "" && client.UserID == exceptUserID {
			continue
		}
		conns = append(conns, client)
	}
	m.mu.RUnlock()

	for _, client := range conns {
		client.enqueue(frame)
	}
}

func marshalFrame(event string, payload interface{}) ([]byte, error) {
	frame, err := json.Marshal(WSMessage{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s frame: %v", event, err)
		return nil, err
	}
	return frame, nil
}
