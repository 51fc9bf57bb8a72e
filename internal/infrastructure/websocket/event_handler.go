package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"campusmarket/pkg/logger"
)

// Event types on the realtime channel. Client-to-server events are relayed
// to the relevant room without touching the store; the persisted layer is
// reconciled by the REST API.
const (
	EventPing        = "ping"
	EventPong        = "pong"
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventTyping      = "typing"
	EventSendMessage = "sendMessage"
	EventSeen        = "seen"

	EventReceiveMessage = "receiveMessage"
	EventDeliveredAck   = "deliveredAck"
	EventSeenAck        = "seenAck"
	EventUserOnline     = "userOnline"
	EventUserOffline    = "userOffline"
	EventUnreadUpdate   = "unreadUpdate"
	EventError          = "error"
)

type JoinChatData struct {
	ConversationID string `json:"conversation_id"`
}

type TypingData struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// RelayMessageData carries an optimistically sent message for immediate
// render on the other side. TempID is the sender's client-generated
// correlation id; delivered/seen acknowledgements echo it back so the sender
// can match them to its local copy.
type RelayMessageData struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Text           string `json:"text"`
	TempID         string `json:"temp_id"`
	CreatedAt      string `json:"created_at"`
}

type SeenData struct {
	ConversationID string `json:"conversation_id"`
	TempID         string `json:"temp_id"`
	SeenBy         string `json:"seen_by"`
}

type AckData struct {
	ConversationID string `json:"conversation_id"`
	TempID         string `json:"temp_id"`
}

type PresenceData struct {
	UserID string `json:"user_id"`
}

// UnreadUpdateData is emitted by the conversation service after a mutation.
// Action is one of "reset", "increment" or "delete".
type UnreadUpdateData struct {
	ConversationID string `json:"conversation_id"`
	Action         string `json:"action"`
}

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage dispatches one inbound frame from a connection.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("WebSocket: malformed frame from user %s: %v", client.UserID, err)
		m.sendError(client, "Invalid message format")
		return
	}

	switch frame.Type {
	case EventPing:
		client.enqueue(mustFrame(EventPong, map[string]string{"status": "alive"}))

	case EventJoinChat:
		var data JoinChatData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == "" {
			m.sendError(client, "Missing conversation_id")
			return
		}
		m.joinRoom(client, data.ConversationID)
		logger.Debug("WebSocket: user %s joined room %s", client.UserID, data.ConversationID)

	case EventLeaveChat:
		var data JoinChatData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == "" {
			m.sendError(client, "Missing conversation_id")
			return
		}
		m.leaveRoom(client, data.ConversationID)

	case EventTyping:
		var data TypingData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		data.UserID = client.UserID
		// The indicator expires client-side after ~1.2s of silence; the
		// server keeps no typing state.
		m.sendToRoom(data.ConversationID, EventTyping, data, client.UserID)

	case EventSendMessage:
		m.handleRelayMessage(client, frame.Data)

	case EventSeen:
		var data SeenData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == "" || data.TempID == "" {
			return
		}
		data.SeenBy = client.UserID
		m.sendToRoom(data.ConversationID, EventSeenAck, data, "")

	default:
		logger.Warn("WebSocket: unknown frame type %q from user %s", frame.Type, client.UserID)
		m.sendError(client, "Unknown message type")
	}
}

// handleRelayMessage fans a just-sent message out to the conversation room
// ahead of persistence and acknowledges delivery to the sender. The REST
// send is the durable path; this relay only accelerates rendering.
func (m *Manager) handleRelayMessage(client *Client, raw json.RawMessage) {
	var data RelayMessageData
	if err := json.Unmarshal(raw, &data); err != nil {
		m.sendError(client, "Invalid message payload")
		return
	}
	if data.ConversationID == "" || strings.TrimSpace(data.Text) == "" {
		m.sendError(client, "Missing required fields")
		return
	}

	data.SenderID = client.UserID
	if data.CreatedAt == "" {
		data.CreatedAt = time.Now().Format(time.RFC3339)
	}

	m.sendToRoom(data.ConversationID, EventReceiveMessage, data, "")
	m.sendToRoom(data.ConversationID, EventDeliveredAck, AckData{
		ConversationID: data.ConversationID,
		TempID:         data.TempID,
	}, "")
}

func (m *Manager) sendError(client *Client, message string) {
	client.enqueue(mustFrame(EventError, map[string]string{"error": message}))
}

func mustFrame(event string, payload interface{}) []byte {
	frame, _ := marshalFrame(event, payload)
	return frame
}
