// Package protocol defines the room-scoped event bus carried over the
// websocket between clients and the relay. The server never interprets
// SDP or ICE payloads; they are opaque envelopes routed by target id.
package protocol

import (
	"encoding/json"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

// Message is the envelope for every event in both directions.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event names, client to server.
const (
	EventJoin           = "join"
	EventLeaveRoom      = "leaveRoom"
	EventCodeChange     = "codeChange"
	EventTyping         = "typing"
	EventLanguageChange = "languageChange"
	EventCompileCode    = "compileCode"
	EventJoinVideo      = "join-video"
	EventLeaveVideo     = "leave-video"
	EventOffer          = "offer"
	EventAnswer         = "answer"
	EventICECandidate   = "ice-candidate"
	EventVideoToggle    = "video-toggle"
	EventAudioToggle    = "audio-toggle"
	EventPositionChange = "video-position-change"
)

// Event names, server to clients.
const (
	// EventConnected is the transport handshake: it hands the client its
	// connection id, which is its participant identity everywhere.
	EventConnected = "connected"

	EventUserJoined         = "userJoined"
	EventCodeUpdate         = "codeUpdate"
	EventUserTyping         = "userTyping"
	EventLanguageUpdate     = "languageUpdate"
	EventCodeResponse       = "codeResponse"
	EventUserJoinedVideo    = "user-joined-video"
	EventExistingVideoUsers = "existing-video-users"
	EventUserLeftVideo      = "user-left-video"
	EventPositionUpdate     = "video-position-update"
)

// NewMessage wraps a payload value into an envelope.
func NewMessage(event string, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Event: event}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Event: event, Payload: b}, nil
}

// MustMessage is NewMessage for payload types that cannot fail to marshal.
func MustMessage(event string, payload any) *Message {
	m, err := NewMessage(event, payload)
	if err != nil {
		panic(err)
	}
	return m
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

// ConnectedPayload is sent once per connection, immediately after the
// websocket upgrade.
type ConnectedPayload struct {
	ParticipantID string `json:"participantId"`
}

// JoinPayload starts (or switches) a room membership for the connection.
type JoinPayload struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

// CodeChangePayload carries a full document replacement, last-writer-wins.
type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type TypingPayload struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

// CompilePayload is forwarded to the external execution service.
type CompilePayload struct {
	Code     string `json:"code"`
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
	Version  string `json:"version"`
	Stdin    string `json:"stdin"`
}

// CodeResponsePayload is broadcast to the whole room, exactly once per
// compile request. A failed execution is delivered the same way with Error
// set, never as a dropped response.
type CodeResponsePayload struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

type VideoRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SignalPayload is the envelope for offer / answer / ice-candidate events.
// Clients set TargetID; the relay rewrites the envelope with FromID (and,
// for offers, FromDisplayName) before forwarding to the target only.
type SignalPayload struct {
	RoomID          string          `json:"roomId,omitempty"`
	TargetID        string          `json:"targetId,omitempty"`
	FromID          string          `json:"fromId,omitempty"`
	FromDisplayName string          `json:"fromDisplayName,omitempty"`
	Offer           json.RawMessage `json:"offer,omitempty"`
	Answer          json.RawMessage `json:"answer,omitempty"`
	Candidate       json.RawMessage `json:"candidate,omitempty"`
}

// TogglePayload reports a camera or microphone flip; pure UI state, the
// media link itself is never renegotiated for a toggle.
type TogglePayload struct {
	RoomID  string `json:"roomId,omitempty"`
	FromID  string `json:"fromId,omitempty"`
	Enabled bool   `json:"enabled"`
}

type PositionChangePayload struct {
	RoomID        string        `json:"roomId"`
	ParticipantID string        `json:"participantId"`
	Position      room.Position `json:"position"`
}

type PositionUpdatePayload struct {
	ParticipantID string        `json:"participantId"`
	Position      room.Position `json:"position"`
}

type UserLeftVideoPayload struct {
	ParticipantID string `json:"participantId"`
}
