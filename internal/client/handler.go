package client

import (
	"log/slog"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

// Handler routes incoming relay events to typed channels. One goroutine
// runs Start; consumers pick the channels they care about.
type Handler struct {
	conn *Conn

	Connected      chan string
	MemberList     chan []room.Participant
	CodeUpdate     chan string
	UserTyping     chan string
	LanguageUpdate chan string
	CodeResponse   chan *protocol.CodeResponsePayload

	VideoJoined   chan *room.VideoParticipant
	ExistingVideo chan []room.VideoParticipant
	VideoLeft     chan string

	Offer     chan *protocol.SignalPayload
	Answer    chan *protocol.SignalPayload
	Candidate chan *protocol.SignalPayload

	VideoToggle    chan *protocol.TogglePayload
	AudioToggle    chan *protocol.TogglePayload
	PositionUpdate chan *protocol.PositionUpdatePayload

	Closed chan struct{}
}

// NewHandler creates a handler for the connection's event stream.
func NewHandler(conn *Conn) *Handler {
	return &Handler{
		conn:           conn,
		Connected:      make(chan string, 1),
		MemberList:     make(chan []room.Participant, 4),
		CodeUpdate:     make(chan string, 16),
		UserTyping:     make(chan string, 16),
		LanguageUpdate: make(chan string, 4),
		CodeResponse:   make(chan *protocol.CodeResponsePayload, 4),
		VideoJoined:    make(chan *room.VideoParticipant, 8),
		ExistingVideo:  make(chan []room.VideoParticipant, 1),
		VideoLeft:      make(chan string, 8),
		Offer:          make(chan *protocol.SignalPayload, 32),
		Answer:         make(chan *protocol.SignalPayload, 32),
		Candidate:      make(chan *protocol.SignalPayload, 64),
		VideoToggle:    make(chan *protocol.TogglePayload, 8),
		AudioToggle:    make(chan *protocol.TogglePayload, 8),
		PositionUpdate: make(chan *protocol.PositionUpdatePayload, 32),
		Closed:         make(chan struct{}),
	}
}

// Start consumes the connection's incoming stream until it closes.
func (h *Handler) Start() {
	defer close(h.Closed)

	for msg := range h.conn.Incoming() {
		switch msg.Event {

		case protocol.EventConnected:
			var p protocol.ConnectedPayload
			if msg.Decode(&p) == nil {
				h.Connected <- p.ParticipantID
			}

		case protocol.EventUserJoined:
			var members []room.Participant
			if msg.Decode(&members) == nil {
				h.MemberList <- members
			}

		case protocol.EventCodeUpdate:
			var text string
			if msg.Decode(&text) == nil {
				h.CodeUpdate <- text
			}

		case protocol.EventUserTyping:
			var name string
			if msg.Decode(&name) == nil {
				h.UserTyping <- name
			}

		case protocol.EventLanguageUpdate:
			var lang string
			if msg.Decode(&lang) == nil {
				h.LanguageUpdate <- lang
			}

		case protocol.EventCodeResponse:
			var res protocol.CodeResponsePayload
			if msg.Decode(&res) == nil {
				h.CodeResponse <- &res
			}

		case protocol.EventUserJoinedVideo:
			var vp room.VideoParticipant
			if msg.Decode(&vp) == nil {
				h.VideoJoined <- &vp
			}

		case protocol.EventExistingVideoUsers:
			var users []room.VideoParticipant
			if msg.Decode(&users) == nil {
				h.ExistingVideo <- users
			}

		case protocol.EventUserLeftVideo:
			var p protocol.UserLeftVideoPayload
			if msg.Decode(&p) == nil {
				h.VideoLeft <- p.ParticipantID
			}

		case protocol.EventOffer:
			h.signal(msg, h.Offer)

		case protocol.EventAnswer:
			h.signal(msg, h.Answer)

		case protocol.EventICECandidate:
			h.signal(msg, h.Candidate)

		case protocol.EventVideoToggle:
			var p protocol.TogglePayload
			if msg.Decode(&p) == nil {
				h.VideoToggle <- &p
			}

		case protocol.EventAudioToggle:
			var p protocol.TogglePayload
			if msg.Decode(&p) == nil {
				h.AudioToggle <- &p
			}

		case protocol.EventPositionUpdate:
			var p protocol.PositionUpdatePayload
			if msg.Decode(&p) == nil {
				h.PositionUpdate <- &p
			}

		default:
			slog.Debug("unhandled event", "event", msg.Event)
		}
	}
}

func (h *Handler) signal(msg *protocol.Message, ch chan *protocol.SignalPayload) {
	var p protocol.SignalPayload
	if err := msg.Decode(&p); err != nil {
		slog.Warn("bad signal payload", "event", msg.Event, "err", err)
		return
	}
	ch <- &p
}
