// Package relay is the server-resident event channel between room members.
// A single hub goroutine owns every room mutation and its broadcast, so a
// registry update and the fan-out it triggers are atomic with respect to
// every other event on the same room.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/execute"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

// positionInterval bounds video tile position broadcasts per sender.
const positionInterval = 50 * time.Millisecond

// compileTimeout caps one round trip to the execution service.
const compileTimeout = 60 * time.Second

// session is the per-connection state machine record:
// unjoined (roomID == "") -> joined -> left/disconnected.
// Owned exclusively by the hub goroutine.
type session struct {
	participantID string
	roomID        string
	displayName   string
}

// execResult re-enters the hub loop after the execution service call,
// which runs outside the loop so a slow compile never stalls the relay.
type execResult struct {
	roomID string
	output string
	errMsg string
}

// positionEvent is an already-coalesced tile move ready to broadcast.
type positionEvent struct {
	roomID        string
	participantID string
	position      room.Position
}

// Hub routes room-scoped events between connected clients and mutates the
// room registry in response to lifecycle events. All state it owns is
// touched only from Run's goroutine.
type Hub struct {
	registry *room.Registry
	runner   execute.Runner

	// clients and sessions are keyed by participant (connection) id.
	clients  map[string]*Client
	sessions map[string]*session

	Register   chan *Client
	Unregister chan *Client
	Inbound    chan *inbound

	results   chan execResult
	positions chan positionEvent
	coalescer *Coalescer[positionEvent]
}

// NewHub wires the hub to its registry and execution collaborator.
func NewHub(registry *room.Registry, runner execute.Runner) *Hub {
	h := &Hub{
		registry:   registry,
		runner:     runner,
		clients:    make(map[string]*Client),
		sessions:   make(map[string]*session),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *inbound),
		results:    make(chan execResult, 16),
		positions:  make(chan positionEvent, 256),
	}
	h.coalescer = NewCoalescer(positionInterval, func(key string, ev positionEvent) {
		// Non-blocking: the loop drains this channel; if a burst ever
		// overruns the buffer the stale position is dropped, not queued.
		select {
		case h.positions <- ev:
		default:
		}
	})
	return h
}

// Run processes events until ctx is cancelled. It is the only goroutine
// that touches clients, sessions, or the registry's room contents.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.clients[client.ID] = client
			h.sessions[client.ID] = &session{participantID: client.ID}
			h.sendTo(client.ID, protocol.MustMessage(protocol.EventConnected,
				protocol.ConnectedPayload{ParticipantID: client.ID}))
			slog.Info("client connected", "participant", client.ID)

		case client := <-h.Unregister:
			if _, ok := h.clients[client.ID]; !ok {
				continue
			}
			h.leaveRoom(client.ID)
			delete(h.clients, client.ID)
			delete(h.sessions, client.ID)
			close(client.Send)
			slog.Info("client disconnected", "participant", client.ID)

		case in := <-h.Inbound:
			h.dispatch(in.client, in.msg)

		case res := <-h.results:
			h.finishCompile(res)

		case ev := <-h.positions:
			h.broadcastPosition(ev)
		}
	}
}

func (h *Hub) dispatch(c *Client, msg *protocol.Message) {
	switch msg.Event {
	case protocol.EventJoin:
		h.handleJoin(c, msg)
	case protocol.EventLeaveRoom:
		h.leaveRoom(c.ID)
	case protocol.EventCodeChange:
		h.handleCodeChange(c, msg)
	case protocol.EventTyping:
		h.handleTyping(c, msg)
	case protocol.EventLanguageChange:
		h.handleLanguageChange(c, msg)
	case protocol.EventCompileCode:
		h.handleCompile(c, msg)
	case protocol.EventJoinVideo:
		h.handleJoinVideo(c)
	case protocol.EventLeaveVideo:
		h.handleLeaveVideo(c)
	case protocol.EventOffer, protocol.EventAnswer, protocol.EventICECandidate:
		h.forwardSignal(c, msg)
	case protocol.EventVideoToggle:
		h.handleVideoToggle(c, msg)
	case protocol.EventAudioToggle:
		h.handleAudioToggle(c, msg)
	case protocol.EventPositionChange:
		h.handlePositionChange(c, msg)
	default:
		slog.Debug("unknown event", "event", msg.Event, "participant", c.ID)
	}
}

// handleJoin registers the connection in the requested room. A connection
// already joined elsewhere leaves that room first; a client is a member of
// at most one room at a time.
func (h *Hub) handleJoin(c *Client, msg *protocol.Message) {
	var p protocol.JoinPayload
	if err := msg.Decode(&p); err != nil || p.RoomID == "" {
		slog.Warn("bad join payload", "participant", c.ID, "err", err)
		return
	}

	s := h.sessions[c.ID]
	if s.roomID != "" && s.roomID != p.RoomID {
		h.leaveRoom(c.ID)
	}

	s.roomID = p.RoomID
	s.displayName = p.DisplayName
	h.registry.AddMember(p.RoomID, room.Participant{ID: c.ID, DisplayName: p.DisplayName})
	slog.Info("joined room", "participant", c.ID, "room", p.RoomID, "name", p.DisplayName)

	// Current document snapshot goes to the joiner only; the updated
	// member list goes to everyone, joiner included.
	h.sendTo(c.ID, protocol.MustMessage(protocol.EventCodeUpdate, h.registry.DocumentText(p.RoomID)))
	h.broadcast(p.RoomID, "", protocol.MustMessage(protocol.EventUserJoined, h.registry.Members(p.RoomID)))
}

// leaveRoom detaches the connection from its current room, notifying the
// remaining members. Idempotent: safe when the connection is unjoined.
func (h *Hub) leaveRoom(participantID string) {
	s, ok := h.sessions[participantID]
	if !ok || s.roomID == "" {
		return
	}
	roomID := s.roomID
	s.roomID = ""

	wasVideo := h.registry.IsVideoParticipant(roomID, participantID)
	h.coalescer.Drop(participantID)

	empty := h.registry.RemoveMember(roomID, participantID)
	if empty {
		slog.Info("room closed", "room", roomID)
		return
	}

	h.broadcast(roomID, "", protocol.MustMessage(protocol.EventUserJoined, h.registry.Members(roomID)))
	if wasVideo {
		h.broadcast(roomID, "", protocol.MustMessage(protocol.EventUserLeftVideo,
			protocol.UserLeftVideoPayload{ParticipantID: participantID}))
	}
}

func (h *Hub) handleCodeChange(c *Client, msg *protocol.Message) {
	var p protocol.CodeChangePayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	h.registry.SetDocumentText(s.roomID, p.Text)
	// Exclude the sender: a client must never receive its own edit back.
	h.broadcast(s.roomID, c.ID, protocol.MustMessage(protocol.EventCodeUpdate, p.Text))
}

func (h *Hub) handleTyping(c *Client, msg *protocol.Message) {
	var p protocol.TypingPayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	name := p.DisplayName
	if name == "" {
		name = s.displayName
	}
	h.broadcast(s.roomID, c.ID, protocol.MustMessage(protocol.EventUserTyping, name))
}

func (h *Hub) handleLanguageChange(c *Client, msg *protocol.Message) {
	var p protocol.LanguageChangePayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	h.registry.SetLanguage(s.roomID, p.Language)
	h.broadcast(s.roomID, c.ID, protocol.MustMessage(protocol.EventLanguageUpdate, p.Language))
}

// handleCompile forwards the source to the execution service without
// blocking the hub loop; the result re-enters through h.results. This
// path never fails outward: any error becomes a synthetic error response.
func (h *Hub) handleCompile(c *Client, msg *protocol.Message) {
	var p protocol.CompilePayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	roomID := p.RoomID
	if roomID == "" {
		roomID = h.sessions[c.ID].roomID
	}
	if roomID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), compileTimeout)
		defer cancel()

		res, err := h.runner.Run(ctx, execute.Request{
			Language: p.Language,
			Version:  p.Version,
			Code:     p.Code,
			Stdin:    p.Stdin,
		})
		out := execResult{roomID: roomID, output: res.Output}
		if err != nil {
			slog.Warn("execution failed", "room", roomID, "err", err)
			out.errMsg = err.Error()
		}
		h.results <- out
	}()
}

func (h *Hub) finishCompile(res execResult) {
	payload := protocol.CodeResponsePayload{Output: res.output, Error: res.errMsg}
	// Failures are broadcast-only; the room keeps its last successful output.
	if res.errMsg == "" {
		h.registry.SetLastOutput(res.roomID, res.output)
	}
	// Whole room, requester included: the output pane receives exactly one
	// response per request even when the room emptied meanwhile.
	h.broadcast(res.roomID, "", protocol.MustMessage(protocol.EventCodeResponse, payload))
}

func (h *Hub) broadcastPosition(ev positionEvent) {
	if !h.registry.UpdateVideoPosition(ev.roomID, ev.participantID, ev.position) {
		// Not a video participant (anymore): no broadcast.
		return
	}
	h.broadcast(ev.roomID, "", protocol.MustMessage(protocol.EventPositionUpdate,
		protocol.PositionUpdatePayload{ParticipantID: ev.participantID, Position: ev.position}))
}

// broadcast fans a message out to every member of roomID except excludeID
// (empty excludeID means everyone).
func (h *Hub) broadcast(roomID, excludeID string, msg *protocol.Message) {
	for id, s := range h.sessions {
		if s.roomID != roomID || id == excludeID {
			continue
		}
		h.sendTo(id, msg)
	}
}

// sendTo delivers to one participant. Unknown or already-disconnected
// targets are dropped silently; a full outbound queue drops the message
// rather than stalling the hub.
func (h *Hub) sendTo(participantID string, msg *protocol.Message) {
	c, ok := h.clients[participantID]
	if !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
		slog.Warn("outbound queue full, dropping message", "participant", participantID, "event", msg.Event)
	}
}
