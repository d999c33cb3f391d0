package relay

import (
	"log/slog"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

// The signaling router forwards WebRTC negotiation envelopes between
// exactly two named participants without interpreting their contents.
// Messages for a target that already disconnected vanish silently; the
// affected peer link is cleaned up by the next user-left-video notice.

// forwardSignal relays offer/answer/ice-candidate to the target only,
// stamped with the sender's id. Offers additionally carry the sender's
// display name so the receiving side can label the tile before the room
// roster catches up.
func (h *Hub) forwardSignal(c *Client, msg *protocol.Message) {
	var p protocol.SignalPayload
	if err := msg.Decode(&p); err != nil || p.TargetID == "" {
		return
	}

	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}

	out := protocol.SignalPayload{
		FromID:    c.ID,
		Offer:     p.Offer,
		Answer:    p.Answer,
		Candidate: p.Candidate,
	}
	if msg.Event == protocol.EventOffer {
		if name, ok := h.registry.DisplayName(s.roomID, c.ID); ok {
			out.FromDisplayName = name
		}
	}

	h.sendTo(p.TargetID, protocol.MustMessage(msg.Event, out))
}

// handleJoinVideo opts the member into the room's video call. The joiner
// receives the existing video roster (excluding itself) so it can open one
// peer link per pair; everyone else learns about the newcomer.
func (h *Hub) handleJoinVideo(c *Client) {
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}

	vp := room.VideoParticipant{ParticipantID: c.ID, DisplayName: s.displayName}
	if !h.registry.AddVideoParticipant(s.roomID, vp) {
		slog.Warn("video join rejected", "participant", c.ID, "room", s.roomID)
		return
	}

	existing := h.registry.ListVideoParticipants(s.roomID, c.ID)
	h.sendTo(c.ID, protocol.MustMessage(protocol.EventExistingVideoUsers, existing))
	h.broadcast(s.roomID, c.ID, protocol.MustMessage(protocol.EventUserJoinedVideo, vp))
}

// handleLeaveVideo drops the member from the video call but not the room.
func (h *Hub) handleLeaveVideo(c *Client) {
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	h.coalescer.Drop(c.ID)
	if !h.registry.RemoveVideoParticipant(s.roomID, c.ID) {
		return
	}
	h.broadcast(s.roomID, c.ID, protocol.MustMessage(protocol.EventUserLeftVideo,
		protocol.UserLeftVideoPayload{ParticipantID: c.ID}))
}

// handleVideoToggle reaches the whole room including the sender, so the
// sender's own placeholder tile stays in sync. Audio toggles go to the
// others only. The asymmetry is deliberate.
func (h *Hub) handleVideoToggle(c *Client, msg *protocol.Message) {
	var p protocol.TogglePayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	h.broadcast(s.roomID, "", protocol.MustMessage(protocol.EventVideoToggle,
		protocol.TogglePayload{FromID: c.ID, Enabled: p.Enabled}))
}

func (h *Hub) handleAudioToggle(c *Client, msg *protocol.Message) {
	var p protocol.TogglePayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	h.broadcast(s.roomID, c.ID, protocol.MustMessage(protocol.EventAudioToggle,
		protocol.TogglePayload{FromID: c.ID, Enabled: p.Enabled}))
}

// handlePositionChange feeds the coalescer; at most one broadcast per
// sender per positionInterval actually reaches the room.
func (h *Hub) handlePositionChange(c *Client, msg *protocol.Message) {
	var p protocol.PositionChangePayload
	if err := msg.Decode(&p); err != nil {
		return
	}
	s := h.sessions[c.ID]
	if s.roomID == "" {
		return
	}
	h.coalescer.Offer(c.ID, positionEvent{
		roomID:        s.roomID,
		participantID: c.ID,
		position:      p.Position,
	})
}
