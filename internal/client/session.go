package client

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/config"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/editor"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/peer"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

const connectTimeout = 10 * time.Second

// Event is a UI-facing session notification. The terminal view consumes
// these; nothing in the session depends on how they are rendered.
type Event any

type MembersEvent struct{ Members []room.Participant }
type SetTextEvent struct{ Text string }
type TypingEvent struct{ DisplayName string }
type LanguageEvent struct{ Language string }
type OutputEvent struct {
	Output string
	Err    string
}
type LinkEvent struct {
	RemoteID   string
	RemoteName string
	State      peer.LinkState
}
type ToggleEvent struct {
	FromID  string
	Video   bool
	Enabled bool
}
type TileMovedEvent struct {
	ParticipantID string
	Position      room.Position
}
type DisconnectedEvent struct{}

// Session is one participant: the relay connection, the editor bridge and
// the peer session manager, wired together.
type Session struct {
	conn    *Conn
	handler *Handler
	cfg     *config.Config

	SelfID      string
	RoomID      string
	DisplayName string

	Bridge *editor.Bridge
	Peers  *peer.Manager

	events chan Event
	done   chan struct{}
}

// Dial connects to the relay and completes the handshake that assigns the
// participant id.
func Dial(cfg *config.Config) (*Session, error) {
	conn := NewConn(cfg.ServerURL)
	if err := conn.Connect(); err != nil {
		return nil, NewError("connect to server", err)
	}

	handler := NewHandler(conn)
	go handler.Start()

	s := &Session{
		conn:    conn,
		handler: handler,
		cfg:     cfg,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}

	select {
	case id := <-handler.Connected:
		s.SelfID = id
	case <-handler.Closed:
		conn.Close()
		return nil, NewError("handshake", ErrServerClosed)
	case <-time.After(connectTimeout):
		conn.Close()
		return nil, WrapError("handshake", ErrServerClosed, "no participant id from server")
	}

	s.Bridge = editor.New(
		func(text string) {
			s.conn.Emit(protocol.EventCodeChange, protocol.CodeChangePayload{RoomID: s.RoomID, Text: text})
		},
		func() {
			s.conn.Emit(protocol.EventTyping, protocol.TypingPayload{RoomID: s.RoomID, DisplayName: s.DisplayName})
		},
		func(text string) {
			s.emitEvent(SetTextEvent{Text: text})
		},
	)
	s.Peers = peer.NewManager(peer.NewPionFactory(cfg), s)
	s.Peers.SetOnChange(func(remoteID, remoteName string, state peer.LinkState) {
		s.emitEvent(LinkEvent{RemoteID: remoteID, RemoteName: remoteName, State: state})
	})

	go s.route()
	return s, nil
}

// Join enters the room. The document snapshot and member list arrive as
// session events.
func (s *Session) Join(roomID, displayName string) {
	s.RoomID = roomID
	s.DisplayName = displayName
	s.conn.Emit(protocol.EventJoin, protocol.JoinPayload{RoomID: roomID, DisplayName: displayName})
}

// Events returns the UI notification stream.
func (s *Session) Events() <-chan Event { return s.events }

// route fans handler channels into the peer manager, the editor bridge
// and the UI event stream.
func (s *Session) route() {
	h := s.handler
	for {
		select {
		case <-s.done:
			return

		case <-h.Closed:
			s.emitEvent(DisconnectedEvent{})
			return

		case members := <-h.MemberList:
			s.emitEvent(MembersEvent{Members: members})

		case text := <-h.CodeUpdate:
			s.Bridge.ApplyRemote(text)

		case name := <-h.UserTyping:
			s.emitEvent(TypingEvent{DisplayName: name})

		case lang := <-h.LanguageUpdate:
			s.emitEvent(LanguageEvent{Language: lang})

		case res := <-h.CodeResponse:
			s.emitEvent(OutputEvent{Output: res.Output, Err: res.Error})

		case vp := <-h.VideoJoined:
			s.Peers.HandlePeerJoined(*vp)

		case users := <-h.ExistingVideo:
			// The server's answer to our join-video: one initiating link
			// per participant already in the call.
			for _, vp := range users {
				s.Peers.HandlePeerJoined(vp)
			}

		case id := <-h.VideoLeft:
			s.Peers.HandlePeerLeft(id)
			s.emitEvent(LinkEvent{RemoteID: id, State: peer.StateClosed})

		case sig := <-h.Offer:
			s.Peers.HandleOffer(sig.FromID, sig.FromDisplayName, sig.Offer)

		case sig := <-h.Answer:
			s.Peers.HandleAnswer(sig.FromID, sig.Answer)

		case sig := <-h.Candidate:
			s.Peers.HandleCandidate(sig.FromID, sig.Candidate)

		case t := <-h.VideoToggle:
			s.emitEvent(ToggleEvent{FromID: t.FromID, Video: true, Enabled: t.Enabled})

		case t := <-h.AudioToggle:
			s.emitEvent(ToggleEvent{FromID: t.FromID, Video: false, Enabled: t.Enabled})

		case p := <-h.PositionUpdate:
			s.emitEvent(TileMovedEvent{ParticipantID: p.ParticipantID, Position: p.Position})
		}
	}
}

func (s *Session) emitEvent(ev Event) {
	select {
	case s.events <- ev:
	default:
		slog.Debug("dropping UI event, queue full")
	}
}

// EnableVideo acquires local media, announces the participant to the
// room's video call and opens links to the existing participants. Media
// acquisition failure keeps the editing session untouched.
func (s *Session) EnableVideo() error {
	media, err := peer.CaptureLocalMedia()
	if err != nil {
		return WrapError("enable video", ErrMediaUnavailable, err.Error())
	}

	// Media must be live before the announcement so the links created for
	// the discovery roster carry our tracks from the first offer.
	s.Peers.EnableVideo(media, nil)
	s.conn.Emit(protocol.EventJoinVideo, protocol.VideoRoomPayload{RoomID: s.RoomID})
	return nil
}

// DisableVideo closes every peer link, releases the local media and
// notifies the room. Synchronous: when it returns, nothing is live.
func (s *Session) DisableVideo() {
	s.Peers.DisableVideo()
	s.conn.Emit(protocol.EventLeaveVideo, protocol.VideoRoomPayload{RoomID: s.RoomID})
}

// ToggleCamera flips the local camera and broadcasts the UI notice.
func (s *Session) ToggleCamera(enabled bool) {
	s.Peers.ToggleCamera(enabled)
	s.conn.Emit(protocol.EventVideoToggle, protocol.TogglePayload{RoomID: s.RoomID, Enabled: enabled})
}

// ToggleMic flips the local microphone and broadcasts the UI notice.
func (s *Session) ToggleMic(enabled bool) {
	s.Peers.ToggleMic(enabled)
	s.conn.Emit(protocol.EventAudioToggle, protocol.TogglePayload{RoomID: s.RoomID, Enabled: enabled})
}

// MoveTile reports the local video tile position; the relay coalesces the
// stream of moves before broadcasting.
func (s *Session) MoveTile(pos room.Position) {
	s.conn.Emit(protocol.EventPositionChange, protocol.PositionChangePayload{
		RoomID:        s.RoomID,
		ParticipantID: s.SelfID,
		Position:      pos,
	})
}

// SetLanguage broadcasts a language switch.
func (s *Session) SetLanguage(language string) {
	s.conn.Emit(protocol.EventLanguageChange, protocol.LanguageChangePayload{RoomID: s.RoomID, Language: language})
}

// Compile submits the buffer for execution; the room-wide codeResponse
// comes back as an OutputEvent.
func (s *Session) Compile(code, language, version, stdin string) {
	s.conn.Emit(protocol.EventCompileCode, protocol.CompilePayload{
		Code:     code,
		RoomID:   s.RoomID,
		Language: language,
		Version:  version,
		Stdin:    stdin,
	})
}

// Close leaves the room and tears everything down: peer links, media,
// connection.
func (s *Session) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	s.Peers.DisableVideo()
	s.Bridge.Flush()
	s.conn.Emit(protocol.EventLeaveRoom, nil)
	close(s.done)
	s.conn.Close()
}

// SendOffer, SendAnswer and SendCandidate implement peer.Signaler over
// the relay connection.
func (s *Session) SendOffer(targetID string, sdp webrtc.SessionDescription) {
	s.emitSignal(protocol.EventOffer, targetID, sdp, "offer")
}

func (s *Session) SendAnswer(targetID string, sdp webrtc.SessionDescription) {
	s.emitSignal(protocol.EventAnswer, targetID, sdp, "answer")
}

func (s *Session) SendCandidate(targetID string, c webrtc.ICECandidateInit) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	s.conn.Emit(protocol.EventICECandidate, protocol.SignalPayload{
		RoomID:    s.RoomID,
		TargetID:  targetID,
		Candidate: raw,
	})
}

func (s *Session) emitSignal(event, targetID string, sdp webrtc.SessionDescription, field string) {
	raw, err := json.Marshal(sdp)
	if err != nil {
		slog.Warn("marshal session description", "err", err)
		return
	}
	p := protocol.SignalPayload{RoomID: s.RoomID, TargetID: targetID}
	if field == "offer" {
		p.Offer = raw
	} else {
		p.Answer = raw
	}
	s.conn.Emit(event, p)
}
