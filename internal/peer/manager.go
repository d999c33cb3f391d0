package peer

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

const (
	// defaultSettleDelay lets a newly discovered participant finish
	// registering before the offer reaches it. A pacing hint, not a
	// correctness requirement.
	defaultSettleDelay = 300 * time.Millisecond

	// defaultRecoverWait is how long a degraded link may sit before the
	// next recovery step.
	defaultRecoverWait = 2 * time.Second

	// defaultMaxRetries bounds recovery attempts before a link is given
	// up as failed. Failure is surfaced as a non-fatal indicator only.
	defaultMaxRetries = 3
)

// Signaler delivers negotiation envelopes to one named participant via
// the relay.
type Signaler interface {
	SendOffer(targetID string, sdp webrtc.SessionDescription)
	SendAnswer(targetID string, sdp webrtc.SessionDescription)
	SendCandidate(targetID string, c webrtc.ICECandidateInit)
}

// Manager owns the local media and the table of peer links, one per
// remote video participant. It is the single owner of that table: there
// is no shadow copy, and every read or write goes through its mutex.
type Manager struct {
	mu sync.Mutex

	factory  TransportFactory
	signaler Signaler

	links map[string]*Link
	media *LocalMedia

	settleDelay time.Duration
	recoverWait time.Duration
	maxRetries  int

	// onChange, when set, is notified of every link state transition.
	onChange func(remoteID, remoteName string, state LinkState)
}

// NewManager creates a manager with no links and no local media; video is
// off until EnableVideo.
func NewManager(factory TransportFactory, signaler Signaler) *Manager {
	return &Manager{
		factory:     factory,
		signaler:    signaler,
		links:       make(map[string]*Link),
		settleDelay: defaultSettleDelay,
		recoverWait: defaultRecoverWait,
		maxRetries:  defaultMaxRetries,
	}
}

// SetTimings overrides the pacing knobs. Tests shrink them to zero.
func (m *Manager) SetTimings(settle, recover time.Duration, maxRetries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settleDelay = settle
	m.recoverWait = recover
	m.maxRetries = maxRetries
}

// SetOnChange installs a state transition observer (UI indicator hook).
func (m *Manager) SetOnChange(f func(remoteID, remoteName string, state LinkState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = f
}

// VideoEnabled reports whether local media is live.
func (m *Manager) VideoEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media != nil
}

// EnableVideo takes ownership of the local media and opens one initiating
// link per existing video participant (the discovery snapshot).
func (m *Manager) EnableVideo(media *LocalMedia, existing []room.VideoParticipant) {
	m.mu.Lock()
	m.media = media
	m.mu.Unlock()

	for _, vp := range existing {
		m.HandlePeerJoined(vp)
	}
}

// DisableVideo tears down every link and releases the local media. By the
// time it returns no link and no track is live; partial cleanup is not a
// state this can end in.
func (m *Manager) DisableVideo() {
	m.mu.Lock()
	links := m.links
	m.links = make(map[string]*Link)
	media := m.media
	m.media = nil
	m.mu.Unlock()

	for _, l := range links {
		l.close()
		m.notify(l)
	}
	if media != nil {
		media.Close()
	}
}

// HandlePeerJoined reacts to a user-joined-video notice. With local video
// enabled it creates a pending initiator link and schedules the offer
// after the settle delay. Duplicate discovery of a live link is a no-op;
// a participant pair never holds two links.
func (m *Manager) HandlePeerJoined(vp room.VideoParticipant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.media == nil {
		return
	}
	if l, ok := m.links[vp.ParticipantID]; ok {
		if l.state != StateClosed && l.state != StateFailed {
			return
		}
		// A closed or failed link still holds its transport; release it
		// before the replacement takes its slot.
		l.close()
		delete(m.links, vp.ParticipantID)
	}

	link, err := m.createLinkLocked(vp.ParticipantID, vp.DisplayName, true)
	if err != nil {
		slog.Error("create peer link", "remote", vp.ParticipantID, "err", err)
		return
	}

	remoteID := vp.ParticipantID
	link.settleTimer = time.AfterFunc(m.settleDelay, func() {
		m.sendOffer(remoteID, false)
	})
}

// HandleOffer reacts to an inbound offer. An existing live link for the
// sender is fully torn down and recreated rather than renegotiated in
// place; rebuilds after a rejoin otherwise keep stale track senders
// around.
func (m *Manager) HandleOffer(fromID, fromName string, rawOffer json.RawMessage) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(rawOffer, &offer); err != nil {
		slog.Warn("bad offer payload", "from", fromID, "err", err)
		return
	}

	m.mu.Lock()

	if old, ok := m.links[fromID]; ok && old.state != StateClosed {
		old.close()
		delete(m.links, fromID)
	}

	link, err := m.createLinkLocked(fromID, fromName, false)
	if err != nil {
		m.mu.Unlock()
		slog.Error("create peer link", "remote", fromID, "err", err)
		return
	}

	answer, err := link.transport.CreateAnswer(offer)
	if err != nil {
		slog.Warn("answer offer", "remote", fromID, "err", err)
		link.close()
		delete(m.links, fromID)
		m.mu.Unlock()
		return
	}
	link.remoteReady()
	link.state = StateNegotiating
	m.mu.Unlock()

	m.notify(link)
	m.signaler.SendAnswer(fromID, answer)
}

// HandleAnswer completes the negotiation we initiated.
func (m *Manager) HandleAnswer(fromID string, rawAnswer json.RawMessage) {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(rawAnswer, &answer); err != nil {
		slog.Warn("bad answer payload", "from", fromID, "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[fromID]
	if !ok || link.state == StateClosed {
		// The peer vanished mid-negotiation; the answer is stale.
		return
	}
	if err := link.transport.ApplyAnswer(answer); err != nil {
		slog.Warn("apply answer", "remote", fromID, "err", err)
		return
	}
	link.remoteReady()
}

// HandleCandidate applies (or buffers) a trickled remote candidate.
func (m *Manager) HandleCandidate(fromID string, rawCandidate json.RawMessage) {
	var c webrtc.ICECandidateInit
	if err := json.Unmarshal(rawCandidate, &c); err != nil {
		slog.Warn("bad candidate payload", "from", fromID, "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[fromID]
	if !ok || link.state == StateClosed {
		return
	}
	if err := link.addCandidate(c); err != nil {
		slog.Debug("add candidate", "remote", fromID, "err", err)
	}
}

// HandlePeerLeft closes and removes the link for a participant that left
// the video call, the room, or disconnected.
func (m *Manager) HandlePeerLeft(remoteID string) {
	m.mu.Lock()
	link, ok := m.links[remoteID]
	if ok {
		link.close()
		delete(m.links, remoteID)
	}
	m.mu.Unlock()

	if ok {
		m.notify(link)
	}
}

// ToggleCamera flips the local video track. Never renegotiates: the media
// link is unaffected, only the track goes dark.
func (m *Manager) ToggleCamera(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.media != nil {
		m.media.SetVideoEnabled(enabled)
	}
}

// ToggleMic flips the local audio track, same contract as ToggleCamera.
func (m *Manager) ToggleMic(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.media != nil {
		m.media.SetAudioEnabled(enabled)
	}
}

// LinkStates snapshots remote participant id -> state.
func (m *Manager) LinkStates() map[string]LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]LinkState, len(m.links))
	for id, l := range m.links {
		out[id] = l.state
	}
	return out
}

// createLinkLocked builds the transport and registers the link. Local
// tracks are attached before any description is created so the SDP always
// carries them. Caller holds m.mu.
func (m *Manager) createLinkLocked(remoteID, remoteName string, initiator bool) (*Link, error) {
	transport, err := m.factory(TransportEvents{
		OnCandidate: func(c webrtc.ICECandidateInit) {
			m.signaler.SendCandidate(remoteID, c)
		},
		OnStateChange: func(state webrtc.ICEConnectionState) {
			m.handleConnState(remoteID, state)
		},
		OnRemoteTrack: func(streamID, kind string) {
			m.handleRemoteTrack(remoteID, streamID)
		},
	})
	if err != nil {
		return nil, err
	}

	link := newLink(remoteID, remoteName, initiator, transport)
	if err := link.attachTracks(m.media); err != nil {
		transport.Close()
		return nil, err
	}
	m.links[remoteID] = link
	return link, nil
}

// sendOffer creates and sends a (possibly ICE-restart) offer for a live
// link.
func (m *Manager) sendOffer(remoteID string, iceRestart bool) {
	m.mu.Lock()
	link, ok := m.links[remoteID]
	if !ok || link.state == StateClosed || link.state == StateFailed {
		m.mu.Unlock()
		return
	}

	offer, err := link.transport.CreateOffer(iceRestart)
	if err != nil {
		slog.Warn("create offer", "remote", remoteID, "err", err)
		m.mu.Unlock()
		return
	}
	if link.state == StatePending {
		link.state = StateNegotiating
	}
	m.mu.Unlock()

	m.notify(link)
	m.signaler.SendOffer(remoteID, offer)
}

// handleConnState drives recovery from transport-level state changes.
func (m *Manager) handleConnState(remoteID string, state webrtc.ICEConnectionState) {
	m.mu.Lock()
	link, ok := m.links[remoteID]
	if !ok || link.state == StateClosed {
		m.mu.Unlock()
		return
	}

	switch state {
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		link.state = StateConnected
		link.retries = 0
		if link.recoveryTimer != nil {
			link.recoveryTimer.Stop()
			link.recoveryTimer = nil
		}
		m.mu.Unlock()
		m.notify(link)
		return

	case webrtc.ICEConnectionStateDisconnected:
		// Lesser severity: wait, then ICE restart only.
		link.state = StateRecovering
		m.scheduleRecoveryLocked(link, false)
		m.mu.Unlock()
		m.notify(link)
		return

	case webrtc.ICEConnectionStateFailed:
		link.state = StateRecovering
		link.retries++
		if link.retries > m.maxRetries {
			link.state = StateFailed
			m.mu.Unlock()
			slog.Warn("peer link failed", "remote", remoteID)
			m.notify(link)
			return
		}
		// Restart in place first; the bounded wait below escalates to a
		// full reoffer with reattached tracks if that was not enough.
		if link.IsInitiator {
			go m.sendOffer(remoteID, true)
		}
		m.scheduleRecoveryLocked(link, true)
		m.mu.Unlock()
		m.notify(link)
		return
	}
	m.mu.Unlock()
}

// scheduleRecoveryLocked arms the next recovery step for a link sitting in
// StateRecovering. escalate distinguishes the post-failure step (reattach
// tracks, fresh offer) from the post-disconnect step (ICE restart only).
// Caller holds m.mu.
func (m *Manager) scheduleRecoveryLocked(link *Link, escalate bool) {
	if link.recoveryTimer != nil {
		link.recoveryTimer.Stop()
	}
	remoteID := link.RemoteID
	wait := m.recoverWait * time.Duration(link.retries+1)

	link.recoveryTimer = time.AfterFunc(wait, func() {
		m.mu.Lock()
		l, ok := m.links[remoteID]
		if !ok || l.state != StateRecovering {
			m.mu.Unlock()
			return
		}
		if escalate {
			if err := l.attachTracks(m.media); err != nil {
				slog.Warn("reattach tracks", "remote", remoteID, "err", err)
			}
		}
		initiator := l.IsInitiator
		m.mu.Unlock()

		if initiator {
			m.sendOffer(remoteID, !escalate)
		}
	})
}

func (m *Manager) handleRemoteTrack(remoteID, streamID string) {
	m.mu.Lock()
	link, ok := m.links[remoteID]
	if ok {
		link.remoteStreamID = streamID
	}
	m.mu.Unlock()
}

func (m *Manager) notify(link *Link) {
	m.mu.Lock()
	f := m.onChange
	state := link.state
	m.mu.Unlock()
	if f != nil {
		f(link.RemoteID, link.RemoteName, state)
	}
}
