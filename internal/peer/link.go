package peer

import (
	"time"

	"github.com/pion/webrtc/v4"
)

// LinkState tracks one peer link through its lifecycle. There is no
// "absent" state; absence is the link not being in the manager's table.
type LinkState int

const (
	StatePending LinkState = iota
	StateNegotiating
	StateConnected
	StateRecovering
	StateFailed
	StateClosed
)

func (s LinkState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateRecovering:
		return "recovering"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type attachedTrack struct {
	trackID string
	sender  TrackSender
}

// Link is one media connection to a remote participant, exclusively owned
// by the manager that created it. All fields are guarded by the manager's
// mutex.
type Link struct {
	RemoteID    string
	RemoteName  string
	IsInitiator bool

	state     LinkState
	transport Transport

	// attached tracks by kind, for idempotent reattachment.
	attached map[string]attachedTrack

	// ICE candidates that arrived before the remote description.
	buffered  []webrtc.ICECandidateInit
	remoteSet bool

	remoteStreamID string
	retries        int

	settleTimer   *time.Timer
	recoveryTimer *time.Timer
}

func newLink(remoteID, remoteName string, initiator bool, transport Transport) *Link {
	return &Link{
		RemoteID:    remoteID,
		RemoteName:  remoteName,
		IsInitiator: initiator,
		state:       StatePending,
		transport:   transport,
		attached:    make(map[string]attachedTrack),
	}
}

// State returns the link's current lifecycle state.
func (l *Link) State() LinkState { return l.state }

// RemoteStreamID identifies the remote media stream once the first remote
// track arrived; empty before that.
func (l *Link) RemoteStreamID() string { return l.remoteStreamID }

// attachTracks attaches every local track, idempotently: a kind already
// attached with the same source is skipped, a changed source is swapped
// in place via the sender.
func (l *Link) attachTracks(media *LocalMedia) error {
	if media == nil {
		return nil
	}
	for _, track := range media.Tracks() {
		kind := track.Kind().String()
		cur, ok := l.attached[kind]
		if ok && cur.trackID == track.ID() {
			continue
		}
		if ok {
			if err := cur.sender.ReplaceTrack(track); err != nil {
				return err
			}
			l.attached[kind] = attachedTrack{trackID: track.ID(), sender: cur.sender}
			continue
		}
		sender, err := l.transport.AddTrack(track)
		if err != nil {
			return err
		}
		l.attached[kind] = attachedTrack{trackID: track.ID(), sender: sender}
	}
	return nil
}

// addCandidate applies a remote candidate, or buffers it until the remote
// description is installed.
func (l *Link) addCandidate(c webrtc.ICECandidateInit) error {
	if !l.remoteSet {
		l.buffered = append(l.buffered, c)
		return nil
	}
	return l.transport.AddCandidate(c)
}

// remoteReady marks the remote description installed and drains buffered
// candidates.
func (l *Link) remoteReady() {
	l.remoteSet = true
	for _, c := range l.buffered {
		// Individual candidates may legitimately fail (e.g. mDNS ones we
		// cannot resolve); the rest still count.
		l.transport.AddCandidate(c)
	}
	l.buffered = nil
}

// close tears the link down. Idempotent.
func (l *Link) close() {
	if l.state == StateClosed {
		return
	}
	l.state = StateClosed
	if l.settleTimer != nil {
		l.settleTimer.Stop()
	}
	if l.recoveryTimer != nil {
		l.recoveryTimer.Stop()
	}
	l.transport.Close()
}
