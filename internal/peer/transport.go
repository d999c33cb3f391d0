// Package peer owns the client side of the video call: one peer link per
// remote video participant, converging every pair to exactly one healthy
// media connection and self-healing after failures.
package peer

import (
	"github.com/pion/webrtc/v4"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/config"
)

// TrackSender swaps the media source feeding an attached track.
// *webrtc.RTPSender satisfies it.
type TrackSender interface {
	ReplaceTrack(track webrtc.TrackLocal) error
}

// TransportEvents are the callbacks a transport fires as the underlying
// connection progresses. All of them may arrive on transport-owned
// goroutines.
type TransportEvents struct {
	OnCandidate   func(webrtc.ICECandidateInit)
	OnStateChange func(webrtc.ICEConnectionState)
	OnRemoteTrack func(streamID, kind string)
}

// Transport is the narrow slice of a peer connection the link state
// machine needs. Production uses pion; tests use a fake.
type Transport interface {
	// CreateOffer creates and installs the local description. With
	// iceRestart it produces a restart offer for in-place recovery.
	CreateOffer(iceRestart bool) (webrtc.SessionDescription, error)

	// CreateAnswer installs the remote offer, then creates and installs
	// the local answer.
	CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error)

	// ApplyAnswer installs the remote answer on the offering side.
	ApplyAnswer(answer webrtc.SessionDescription) error

	AddCandidate(c webrtc.ICECandidateInit) error
	AddTrack(track webrtc.TrackLocal) (TrackSender, error)
	Close() error
}

// TransportFactory builds one transport per peer link.
type TransportFactory func(ev TransportEvents) (Transport, error)

// NewPionFactory returns a factory producing real pion peer connections
// configured with the STUN/TURN servers from cfg.
func NewPionFactory(cfg *config.Config) TransportFactory {
	iceServers := []webrtc.ICEServer{{URLs: cfg.GetSTUNServers()}}
	if turn := cfg.GetTURNServers(); turn != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}
	rtcConfig := webrtc.Configuration{ICEServers: iceServers}

	return func(ev TransportEvents) (Transport, error) {
		pc, err := webrtc.NewPeerConnection(rtcConfig)
		if err != nil {
			return nil, err
		}

		pc.OnICECandidate(func(c *webrtc.ICECandidate) {
			if c == nil || ev.OnCandidate == nil {
				return
			}
			ev.OnCandidate(c.ToJSON())
		})
		pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
			if ev.OnStateChange != nil {
				ev.OnStateChange(state)
			}
		})
		pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			if ev.OnRemoteTrack != nil {
				ev.OnRemoteTrack(track.StreamID(), track.Kind().String())
			}
		})

		return &pionTransport{pc: pc}, nil
	}
}

type pionTransport struct {
	pc *webrtc.PeerConnection
}

func (t *pionTransport) CreateOffer(iceRestart bool) (webrtc.SessionDescription, error) {
	var opts *webrtc.OfferOptions
	if iceRestart {
		opts = &webrtc.OfferOptions{ICERestart: true}
	}
	offer, err := t.pc.CreateOffer(opts)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := t.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return *t.pc.LocalDescription(), nil
}

func (t *pionTransport) CreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := t.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := t.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := t.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return *t.pc.LocalDescription(), nil
}

func (t *pionTransport) ApplyAnswer(answer webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(answer)
}

func (t *pionTransport) AddCandidate(c webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(c)
}

func (t *pionTransport) AddTrack(track webrtc.TrackLocal) (TrackSender, error) {
	return t.pc.AddTrack(track)
}

func (t *pionTransport) Close() error {
	return t.pc.Close()
}
