package peer

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

const (
	audioFrameInterval = 20 * time.Millisecond
	videoFrameInterval = 100 * time.Millisecond
)

// SampleTrack is one locally captured track plus its enabled flag.
// Muting flips the flag; the sample pump then sends nothing, and the
// peer link is never renegotiated for it.
type SampleTrack struct {
	track   *webrtc.TrackLocalStaticSample
	enabled atomic.Bool
	done    chan struct{}
}

func (t *SampleTrack) pump(interval time.Duration, frame []byte) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if !t.enabled.Load() {
				continue
			}
			t.track.WriteSample(media.Sample{Data: frame, Duration: interval})
		}
	}
}

// LocalMedia is the local capture shared read-only by every peer link.
// The terminal client has no camera pipeline; it feeds placeholder frames
// so the media path is exercised end to end.
type LocalMedia struct {
	streamID string
	audio    *SampleTrack
	video    *SampleTrack
}

// CaptureLocalMedia acquires the local audio and video tracks and starts
// their sample pumps. Both start enabled.
func CaptureLocalMedia() (*LocalMedia, error) {
	streamID := "collab-" + uuid.NewString()

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio-"+uuid.NewString(), streamID)
	if err != nil {
		return nil, err
	}
	videoTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video-"+uuid.NewString(), streamID)
	if err != nil {
		return nil, err
	}

	m := &LocalMedia{
		streamID: streamID,
		audio:    &SampleTrack{track: audioTrack, done: make(chan struct{})},
		video:    &SampleTrack{track: videoTrack, done: make(chan struct{})},
	}
	m.audio.enabled.Store(true)
	m.video.enabled.Store(true)

	go m.audio.pump(audioFrameInterval, silentOpusFrame())
	go m.video.pump(videoFrameInterval, blankVideoFrame())

	return m, nil
}

// Tracks returns the local tracks for attachment to a peer link.
func (m *LocalMedia) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{m.audio.track, m.video.track}
}

// StreamID identifies the local media stream.
func (m *LocalMedia) StreamID() string { return m.streamID }

func (m *LocalMedia) SetAudioEnabled(enabled bool) { m.audio.enabled.Store(enabled) }
func (m *LocalMedia) SetVideoEnabled(enabled bool) { m.video.enabled.Store(enabled) }

func (m *LocalMedia) AudioEnabled() bool { return m.audio.enabled.Load() }
func (m *LocalMedia) VideoEnabled() bool { return m.video.enabled.Load() }

// Close stops both sample pumps. Tracks attached to links go silent; the
// links themselves are the manager's to close.
func (m *LocalMedia) Close() {
	close(m.audio.done)
	close(m.video.done)
}

// silentOpusFrame is a minimal opus frame encoding silence.
func silentOpusFrame() []byte {
	return []byte{0xf8, 0xff, 0xfe}
}

// blankVideoFrame is a placeholder VP8 payload; receivers render it as a
// dark tile, which is all a headless participant has to show.
func blankVideoFrame() []byte {
	return []byte{0x10, 0x02, 0x00, 0x9d, 0x01, 0x2a}
}
