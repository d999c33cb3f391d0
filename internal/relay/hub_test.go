package relay_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/execute"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/relay"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/server"
)

type fakeRunner struct {
	output string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, req execute.Request) (execute.Result, error) {
	if f.err != nil {
		return execute.Result{}, f.err
	}
	return execute.Result{Output: f.output}, nil
}

func newTestServer(t *testing.T, runner execute.Runner) (string, *room.Registry) {
	t.Helper()
	if runner == nil {
		runner = &fakeRunner{}
	}

	registry := room.NewRegistry()
	hub := relay.NewHub(registry, runner)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	ts := httptest.NewServer(server.ServeWs(hub))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http"), registry
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
	// msgs is fed by a single reader goroutine; expect and expectNone
	// select on it so an elapsed expectNone window never leaves a
	// permanent read error on the websocket connection.
	msgs chan *protocol.Message
}

// dial connects and completes the handshake that assigns the id.
func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &testClient{t: t, conn: conn, msgs: make(chan *protocol.Message, 64)}
	go func() {
		defer close(c.msgs)
		for {
			var msg protocol.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			c.msgs <- &msg
		}
	}()
	msg := c.expect(protocol.EventConnected)
	var p protocol.ConnectedPayload
	if err := msg.Decode(&p); err != nil || p.ParticipantID == "" {
		t.Fatalf("bad handshake: %v %+v", err, p)
	}
	c.id = p.ParticipantID
	return c
}

func (c *testClient) emit(event string, payload any) {
	c.t.Helper()
	msg, err := protocol.NewMessage(event, payload)
	if err != nil {
		c.t.Fatalf("build %s: %v", event, err)
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.t.Fatalf("write %s: %v", event, err)
	}
}

// expect reads until a message with the given event arrives, skipping
// unrelated events, failing after a deadline.
func (c *testClient) expect(event string) *protocol.Message {
	c.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				c.t.Fatalf("waiting for %s: connection closed", event)
			}
			if msg.Event == event {
				return msg
			}
		case <-deadline:
			c.t.Fatalf("waiting for %s: timeout", event)
		}
	}
}

// expectNone asserts no message with the given event arrives within the
// window.
func (c *testClient) expectNone(event string, window time.Duration) {
	c.t.Helper()
	deadline := time.After(window)
	for {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				return
			}
			if msg.Event == event {
				c.t.Fatalf("unexpected %s: %s", event, string(msg.Payload))
			}
		case <-deadline:
			return // window elapsed: nothing arrived
		}
	}
}

func (c *testClient) join(roomID, name string) {
	c.t.Helper()
	c.emit(protocol.EventJoin, protocol.JoinPayload{RoomID: roomID, DisplayName: name})
}

func memberNames(t *testing.T, msg *protocol.Message) []string {
	t.Helper()
	var members []room.Participant
	if err := msg.Decode(&members); err != nil {
		t.Fatalf("decode member list: %v", err)
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.DisplayName
	}
	return names
}

func TestJoinDeliversSnapshotAndMemberList(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")

	snapshot := alice.expect(protocol.EventCodeUpdate)
	var text string
	if err := snapshot.Decode(&text); err != nil || text != "" {
		t.Fatalf("expected empty initial snapshot, got %q (%v)", text, err)
	}
	if names := memberNames(t, alice.expect(protocol.EventUserJoined)); len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("expected [Alice], got %v", names)
	}

	alice.emit(protocol.EventCodeChange, protocol.CodeChangePayload{RoomID: "r1", Text: "print(1)"})

	bob := dial(t, url)
	bob.join("r1", "Bob")

	snapshot = bob.expect(protocol.EventCodeUpdate)
	if err := snapshot.Decode(&text); err != nil || text != "print(1)" {
		t.Fatalf("joiner snapshot must be the last written text, got %q", text)
	}
	if names := memberNames(t, bob.expect(protocol.EventUserJoined)); len(names) != 2 {
		t.Fatalf("expected [Alice Bob], got %v", names)
	}
	if names := memberNames(t, alice.expect(protocol.EventUserJoined)); len(names) != 2 {
		t.Fatalf("existing member must see the updated list, got %v", names)
	}
}

func TestCodeChangeExcludesSender(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	alice.expect(protocol.EventUserJoined)

	bob := dial(t, url)
	bob.join("r1", "Bob")
	bob.expect(protocol.EventUserJoined)
	alice.expect(protocol.EventUserJoined)

	alice.emit(protocol.EventCodeChange, protocol.CodeChangePayload{RoomID: "r1", Text: "x = 1"})

	var text string
	if err := bob.expect(protocol.EventCodeUpdate).Decode(&text); err != nil || text != "x = 1" {
		t.Fatalf("expected codeUpdate %q at the other member, got %q", "x = 1", text)
	}
	alice.expectNone(protocol.EventCodeUpdate, 200*time.Millisecond)
}

func TestTypingAndLanguageFanOutToOthers(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	bob.expect(protocol.EventUserJoined)

	alice.emit(protocol.EventTyping, protocol.TypingPayload{RoomID: "r1", DisplayName: "Alice"})
	var name string
	if err := bob.expect(protocol.EventUserTyping).Decode(&name); err != nil || name != "Alice" {
		t.Fatalf("expected typing notice from Alice, got %q", name)
	}

	bob.emit(protocol.EventLanguageChange, protocol.LanguageChangePayload{RoomID: "r1", Language: "go"})
	var lang string
	if err := alice.expect(protocol.EventLanguageUpdate).Decode(&lang); err != nil || lang != "go" {
		t.Fatalf("expected language update go, got %q", lang)
	}
	bob.expectNone(protocol.EventLanguageUpdate, 200*time.Millisecond)
}

func TestImplicitLeaveOnRoomSwitch(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	alice.expect(protocol.EventUserJoined)

	bob.join("r2", "Bob")

	if names := memberNames(t, alice.expect(protocol.EventUserJoined)); len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("expected r1 to shrink to [Alice], got %v", names)
	}
}

func TestDisconnectUpdatesMemberListAndVideo(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	alice.expect(protocol.EventUserJoined)

	bob.emit(protocol.EventJoinVideo, nil)
	vj := alice.expect(protocol.EventUserJoinedVideo)
	var vp room.VideoParticipant
	if err := vj.Decode(&vp); err != nil || vp.ParticipantID != bob.id {
		t.Fatalf("expected Bob's video join, got %+v", vp)
	}

	bob.conn.Close()

	if names := memberNames(t, alice.expect(protocol.EventUserJoined)); len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("expected [Alice] after disconnect, got %v", names)
	}
	var left protocol.UserLeftVideoPayload
	if err := alice.expect(protocol.EventUserLeftVideo).Decode(&left); err != nil || left.ParticipantID != bob.id {
		t.Fatalf("expected video departure notice for Bob, got %+v", left)
	}
}

func TestSignalForwarding(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	bob.expect(protocol.EventUserJoined)

	alice.emit(protocol.EventOffer, protocol.SignalPayload{
		RoomID:   "r1",
		TargetID: bob.id,
		Offer:    []byte(`{"type":"offer","sdp":"v=0"}`),
	})

	var sig protocol.SignalPayload
	if err := bob.expect(protocol.EventOffer).Decode(&sig); err != nil {
		t.Fatalf("decode offer: %v", err)
	}
	if sig.FromID != alice.id {
		t.Errorf("offer fromId = %q, want %q", sig.FromID, alice.id)
	}
	if sig.FromDisplayName != "Alice" {
		t.Errorf("offer fromDisplayName = %q, want Alice", sig.FromDisplayName)
	}
	if string(sig.Offer) != `{"type":"offer","sdp":"v=0"}` {
		t.Errorf("offer payload altered by relay: %s", sig.Offer)
	}

	bob.emit(protocol.EventAnswer, protocol.SignalPayload{
		TargetID: alice.id,
		Answer:   []byte(`{"type":"answer","sdp":"v=0"}`),
	})
	sig = protocol.SignalPayload{}
	if err := alice.expect(protocol.EventAnswer).Decode(&sig); err != nil || sig.FromID != bob.id {
		t.Fatalf("answer must carry fromId of the sender, got %+v", sig)
	}
	if sig.FromDisplayName != "" {
		t.Error("answers need no display-name enrichment")
	}

	// Unknown target: silently dropped, sender keeps working.
	alice.emit(protocol.EventICECandidate, protocol.SignalPayload{
		TargetID:  "gone",
		Candidate: []byte(`{"candidate":"x"}`),
	})
	alice.emit(protocol.EventTyping, protocol.TypingPayload{RoomID: "r1"})
	bob.expect(protocol.EventUserTyping)
}

func TestVideoDiscoveryAndToggleAsymmetry(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	bob.expect(protocol.EventUserJoined)

	alice.emit(protocol.EventJoinVideo, nil)
	var existing []room.VideoParticipant
	if err := alice.expect(protocol.EventExistingVideoUsers).Decode(&existing); err != nil || len(existing) != 0 {
		t.Fatalf("first video joiner must see an empty roster, got %v", existing)
	}

	bob.emit(protocol.EventJoinVideo, nil)
	if err := bob.expect(protocol.EventExistingVideoUsers).Decode(&existing); err != nil || len(existing) != 1 || existing[0].ParticipantID != alice.id {
		t.Fatalf("second joiner must discover [Alice], got %v", existing)
	}
	alice.expect(protocol.EventUserJoinedVideo)

	// video-toggle reaches the whole room including the sender.
	alice.emit(protocol.EventVideoToggle, protocol.TogglePayload{RoomID: "r1", Enabled: false})
	var tog protocol.TogglePayload
	if err := alice.expect(protocol.EventVideoToggle).Decode(&tog); err != nil || tog.FromID != alice.id || tog.Enabled {
		t.Fatalf("sender must receive its own video-toggle, got %+v", tog)
	}
	bob.expect(protocol.EventVideoToggle)

	// audio-toggle reaches the others only.
	alice.emit(protocol.EventAudioToggle, protocol.TogglePayload{RoomID: "r1", Enabled: false})
	bob.expect(protocol.EventAudioToggle)
	alice.expectNone(protocol.EventAudioToggle, 200*time.Millisecond)
}

func TestPositionUpdateBroadcast(t *testing.T) {
	url, _ := newTestServer(t, nil)

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	bob.expect(protocol.EventUserJoined)

	// Not a video participant yet: no broadcast.
	alice.emit(protocol.EventPositionChange, protocol.PositionChangePayload{
		RoomID: "r1", ParticipantID: alice.id, Position: room.Position{X: 1, Y: 1},
	})
	bob.expectNone(protocol.EventPositionUpdate, 250*time.Millisecond)

	alice.emit(protocol.EventJoinVideo, nil)
	alice.expect(protocol.EventExistingVideoUsers)

	alice.emit(protocol.EventPositionChange, protocol.PositionChangePayload{
		RoomID: "r1", ParticipantID: alice.id, Position: room.Position{X: 7, Y: 9},
	})
	var upd protocol.PositionUpdatePayload
	if err := bob.expect(protocol.EventPositionUpdate).Decode(&upd); err != nil {
		t.Fatalf("decode position update: %v", err)
	}
	if upd.ParticipantID != alice.id || upd.Position.X != 7 || upd.Position.Y != 9 {
		t.Fatalf("expected Alice at (7,9), got %+v", upd)
	}
}

func TestCompileBroadcastsToWholeRoom(t *testing.T) {
	url, registry := newTestServer(t, &fakeRunner{output: "42\n"})

	alice := dial(t, url)
	alice.join("r1", "Alice")
	bob := dial(t, url)
	bob.join("r1", "Bob")
	alice.expect(protocol.EventUserJoined)
	bob.expect(protocol.EventUserJoined)

	alice.emit(protocol.EventCompileCode, protocol.CompilePayload{
		Code: "print(42)", RoomID: "r1", Language: "python", Version: "3.10.0",
	})

	for _, c := range []*testClient{alice, bob} {
		var res protocol.CodeResponsePayload
		if err := c.expect(protocol.EventCodeResponse).Decode(&res); err != nil {
			t.Fatalf("decode codeResponse: %v", err)
		}
		if res.Output != "42\n" || res.Error != "" {
			t.Fatalf("expected output 42, got %+v", res)
		}
	}

	if got := registry.LastOutput("r1"); got != "42\n" {
		t.Fatalf("room last output = %q, want the successful result stored", got)
	}
}

func TestCompileFailureYieldsSyntheticError(t *testing.T) {
	url, registry := newTestServer(t, &fakeRunner{err: errors.New("boom")})

	alice := dial(t, url)
	alice.join("r1", "Alice")
	alice.expect(protocol.EventUserJoined)

	registry.SetLastOutput("r1", "previous success")

	alice.emit(protocol.EventCompileCode, protocol.CompilePayload{
		Code: "x", RoomID: "r1", Language: "python",
	})

	var res protocol.CodeResponsePayload
	if err := alice.expect(protocol.EventCodeResponse).Decode(&res); err != nil {
		t.Fatalf("decode codeResponse: %v", err)
	}
	if res.Error == "" {
		t.Fatal("expected a synthetic error result")
	}
	if got := registry.LastOutput("r1"); got != "previous success" {
		t.Fatalf("room last output = %q, failures must not clobber it", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(server.HealthCheck))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
