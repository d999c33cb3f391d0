package room

import "sync"

// Registry is the authoritative server-side room table. It lives for the
// whole process and is handed to the relay explicitly; there is no global
// instance. All state is in-memory and transient.
//
// The relay hub drives the registry from a single goroutine, but every
// method still locks so that handlers running outside the hub loop (health
// checks, the compile completion path) can read it safely.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreateRoom returns the room for id, creating an empty one if needed.
func (reg *Registry) GetOrCreateRoom(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.getOrCreate(id)
}

func (reg *Registry) getOrCreate(id string) *Room {
	r, ok := reg.rooms[id]
	if !ok {
		r = newRoom(id)
		reg.rooms[id] = r
	}
	return r
}

// AddMember inserts or overwrites a participant in the room, creating the
// room if it does not exist yet.
func (reg *Registry) AddMember(roomID string, p Participant) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.getOrCreate(roomID).addMember(p)
}

// RemoveMember removes the participant from the room's member list and,
// if present, from its video participants. When the last member leaves the
// room is deleted and RemoveMember reports true.
func (reg *Registry) RemoveMember(roomID, participantID string) (roomEmpty bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	r.removeMember(participantID)
	if len(r.members) == 0 {
		delete(reg.rooms, roomID)
		return true
	}
	return false
}

// Members returns the member list of roomID in join order, or nil if the
// room does not exist.
func (reg *Registry) Members(roomID string) []Participant {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	return r.Members()
}

// DisplayName looks up a member's display name inside a room.
func (reg *Registry) DisplayName(roomID, participantID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return "", false
	}
	p, ok := r.members[participantID]
	return p.DisplayName, ok
}

// SetDocumentText overwrites the shared document, last-writer-wins.
func (reg *Registry) SetDocumentText(roomID, text string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok {
		r.DocumentText = text
	}
}

// DocumentText returns the current shared document of the room.
func (reg *Registry) DocumentText(roomID string) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if r, ok := reg.rooms[roomID]; ok {
		return r.DocumentText
	}
	return ""
}

// SetLanguage records the room's current language.
func (reg *Registry) SetLanguage(roomID, language string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok {
		r.Language = language
	}
}

// SetLastOutput records the most recent execution output for the room.
func (reg *Registry) SetLastOutput(roomID, output string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok {
		r.LastOutput = output
	}
}

// LastOutput returns the room's most recent successful execution output.
func (reg *Registry) LastOutput(roomID string) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if r, ok := reg.rooms[roomID]; ok {
		return r.LastOutput
	}
	return ""
}

// AddVideoParticipant registers a member as a video participant. Video
// membership never outlives room membership: the call is ignored if the
// participant is not a current member.
func (reg *Registry) AddVideoParticipant(roomID string, vp VideoParticipant) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := r.members[vp.ParticipantID]; !ok {
		return false
	}
	r.addVideo(vp)
	return true
}

// RemoveVideoParticipant removes the participant from the video call only;
// room membership is untouched. Reports whether anything was removed.
func (reg *Registry) RemoveVideoParticipant(roomID, participantID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	return r.removeVideo(participantID)
}

// UpdateVideoPosition moves a video tile. It fails silently (returns false)
// when the participant is not currently in the video call; the caller must
// not broadcast on failure.
func (reg *Registry) UpdateVideoPosition(roomID, participantID string, pos Position) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	vp, ok := r.video[participantID]
	if !ok {
		return false
	}
	vp.Position = pos
	r.video[participantID] = vp
	return true
}

// ListVideoParticipants returns the room's video participants in join
// order, optionally excluding one participant id.
func (reg *Registry) ListVideoParticipants(roomID, excluding string) []VideoParticipant {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]VideoParticipant, 0, len(r.video))
	for _, id := range r.videoOrder {
		if id == excluding {
			continue
		}
		out = append(out, r.video[id])
	}
	return out
}

// IsVideoParticipant reports whether the participant is in the room's video call.
func (reg *Registry) IsVideoParticipant(roomID, participantID string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = r.video[participantID]
	return ok
}

// RoomCount returns the number of live rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
