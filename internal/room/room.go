package room

// Position is advisory UI state for a video tile, last-writer-wins.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Participant is one connected client inside a room. The ID is the
// transport connection id and doubles as the signaling target id.
type Participant struct {
	ID          string `json:"participantId"`
	DisplayName string `json:"displayName"`
}

// VideoParticipant is a room member who has opted into the video call.
type VideoParticipant struct {
	ParticipantID string   `json:"participantId"`
	DisplayName   string   `json:"displayName"`
	Position      Position `json:"position"`
}

// Room groups participants around one shared document and one video call.
// Rooms are created lazily on first join and destroyed when the last
// member leaves.
type Room struct {
	ID           string
	DocumentText string
	Language     string
	LastOutput   string

	members map[string]Participant
	video   map[string]VideoParticipant

	// join order, used to keep broadcast member lists stable
	memberOrder []string
	videoOrder  []string
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]Participant),
		video:   make(map[string]VideoParticipant),
	}
}

// Members returns the current member list in join order.
func (r *Room) Members() []Participant {
	out := make([]Participant, 0, len(r.members))
	for _, id := range r.memberOrder {
		out = append(out, r.members[id])
	}
	return out
}

func (r *Room) addMember(p Participant) {
	if _, ok := r.members[p.ID]; !ok {
		r.memberOrder = append(r.memberOrder, p.ID)
	}
	r.members[p.ID] = p
}

func (r *Room) removeMember(id string) {
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	r.memberOrder = removeID(r.memberOrder, id)
	r.removeVideo(id)
}

func (r *Room) addVideo(vp VideoParticipant) {
	if _, ok := r.video[vp.ParticipantID]; !ok {
		r.videoOrder = append(r.videoOrder, vp.ParticipantID)
	}
	r.video[vp.ParticipantID] = vp
}

func (r *Room) removeVideo(id string) bool {
	if _, ok := r.video[id]; !ok {
		return false
	}
	delete(r.video, id)
	r.videoOrder = removeID(r.videoOrder, id)
	return true
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
