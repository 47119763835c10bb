package entity

import "time"

type EventKind string

const (
	EventRoomCreated EventKind = "room_created"
	EventJoined      EventKind = "joined"
	EventMoved       EventKind = "moved"
	EventRestarted   EventKind = "restarted"
	EventLeft        EventKind = "left"
	EventFinished    EventKind = "finished"
	EventSwept       EventKind = "swept"
)

// Event is one journal line. Players lists every human the event concerns;
// each of them gets it in their own history.
type Event struct {
	Kind     EventKind `json:"kind"`
	RoomCode string    `json:"room_code"`
	Actor    string    `json:"actor,omitempty"`
	Players  []string  `json:"players,omitempty"`
	Cell     *int      `json:"cell,omitempty"`
	Result   *Result   `json:"result,omitempty"`
	Round    int       `json:"round,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent fills Players with the humans seated in session.
func NewEvent(kind EventKind, session *Session, actor string, at time.Time) Event {
	event := Event{
		Kind:     kind,
		RoomCode: session.RoomCode,
		Actor:    actor,
		Result:   session.Result,
		Round:    session.Round,
		At:       at,
	}

	for _, participant := range session.Participants {
		if !participant.Bot {
			event.Players = append(event.Players, participant.Name)
		}
	}

	return event
}
