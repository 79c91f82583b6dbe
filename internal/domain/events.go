package domain

import "time"

// Realtime event names.
const (
	EventGameStateChanged   = "game:stateChanged"
	EventSubmissionReceived = "submission:received"
	EventSubmissionReviewed = "submission:reviewed"
	EventVoteCast           = "vote:cast"
	EventAnswerSubmitted    = "answer:submitted"
	EventReactionSent       = "reaction:sent"
	EventOrganizerAction    = "organizer:action"
	EventParticipantJoined  = "participant:joined"
)

// Event is a fire-and-forget notification fanned out to a room.
type Event struct {
	Name   string    `json:"event"`
	GameID string    `json:"gameId,omitempty"`
	Data   any       `json:"data,omitempty"`
	SentAt time.Time `json:"sentAt"`
}

// StateChange is the payload of game:stateChanged.
type StateChange struct {
	GameID string     `json:"gameId"`
	From   GameStatus `json:"from"`
	To     GameStatus `json:"to"`
}
