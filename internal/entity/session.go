package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

type Reason string

const (
	ReasonWin       Reason = "win"
	ReasonDraw      Reason = "draw"
	ReasonAbandoned Reason = "abandoned"
)

type Mode string

const (
	ModeVersus Mode = "versus"
	ModeBot    Mode = "bot"
)

const maxParticipants = 2

// Result explains a finished session. Participant is the winner or the one who left.
type Result struct {
	Reason      Reason `json:"reason"`
	Participant string `json:"participant,omitempty"`
	Line        []int  `json:"line,omitempty"`
}

// Session is the full state of one room.
type Session struct {
	RoomCode     string          `json:"room_code"`
	Mode         Mode            `json:"mode"`
	Participants []Participant   `json:"participants"`
	Board        tictactoe.Board `json:"board"`
	TurnOwner    string          `json:"turn_owner,omitempty"`
	Status       Status          `json:"status"`
	Result       *Result         `json:"result,omitempty"`
	Round        int             `json:"round"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewSession(roomCode string, mode Mode, creator Participant, now time.Time) *Session {
	return &Session{
		RoomCode:     roomCode,
		Mode:         mode,
		Participants: []Participant{creator},
		Status:       StatusWaiting,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy that shares nothing with the receiver.
func (that *Session) Clone() *Session {
	clone := *that
	clone.Participants = slices.Clone(that.Participants)

	if that.Result != nil {
		result := *that.Result
		result.Line = slices.Clone(that.Result.Line)
		clone.Result = &result
	}

	return &clone
}

func (that *Session) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Session) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Session) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Session) IsFull() bool {
	return len(that.Participants) >= maxParticipants
}

func (that *Session) IsWithBot() bool {
	return that.Mode == ModeBot
}

func (that *Session) Participant(name string) (Participant, bool) {
	idx := that.indexOf(name)
	if idx < 0 {
		return Participant{}, false
	}

	return that.Participants[idx], true
}

func (that *Session) HasParticipant(name string) bool {
	return that.indexOf(name) >= 0
}

// Opponent returns the other participant of name, if both are present.
func (that *Session) Opponent(name string) (Participant, bool) {
	if !that.HasParticipant(name) {
		return Participant{}, false
	}

	for _, participant := range that.Participants {
		if participant.Name != name {
			return participant, true
		}
	}

	return Participant{}, false
}

func (that *Session) SymbolOf(name string) (tictactoe.Mark, bool) {
	participant, ok := that.Participant(name)
	if !ok || !participant.Mark.IsValid() {
		return tictactoe.EmptyCell, false
	}

	return participant.Mark, true
}

func (that *Session) HumanCount() int {
	count := 0
	for _, participant := range that.Participants {
		if !participant.Bot {
			count++
		}
	}

	return count
}

// AddParticipant appends a newcomer to a room with a free slot.
func (that *Session) AddParticipant(participant Participant) error {
	if that.IsFull() {
		return fmt.Errorf("%w: room %s has %d players", apperror.ErrRoomFull, that.RoomCode, len(that.Participants))
	}

	if that.HasParticipant(participant.Name) {
		return fmt.Errorf("%w: %s", apperror.ErrNameTaken, participant.Name)
	}

	participant.Mark = tictactoe.EmptyCell
	that.Participants = append(that.Participants, participant)

	return nil
}

// AssignSymbols pairs exactly two participants and starts a fresh round.
func (that *Session) AssignSymbols(policy PairingPolicy) error {
	if len(that.Participants) != maxParticipants {
		return fmt.Errorf("%w: room %s has %d of %d players",
			apperror.ErrNotEnoughPlayers, that.RoomCode, len(that.Participants), maxParticipants)
	}

	xIdx := 1
	if policy.FirstPlaysX() {
		xIdx = 0
	}

	that.Participants[xIdx].Mark = tictactoe.MarkX
	that.Participants[1-xIdx].Mark = tictactoe.MarkO

	that.Board = tictactoe.Board{}
	that.TurnOwner = that.Participants[xIdx].Name
	that.Status = StatusInProgress
	that.Result = nil
	that.Round++

	return nil
}

// Reset starts a new round with the same two participants.
func (that *Session) Reset(policy PairingPolicy) error {
	return that.AssignSymbols(policy)
}

// ApplyMove places the actor's mark. Cell legality is checked before turn
// ownership, so an occupied cell is reported as such to either participant.
func (that *Session) ApplyMove(actor string, cell int) error {
	switch that.Status {
	case StatusFinished:
		return fmt.Errorf("%w: room %s", apperror.ErrSessionFinished, that.RoomCode)
	case StatusWaiting:
		return fmt.Errorf("%w: room %s", apperror.ErrNotStarted, that.RoomCode)
	case StatusInProgress:
	default:
		return fmt.Errorf("unknown session status %q", that.Status)
	}

	mark, ok := that.SymbolOf(actor)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrNotAMember, actor)
	}

	board, err := that.Board.Place(cell, mark)
	if err != nil {
		return err
	}

	if actor != that.TurnOwner {
		return apperror.ErrNotYourTurn
	}

	that.Board = board

	switch outcome := board.Evaluate(); outcome.State {
	case tictactoe.OutcomeWin:
		that.finish(&Result{Reason: ReasonWin, Participant: actor, Line: outcome.Line[:]})
	case tictactoe.OutcomeDraw:
		that.finish(&Result{Reason: ReasonDraw})
	default:
		opponent, _ := that.Opponent(actor)
		that.TurnOwner = opponent.Name
	}

	return nil
}

// Abandon removes the leaver. A game in progress with an opponent still
// present ends as abandoned so the opponent's next poll sees it.
func (that *Session) Abandon(leaver string) error {
	idx := that.indexOf(leaver)
	if idx < 0 {
		return fmt.Errorf("%w: %s", apperror.ErrNotAMember, leaver)
	}

	wasInProgress := that.IsInProgress()
	that.Participants = slices.Delete(that.Participants, idx, idx+1)

	if wasInProgress && len(that.Participants) > 0 {
		that.finish(&Result{Reason: ReasonAbandoned, Participant: leaver})
	}

	return nil
}

func (that *Session) finish(result *Result) {
	that.Status = StatusFinished
	that.Result = result
	that.TurnOwner = ""
}

func (that *Session) indexOf(name string) int {
	return slices.IndexFunc(that.Participants, func(participant Participant) bool {
		return participant.Name == name
	})
}

// View is a session as seen by one viewer. Non-members get the bare snapshot.
type View struct {
	*Session

	Viewer       string         `json:"viewer,omitempty"`
	Member       bool           `json:"member"`
	YourMark     tictactoe.Mark `json:"your_mark,omitempty"`
	YourTurn     bool           `json:"your_turn"`
	Opponent     string         `json:"opponent,omitempty"`
	OpponentMark tictactoe.Mark `json:"opponent_mark,omitempty"`
}

func (that *Session) ViewFor(viewer string) View {
	view := View{Session: that, Viewer: viewer}

	participant, ok := that.Participant(viewer)
	if !ok {
		return view
	}

	view.Member = true
	view.YourMark = participant.Mark
	view.YourTurn = that.IsInProgress() && that.TurnOwner == viewer

	if opponent, found := that.Opponent(viewer); found {
		view.Opponent = opponent.Name
		view.OpponentMark = opponent.Mark
	}

	return view
}
