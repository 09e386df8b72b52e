package session

import (
	"fmt"
	"time"
)

type State int

const (
	StateAwaitingFirstMove State = iota
	StateInProgress
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingFirstMove:
		return "awaiting_first_move"
	case StateInProgress:
		return "in_progress"
	case StateGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tag stamps a recommendation or a deferred opponent move with the game
// instance and move counter it was produced for. A tag is valid only while
// both still match the live session.
type Tag struct {
	InstanceID string `json:"instance_id"`
	Counter    uint64 `json:"counter"`
}

func (t Tag) String() string {
	return fmt.Sprintf("%s#%d", t.InstanceID, t.Counter)
}

// MoveRequest is a human move from the board.
type MoveRequest struct {
	From      string
	To        string
	Promotion string
}

// RecommendedMove is a move previously offered by the assistant.
type RecommendedMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	Notation  string `json:"notation"`
	Tag       Tag    `json:"tag"`
}

type MovePair struct {
	White string `json:"white"`
	Black string `json:"black,omitempty"`
}

type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Captured lists taken pieces per capturing side. White holds lower-case
// black pieces, Black holds upper-case white pieces.
type Captured struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// Snapshot is the read-only view of a session handed to the UI.
type Snapshot struct {
	GameID       string
	Tag          Tag
	State        State
	FEN          string
	Turn         string
	HumanSide    string
	Captured     Captured
	History      []MovePair
	LastMove     *LastMove
	MaterialDiff int
	OpeningCode  string
	OpeningTitle string
	Result       string
}

// Record is the persisted form of a session: enough to replay it.
type Record struct {
	GameID          string    `json:"game_id"`
	InstanceID      string    `json:"instance_id"`
	Counter         uint64    `json:"counter"`
	HumanSide       string    `json:"human_side,omitempty"`
	OpponentEnabled bool      `json:"opponent_enabled"`
	Moves           []string  `json:"moves"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func pairHistory(san []string) []MovePair {
	out := make([]MovePair, 0, (len(san)+1)/2)
	for i := 0; i < len(san); i += 2 {
		pair := MovePair{White: san[i]}
		if i+1 < len(san) {
			pair.Black = san[i+1]
		}
		out = append(out, pair)
	}
	return out
}
