package domain

import "time"

// FinishedGame is an archived game, written once when the game ends.
type FinishedGame struct {
	ID           int64
	GameID       string
	InstanceID   string
	HumanSide    string
	Result       string
	ResultMethod string
	ResultText   string
	MovesUCI     []string
	MovesSAN     []string
	PGN          string
	OpeningCode  string
	OpeningTitle string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}
