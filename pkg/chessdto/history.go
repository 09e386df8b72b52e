package chessdto

import "time"

// FinishedGame is an archived game as listed by the history endpoint.
type FinishedGame struct {
	ID           int64     `json:"id"`
	InstanceID   string    `json:"instanceId"`
	HumanSide    string    `json:"humanSide,omitempty"`
	Result       string    `json:"result"`
	ResultMethod string    `json:"resultMethod,omitempty"`
	ResultText   string    `json:"resultText,omitempty"`
	MovesSAN     []string  `json:"movesSan"`
	MovesUCI     []string  `json:"movesUci"`
	PGN          string    `json:"pgn,omitempty"`
	OpeningCode  string    `json:"openingCode,omitempty"`
	OpeningTitle string    `json:"openingTitle,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	EndedAt      time.Time `json:"endedAt"`
	DurationMS   int64     `json:"durationMs"`
}

type HistoryResponse struct {
	GameID string          `json:"gameId"`
	Games  []*FinishedGame `json:"games"`
}
