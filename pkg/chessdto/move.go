package chessdto

// MoveTag identifies the game instance and move counter a suggestion was made for.
type MoveTag struct {
	InstanceID string `json:"instanceId"`
	Counter    uint64 `json:"counter"`
}

// Recommendation is one clickable suggested move.
type Recommendation struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Promotion   string  `json:"promotion,omitempty"`
	Notation    string  `json:"notation"`
	Tag         MoveTag `json:"gameStateCounter"`
	Title       string  `json:"title"`
	Explanation string  `json:"explanation,omitempty"`
	Score       float64 `json:"score"`
}

type MoveInsight struct {
	Move        string  `json:"move"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Promotion   string  `json:"promotion,omitempty"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Piece       string  `json:"piece"`
	Captured    string  `json:"captured,omitempty"`
}
