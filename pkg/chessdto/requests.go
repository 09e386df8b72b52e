package chessdto

type ChatRequest struct {
	Prompt string `json:"prompt"`
}

type ChatResponse struct {
	Text            string           `json:"text"`
	Intent          string           `json:"intent"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

type ApplyRequest struct {
	Recommendation Recommendation `json:"recommendation"`
}

type ApplyResponse struct {
	Message string       `json:"message"`
	State   *GameState   `json:"state,omitempty"`
	Error   *DomainError `json:"error,omitempty"`
}

// AnalysisResponse is the evaluatePosition tool result.
type AnalysisResponse struct {
	RequestType string          `json:"requestType"`
	Moves       []MoveInsight   `json:"moves,omitempty"`
	Analysis    string          `json:"analysis"`
	BoardState  BoardState      `json:"boardState"`
	Position    *PositionDetail `json:"position,omitempty"`
}
