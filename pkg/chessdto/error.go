package chessdto

// Error codes carried by DomainError.
const (
	CodeStaleRecommendation = "stale_recommendation"
	CodeIllegalMove         = "illegal_move"
	CodeMovePending         = "move_pending"
	CodeGameOver            = "game_over"
	CodeNoActiveGame        = "no_active_game"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal"
)

// DomainError is the wire form of a recoverable failure. Action, when set,
// names the follow-up the UI should offer (e.g. asking for fresh suggestions).
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Action    string `json:"action,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess coach error"
}
