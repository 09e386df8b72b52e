package chessdto

// Event is an outbound board notification. Command carries the event kind
// ("move-update", "bot-move", "game-over", ...); the embedded state is
// flattened so clients read fen, capturedPieces and moveHistory directly.
// Result shadows the embedded state's result and is always filled by the sender.
type Event struct {
	Command string `json:"command"`
	*GameState
	Move    string       `json:"move,omitempty"`
	Color   string       `json:"color,omitempty"`
	Result  string       `json:"result,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   *DomainError `json:"error,omitempty"`
}

// Inbound board commands.
const (
	CommandMove       = "move"
	CommandRequestFEN = "request-fen"
	CommandNewGame    = "new-game"
	CommandApplyMove  = "apply-move"
)

// Command is an inbound message from the board client.
type Command struct {
	Command   string          `json:"command"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Promotion string          `json:"promotion,omitempty"`
	Apply     *Recommendation `json:"recommendation,omitempty"`
}
