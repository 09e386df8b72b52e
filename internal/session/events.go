package session

type EventKind string

const (
	EventMoveUpdate  EventKind = "move-update"
	EventBotThinking EventKind = "bot-thinking"
	EventBotMove     EventKind = "bot-move"
	EventGameOver    EventKind = "game-over"
	EventInvalid     EventKind = "invalid"
	EventUserColor   EventKind = "user-color"
	EventNewGame     EventKind = "new-game"
	EventStale       EventKind = "stale"
	EventError       EventKind = "error"
)

// Event is one outbound notification for the board UI.
type Event struct {
	Kind     EventKind
	GameID   string
	Snapshot *Snapshot
	Move     string
	Color    string
	Result   string
	Message  string
	// Err is the rejection cause for invalid and stale events.
	Err      error
}

// Notifier receives session events. Notify is called while the session
// lock is held, so implementations must not block or call back into the session.
type Notifier interface {
	Notify(ev Event)
}

type NotifierFunc func(ev Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
