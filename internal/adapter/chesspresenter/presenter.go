package chesspresenter

import (
	"github.com/park285/Cheese-chess-coach/internal/session"
	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

// Publisher fans an event out to the board clients of one game. Publish
// must not block.
type Publisher interface {
	Publish(gameID string, ev chessdto.Event)
}

// Presenter converts session events into wire events and hands them to a
// Publisher. It satisfies session.Notifier.
type Presenter struct {
	out       Publisher
	formatter *Formatter
}

func NewPresenter(out Publisher, formatter *Formatter) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	return &Presenter{out: out, formatter: formatter}
}

func (p *Presenter) Notify(ev session.Event) {
	if p == nil || p.out == nil {
		return
	}
	p.out.Publish(ev.GameID, p.Event(ev))
}

func (p *Presenter) Event(ev session.Event) chessdto.Event {
	out := chessdto.Event{
		Command: string(ev.Kind),
		Move:    ev.Move,
		Color:   ev.Color,
		Result:  ev.Result,
		Message: ev.Message,
	}
	if ev.Snapshot != nil {
		out.GameState = ToDTOState(*ev.Snapshot)
		if out.Result == "" {
			out.Result = ev.Snapshot.Result
		}
	}
	if ev.Err != nil {
		out.Error = p.formatter.Error(ev.Err)
		out.Message = out.Error.Message
	}
	return out
}

// StateEvent wraps a snapshot as a command for one client, e.g. the
// move-update answering request-fen.
func (p *Presenter) StateEvent(kind session.EventKind, snap session.Snapshot) chessdto.Event {
	return p.Event(session.Event{Kind: kind, GameID: snap.GameID, Snapshot: &snap})
}

// ErrorEvent reports err to a single client.
func (p *Presenter) ErrorEvent(gameID string, err error) chessdto.Event {
	return p.Event(session.Event{Kind: session.EventError, GameID: gameID, Err: err})
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }
