package window

import (
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"

	"github.com/ipfs-force-community/sophon-connect/types"
)

const (
	EventRequestProvider  = "eip6963:requestProvider"
	EventAnnounceProvider = "eip6963:announceProvider"
)

type Event struct {
	ID         uuid.UUID
	Name       string
	CreateTime time.Time
	// Detail is only set on announce events.
	Detail *types.AnnounceDetail
}

func NewEvent(name string, detail *types.AnnounceDetail) *Event {
	return &Event{
		ID:         uuid.New(),
		Name:       name,
		CreateTime: time.Now(),
		Detail:     detail,
	}
}

func (w *Window) feed(name string) *event.Feed {
	w.feedLk.Lock()
	defer w.feedLk.Unlock()
	f, ok := w.feeds[name]
	if !ok {
		f = new(event.Feed)
		w.feeds[name] = f
	}
	return f
}

func (w *Window) AddListener(name string, sink chan<- *Event) (event.Subscription, error) {
	return w.feed(name).Subscribe(sink), nil
}

// Dispatch blocks until every listener registered for name accepted the event
// or unsubscribed. A listener that never reads stalls this and every later
// Dispatch of name, callers with a deadline dispatch from their own goroutine.
func (w *Window) Dispatch(name string, ev *Event) error {
	if ev.Name == "" {
		ev.Name = name
	}
	w.feed(name).Send(ev)
	return nil
}
