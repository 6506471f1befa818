package shop

import (
	"context"

	"vastram/internal/api"
	"vastram/internal/checkout"
	"vastram/internal/config"
	"vastram/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// asyncResult marks messages that complete a call started with Model.async.
type asyncResult interface {
	asyncDone()
}

type (
	catalogLoadedMsg struct{ err error }

	cartDoneMsg struct {
		action string // add, update, remove, clear, load
		name   string
		err    error
	}

	ordersLoadedMsg struct {
		orders []api.Order
		err    error
	}

	orderPlacedMsg struct {
		receipt checkout.Receipt
		err     error
	}

	contactSentMsg struct {
		ack string
		err error
	}

	authDoneMsg struct {
		register bool
		res      session.Result
		err      error
	}

	logoutDoneMsg struct{}
)

func (catalogLoadedMsg) asyncDone() {}
func (cartDoneMsg) asyncDone()      {}
func (ordersLoadedMsg) asyncDone()  {}
func (orderPlacedMsg) asyncDone()   {}
func (contactSentMsg) asyncDone()   {}
func (authDoneMsg) asyncDone()      {}
func (logoutDoneMsg) asyncDone()    {}

// Events delivered from outside the program loop.
type (
	invalidatedMsg   struct{ reason string }
	configChangedMsg struct{ cfg *config.Config }
	themeSavedMsg    struct{ err error }
)

// async runs fn off the update loop with the API timeout and keeps the
// spinner going until its result arrives.
func (m *Model) async(label string, fn func(ctx context.Context) tea.Msg) tea.Cmd {
	parent, timeout := m.ctx, m.sf.Config.GetAPITimeout()
	call := func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return fn(ctx)
	}

	m.spinner.Message = label
	m.pending++
	if m.pending == 1 {
		return tea.Batch(m.spinner.Tick(), call)
	}
	return call
}

// send delivers msg to the program without blocking the caller.
func (m *Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		// Channel full, drop the event
	}
}

// waitEvent listens for the next external event.
func (m *Model) waitEvent() tea.Cmd {
	if !m.subscribed {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}
