package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// navigateMsg carries a guard redirect into the update loop.
type navigateMsg struct {
	route string
}

// Router delivers session redirects to the running program. The session
// is built before the program exists, so redirects fired during boot
// are buffered and flushed on Attach.
type Router struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []string
}

func NewRouter() *Router {
	return &Router{}
}

// Attach wires the router to the program's message queue and replays
// any redirects that fired before the program started.
func (r *Router) Attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	buffered := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, route := range buffered {
		send(navigateMsg{route: route})
	}
}

// RedirectTo implements session.Navigator.
func (r *Router) RedirectTo(route string) {
	r.mu.Lock()
	send := r.send
	if send == nil {
		r.pending = append(r.pending, route)
	}
	r.mu.Unlock()
	if send != nil {
		send(navigateMsg{route: route})
	}
}
