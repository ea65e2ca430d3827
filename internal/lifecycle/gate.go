// Package lifecycle mirrors the server-side help-request status machine.
// It only gates which actions the client may offer; the server stays
// authoritative and any mutation can still be rejected remotely.
package lifecycle

import "fmt"

type Status string

const (
	StatusOpen       Status = "open"
	StatusClaimed    Status = "claimed"
	StatusReplied    Status = "replied"
	StatusResolved   Status = "resolved"
	StatusUnresolved Status = "unresolved"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusReplied, StatusResolved, StatusUnresolved, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusResolved, StatusUnresolved, StatusCancelled:
		return true
	}
	return false
}

// CanClaim is volunteer-side: only an open request can be claimed.
func CanClaim(s Status) bool { return s == StatusOpen }

// CanReply is volunteer-side: the assigned volunteer can keep replying
// after the first reply.
func CanReply(s Status) bool { return s == StatusClaimed || s == StatusReplied }

// CanCancel is seeker-side: anything not yet terminal can be cancelled.
func CanCancel(s Status) bool {
	return s == StatusOpen || s == StatusClaimed || s == StatusReplied
}

// CanGiveFeedback is seeker-side: feedback closes a replied request.
func CanGiveFeedback(s Status) bool { return s == StatusReplied }

// Action is a client-initiated transition on a help request.
type Action string

const (
	ActionClaim   Action = "claim"
	ActionReply   Action = "reply"
	ActionCancel  Action = "cancel"
	ActionResolve Action = "resolve"
	ActionDismiss Action = "dismiss"
)

// Next returns the status a request moves to when the action is applied,
// or an error when the transition table forbids it. The demo layer uses
// this to simulate mutations without a backend.
func Next(s Status, a Action) (Status, error) {
	switch a {
	case ActionClaim:
		if !CanClaim(s) {
			return s, fmt.Errorf("cannot claim request with status %q", s)
		}
		return StatusClaimed, nil
	case ActionReply:
		if !CanReply(s) {
			return s, fmt.Errorf("cannot reply to request with status %q", s)
		}
		return StatusReplied, nil
	case ActionCancel:
		if !CanCancel(s) {
			return s, fmt.Errorf("cannot cancel request with status %q", s)
		}
		return StatusCancelled, nil
	case ActionResolve:
		if !CanGiveFeedback(s) {
			return s, fmt.Errorf("cannot give feedback on request with status %q", s)
		}
		return StatusResolved, nil
	case ActionDismiss:
		if !CanGiveFeedback(s) {
			return s, fmt.Errorf("cannot give feedback on request with status %q", s)
		}
		return StatusUnresolved, nil
	}
	return s, fmt.Errorf("unknown action %q", a)
}
