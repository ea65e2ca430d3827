package lifecycle

import "testing"

func TestGatePredicates(t *testing.T) {
	cases := []struct {
		status   Status
		claim    bool
		reply    bool
		cancel   bool
		feedback bool
	}{
		{StatusOpen, true, false, true, false},
		{StatusClaimed, false, true, true, false},
		{StatusReplied, false, true, true, true},
		{StatusResolved, false, false, false, false},
		{StatusUnresolved, false, false, false, false},
		{StatusCancelled, false, false, false, false},
	}
	for _, tc := range cases {
		if got := CanClaim(tc.status); got != tc.claim {
			t.Fatalf("CanClaim(%s) = %v, want %v", tc.status, got, tc.claim)
		}
		if got := CanReply(tc.status); got != tc.reply {
			t.Fatalf("CanReply(%s) = %v, want %v", tc.status, got, tc.reply)
		}
		if got := CanCancel(tc.status); got != tc.cancel {
			t.Fatalf("CanCancel(%s) = %v, want %v", tc.status, got, tc.cancel)
		}
		if got := CanGiveFeedback(tc.status); got != tc.feedback {
			t.Fatalf("CanGiveFeedback(%s) = %v, want %v", tc.status, got, tc.feedback)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusResolved, StatusUnresolved, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusOpen, StatusClaimed, StatusReplied} {
		if s.Terminal() {
			t.Fatalf("expected %s not to be terminal", s)
		}
	}
}

func TestNextFollowsTransitionTable(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		to     Status
		ok     bool
	}{
		{StatusOpen, ActionClaim, StatusClaimed, true},
		{StatusClaimed, ActionClaim, StatusClaimed, false},
		{StatusClaimed, ActionReply, StatusReplied, true},
		{StatusReplied, ActionReply, StatusReplied, true},
		{StatusOpen, ActionReply, StatusOpen, false},
		{StatusOpen, ActionCancel, StatusCancelled, true},
		{StatusClaimed, ActionCancel, StatusCancelled, true},
		{StatusReplied, ActionCancel, StatusCancelled, true},
		{StatusResolved, ActionCancel, StatusResolved, false},
		{StatusReplied, ActionResolve, StatusResolved, true},
		{StatusReplied, ActionDismiss, StatusUnresolved, true},
		{StatusOpen, ActionResolve, StatusOpen, false},
		{StatusCancelled, ActionDismiss, StatusCancelled, false},
	}
	for _, tc := range cases {
		got, err := Next(tc.from, tc.action)
		if tc.ok && err != nil {
			t.Fatalf("Next(%s, %s): unexpected error %v", tc.from, tc.action, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("Next(%s, %s): expected error", tc.from, tc.action)
		}
		if got != tc.to {
			t.Fatalf("Next(%s, %s) = %s, want %s", tc.from, tc.action, got, tc.to)
		}
	}
}

func TestNextUnknownAction(t *testing.T) {
	if _, err := Next(StatusOpen, Action("escalate")); err == nil {
		t.Fatal("expected error for unknown action")
	}
}
