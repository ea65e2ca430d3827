package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leekHotline/seeforme/internal/session"
)

func TestRouterBuffersUntilAttached(t *testing.T) {
	router := NewRouter()
	router.RedirectTo(session.RouteSeekerHall)
	router.RedirectTo(session.RouteLogin)

	var got []string
	router.Attach(func(msg tea.Msg) {
		nav, ok := msg.(navigateMsg)
		if !ok {
			t.Fatalf("unexpected message %T", msg)
		}
		got = append(got, nav.route)
	})

	if len(got) != 2 || got[0] != session.RouteSeekerHall || got[1] != session.RouteLogin {
		t.Fatalf("buffered routes replayed wrong: %v", got)
	}

	router.RedirectTo(session.RouteVolunteerHall)
	if len(got) != 3 || got[2] != session.RouteVolunteerHall {
		t.Fatalf("live redirect not delivered: %v", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence here", 10, "a longe..."},
		{"line\nbreaks", 20, "line breaks"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestListOffsetKeepsCursorVisible(t *testing.T) {
	if got := listOffset(0, 3, 10); got != 0 {
		t.Fatalf("small list should not scroll, got %d", got)
	}
	if got := listOffset(19, 20, 5); got != 15 {
		t.Fatalf("cursor at end should pin to last page, got %d", got)
	}
	if got := listOffset(10, 20, 5); got != 8 {
		t.Fatalf("cursor mid-list should center, got %d", got)
	}
}
