package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leekHotline/seeforme/internal/helpdesk"
	"github.com/leekHotline/seeforme/internal/keystore"
	"github.com/leekHotline/seeforme/internal/model"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	list  helpdesk.NotificationList
	err   error
	hook  func()
}

func (f *fakeFetcher) Notifications(ctx context.Context) (helpdesk.NotificationList, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.hook != nil {
		f.hook()
	}
	return f.list, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func notifications(ids ...string) []model.Notification {
	out := make([]model.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Notification{ID: id, Title: "t", Preview: "p", CreatedAt: time.Now().UTC()})
	}
	return out
}

func TestTrackerMarkSeenPersists(t *testing.T) {
	store := keystore.NewMemStore()
	tracker := NewTracker(store)

	items := notifications("n1", "n2", "n3")
	unseen, err := tracker.Unseen(items)
	if err != nil {
		t.Fatalf("unseen: %v", err)
	}
	if len(unseen) != 3 {
		t.Fatalf("expected all unseen, got %d", len(unseen))
	}

	if err := tracker.MarkSeen("n1", "n3"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	// A fresh tracker over the same store sees the persisted set.
	unseen, err = NewTracker(store).Unseen(items)
	if err != nil {
		t.Fatalf("unseen after reopen: %v", err)
	}
	if len(unseen) != 1 || unseen[0].ID != "n2" {
		t.Fatalf("expected only n2 unseen, got %+v", unseen)
	}
}

func TestTrackerCorruptSeenSetStartsOver(t *testing.T) {
	store := keystore.NewMemStore()
	if err := store.Set(keystore.KeySeenNotifications, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tracker := NewTracker(store)

	unseen, err := tracker.Unseen(notifications("n1"))
	if err != nil {
		t.Fatalf("unseen: %v", err)
	}
	if len(unseen) != 1 {
		t.Fatalf("corrupt state must not hide notifications, got %d unseen", len(unseen))
	}
	if err := tracker.MarkSeen("n1"); err != nil {
		t.Fatalf("mark seen over corrupt state: %v", err)
	}
}

func TestPollerFetchesImmediatelyThenTicks(t *testing.T) {
	store := keystore.NewMemStore()
	tracker := NewTracker(store)
	if err := tracker.MarkSeen("n1"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	fetcher := &fakeFetcher{list: helpdesk.NotificationList{
		Items:  notifications("n1", "n2"),
		Source: helpdesk.SourceLive,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan Update, 8)
	done := make(chan struct{})
	go func() {
		NewPoller(fetcher, tracker, 10*time.Millisecond).Run(ctx, updates)
		close(done)
	}()

	first := <-updates
	if first.Unseen != 1 || len(first.Items) != 2 || first.Source != helpdesk.SourceLive {
		t.Fatalf("unexpected first update %+v", first)
	}

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never ticked")
	}
	if fetcher.callCount() < 2 {
		t.Fatalf("expected repeated fetches, got %d", fetcher.callCount())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}

func TestPollerDropsResultAfterCancellation(t *testing.T) {
	store := keystore.NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{
		list: helpdesk.NotificationList{Items: notifications("n1"), Source: helpdesk.SourceDemo},
		// The consumer goes away while the fetch is in flight.
		hook: cancel,
	}

	updates := make(chan Update)
	done := make(chan struct{})
	go func() {
		NewPoller(fetcher, NewTracker(store), time.Minute).Run(ctx, updates)
		close(done)
	}()

	select {
	case u := <-updates:
		t.Fatalf("update delivered after cancellation: %+v", u)
	case <-done:
	}
}

func TestPollerSkipsFailedFetches(t *testing.T) {
	store := keystore.NewMemStore()
	fetcher := &fakeFetcher{err: context.DeadlineExceeded}

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan Update, 1)
	done := make(chan struct{})
	go func() {
		NewPoller(fetcher, NewTracker(store), 5*time.Millisecond).Run(ctx, updates)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	select {
	case u := <-updates:
		t.Fatalf("failed fetch produced an update: %+v", u)
	default:
	}
	if fetcher.callCount() < 2 {
		t.Fatalf("poller stopped retrying after an error, %d calls", fetcher.callCount())
	}
}
