// Package notify keeps the message center current: a tracker that
// remembers which notifications the user has already seen, and a poller
// that refetches on a fixed interval while the messages view is
// focused. There is no push channel; polling is the transport.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/leekHotline/seeforme/internal/helpdesk"
	"github.com/leekHotline/seeforme/internal/keystore"
	"github.com/leekHotline/seeforme/internal/model"
)

// Fetcher is satisfied by *helpdesk.Service.
type Fetcher interface {
	Notifications(ctx context.Context) (helpdesk.NotificationList, error)
}

// Tracker persists seen notification IDs as a JSON array under a
// versioned keystore key.
type Tracker struct {
	store keystore.Store
}

func NewTracker(store keystore.Store) *Tracker {
	return &Tracker{store: store}
}

func (t *Tracker) seen() (map[string]bool, error) {
	raw, err := t.store.Get(keystore.KeySeenNotifications)
	if err != nil {
		return nil, fmt.Errorf("read seen set: %w", err)
	}
	seen := map[string]bool{}
	if raw == "" {
		return seen, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		// A corrupt seen set starts over rather than wedging the
		// message center.
		return seen, nil
	}
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

// MarkSeen records notification IDs as read.
func (t *Tracker) MarkSeen(ids ...string) error {
	seen, err := t.seen()
	if err != nil {
		return err
	}
	for _, id := range ids {
		seen[id] = true
	}
	all := make([]string, 0, len(seen))
	for id := range seen {
		all = append(all, id)
	}
	sort.Strings(all)
	encoded, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return t.store.Set(keystore.KeySeenNotifications, string(encoded))
}

// Unseen filters items down to the ones not yet marked seen.
func (t *Tracker) Unseen(items []model.Notification) ([]model.Notification, error) {
	seen, err := t.seen()
	if err != nil {
		return nil, err
	}
	var out []model.Notification
	for _, item := range items {
		if !seen[item.ID] {
			out = append(out, item)
		}
	}
	return out, nil
}

// Update is one poll result.
type Update struct {
	Items    []model.Notification
	Unseen   int
	Source   helpdesk.Source
	Advisory string
}

// Poller refetches notifications on a fixed interval. Run blocks until
// the context is cancelled; cancelling is how the consuming view
// releases the poller when it loses focus.
type Poller struct {
	fetch    Fetcher
	tracker  *Tracker
	interval time.Duration
}

func NewPoller(fetch Fetcher, tracker *Tracker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 8 * time.Second
	}
	return &Poller{fetch: fetch, tracker: tracker, interval: interval}
}

// Run fetches immediately, then on every tick, and sends each result to
// updates. A result arriving after cancellation is dropped instead of
// being delivered to a consumer that is gone.
func (p *Poller) Run(ctx context.Context, updates chan<- Update) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, updates)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, updates)
		}
	}
}

func (p *Poller) poll(ctx context.Context, updates chan<- Update) {
	list, err := p.fetch.Notifications(ctx)
	if err != nil {
		// Fetch errors leave the previous view in place; the next tick
		// tries again.
		return
	}
	unseen, err := p.tracker.Unseen(list.Items)
	if err != nil {
		return
	}
	update := Update{
		Items:    list.Items,
		Unseen:   len(unseen),
		Source:   list.Source,
		Advisory: list.Advisory,
	}
	select {
	case <-ctx.Done():
	case updates <- update:
	}
}
