package demo

import (
	"time"

	"github.com/leekHotline/seeforme/internal/model"
)

// Notifications returns the static message-center sample set.
func (c *Catalog) Notifications() []model.Notification {
	return []model.Notification{
		{
			ID:        "demo-msg-1",
			Type:      "reply",
			Sender:    "hall",
			Title:     "New task: medicine label",
			Preview:   "A seeker uploaded text and photos; consider handling it first.",
			Tag:       "urgent",
			RequestID: "demo-volunteer-1",
			CreatedAt: ago(2 * time.Minute),
		},
		{
			ID:        "demo-msg-2",
			Type:      "system",
			Sender:    "system",
			Title:     "Daily summary",
			Preview:   "You have helped 3 people today. Keep it up.",
			Tag:       "system",
			CreatedAt: ago(10 * time.Minute),
		},
		{
			ID:        "demo-msg-3",
			Type:      "reply",
			Sender:    "hall",
			Title:     "Task status changed",
			Preview:   "A request you claimed was marked resolved by the seeker.",
			Tag:       "status",
			RequestID: "demo-volunteer-2",
			CreatedAt: ago(40 * time.Minute),
		},
	}
}
