// Package demo supplies static sample data so the app stays explorable
// without a signed-in session or a reachable backend. It is a display
// fallback only; nothing here is ever written to the server.
package demo

import (
	"sort"
	"sync"
	"time"

	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
)

const (
	// SeekerID is the seeker every seeker-side fixture belongs to.
	SeekerID = "demo-user"
	// VolunteerID attributes simulated replies.
	VolunteerID = "volunteer-2026"
)

// Catalog is a mutable copy of the fixture set. Simulated mutations
// (claim, cancel, feedback) update it in place so the UI keeps a
// coherent story for the rest of the process lifetime.
type Catalog struct {
	mu       sync.Mutex
	requests map[string]*model.HelpRequest
	replies  map[string][]model.Reply
}

func NewCatalog() *Catalog {
	c := &Catalog{
		requests: map[string]*model.HelpRequest{},
		replies:  map[string][]model.Reply{},
	}
	for _, req := range seedRequests() {
		r := req
		c.requests[r.ID] = &r
	}
	c.replies["demo-seeker-2"] = []model.Reply{
		{
			ID:          "demo-reply-1",
			RequestID:   "demo-seeker-2",
			VolunteerID: VolunteerID,
			ReplyType:   model.ReplyText,
			Text:        "Bus 316 is arriving now. The front door is in your two o'clock direction.",
			CreatedAt:   ago(7 * time.Minute),
		},
	}
	return c
}

func seedRequests() []model.HelpRequest {
	return []model.HelpRequest{
		{
			ID:              "demo-seeker-1",
			SeekerID:        SeekerID,
			Mode:            model.ModeHall,
			Status:          lifecycle.StatusOpen,
			VoiceFileID:     "demo-voice-1",
			RawText:         "I need help checking medicine instructions.",
			TranscribedText: "Need help checking medicine instructions and dosage.",
			CreatedAt:       ago(12 * time.Minute),
			UpdatedAt:       ago(10 * time.Minute),
		},
		{
			ID:              "demo-seeker-2",
			SeekerID:        SeekerID,
			Mode:            model.ModeHall,
			Status:          lifecycle.StatusReplied,
			VoiceFileID:     "demo-voice-2",
			RawText:         "Can someone identify the bus number for me?",
			TranscribedText: "Please help identify the bus number at station A.",
			CreatedAt:       ago(35 * time.Minute),
			UpdatedAt:       ago(8 * time.Minute),
		},
		{
			ID:              "demo-seeker-3",
			SeekerID:        SeekerID,
			Mode:            model.ModeHall,
			Status:          lifecycle.StatusResolved,
			VoiceFileID:     "demo-voice-3",
			RawText:         "Need help reading a document.",
			TranscribedText: "Assistance requested for reading one printed document.",
			CreatedAt:       ago(90 * time.Minute),
			UpdatedAt:       ago(50 * time.Minute),
		},
		{
			ID:              "demo-volunteer-1",
			SeekerID:        "seeker-1001",
			Mode:            model.ModeHall,
			Status:          lifecycle.StatusOpen,
			VoiceFileID:     "voice-1001",
			RawText:         "Could someone help identify this product label?",
			TranscribedText: "Need quick support identifying a product label in the kitchen.",
			CreatedAt:       ago(6 * time.Minute),
			UpdatedAt:       ago(4 * time.Minute),
		},
		{
			ID:              "demo-volunteer-2",
			SeekerID:        "seeker-1002",
			Mode:            model.ModeHall,
			Status:          lifecycle.StatusClaimed,
			VoiceFileID:     "voice-1002",
			RawText:         "Need help sorting mail envelopes.",
			TranscribedText: "Please help me understand two official mail envelopes.",
			CreatedAt:       ago(28 * time.Minute),
			UpdatedAt:       ago(17 * time.Minute),
		},
		{
			ID:              "demo-volunteer-3",
			SeekerID:        "seeker-1003",
			Mode:            model.ModeHall,
			Status:          lifecycle.StatusOpen,
			VoiceFileID:     "voice-1003",
			RawText:         "Need directions near subway exit C.",
			TranscribedText: "Can anyone guide me from subway exit C to the nearest clinic?",
			CreatedAt:       ago(41 * time.Minute),
			UpdatedAt:       ago(40 * time.Minute),
		},
	}
}

func ago(d time.Duration) time.Time {
	return time.Now().UTC().Add(-d)
}

// SeekerRequests lists fixtures belonging to the demo seeker, newest
// first.
func (c *Catalog) SeekerRequests() []model.HelpRequest {
	return c.list(func(r *model.HelpRequest) bool { return r.SeekerID == SeekerID })
}

// HallRequests lists fixtures shown on the volunteer hall, newest
// first.
func (c *Catalog) HallRequests() []model.HelpRequest {
	return c.list(func(r *model.HelpRequest) bool { return r.SeekerID != SeekerID })
}

func (c *Catalog) list(match func(*model.HelpRequest) bool) []model.HelpRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.HelpRequest
	for _, req := range c.requests {
		if match(req) {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Request returns a fixture by ID.
func (c *Catalog) Request(id string) (model.HelpRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[id]
	if !ok {
		return model.HelpRequest{}, false
	}
	return *req, true
}

// Replies returns the simulated replies for a request.
func (c *Catalog) Replies(requestID string) []model.Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Reply(nil), c.replies[requestID]...)
}

// Apply simulates a lifecycle action against a fixture, enforcing the
// same transition table as the server.
func (c *Catalog) Apply(requestID string, action lifecycle.Action) (model.HelpRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[requestID]
	if !ok {
		return model.HelpRequest{}, errNotFound(requestID)
	}
	next, err := lifecycle.Next(req.Status, action)
	if err != nil {
		return *req, err
	}
	req.Status = next
	req.UpdatedAt = time.Now().UTC()
	return *req, nil
}

// AddReply records a simulated reply and advances the status when the
// transition table calls for it.
func (c *Catalog) AddReply(requestID string, payload model.ReplyCreate) (model.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.requests[requestID]
	if !ok {
		return model.Reply{}, errNotFound(requestID)
	}
	next, err := lifecycle.Next(req.Status, lifecycle.ActionReply)
	if err != nil {
		return model.Reply{}, err
	}
	reply := model.Reply{
		ID:          "demo-reply-" + requestID + "-" + time.Now().UTC().Format("150405.000"),
		RequestID:   requestID,
		VolunteerID: VolunteerID,
		ReplyType:   payload.ReplyType,
		VoiceFileID: payload.VoiceFileID,
		Text:        payload.Text,
		CreatedAt:   time.Now().UTC(),
	}
	c.replies[requestID] = append(c.replies[requestID], reply)
	req.Status = next
	req.UpdatedAt = reply.CreatedAt
	return reply, nil
}

// Add inserts a simulated freshly created request owned by the demo
// seeker.
func (c *Catalog) Add(req model.HelpRequest) model.HelpRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = "demo-created-" + now.Format("150405.000")
	}
	req.SeekerID = SeekerID
	req.Status = lifecycle.StatusOpen
	req.CreatedAt = now
	req.UpdatedAt = now
	c.requests[req.ID] = &req
	return req
}

type errNotFound string

func (e errNotFound) Error() string { return "no demo request with id " + string(e) }
