// Package helpdesk exposes the help-request operations the screens
// call. It decides per call whether data comes from the live API or the
// demo fixtures, so individual screens never branch on demo mode
// themselves.
package helpdesk

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/leekHotline/seeforme/internal/api"
	"github.com/leekHotline/seeforme/internal/demo"
	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
	"github.com/leekHotline/seeforme/internal/session"
)

// ErrAlreadyClaimed is the distinct outcome of a claim that lost the
// race: the caller should refetch the request for the authoritative
// status instead of retrying.
var ErrAlreadyClaimed = errors.New("request already claimed by another volunteer")

// Source tags where a read came from.
type Source string

const (
	SourceLive Source = "live"
	SourceDemo Source = "demo"
)

// Advisory is shown once when a failed live read was substituted with
// sample data.
const Advisory = "Live data is unavailable; showing sample content."

type RequestList struct {
	Items    []model.HelpRequest
	Total    int
	Page     int
	PageSize int
	Source   Source
	Advisory string
}

type RequestDetail struct {
	Request  model.HelpRequest
	Source   Source
	Advisory string
}

type ReplyList struct {
	Items  []model.Reply
	Source Source
}

type NotificationList struct {
	Items    []model.Notification
	Source   Source
	Advisory string
}

type Service struct {
	client  *api.Client
	session *session.Session
	catalog *demo.Catalog

	mu      sync.Mutex
	advised bool
}

func New(client *api.Client, sess *session.Session, catalog *demo.Catalog) *Service {
	return &Service{client: client, session: sess, catalog: catalog}
}

// demoOnly reports whether calls must not reach the network at all.
func (s *Service) demoOnly() bool {
	return !s.session.Snapshot().Authenticated
}

// advisory returns the fallback notice exactly once per process.
func (s *Service) advisory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advised {
		return ""
	}
	s.advised = true
	return Advisory
}

// Reads. Each tries the live API when a session exists and falls back
// to fixtures only after an unavailable-class failure; auth and
// validation errors propagate untouched.

func (s *Service) Hall(ctx context.Context, page, pageSize int, status lifecycle.Status) (RequestList, error) {
	if s.demoOnly() {
		return s.demoHall(page, pageSize, ""), nil
	}
	var resp model.RequestPage
	err := s.client.GetJSON(ctx, listEndpoint("/help-requests/hall", page, pageSize, status), &resp)
	if err != nil {
		if api.IsUnavailable(err) {
			return s.demoHall(page, pageSize, s.advisory()), nil
		}
		return RequestList{}, err
	}
	return RequestList{
		Items:    resp.Items,
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Source:   SourceLive,
	}, nil
}

func (s *Service) Mine(ctx context.Context, page, pageSize int, status lifecycle.Status) (RequestList, error) {
	if s.demoOnly() {
		return s.demoMine(page, pageSize, ""), nil
	}
	var resp model.RequestPage
	err := s.client.GetJSON(ctx, listEndpoint("/help-requests/mine", page, pageSize, status), &resp)
	if err != nil {
		if api.IsUnavailable(err) {
			return s.demoMine(page, pageSize, s.advisory()), nil
		}
		return RequestList{}, err
	}
	return RequestList{
		Items:    resp.Items,
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Source:   SourceLive,
	}, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (RequestDetail, error) {
	if s.demoOnly() {
		req, ok := s.catalog.Request(requestID)
		if !ok {
			return RequestDetail{}, fmt.Errorf("request %s not found", requestID)
		}
		return RequestDetail{Request: req, Source: SourceDemo}, nil
	}
	var req model.HelpRequest
	err := s.client.GetJSON(ctx, "/help-requests/"+requestID, &req)
	if err != nil {
		if api.IsUnavailable(err) {
			if fallback, ok := s.catalog.Request(requestID); ok {
				return RequestDetail{Request: fallback, Source: SourceDemo, Advisory: s.advisory()}, nil
			}
		}
		return RequestDetail{}, err
	}
	return RequestDetail{Request: req, Source: SourceLive}, nil
}

func (s *Service) Replies(ctx context.Context, requestID string) (ReplyList, error) {
	if s.demoOnly() {
		return ReplyList{Items: s.catalog.Replies(requestID), Source: SourceDemo}, nil
	}
	var resp struct {
		Items []model.Reply `json:"items"`
	}
	err := s.client.GetJSON(ctx, "/help-requests/"+requestID+"/replies", &resp)
	if err != nil {
		if api.IsUnavailable(err) {
			return ReplyList{Items: s.catalog.Replies(requestID), Source: SourceDemo}, nil
		}
		return ReplyList{}, err
	}
	return ReplyList{Items: resp.Items, Source: SourceLive}, nil
}

func (s *Service) Notifications(ctx context.Context) (NotificationList, error) {
	if s.demoOnly() {
		return NotificationList{Items: s.catalog.Notifications(), Source: SourceDemo}, nil
	}
	var resp struct {
		Items []model.Notification `json:"items"`
	}
	err := s.client.GetJSON(ctx, "/notifications", &resp)
	if err != nil {
		if api.IsUnavailable(err) {
			return NotificationList{Items: s.catalog.Notifications(), Source: SourceDemo, Advisory: s.advisory()}, nil
		}
		return NotificationList{}, err
	}
	return NotificationList{Items: resp.Items, Source: SourceLive}, nil
}

// Mutations. In demo mode each short-circuits before the API client and
// simulates the transition locally; nothing is ever persisted remotely.

func (s *Service) Create(ctx context.Context, payload model.HelpRequestCreate) (model.HelpRequest, Source, error) {
	if payload.VoiceFileID == "" {
		return model.HelpRequest{}, "", session.ValidationError("a voice recording is required")
	}
	if s.demoOnly() {
		created := s.catalog.Add(model.HelpRequest{
			Mode:        payload.Mode,
			VoiceFileID: payload.VoiceFileID,
			RawText:     payload.Text,
		})
		return created, SourceDemo, nil
	}
	var created model.HelpRequest
	if err := s.client.PostJSON(ctx, "/help-requests", payload, &created); err != nil {
		return model.HelpRequest{}, "", err
	}
	return created, SourceLive, nil
}

func (s *Service) Claim(ctx context.Context, requestID string) (model.HelpRequest, error) {
	if s.demoOnly() {
		req, err := s.catalog.Apply(requestID, lifecycle.ActionClaim)
		if err != nil {
			// Mirror the live outcome: a fixture that is no longer open
			// behaves like losing the race.
			return req, ErrAlreadyClaimed
		}
		return req, nil
	}
	var req model.HelpRequest
	err := s.client.PostJSON(ctx, "/help-requests/"+requestID+"/claim", nil, &req)
	if err != nil {
		if api.IsConflict(err) {
			return model.HelpRequest{}, ErrAlreadyClaimed
		}
		return model.HelpRequest{}, err
	}
	return req, nil
}

func (s *Service) Reply(ctx context.Context, requestID string, payload model.ReplyCreate) (model.Reply, error) {
	if err := validateReply(payload); err != nil {
		return model.Reply{}, err
	}
	if s.demoOnly() {
		return s.catalog.AddReply(requestID, payload)
	}
	var reply model.Reply
	if err := s.client.PostJSON(ctx, "/help-requests/"+requestID+"/replies", payload, &reply); err != nil {
		return model.Reply{}, err
	}
	return reply, nil
}

func (s *Service) Cancel(ctx context.Context, requestID string) (model.HelpRequest, error) {
	if s.demoOnly() {
		return s.catalog.Apply(requestID, lifecycle.ActionCancel)
	}
	var req model.HelpRequest
	if err := s.client.PostJSON(ctx, "/help-requests/"+requestID+"/cancel", nil, &req); err != nil {
		return model.HelpRequest{}, err
	}
	return req, nil
}

func (s *Service) Feedback(ctx context.Context, requestID string, payload model.FeedbackCreate) error {
	if s.demoOnly() {
		action := lifecycle.ActionResolve
		if !payload.Resolved {
			action = lifecycle.ActionDismiss
		}
		_, err := s.catalog.Apply(requestID, action)
		return err
	}
	return s.client.PostJSON(ctx, "/help-requests/"+requestID+"/feedback", payload, nil)
}

func (s *Service) demoHall(page, pageSize int, advisory string) RequestList {
	return demoPage(s.catalog.HallRequests(), page, pageSize, advisory)
}

func (s *Service) demoMine(page, pageSize int, advisory string) RequestList {
	return demoPage(s.catalog.SeekerRequests(), page, pageSize, advisory)
}

func demoPage(all []model.HelpRequest, page, pageSize int, advisory string) RequestList {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = len(all)
	}
	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return RequestList{
		Items:    all[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Source:   SourceDemo,
		Advisory: advisory,
	}
}

func listEndpoint(path string, page, pageSize int, status lifecycle.Status) string {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	if status != "" {
		query.Set("status", string(status))
	}
	return path + "?" + query.Encode()
}

func validateReply(payload model.ReplyCreate) error {
	switch payload.ReplyType {
	case model.ReplyText:
		if payload.Text == "" {
			return session.ValidationError("text is required for a text reply")
		}
	case model.ReplyVoice:
		if payload.VoiceFileID == "" {
			return session.ValidationError("voice_file_id is required for a voice reply")
		}
	default:
		return session.ValidationError("reply type must be text or voice")
	}
	return nil
}
