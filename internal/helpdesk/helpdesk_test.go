package helpdesk

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leekHotline/seeforme/internal/api"
	"github.com/leekHotline/seeforme/internal/apitest"
	"github.com/leekHotline/seeforme/internal/demo"
	"github.com/leekHotline/seeforme/internal/keystore"
	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
	"github.com/leekHotline/seeforme/internal/session"
)

type env struct {
	backend *apitest.Backend
	session *session.Session
	service *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := apitest.New()
	server := httptest.NewServer(backend.Router())
	t.Cleanup(server.Close)
	backend.SetBaseURL(server.URL)

	store := keystore.NewMemStore()
	client := api.New(server.URL, 5*time.Second, store)
	sess := session.New(client, store, nil)
	if err := sess.Boot(context.Background()); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return &env{
		backend: backend,
		session: sess,
		service: New(client, sess, demo.NewCatalog()),
	}
}

func (e *env) loginAs(t *testing.T, role model.Role) string {
	t.Helper()
	account := string(role) + "@seeforme.app"
	userID := e.backend.SeedAccount(apitest.Account{Account: account, Password: "secret1", Role: role})
	if err := e.session.Login(context.Background(), account, "secret1"); err != nil {
		t.Fatalf("login as %s: %v", role, err)
	}
	return userID
}

func TestDemoModeNeverCallsAPI(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	hall, err := e.service.Hall(ctx, 1, 20, "")
	if err != nil || hall.Source != SourceDemo {
		t.Fatalf("expected demo hall, got %+v err=%v", hall, err)
	}
	mine, err := e.service.Mine(ctx, 1, 20, "")
	if err != nil || mine.Source != SourceDemo {
		t.Fatalf("expected demo mine, got %+v err=%v", mine, err)
	}
	if _, err := e.service.Get(ctx, "demo-volunteer-1"); err != nil {
		t.Fatalf("demo get: %v", err)
	}
	if _, err := e.service.Claim(ctx, "demo-volunteer-1"); err != nil {
		t.Fatalf("demo claim: %v", err)
	}
	if _, err := e.service.Reply(ctx, "demo-volunteer-1", model.ReplyCreate{ReplyType: model.ReplyText, Text: "hi"}); err != nil {
		t.Fatalf("demo reply: %v", err)
	}
	if _, err := e.service.Cancel(ctx, "demo-seeker-1"); err != nil {
		t.Fatalf("demo cancel: %v", err)
	}
	if err := e.service.Feedback(ctx, "demo-seeker-2", model.FeedbackCreate{Resolved: true}); err != nil {
		t.Fatalf("demo feedback: %v", err)
	}
	if _, _, err := e.service.Create(ctx, model.HelpRequestCreate{VoiceFileID: "v1", Mode: model.ModeHall}); err != nil {
		t.Fatalf("demo create: %v", err)
	}

	if hits := e.backend.Hits(); hits != 0 {
		t.Fatalf("demo mode reached the network %d times", hits)
	}
}

func TestDemoMutationsFollowTransitionTable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	claimed, err := e.service.Claim(ctx, "demo-volunteer-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != lifecycle.StatusClaimed {
		t.Fatalf("expected simulated claim, got %s", claimed.Status)
	}

	// The fixture that is already claimed behaves like a lost race.
	if _, err := e.service.Claim(ctx, "demo-volunteer-2"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestClaimConflictIsDistinct(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, model.RoleVolunteer)
	ctx := context.Background()

	seeded := e.backend.SeedRequest(model.HelpRequest{Mode: model.ModeHall, SeekerID: "s1"})

	// Someone else claims first.
	e.backend.SetStatus(seeded.ID, lifecycle.StatusClaimed)

	_, err := e.service.Claim(ctx, seeded.ID)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed for 409, got %v", err)
	}

	// Refreshing shows the authoritative status and the gate closes.
	detail, err := e.service.Get(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if detail.Request.Status != lifecycle.StatusClaimed {
		t.Fatalf("expected claimed after refresh, got %s", detail.Request.Status)
	}
	if lifecycle.CanClaim(detail.Request.Status) {
		t.Fatal("gate still offers claim on a claimed request")
	}

	// Other failures are not folded into the conflict outcome.
	if _, err := e.service.Claim(ctx, "no-such-request"); errors.Is(err, ErrAlreadyClaimed) {
		t.Fatal("a non-conflict failure must not look like a lost claim race")
	}
}

func TestFeedbackResolvesRequest(t *testing.T) {
	e := newEnv(t)
	seekerID := e.loginAs(t, model.RoleSeeker)
	ctx := context.Background()

	seeded := e.backend.SeedRequest(model.HelpRequest{
		Mode:     model.ModeHall,
		SeekerID: seekerID,
		Status:   lifecycle.StatusReplied,
	})

	if err := e.service.Feedback(ctx, seeded.ID, model.FeedbackCreate{Resolved: true, Comment: "thanks"}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	updated, ok := e.backend.Request(seeded.ID)
	if !ok || updated.Status != lifecycle.StatusResolved {
		t.Fatalf("expected resolved, got %+v", updated)
	}
	if lifecycle.CanGiveFeedback(updated.Status) || lifecycle.CanCancel(updated.Status) {
		t.Fatal("gate still offers actions on a terminal request")
	}
}

func TestReplyAdvancesClaimedRequest(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, model.RoleVolunteer)
	ctx := context.Background()

	seeded := e.backend.SeedRequest(model.HelpRequest{
		Mode:     model.ModeHall,
		SeekerID: "s1",
		Status:   lifecycle.StatusClaimed,
	})

	reply, err := e.service.Reply(ctx, seeded.ID, model.ReplyCreate{ReplyType: model.ReplyText, Text: "on it"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Text != "on it" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	updated, _ := e.backend.Request(seeded.ID)
	if updated.Status != lifecycle.StatusReplied {
		t.Fatalf("expected replied, got %s", updated.Status)
	}

	list, err := e.service.Replies(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(list.Items) != 1 || list.Source != SourceLive {
		t.Fatalf("expected one live reply, got %+v", list)
	}
}

func TestCancelOwnRequest(t *testing.T) {
	e := newEnv(t)
	seekerID := e.loginAs(t, model.RoleSeeker)
	ctx := context.Background()

	seeded := e.backend.SeedRequest(model.HelpRequest{Mode: model.ModeHall, SeekerID: seekerID})
	cancelled, err := e.service.Cancel(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != lifecycle.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestHallPaginationAndFilter(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, model.RoleVolunteer)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e.backend.SeedRequest(model.HelpRequest{Mode: model.ModeHall, SeekerID: "s1"})
	}
	e.backend.SeedRequest(model.HelpRequest{Mode: model.ModeHall, SeekerID: "s1", Status: lifecycle.StatusClaimed})

	page, err := e.service.Hall(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("hall: %v", err)
	}
	if page.Source != SourceLive || page.Total != 4 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	filtered, err := e.service.Hall(ctx, 1, 20, lifecycle.StatusOpen)
	if err != nil {
		t.Fatalf("filtered hall: %v", err)
	}
	if filtered.Total != 3 {
		t.Fatalf("expected 3 open requests, got %d", filtered.Total)
	}
}

func TestFallbackAfterFailedLiveRead(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, model.RoleVolunteer)
	ctx := context.Background()
	e.backend.FailReads = true

	first, err := e.service.Hall(ctx, 1, 20, "")
	if err != nil {
		t.Fatalf("hall: %v", err)
	}
	if first.Source != SourceDemo {
		t.Fatal("expected demo fallback after failed live read")
	}
	if first.Advisory == "" {
		t.Fatal("expected a one-time advisory on first fallback")
	}

	second, err := e.service.Hall(ctx, 1, 20, "")
	if err != nil {
		t.Fatalf("hall: %v", err)
	}
	if second.Advisory != "" {
		t.Fatalf("advisory must fire once, got %q again", second.Advisory)
	}
}

func TestAuthFailuresAreNotSubstituted(t *testing.T) {
	e := newEnv(t)
	e.loginAs(t, model.RoleSeeker)
	ctx := context.Background()

	// A seeker asking for the volunteer hall gets the 403, not sample
	// data: only unavailable-class failures trigger the fallback.
	_, err := e.service.Hall(ctx, 1, 20, "")
	if api.KindOf(err) != api.KindForbidden {
		t.Fatalf("expected forbidden to propagate, got %v", err)
	}
}

func TestCreateRequiresVoice(t *testing.T) {
	e := newEnv(t)
	var verr session.ValidationError
	if _, _, err := e.service.Create(context.Background(), model.HelpRequestCreate{Mode: model.ModeHall}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if hits := e.backend.Hits(); hits != 0 {
		t.Fatalf("validation must not reach the network, saw %d calls", hits)
	}
}

func TestCreateLive(t *testing.T) {
	e := newEnv(t)
	seekerID := e.loginAs(t, model.RoleSeeker)
	ctx := context.Background()

	created, source, err := e.service.Create(ctx, model.HelpRequestCreate{
		VoiceFileID: "voice-1",
		Text:        "please help",
		Mode:        model.ModeHall,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if source != SourceLive || created.SeekerID != seekerID || created.Status != lifecycle.StatusOpen {
		t.Fatalf("unexpected created request %+v source=%s", created, source)
	}

	mine, err := e.service.Mine(ctx, 1, 20, "")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if mine.Total != 1 {
		t.Fatalf("expected the created request in mine, got %+v", mine)
	}
}
