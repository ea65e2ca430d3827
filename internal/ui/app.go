// Package ui is the terminal front end. One bubbletea model drives all
// screens; the session guard steers it between the public and role
// areas through the Router.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leekHotline/seeforme/internal/config"
	"github.com/leekHotline/seeforme/internal/helpdesk"
	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
	"github.com/leekHotline/seeforme/internal/notify"
	"github.com/leekHotline/seeforme/internal/session"
	"github.com/leekHotline/seeforme/internal/upload"
)

type screen int

const (
	screenWelcome screen = iota
	screenLogin
	screenRegister
	screenGuestHall
	screenHome
	screenHall
	screenDetail
	screenCompose
	screenReply
	screenMessages
	screenProfile
)

type (
	authResultMsg struct{ err error }
	logoutMsg     struct{ err error }
	listMsg       struct {
		list helpdesk.RequestList
		err  error
	}
	detailMsg struct {
		detail  helpdesk.RequestDetail
		replies helpdesk.ReplyList
		err     error
	}
	actionMsg struct {
		label    string
		conflict bool
		err      error
	}
	createMsg struct {
		created model.HelpRequest
		source  helpdesk.Source
		err     error
	}
	notifUpdateMsg notify.Update
	seenMsg        struct{ err error }
	profileMsg     struct {
		settings model.AccessibilitySettings
		err      error
	}
)

// App is the one model behind the whole TUI.
type App struct {
	ctx      context.Context
	cfg      config.Config
	sess     *session.Session
	desk     *helpdesk.Service
	uploader *upload.Uploader
	tracker  *notify.Tracker

	screen screen
	back   screen
	width  int
	height int

	busy   bool
	status string
	isErr  bool

	list   helpdesk.RequestList
	cursor int

	detail  helpdesk.RequestDetail
	replies helpdesk.ReplyList

	notifs   notify.Update
	notifCur int
	pollCh   chan notify.Update
	pollCtx  context.Context
	pollStop context.CancelFunc

	loginForm    form
	registerForm form
	composeForm  form
	replyForm    form
	registerRole model.Role

	settings model.AccessibilitySettings
}

func newApp(ctx context.Context, cfg config.Config, sess *session.Session, desk *helpdesk.Service, uploader *upload.Uploader, tracker *notify.Tracker) App {
	return App{
		ctx:      ctx,
		cfg:      cfg,
		sess:     sess,
		desk:     desk,
		uploader: uploader,
		tracker:  tracker,
		screen:   screenWelcome,
		loginForm: newForm(
			field{label: "Account (email or phone)", placeholder: "you@example.com"},
			field{label: "Password", secret: true},
		),
		registerForm: newForm(
			field{label: "Email", placeholder: "you@example.com"},
			field{label: "Phone", placeholder: "optional"},
			field{label: "Password", secret: true},
		),
		composeForm: newForm(
			field{label: "Voice recording (file path)", placeholder: "~/note.m4a"},
			field{label: "Text (optional)"},
		),
		replyForm: newForm(
			field{label: "Text reply"},
			field{label: "Voice recording (file path, overrides text)"},
		),
		registerRole: model.RoleSeeker,
		settings: model.AccessibilitySettings{
			TTSEnabled:       true,
			TTSRate:          1.0,
			VoicePromptLevel: 1,
		},
	}
}

// Run builds the program, wires the router into it and blocks until the
// UI exits.
func Run(ctx context.Context, cfg config.Config, sess *session.Session, desk *helpdesk.Service, uploader *upload.Uploader, tracker *notify.Tracker, router *Router) error {
	program := tea.NewProgram(newApp(ctx, cfg, sess, desk, uploader, tracker), tea.WithAltScreen())
	router.Attach(program.Send)
	_, err := program.Run()
	return err
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case navigateMsg:
		return a.navigate(msg.route)

	case authResultMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		// The guard decides the landing screen; a navigateMsg follows.
		a.setStatus("Signed in")
		return a, nil

	case logoutMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.setStatus("Signed out")
		return a, nil

	case listMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.list = msg.list
		a.cursor = clamp(a.cursor, 0, len(a.list.Items)-1)
		if msg.list.Advisory != "" {
			a.setStatus(msg.list.Advisory)
		}
		return a, nil

	case detailMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.detail = msg.detail
		a.replies = msg.replies
		a.screen = screenDetail
		if msg.detail.Advisory != "" {
			a.setStatus(msg.detail.Advisory)
		}
		return a, nil

	case actionMsg:
		a.busy = false
		if msg.err != nil {
			if msg.conflict {
				a.setStatus("Someone else claimed this request first")
				// Refetch for the authoritative status.
				a.busy = true
				return a, a.openDetailCmd(a.detail.Request.ID)
			}
			a.setError(msg.err)
			return a, nil
		}
		a.setStatus(msg.label)
		a.busy = true
		return a, a.openDetailCmd(a.detail.Request.ID)

	case createMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		if msg.source == helpdesk.SourceDemo {
			a.setStatus("Request simulated locally; sign in to reach real volunteers")
		} else {
			a.setStatus("Request posted")
		}
		a.composeForm.reset()
		a.screen = a.back
		a.busy = true
		return a, a.loadListCmd()

	case notifUpdateMsg:
		a.notifs = notify.Update(msg)
		a.notifCur = clamp(a.notifCur, 0, len(a.notifs.Items)-1)
		if a.notifs.Advisory != "" {
			a.setStatus(a.notifs.Advisory)
		}
		return a, a.waitUpdatesCmd()

	case seenMsg:
		if msg.err != nil {
			a.setError(msg.err)
		}
		return a, nil

	case profileMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.settings = msg.settings
		a.setStatus("Accessibility settings saved")
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.stopPolling()
			return a, tea.Quit
		}
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case screenWelcome:
		return a.handleWelcomeKey(msg)
	case screenLogin:
		return a.handleLoginKey(msg)
	case screenRegister:
		return a.handleRegisterKey(msg)
	case screenGuestHall, screenHome, screenHall:
		return a.handleListKey(msg)
	case screenDetail:
		return a.handleDetailKey(msg)
	case screenCompose:
		return a.handleComposeKey(msg)
	case screenReply:
		return a.handleReplyKey(msg)
	case screenMessages:
		return a.handleMessagesKey(msg)
	case screenProfile:
		return a.handleProfileKey(msg)
	}
	return a, nil
}

// navigate maps a guard route onto a screen. SetArea is not re-run
// here; the guard already approved the destination.
func (a App) navigate(route string) (tea.Model, tea.Cmd) {
	a.stopPolling()
	switch route {
	case session.RouteLogin:
		a.screen = screenLogin
		a.loginForm.reset()
		a.setStatus("Please sign in")
		return a, nil
	case session.RouteSeekerHall:
		a.screen = screenHome
		a.back = screenHome
		a.busy = true
		return a, a.loadListCmd()
	case session.RouteVolunteerHall:
		a.screen = screenHall
		a.back = screenHall
		a.busy = true
		return a, a.loadListCmd()
	}
	return a, nil
}

// goTo is the user-initiated counterpart of navigate: it declares the
// new area to the session, which may immediately veto it with a
// redirect.
func (a App) goTo(target screen) (tea.Model, tea.Cmd) {
	a.stopPolling()
	a.screen = target
	switch target {
	case screenWelcome, screenLogin, screenRegister, screenGuestHall:
		a.sess.SetArea(session.AreaPublic)
	case screenHome, screenCompose:
		a.sess.SetArea(session.AreaSeeker)
	case screenHall:
		a.sess.SetArea(session.AreaVolunteer)
	}
	switch target {
	case screenGuestHall, screenHome, screenHall:
		a.back = target
		a.busy = true
		return a, a.loadListCmd()
	case screenMessages:
		return a.startPolling()
	case screenProfile:
		if user := a.sess.Snapshot().User; user != nil {
			a.setStatus("Profile for " + accountOf(*user))
		}
	}
	return a, nil
}

func (a App) handleWelcomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "l":
		return a.goTo(screenLogin)
	case "r":
		a.registerForm.reset()
		return a.goTo(screenRegister)
	case "g":
		a.setStatus(helpdesk.Advisory)
		return a.goTo(screenGuestHall)
	}
	return a, nil
}

func (a App) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return a.goTo(screenWelcome)
	case "tab", "down":
		a.loginForm.next()
		return a, nil
	case "shift+tab", "up":
		a.loginForm.prev()
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		account := a.loginForm.value(0)
		password := a.loginForm.inputs[1].Value()
		a.busy = true
		a.setStatus("Signing in...")
		return a, func() tea.Msg {
			return authResultMsg{err: a.sess.Login(a.ctx, account, password)}
		}
	}
	cmd := a.loginForm.update(msg)
	return a, cmd
}

func (a App) handleRegisterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return a.goTo(screenWelcome)
	case "tab", "down":
		a.registerForm.next()
		return a, nil
	case "shift+tab", "up":
		a.registerForm.prev()
		return a, nil
	case "ctrl+t":
		if a.registerRole == model.RoleSeeker {
			a.registerRole = model.RoleVolunteer
		} else {
			a.registerRole = model.RoleSeeker
		}
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		req := model.RegisterRequest{
			Email:    a.registerForm.value(0),
			Phone:    a.registerForm.value(1),
			Password: a.registerForm.inputs[2].Value(),
			Role:     a.registerRole,
		}
		a.busy = true
		a.setStatus("Creating account...")
		return a, func() tea.Msg {
			return authResultMsg{err: a.sess.Register(a.ctx, req)}
		}
	}
	cmd := a.registerForm.update(msg)
	return a, cmd
}

func (a App) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		a.cursor = clamp(a.cursor-1, 0, len(a.list.Items)-1)
		return a, nil
	case "down", "j":
		a.cursor = clamp(a.cursor+1, 0, len(a.list.Items)-1)
		return a, nil
	case "left", "h":
		if a.list.Page > 1 && !a.busy {
			a.busy = true
			return a, a.loadPageCmd(a.list.Page - 1)
		}
		return a, nil
	case "right", "l":
		if a.list.Page*a.list.PageSize < a.list.Total && !a.busy {
			a.busy = true
			return a, a.loadPageCmd(a.list.Page + 1)
		}
		return a, nil
	case "r":
		if a.busy {
			return a, nil
		}
		a.busy = true
		return a, a.loadListCmd()
	case "enter":
		if a.busy || len(a.list.Items) == 0 {
			return a, nil
		}
		a.busy = true
		return a, a.openDetailCmd(a.list.Items[a.cursor].ID)
	case "n":
		if a.screen == screenHome {
			a.composeForm.reset()
			return a.goTo(screenCompose)
		}
		return a, nil
	case "m":
		if a.screen != screenGuestHall {
			return a.goTo(screenMessages)
		}
		return a, nil
	case "p":
		if a.screen != screenGuestHall {
			return a.goTo(screenProfile)
		}
		return a, nil
	case "esc":
		if a.screen == screenGuestHall {
			return a.goTo(screenWelcome)
		}
		return a, nil
	}
	return a, nil
}

func (a App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.sess.Snapshot()
	status := a.detail.Request.Status

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "b":
		a.screen = a.back
		if a.back == screenWelcome {
			return a.goTo(screenWelcome)
		}
		a.busy = true
		return a, a.loadListCmd()
	case "r":
		if a.busy {
			return a, nil
		}
		a.busy = true
		return a, a.openDetailCmd(a.detail.Request.ID)
	case "c":
		if a.busy || !a.volunteerView(snap) || !lifecycle.CanClaim(status) {
			return a, nil
		}
		a.busy = true
		return a, a.claimCmd(a.detail.Request.ID)
	case "a":
		if a.busy || !a.volunteerView(snap) || !lifecycle.CanReply(status) {
			return a, nil
		}
		a.replyForm.reset()
		a.screen = screenReply
		return a, nil
	case "x":
		if a.busy || !a.seekerView(snap) || !lifecycle.CanCancel(status) {
			return a, nil
		}
		a.busy = true
		return a, a.cancelCmd(a.detail.Request.ID)
	case "y":
		if a.busy || !a.seekerView(snap) || !lifecycle.CanGiveFeedback(status) {
			return a, nil
		}
		a.busy = true
		return a, a.feedbackCmd(a.detail.Request.ID, true)
	case "u":
		if a.busy || !a.seekerView(snap) || !lifecycle.CanGiveFeedback(status) {
			return a, nil
		}
		a.busy = true
		return a, a.feedbackCmd(a.detail.Request.ID, false)
	}
	return a, nil
}

func (a App) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.screen = a.back
		return a, nil
	case "tab", "down":
		a.composeForm.next()
		return a, nil
	case "shift+tab", "up":
		a.composeForm.prev()
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		voicePath := a.composeForm.value(0)
		text := a.composeForm.value(1)
		a.busy = true
		a.setStatus("Posting request...")
		return a, a.createCmd(voicePath, text)
	}
	cmd := a.composeForm.update(msg)
	return a, cmd
}

func (a App) handleReplyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.screen = screenDetail
		return a, nil
	case "tab", "down":
		a.replyForm.next()
		return a, nil
	case "shift+tab", "up":
		a.replyForm.prev()
		return a, nil
	case "enter":
		if a.busy {
			return a, nil
		}
		text := a.replyForm.value(0)
		voicePath := a.replyForm.value(1)
		a.busy = true
		a.screen = screenDetail
		a.setStatus("Sending reply...")
		return a, a.replyCmd(a.detail.Request.ID, text, voicePath)
	}
	cmd := a.replyForm.update(msg)
	return a, cmd
}

func (a App) handleMessagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "b":
		return a.goTo(a.back)
	case "up", "k":
		a.notifCur = clamp(a.notifCur-1, 0, len(a.notifs.Items)-1)
		return a, nil
	case "down", "j":
		a.notifCur = clamp(a.notifCur+1, 0, len(a.notifs.Items)-1)
		return a, nil
	case "enter":
		if len(a.notifs.Items) == 0 {
			return a, nil
		}
		id := a.notifs.Items[a.notifCur].ID
		return a, func() tea.Msg {
			return seenMsg{err: a.tracker.MarkSeen(id)}
		}
	case "a":
		if len(a.notifs.Items) == 0 {
			return a, nil
		}
		ids := make([]string, 0, len(a.notifs.Items))
		for _, item := range a.notifs.Items {
			ids = append(ids, item.ID)
		}
		return a, func() tea.Msg {
			return seenMsg{err: a.tracker.MarkSeen(ids...)}
		}
	}
	return a, nil
}

func (a App) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "b":
		return a.goTo(a.back)
	case "t":
		a.settings.TTSEnabled = !a.settings.TTSEnabled
		return a.saveSettings()
	case "h":
		a.settings.HapticEnabled = !a.settings.HapticEnabled
		return a.saveSettings()
	case "+":
		a.settings.TTSRate += 0.25
		return a.saveSettings()
	case "-":
		if a.settings.TTSRate > 0.25 {
			a.settings.TTSRate -= 0.25
		}
		return a.saveSettings()
	case "L":
		if a.busy {
			return a, nil
		}
		a.busy = true
		return a, func() tea.Msg {
			return logoutMsg{err: a.sess.Logout(a.ctx)}
		}
	}
	return a, nil
}

func (a App) saveSettings() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	settings := a.settings
	a.busy = true
	return a, func() tea.Msg {
		updated, err := a.sess.UpdateAccessibility(a.ctx, settings)
		return profileMsg{settings: updated, err: err}
	}
}

// Commands

func (a App) loadListCmd() tea.Cmd {
	return a.loadPageCmd(1)
}

func (a App) loadPageCmd(page int) tea.Cmd {
	mine := a.screen == screenHome
	size := a.cfg.PageSize
	return func() tea.Msg {
		var (
			list helpdesk.RequestList
			err  error
		)
		if mine {
			list, err = a.desk.Mine(a.ctx, page, size, "")
		} else {
			list, err = a.desk.Hall(a.ctx, page, size, "")
		}
		return listMsg{list: list, err: err}
	}
}

func (a App) openDetailCmd(requestID string) tea.Cmd {
	return func() tea.Msg {
		detail, err := a.desk.Get(a.ctx, requestID)
		if err != nil {
			return detailMsg{err: err}
		}
		replies, err := a.desk.Replies(a.ctx, requestID)
		if err != nil {
			return detailMsg{err: err}
		}
		return detailMsg{detail: detail, replies: replies}
	}
}

func (a App) claimCmd(requestID string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.desk.Claim(a.ctx, requestID)
		if errors.Is(err, helpdesk.ErrAlreadyClaimed) {
			return actionMsg{conflict: true, err: err}
		}
		return actionMsg{label: "Request claimed; the seeker is waiting on you", err: err}
	}
}

func (a App) cancelCmd(requestID string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.desk.Cancel(a.ctx, requestID)
		return actionMsg{label: "Request cancelled", err: err}
	}
}

func (a App) feedbackCmd(requestID string, resolved bool) tea.Cmd {
	label := "Marked unresolved"
	if resolved {
		label = "Marked resolved, thank you"
	}
	return func() tea.Msg {
		err := a.desk.Feedback(a.ctx, requestID, model.FeedbackCreate{Resolved: resolved})
		return actionMsg{label: label, err: err}
	}
}

func (a App) createCmd(voicePath, text string) tea.Cmd {
	return func() tea.Msg {
		voiceID, err := a.uploadVoice(voicePath)
		if err != nil {
			return createMsg{err: err}
		}
		created, source, err := a.desk.Create(a.ctx, model.HelpRequestCreate{
			VoiceFileID: voiceID,
			Text:        text,
			Mode:        model.ModeHall,
		})
		return createMsg{created: created, source: source, err: err}
	}
}

func (a App) replyCmd(requestID, text, voicePath string) tea.Cmd {
	return func() tea.Msg {
		payload := model.ReplyCreate{ReplyType: model.ReplyText, Text: text}
		if voicePath != "" {
			voiceID, err := a.uploadVoice(voicePath)
			if err != nil {
				return actionMsg{err: err}
			}
			payload = model.ReplyCreate{ReplyType: model.ReplyVoice, VoiceFileID: voiceID}
		}
		_, err := a.desk.Reply(a.ctx, requestID, payload)
		return actionMsg{label: "Reply sent", err: err}
	}
}

// uploadVoice reads a local recording and pushes it through the presign
// flow. Demo mode skips the round trip and fabricates a file ID.
func (a App) uploadVoice(path string) (string, error) {
	if path == "" {
		return "", session.ValidationError("a voice recording is required")
	}
	if !a.sess.Snapshot().Authenticated {
		return "demo-" + filepath.Base(path), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read recording: %w", err)
	}
	slot, err := a.uploader.Put(a.ctx, filepath.Base(path), mimeForPath(path), content)
	if err != nil {
		return "", err
	}
	return slot.FileID, nil
}

func mimeForPath(path string) string {
	switch filepath.Ext(path) {
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}

// Notification polling

func (a *App) startPolling() (tea.Model, tea.Cmd) {
	pollCtx, cancel := context.WithCancel(a.ctx)
	a.pollCtx = pollCtx
	a.pollStop = cancel
	a.pollCh = make(chan notify.Update, 1)
	desk, tracker, interval := a.desk, a.tracker, a.cfg.PollInterval
	ch := a.pollCh
	go notify.NewPoller(desk, tracker, interval).Run(pollCtx, ch)
	return *a, a.waitUpdatesCmd()
}

func (a App) waitUpdatesCmd() tea.Cmd {
	ctx, ch := a.pollCtx, a.pollCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			return notifUpdateMsg(update)
		}
	}
}

func (a *App) stopPolling() {
	if a.pollStop != nil {
		a.pollStop()
		a.pollStop = nil
		a.pollCtx = nil
		a.pollCh = nil
	}
}

// Helpers

func (a App) seekerView(snap session.Snapshot) bool {
	if !snap.Authenticated {
		return true
	}
	return snap.Role == model.RoleSeeker
}

func (a App) volunteerView(snap session.Snapshot) bool {
	if !snap.Authenticated {
		return true
	}
	return snap.Role == model.RoleVolunteer
}

func (a *App) setStatus(text string) {
	a.status = text
	a.isErr = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.isErr = true
}

func accountOf(user model.UserProfile) string {
	if user.Email != "" {
		return user.Email
	}
	return user.Phone
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
