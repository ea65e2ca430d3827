package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/leekHotline/seeforme/internal/helpdesk"
	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
)

func (a App) View() string {
	if a.width <= 0 || a.height <= 0 {
		return "Starting SeeForMe..."
	}
	header := a.renderHeader()
	body := a.renderBody()
	footer := a.renderFooter()
	return header + "\n\n" + body + "\n\n" + footer
}

func (a App) renderHeader() string {
	title := "SeeForMe"
	switch a.screen {
	case screenWelcome:
		title += " | Welcome"
	case screenLogin:
		title += " | Sign in"
	case screenRegister:
		title += " | Create account"
	case screenGuestHall:
		title += " | Help hall " + demoStyle.Render("(sample)")
	case screenHome:
		title += " | My requests"
	case screenHall:
		title += " | Help hall"
	case screenDetail:
		title += " | Request " + statusBadge(a.detail.Request.Status)
	case screenCompose:
		title += " | New request"
	case screenReply:
		title += " | Reply"
	case screenMessages:
		title += " | Messages"
		if a.notifs.Unseen > 0 {
			title += fmt.Sprintf(" (%d new)", a.notifs.Unseen)
		}
	case screenProfile:
		title += " | Me"
	}
	return titleStyle.Render(title) + "\n" + helpStyle.Render(a.renderHelp())
}

func (a App) renderHelp() string {
	switch a.screen {
	case screenWelcome:
		return "l: sign in | r: create account | g: browse samples | q: quit"
	case screenLogin:
		return "tab: next field | enter: sign in | esc: back"
	case screenRegister:
		return "tab: next field | ctrl+t: toggle role | enter: create | esc: back"
	case screenGuestHall:
		return "j/k: move | enter: open | esc: back | q: quit"
	case screenHome:
		return "j/k: move | enter: open | n: new request | h/l: page | m: messages | p: me | r: reload | q: quit"
	case screenHall:
		return "j/k: move | enter: open | h/l: page | m: messages | p: me | r: reload | q: quit"
	case screenDetail:
		return a.renderDetailHelp()
	case screenCompose:
		return "tab: next field | enter: post | esc: back"
	case screenReply:
		return "tab: next field | enter: send | esc: back"
	case screenMessages:
		return "j/k: move | enter: mark seen | a: mark all seen | esc: back | q: quit"
	case screenProfile:
		return "t: toggle voice | h: toggle haptic | +/-: voice rate | L: sign out | esc: back | q: quit"
	}
	return "q: quit"
}

// renderDetailHelp only advertises the actions the transition table
// allows for this status and role.
func (a App) renderDetailHelp() string {
	snap := a.sess.Snapshot()
	status := a.detail.Request.Status
	parts := []string{"r: reload", "esc: back"}

	if a.volunteerView(snap) {
		if lifecycle.CanClaim(status) {
			parts = append([]string{"c: claim"}, parts...)
		}
		if lifecycle.CanReply(status) {
			parts = append([]string{"a: reply"}, parts...)
		}
	}
	if a.seekerView(snap) {
		if lifecycle.CanGiveFeedback(status) {
			parts = append([]string{"y: resolved", "u: not resolved"}, parts...)
		}
		if lifecycle.CanCancel(status) {
			parts = append([]string{"x: cancel"}, parts...)
		}
	}
	if a.busy {
		parts = append(parts, "working...")
	}
	return strings.Join(parts, " | ")
}

func (a App) renderBody() string {
	switch a.screen {
	case screenWelcome:
		return a.renderWelcome()
	case screenLogin:
		return a.loginForm.view()
	case screenRegister:
		return a.registerForm.view() + "\n" + labelStyle.Render("Role: ") + string(a.registerRole)
	case screenGuestHall, screenHome, screenHall:
		return a.renderList()
	case screenDetail:
		return a.renderDetail()
	case screenCompose:
		return a.composeForm.view()
	case screenReply:
		return a.renderReplyForm()
	case screenMessages:
		return a.renderMessages()
	case screenProfile:
		return a.renderProfile()
	}
	return ""
}

func (a App) renderWelcome() string {
	lines := []string{
		"SeeForMe connects blind and low-vision seekers with sighted",
		"volunteers for quick, practical help.",
		"",
		"Sign in to post and answer real requests, or browse sample",
		"content without an account.",
	}
	return strings.Join(lines, "\n")
}

func (a App) renderList() string {
	if a.busy && len(a.list.Items) == 0 {
		return "Loading..."
	}
	if len(a.list.Items) == 0 {
		if a.screen == screenHome {
			return "No requests yet. Press n to ask for help."
		}
		return "No open requests right now."
	}

	visible := max(1, a.height-8)
	offset := listOffset(a.cursor, len(a.list.Items), visible)

	lines := make([]string, 0, visible+1)
	for idx := offset; idx < min(len(a.list.Items), offset+visible); idx++ {
		req := a.list.Items[idx]
		text := req.TranscribedText
		if text == "" {
			text = req.RawText
		}
		line := fmt.Sprintf("  %s %s  %s", statusBadge(req.Status), relTime(req.CreatedAt), truncate(text, max(10, a.width-28)))
		if idx == a.cursor {
			line = selectedStyle.Render(fmt.Sprintf("> %s %s  %s", "["+string(req.Status)+"]", relTime(req.CreatedAt), truncate(text, max(10, a.width-28))))
		}
		lines = append(lines, line)
	}

	pages := (a.list.Total + max(1, a.list.PageSize) - 1) / max(1, a.list.PageSize)
	footer := fmt.Sprintf("page %d/%d, %d total", a.list.Page, max(1, pages), a.list.Total)
	if a.list.Source != "" {
		footer += " | " + string(a.list.Source)
	}
	lines = append(lines, "", helpStyle.Render(footer))
	return strings.Join(lines, "\n")
}

func (a App) renderDetail() string {
	req := a.detail.Request
	width := max(24, a.width-4)

	var b strings.Builder
	b.WriteString(labelStyle.Render("Status: "))
	b.WriteString(statusBadge(req.Status))
	b.WriteString("  " + helpStyle.Render(relTime(req.CreatedAt)))
	if a.detail.Source != "" {
		b.WriteString("  " + demoStyle.Render(string(a.detail.Source)))
	}
	b.WriteString("\n\n")

	if req.TranscribedText != "" {
		b.WriteString(labelStyle.Render("Transcript") + "\n")
		b.WriteString(wordwrap.String(req.TranscribedText, width) + "\n\n")
	}
	if req.RawText != "" && req.RawText != req.TranscribedText {
		b.WriteString(labelStyle.Render("Note") + "\n")
		b.WriteString(wordwrap.String(req.RawText, width) + "\n\n")
	}
	if req.VoiceFileID != "" {
		b.WriteString(helpStyle.Render("voice: "+req.VoiceFileID) + "\n")
	}
	for _, att := range req.Attachments {
		b.WriteString(helpStyle.Render("attachment: "+att.FileID+" ("+att.FileType+")") + "\n")
	}

	b.WriteString("\n" + labelStyle.Render(fmt.Sprintf("Replies (%d)", len(a.replies.Items))) + "\n")
	if len(a.replies.Items) == 0 {
		b.WriteString(helpStyle.Render("No replies yet.") + "\n")
	}
	for _, reply := range a.replies.Items {
		b.WriteString(helpStyle.Render(relTime(reply.CreatedAt)) + " ")
		if reply.ReplyType == model.ReplyVoice {
			b.WriteString("voice reply: " + reply.VoiceFileID + "\n")
			continue
		}
		b.WriteString(wordwrap.String(reply.Text, width) + "\n")
	}
	return b.String()
}

func (a App) renderReplyForm() string {
	req := a.detail.Request
	text := req.TranscribedText
	if text == "" {
		text = req.RawText
	}
	intro := helpStyle.Render(truncate(text, max(10, a.width-6)))
	return intro + "\n\n" + a.replyForm.view()
}

func (a App) renderMessages() string {
	if len(a.notifs.Items) == 0 {
		return "No messages."
	}
	visible := max(1, a.height-8)
	offset := listOffset(a.notifCur, len(a.notifs.Items), visible)

	lines := make([]string, 0, visible)
	for idx := offset; idx < min(len(a.notifs.Items), offset+visible); idx++ {
		item := a.notifs.Items[idx]
		line := fmt.Sprintf("  %s  %s - %s", relTime(item.CreatedAt), item.Title, truncate(item.Preview, max(10, a.width-40)))
		if idx == a.notifCur {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if a.notifs.Source != "" {
		lines = append(lines, "", helpStyle.Render(string(a.notifs.Source)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderProfile() string {
	snap := a.sess.Snapshot()
	if !snap.Authenticated || snap.User == nil {
		return "Not signed in."
	}
	user := *snap.User
	onOff := func(v bool) string {
		if v {
			return okStyle.Render("on")
		}
		return helpStyle.Render("off")
	}
	lines := []string{
		labelStyle.Render("Account: ") + accountOf(user),
		labelStyle.Render("Role:    ") + string(user.Role),
		labelStyle.Render("Since:   ") + user.CreatedAt.Format("2006-01-02"),
		"",
		labelStyle.Render("Accessibility"),
		fmt.Sprintf("  voice broadcast (t): %s", onOff(a.settings.TTSEnabled)),
		fmt.Sprintf("  voice rate (+/-):    %.2fx", a.settings.TTSRate),
		fmt.Sprintf("  haptic cues (h):     %s", onOff(a.settings.HapticEnabled)),
	}
	return strings.Join(lines, "\n")
}

func (a App) renderFooter() string {
	if a.status == "" {
		return ""
	}
	if a.isErr {
		return errStyle.Render(a.status)
	}
	if a.status == helpdesk.Advisory {
		return advisoryStyle.Render(a.status)
	}
	return okStyle.Render(a.status)
}

func listOffset(cursor, total, visible int) int {
	if total <= visible {
		return 0
	}
	offset := cursor - visible/2
	return clamp(offset, 0, total-visible)
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
