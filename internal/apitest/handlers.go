package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leekHotline/seeforme/internal/lifecycle"
	"github.com/leekHotline/seeforme/internal/model"
)

type ctxKey struct{}

type authedUser struct {
	ID   string
	Role model.Role
}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		parsed, err := parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || parsed.Type != "access" {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		b.mu.Lock()
		_, known := b.profiles[parsed.Subject]
		b.mu.Unlock()
		if !known {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		user := authedUser{ID: parsed.Subject, Role: model.Role(parsed.Role)}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func parseToken(raw string) (*claims, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (interface{}, error) {
		return []byte(Secret), nil
	})
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func currentUser(r *http.Request) authedUser {
	user, _ := r.Context().Value(ctxKey{}).(authedUser)
	return user
}

// Auth

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	account := req.Email
	if account == "" {
		account = req.Phone
	}
	if account == "" {
		writeError(w, http.StatusBadRequest, "Phone or email is required")
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[account]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusConflict, "Account already registered")
		return
	}
	id := uuid.NewString()
	b.accounts[account] = Account{ID: id, Account: account, Password: req.Password, Role: req.Role}
	b.profiles[id] = model.UserProfile{
		ID:        id,
		Role:      req.Role,
		Email:     req.Email,
		Phone:     req.Phone,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, tokenBundle(id, req.Role))
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	b.mu.Lock()
	acct, ok := b.accounts[req.Account]
	b.mu.Unlock()
	if !ok || acct.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, tokenBundle(acct.ID, acct.Role))
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	parsed, err := parseToken(req.RefreshToken)
	if err != nil || parsed.Type != "refresh" {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	b.mu.Lock()
	profile, ok := b.profiles[parsed.Subject]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found or inactive")
		return
	}
	writeJSON(w, http.StatusOK, tokenBundle(profile.ID, profile.Role))
}

func tokenBundle(userID string, role model.Role) model.TokenBundle {
	return model.TokenBundle{
		AccessToken:  mustSign("access", userID, role, 15*time.Minute),
		RefreshToken: mustSign("refresh", userID, role, 7*24*time.Hour),
		TokenType:    "bearer",
		Role:         role,
	}
}

// Users

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request) {
	if b.readsUnavailable(w) {
		return
	}
	b.mu.Lock()
	profile := b.profiles[currentUser(r).ID]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, profile)
}

func (b *Backend) handleAccessibility(w http.ResponseWriter, r *http.Request) {
	var settings model.AccessibilitySettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Help requests

func (b *Backend) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.Role != model.RoleSeeker {
		writeError(w, http.StatusForbidden, "Requires seeker role")
		return
	}
	var req model.HelpRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if req.VoiceFileID == "" {
		writeError(w, http.StatusUnprocessableEntity, "voice_file_id is required")
		return
	}
	now := time.Now().UTC()
	created := &model.HelpRequest{
		ID:          uuid.NewString(),
		SeekerID:    user.ID,
		Mode:        req.Mode,
		Status:      lifecycle.StatusOpen,
		VoiceFileID: req.VoiceFileID,
		RawText:     req.Text,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, fid := range req.ImageFileIDs {
		created.Attachments = append(created.Attachments, model.Attachment{
			ID:       uuid.NewString(),
			FileID:   fid,
			FileType: "image",
		})
	}
	b.mu.Lock()
	b.requests[created.ID] = created
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, created)
}

func (b *Backend) handleHall(w http.ResponseWriter, r *http.Request) {
	if b.readsUnavailable(w) {
		return
	}
	if currentUser(r).Role != model.RoleVolunteer {
		writeError(w, http.StatusForbidden, "Requires volunteer role")
		return
	}
	b.writePage(w, r, func(req *model.HelpRequest) bool {
		return req.Mode == model.ModeHall
	})
}

func (b *Backend) handleMine(w http.ResponseWriter, r *http.Request) {
	if b.readsUnavailable(w) {
		return
	}
	user := currentUser(r)
	if user.Role != model.RoleSeeker {
		writeError(w, http.StatusForbidden, "Requires seeker role")
		return
	}
	b.writePage(w, r, func(req *model.HelpRequest) bool {
		return req.SeekerID == user.ID
	})
}

func (b *Backend) writePage(w http.ResponseWriter, r *http.Request, match func(*model.HelpRequest) bool) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	statusFilter := r.URL.Query().Get("status")

	b.mu.Lock()
	var all []model.HelpRequest
	for _, req := range b.requests {
		if !match(req) {
			continue
		}
		if statusFilter != "" && string(req.Status) != statusFilter {
			continue
		}
		all = append(all, *req)
	}
	b.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, model.RequestPage{
		Items:    all[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (b *Backend) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	if b.readsUnavailable(w) {
		return
	}
	b.mu.Lock()
	req, ok := b.requests[chi.URLParam(r, "requestID")]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	snapshot := *req
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func (b *Backend) handleClaim(w http.ResponseWriter, r *http.Request) {
	if currentUser(r).Role != model.RoleVolunteer {
		writeError(w, http.StatusForbidden, "Requires volunteer role")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.requests[chi.URLParam(r, "requestID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	if req.Status != lifecycle.StatusOpen {
		writeError(w, http.StatusConflict, "Request already claimed")
		return
	}
	req.Status = lifecycle.StatusClaimed
	req.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, *req)
}

func (b *Backend) handleListReplies(w http.ResponseWriter, r *http.Request) {
	if b.readsUnavailable(w) {
		return
	}
	b.mu.Lock()
	items := append([]model.Reply(nil), b.replies[chi.URLParam(r, "requestID")]...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]model.Reply{"items": items})
}

func (b *Backend) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.Role != model.RoleVolunteer {
		writeError(w, http.StatusForbidden, "Requires volunteer role")
		return
	}
	var payload model.ReplyCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	requestID := chi.URLParam(r, "requestID")
	req, ok := b.requests[requestID]
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	if !lifecycle.CanReply(req.Status) {
		writeError(w, http.StatusBadRequest, "Request not claimed")
		return
	}
	reply := model.Reply{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		VolunteerID: user.ID,
		ReplyType:   payload.ReplyType,
		VoiceFileID: payload.VoiceFileID,
		Text:        payload.Text,
		CreatedAt:   time.Now().UTC(),
	}
	b.replies[requestID] = append(b.replies[requestID], reply)
	if req.Status == lifecycle.StatusClaimed {
		req.Status = lifecycle.StatusReplied
		req.UpdatedAt = reply.CreatedAt
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (b *Backend) handleCancel(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.Role != model.RoleSeeker {
		writeError(w, http.StatusForbidden, "Requires seeker role")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.requests[chi.URLParam(r, "requestID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	if req.SeekerID != user.ID {
		writeError(w, http.StatusForbidden, "Not your request")
		return
	}
	next, err := lifecycle.Next(req.Status, lifecycle.ActionCancel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Status = next
	req.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, *req)
}

func (b *Backend) handleFeedback(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.Role != model.RoleSeeker {
		writeError(w, http.StatusForbidden, "Requires seeker role")
		return
	}
	var payload model.FeedbackCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	requestID := chi.URLParam(r, "requestID")
	req, ok := b.requests[requestID]
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	action := lifecycle.ActionResolve
	if !payload.Resolved {
		action = lifecycle.ActionDismiss
	}
	next, err := lifecycle.Next(req.Status, action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Status = next
	req.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusCreated, model.Feedback{
		ID:        uuid.NewString(),
		RequestID: requestID,
		SeekerID:  user.ID,
		Resolved:  payload.Resolved,
		Comment:   payload.Comment,
		CreatedAt: req.UpdatedAt,
	})
}

// Notifications and uploads

func (b *Backend) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if b.readsUnavailable(w) {
		return
	}
	b.mu.Lock()
	items := append([]model.Notification(nil), b.notifications...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]model.Notification{"items": items})
}

func (b *Backend) handlePresign(w http.ResponseWriter, r *http.Request) {
	var req model.PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	fileID := uuid.NewString()
	b.mu.Lock()
	base := b.baseURL
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.PresignResponse{
		FileID:    fileID,
		UploadURL: base + "/uploads/raw/" + fileID,
		Category:  category(req.MimeType),
	})
}

func (b *Backend) handleRawUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	b.mu.Lock()
	b.uploads[chi.URLParam(r, "fileID")] = body
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// Upload returns the raw bytes stored for a file ID.
func (b *Backend) Upload(fileID string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.uploads[fileID]
	return body, ok
}

func category(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/"):
		return "voice"
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	default:
		return "file"
	}
}

func (b *Backend) readsUnavailable(w http.ResponseWriter) bool {
	b.mu.Lock()
	failing := b.FailReads
	b.mu.Unlock()
	if failing {
		writeError(w, http.StatusInternalServerError, "Temporarily unavailable")
	}
	return failing
}

func queryInt(r *http.Request, key string, fallback int) int {
	if val := r.URL.Query().Get(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
