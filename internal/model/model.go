// Package model holds the wire types shared between the API client,
// the session layer and the UI. Field names follow the backend JSON
// schema exactly.
package model

import (
	"time"

	"github.com/leekHotline/seeforme/internal/lifecycle"
)

type Role string

const (
	RoleSeeker    Role = "seeker"
	RoleVolunteer Role = "volunteer"
)

func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleVolunteer
}

type RequestMode string

const (
	ModeHall   RequestMode = "hall"
	ModeDirect RequestMode = "direct"
)

type ReplyType string

const (
	ReplyVoice ReplyType = "voice"
	ReplyText  ReplyType = "text"
)

// TokenBundle is the response of /auth/login, /auth/register and
// /auth/refresh. The keystore owns the persisted copy.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Role         Role   `json:"role"`
}

type RegisterRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type UserProfile struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type AccessibilitySettings struct {
	TTSEnabled       bool    `json:"tts_enabled"`
	TTSRate          float64 `json:"tts_rate"`
	HapticEnabled    bool    `json:"haptic_enabled"`
	VoicePromptLevel int     `json:"voice_prompt_level"`
}

type Attachment struct {
	ID       string `json:"id"`
	FileID   string `json:"file_id"`
	FileType string `json:"file_type"`
}

type HelpRequest struct {
	ID              string           `json:"id"`
	SeekerID        string           `json:"seeker_id"`
	Mode            RequestMode      `json:"mode"`
	Status          lifecycle.Status `json:"status"`
	VoiceFileID     string           `json:"voice_file_id"`
	RawText         string           `json:"raw_text"`
	TranscribedText string           `json:"transcribed_text"`
	Attachments     []Attachment     `json:"attachments"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// HelpRequestCreate is the create payload. Voice is mandatory on the
// backend; text and up to three images are optional.
type HelpRequestCreate struct {
	VoiceFileID       string      `json:"voice_file_id"`
	Text              string      `json:"text,omitempty"`
	ImageFileIDs      []string    `json:"image_file_ids,omitempty"`
	Mode              RequestMode `json:"mode"`
	TargetVolunteerID string      `json:"target_volunteer_id,omitempty"`
}

type RequestPage struct {
	Items    []HelpRequest `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type Reply struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	VolunteerID string    `json:"volunteer_id"`
	ReplyType   ReplyType `json:"reply_type"`
	VoiceFileID string    `json:"voice_file_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReplyCreate struct {
	ReplyType   ReplyType `json:"reply_type"`
	VoiceFileID string    `json:"voice_file_id,omitempty"`
	Text        string    `json:"text,omitempty"`
}

type FeedbackCreate struct {
	Resolved bool   `json:"resolved"`
	Comment  string `json:"comment,omitempty"`
}

type Feedback struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	SeekerID  string    `json:"seeker_id"`
	Resolved  bool      `json:"resolved"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	Tag       string    `json:"tag"`
	RequestID string    `json:"request_id,omitempty"`
	ReplyID   string    `json:"reply_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PresignRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type PresignResponse struct {
	FileID    string `json:"file_id"`
	UploadURL string `json:"upload_url"`
	Category  string `json:"category"`
}
