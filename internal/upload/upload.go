// Package upload implements the two-step attachment flow: ask the
// backend to presign a slot, then PUT the raw bytes to the returned
// URL. The presigned URL is absolute and goes out without a bearer
// token or JSON envelope.
package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/leekHotline/seeforme/internal/api"
	"github.com/leekHotline/seeforme/internal/model"
)

type Uploader struct {
	client *api.Client
}

func New(client *api.Client) *Uploader {
	return &Uploader{client: client}
}

// Put uploads content and returns the presigned slot, whose FileID is
// what request creation references.
func (u *Uploader) Put(ctx context.Context, filename, mimeType string, content []byte) (model.PresignResponse, error) {
	var slot model.PresignResponse
	err := u.client.PostJSON(ctx, "/uploads/presign", model.PresignRequest{
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(content)),
	}, &slot)
	if err != nil {
		return model.PresignResponse{}, fmt.Errorf("presign %s: %w", filename, err)
	}

	if err := u.client.PutRaw(ctx, slot.UploadURL, mimeType, bytes.NewReader(content)); err != nil {
		return model.PresignResponse{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	return slot, nil
}
