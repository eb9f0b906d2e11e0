package handlers

import (
	"context"

	"github.com/corclo/backend/internal/affinity"
	"github.com/corclo/backend/internal/engagement"
	"github.com/corclo/backend/internal/notifications"
	"github.com/corclo/backend/internal/storage"
)

// MediaUploader is the slice of the storage layer handlers use. Nil disables
// media handling; uploads then degrade to text-only.
type MediaUploader interface {
	UploadMedia(ctx context.Context, data []byte, kind, userID, originalFilename string) (*storage.UploadResult, error)
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	engagement    *engagement.Writer
	affinity      *affinity.Service
	notifications *notifications.Service
	uploader      MediaUploader
}

// NewHandlers creates a new handlers instance
func NewHandlers(engagementWriter *engagement.Writer, affinityService *affinity.Service, notificationService *notifications.Service) *Handlers {
	return &Handlers{
		engagement:    engagementWriter,
		affinity:      affinityService,
		notifications: notificationService,
	}
}

// SetUploader sets the media uploader
func (h *Handlers) SetUploader(uploader MediaUploader) {
	h.uploader = uploader
}
