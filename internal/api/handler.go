package api

import (
	"github.com/sirupsen/logrus"

	"school-directory-backend/internal/imagestore"
	"school-directory-backend/internal/store"
	"school-directory-backend/internal/validate"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store          store.Store
	images         imagestore.Store
	validator      *validate.Validator
	log            logrus.FieldLogger
	maxBodyBytes   int64
	maxUploadBytes int64
}

// Limits bounds what a single request may carry.
type Limits struct {
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, images imagestore.Store, v *validate.Validator, log logrus.FieldLogger, limits Limits) *Handler {
	return &Handler{
		store:          s,
		images:         images,
		validator:      v,
		log:            log,
		maxBodyBytes:   limits.MaxBodyBytes,
		maxUploadBytes: limits.MaxUploadBytes,
	}
}
