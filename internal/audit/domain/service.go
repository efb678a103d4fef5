package domain

import (
	"context"

	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry describes one action to record. A nil ActorID falls back to the actor on the context.
type Entry struct {
	ActorID    *string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorID    string
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// AuditLog records entry through tx when given, so it commits with the audited change.
	AuditLog(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = apperror.New(apperror.ErrValidation, "invalid_page_token")
	ErrInvalidAction    = apperror.New(apperror.ErrValidation, "invalid_action")
)
