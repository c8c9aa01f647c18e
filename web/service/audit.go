package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"

	"gorm.io/gorm"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// AuditEntry describes one mutating request to be recorded.
type AuditEntry struct {
	UserID     int
	Username   string
	Action     string // HTTP method: POST, PUT, DELETE
	Resource   string // first path segment after the base path, e.g. "lojas"
	ResourceID string
	IP         string
	Status     int
	Details    map[string]any
}

// AuditLogService records and queries the audit trail.
type AuditLogService struct {
	db *gorm.DB
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db}
}

// Record stores e. Failures are logged and returned.
func (s *AuditLogService) Record(ctx context.Context, e AuditEntry) error {
	details := ""
	if len(e.Details) > 0 {
		data, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			details = string(data)
		}
	}

	row := model.AuditLog{
		UserId:     e.UserID,
		Username:   e.Username,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceId: e.ResourceID,
		Ip:         e.IP,
		Status:     e.Status,
		Details:    details,
		Timestamp:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Warningf("Failed to create audit log: user=%d, action=%s, resource=%s, error=%v", e.UserID, e.Action, e.Resource, err)
		return err
	}
	return nil
}

// List returns a page of entries, newest first, and the total count. Admin only.
func (s *AuditLogService) List(ctx context.Context, caller *model.User, limit, offset int) ([]model.AuditLog, int64, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	limit = min(limit, maxAuditPageSize)
	offset = max(offset, 0)

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, common.Internal(err)
	}
	logs := make([]model.AuditLog, 0)
	if err := s.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, common.Internal(err)
	}
	return logs, total, nil
}

// CleanOldLogs removes entries older than days and returns how many went.
func (s *AuditLogService) CleanOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	logger.Infof("Cleaned %d old audit logs (older than %d days)", result.RowsAffected, days)
	return result.RowsAffected, nil
}
