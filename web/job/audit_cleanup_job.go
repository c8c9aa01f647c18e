// Package job holds the cron jobs run by the web server.
package job

import (
	"context"
	"time"

	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/service"
)

const auditCleanupTimeout = time.Minute

// AuditCleanupJob deletes audit entries older than the retention period.
type AuditCleanupJob struct {
	auditService  *service.AuditLogService
	retentionDays int
}

// NewAuditCleanupJob creates a new audit cleanup job. A retention of zero or
// less keeps the default of 90 days.
func NewAuditCleanupJob(audit *service.AuditLogService, retentionDays int) *AuditCleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &AuditCleanupJob{auditService: audit, retentionDays: retentionDays}
}

// Run cleans up old audit logs
func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job")
	logger.Debug("Audit cleanup job started")

	ctx, cancel := context.WithTimeout(context.Background(), auditCleanupTimeout)
	defer cancel()

	removed, err := j.auditService.CleanOldLogs(ctx, j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
		return
	}
	logger.Debugf("Audit cleanup completed (retention: %d days, removed: %d)", j.retentionDays, removed)
}
