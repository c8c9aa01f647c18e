package job

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/web/service"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.Type = config.DatabaseTypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "job.db")
	db, err := database.InitDB(cfg, database.SeedOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestAuditCleanupJobRemovesExpiredEntries(t *testing.T) {
	db := openDB(t)
	audit := service.NewAuditLogService(db)

	require.NoError(t, audit.Record(context.Background(), service.AuditEntry{Action: "POST", Resource: "lojas", Status: 201}))
	old := model.AuditLog{Action: "DELETE", Resource: "lojas", Status: 200, Timestamp: time.Now().AddDate(0, 0, -40)}
	require.NoError(t, db.Create(&old).Error)

	NewAuditCleanupJob(audit, 30).Run()

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "POST", logs[0].Action)
}

func TestAuditCleanupJobDefaultsRetention(t *testing.T) {
	j := NewAuditCleanupJob(nil, 0)
	assert.Equal(t, 90, j.retentionDays)
}

func TestCheckpointJobRuns(t *testing.T) {
	db := openDB(t)
	assert.NotPanics(t, NewCheckpointJob(db).Run)
}
