package job

import (
	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"

	"gorm.io/gorm"
)

// CheckpointJob folds the sqlite WAL into the database file. It does nothing
// on other dialects.
type CheckpointJob struct {
	db *gorm.DB
}

func NewCheckpointJob(db *gorm.DB) *CheckpointJob {
	return &CheckpointJob{db: db}
}

func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")
	if j.db.Dialector.Name() != "sqlite" {
		return
	}
	if err := database.Checkpoint(j.db); err != nil {
		logger.Warning("wal checkpoint failed:", err)
	}
}
