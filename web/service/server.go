package service

import (
	"context"
	"runtime"
	"time"

	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

// Status is a snapshot of the host, the process and the stored data.
type Status struct {
	Version    string  `json:"version"`
	Cpu        float64 `json:"cpu"`
	CpuCores   int     `json:"cpuCores"`
	LogicalPro int     `json:"logicalPro"`
	Mem        struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"mem"`
	Disk struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"disk"`
	Uptime   uint64    `json:"uptime"`
	Loads    []float64 `json:"loads"`
	Database struct {
		Type    string `json:"type"`
		Users   int64  `json:"users"`
		Lojas   int64  `json:"lojas"`
		Visitas int64  `json:"visitas"`
	} `json:"database"`
	AppStats struct {
		Threads uint32 `json:"threads"`
		Mem     uint64 `json:"mem"`
		Uptime  uint64 `json:"uptime"`
	} `json:"appStats"`
}

// ServerService reports the status of the running instance.
type ServerService struct {
	db        *gorm.DB
	startedAt time.Time
}

func NewServerService(db *gorm.DB) *ServerService {
	return &ServerService{db: db, startedAt: time.Now()}
}

// GetStatus collects host and application statistics. Admin only. Host
// stats that cannot be read are logged and left at zero.
func (s *ServerService) GetStatus(ctx context.Context, caller *model.User) (*Status, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	status := &Status{Version: config.GetVersion()}

	// CPU stats
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}
	cores, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		logger.Warning("get cpu cores count failed:", err)
	}
	status.CpuCores = cores
	status.LogicalPro = runtime.NumCPU()

	if upTime, err := host.UptimeWithContext(ctx); err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
	}

	if diskInfo, err := disk.UsageWithContext(ctx, "/"); err != nil {
		logger.Warning("get disk usage failed:", err)
	} else {
		status.Disk.Current = diskInfo.Used
		status.Disk.Total = diskInfo.Total
	}

	if avgState, err := load.AvgWithContext(ctx); err != nil {
		logger.Warning("get load avg failed:", err)
	} else {
		status.Loads = []float64{avgState.Load1, avgState.Load5, avgState.Load15}
	}

	db := s.db.WithContext(ctx)
	status.Database.Type = db.Dialector.Name()
	counts := []struct {
		model any
		dst   *int64
	}{
		{&model.User{}, &status.Database.Users},
		{&model.Loja{}, &status.Database.Lojas},
		{&model.Visita{}, &status.Database.Visitas},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, common.Internal(err)
		}
	}

	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	status.AppStats.Mem = rtm.Sys
	status.AppStats.Threads = uint32(runtime.NumGoroutine())
	status.AppStats.Uptime = uint64(time.Since(s.startedAt).Seconds())
	return status, nil
}
