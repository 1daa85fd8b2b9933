package instruments

import (
	"context"
	"time"
)

// RefreshJob re-downloads the security master on a schedule
type RefreshJob struct {
	manager *InstrumentManager
	timeout time.Duration
}

// NewRefreshJob creates a refresh job bounded by timeout per run
func NewRefreshJob(manager *InstrumentManager, timeout time.Duration) *RefreshJob {
	return &RefreshJob{manager: manager, timeout: timeout}
}

// Name identifies the job in scheduler logs
func (j *RefreshJob) Name() string {
	return "security_master_refresh"
}

// Run downloads the master once
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.manager.DownloadMaster(ctx)
	return err
}
