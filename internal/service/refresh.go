package service

import (
	"context"
	"errors"
	"fmt"

	"soori-welfare/internal/models"
	"soori-welfare/internal/store"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// UserLister 列出需要定时刷新报告的用户
type UserLister interface {
	ListUserIDsWithVehicle(ctx context.Context) ([]string, error)
}

// TaskSubmitter 提交报告生成任务
type TaskSubmitter interface {
	Submit(ctx context.Context, userID string) (*models.ReportTask, error)
}

// RefreshResult 一次全量刷新的统计
type RefreshResult struct {
	Queued  int
	Skipped int
	Failed  int
}

// RefreshJob 为所有登记了车辆的用户排队生成报告，已有进行中任务的用户跳过
type RefreshJob struct {
	users     UserLister
	submitter TaskSubmitter
	logger    *zap.Logger
}

// NewRefreshJob 创建刷新任务
func NewRefreshJob(users UserLister, submitter TaskSubmitter, logger *zap.Logger) *RefreshJob {
	return &RefreshJob{users: users, submitter: submitter, logger: logger}
}

// Run 执行一次全量刷新；单个用户提交失败不会中断
func (j *RefreshJob) Run(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult

	userIDs, err := j.users.ListUserIDsWithVehicle(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		_, err := j.submitter.Submit(ctx, userID)
		switch {
		case err == nil:
			result.Queued++
		case errors.Is(err, store.ErrTaskInFlight):
			result.Skipped++
		default:
			result.Failed++
			j.logger.Warn("Failed to queue scheduled report",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	j.logger.Info("Scheduled report refresh queued",
		zap.Int("users", len(userIDs)),
		zap.Int("queued", result.Queued),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Scheduler 按 cron 表达式（含秒）执行 RefreshJob
type Scheduler struct {
	cron   *rcron.Cron
	job    *RefreshJob
	logger *zap.Logger
}

// NewScheduler schedule 为空时返回 nil（关闭定时刷新）
func NewScheduler(ctx context.Context, schedule string, job *RefreshJob, logger *zap.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, nil
	}

	c := rcron.New(rcron.WithSeconds())
	if _, err := c.AddFunc(schedule, func() {
		if _, err := job.Run(ctx); err != nil {
			logger.Error("Scheduled report refresh failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c, job: job, logger: logger}, nil
}

// Start 启动调度（不阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("Report refresh scheduled", zap.Time("next_run", e.Next))
	}
}

// Stop 停止调度并等待正在执行的刷新结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
