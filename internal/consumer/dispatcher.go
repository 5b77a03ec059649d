package consumer

import (
	"context"
	"errors"
	"fmt"

	rediscommon "soori-welfare/common/redis"
	"soori-welfare/internal/models"
	"soori-welfare/internal/store"

	"go.uber.org/zap"
)

// Dispatcher 创建任务并写入任务队列
type Dispatcher struct {
	redisClient *rediscommon.Client
	tasks       *store.TaskStore
	stream      string
	logger      *zap.Logger
}

// NewDispatcher 创建任务分发器
func NewDispatcher(redisClient *rediscommon.Client, tasks *store.TaskStore, stream string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		redisClient: redisClient,
		tasks:       tasks,
		stream:      stream,
		logger:      logger,
	}
}

// Submit 为用户提交报告生成任务。
// 已有进行中的任务时返回该任务和 store.ErrTaskInFlight。
func (d *Dispatcher) Submit(ctx context.Context, userID string) (*models.ReportTask, error) {
	task, err := d.tasks.Create(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrTaskInFlight) {
			d.logger.Info("Report task already in flight",
				zap.String("user_id", userID),
			)
		}
		return task, err
	}

	envelope := models.TaskEnvelope{TaskID: task.TaskID, UserID: userID}
	if _, err := rediscommon.PublishJSONToStream(ctx, d.redisClient, d.stream, envelope); err != nil {
		// 入队失败时任务直接失败，避免进行中标记一直占用
		if _, failErr := d.tasks.Fail(ctx, task.TaskID, "failed to enqueue task"); failErr != nil {
			d.logger.Warn("Failed to mark task failed", zap.String("task_id", task.TaskID), zap.Error(failErr))
		}
		return nil, fmt.Errorf("failed to publish task: %w", err)
	}

	d.logger.Info("Report task queued",
		zap.String("task_id", task.TaskID),
		zap.String("user_id", userID),
	)
	return task, nil
}
