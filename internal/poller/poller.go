// Package poller 以固定间隔轮询报告生成任务，直到完成或失败。
//
// 启动后立即检查一次，之后每个 Interval 检查一次；没有退避，也不自动重试：
// 状态请求出错即视为失败，由用户重新触发生成。
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"soori-welfare/internal/models"

	"go.uber.org/zap"
)

// DefaultInterval 默认轮询间隔
const DefaultInterval = 2 * time.Second

// ErrStopped 轮询在任务结束前被停止
var ErrStopped = errors.New("polling stopped")

// StatusClient 查询任务状态（client.Client 实现）
type StatusClient interface {
	GetTaskStatus(ctx context.Context, taskID string) (*models.ReportTask, error)
}

// Poller 任务状态轮询器，可同时跟踪多个任务
type Poller struct {
	client   StatusClient
	interval time.Duration
	logger   *zap.Logger

	// OnCompleted 任务完成，调用方通常在这里重新获取报告
	OnCompleted func(task *models.ReportTask)
	// OnFailed 任务失败或状态请求出错，message 可直接展示给用户
	OnFailed func(task *models.ReportTask, message string)
	// OnProgress 每次得到 queued / processing 状态时调用（可选）
	OnProgress func(task *models.ReportTask)
}

// New interval <= 0 时使用 DefaultInterval
func New(client StatusClient, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		logger:   logger,
	}
}

// Handle 单个任务的轮询句柄
type Handle struct {
	taskID   string
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	// 在 done 关闭前写入
	task *models.ReportTask
	err  error
}

// Stop 停止轮询；可重复调用，也可在回调中调用
func (h *Handle) Stop() {
	h.stopOnce.Do(h.cancel)
}

// Done 轮询循环退出后关闭
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// TaskID 被轮询的任务
func (h *Handle) TaskID() string {
	return h.taskID
}

// Wait 等待轮询结束并返回终态任务。
// 任务失败时 task.Status 为 failed；状态请求出错时同时返回该错误；被停止时返回 ErrStopped。
func (h *Handle) Wait(ctx context.Context) (*models.ReportTask, error) {
	select {
	case <-h.done:
		return h.task, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start 开始轮询 taskID，ctx 取消等同于 Stop
func (p *Poller) Start(ctx context.Context, taskID string) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		taskID: taskID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx, h)
	return h
}

func (p *Poller) run(ctx context.Context, h *Handle) {
	defer close(h.done)
	defer h.Stop()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("Polling task status",
		zap.String("task_id", h.taskID),
		zap.Duration("interval", p.interval),
	)

	for {
		if p.check(ctx, h) {
			return
		}

		select {
		case <-ctx.Done():
			h.err = ErrStopped
			return
		case <-ticker.C:
		}
	}
}

// check 返回 true 表示轮询结束
func (p *Poller) check(ctx context.Context, h *Handle) bool {
	task, err := p.client.GetTaskStatus(ctx, h.taskID)
	if ctx.Err() != nil {
		h.err = ErrStopped
		return true
	}
	if err != nil {
		message := fmt.Sprintf("리포트 상태 확인에 실패했습니다: %v", err)
		h.task = &models.ReportTask{
			TaskID: h.taskID,
			Status: models.TaskFailed,
			Error:  message,
		}
		h.err = err
		p.logger.Warn("Task status request failed",
			zap.String("task_id", h.taskID),
			zap.Error(err),
		)
		if p.OnFailed != nil {
			p.OnFailed(h.task, message)
		}
		return true
	}

	switch task.Status {
	case models.TaskCompleted:
		h.task = task
		p.logger.Debug("Task completed", zap.String("task_id", h.taskID))
		if p.OnCompleted != nil {
			p.OnCompleted(task)
		}
		return true
	case models.TaskFailed:
		h.task = task
		message := task.Error
		if message == "" {
			message = "리포트 생성에 실패했습니다."
		}
		p.logger.Debug("Task failed",
			zap.String("task_id", h.taskID),
			zap.String("error", task.Error),
		)
		if p.OnFailed != nil {
			p.OnFailed(task, message)
		}
		return true
	default:
		if p.OnProgress != nil {
			p.OnProgress(task)
		}
		return false
	}
}
