package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"soori-welfare/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound 任务不存在或已过期
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskInFlight 该用户已有进行中的任务
	ErrTaskInFlight = errors.New("report generation already in progress")
)

const (
	taskKeyPrefix     = "welfare:task:"
	inFlightKeyPrefix = "welfare:inflight:"
)

// TaskKey welfare:task:{taskId}
func TaskKey(taskID string) string { return taskKeyPrefix + taskID }

// InFlightKey welfare:inflight:{userId}
func InFlightKey(userID string) string { return inFlightKeyPrefix + userID }

// TaskStore 在 Redis 中保存报告生成任务状态
//
// 任务 JSON 保存 TaskTTL；进行中标记用 SETNX 写入，保证同一用户同时只有一个任务，
// 任务进入 completed / failed 后删除标记。
type TaskStore struct {
	kv          KV
	taskTTL     time.Duration
	inFlightTTL time.Duration
	now         func() time.Time
	newID       func() string
}

// NewTaskStore 创建任务存储
func NewTaskStore(kv KV, taskTTL, inFlightTTL time.Duration) *TaskStore {
	return &TaskStore{
		kv:          kv,
		taskTTL:     taskTTL,
		inFlightTTL: inFlightTTL,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Create 为用户创建 queued 任务。
// 已有进行中的任务时返回该任务（可能为 nil，例如任务记录已过期）和 ErrTaskInFlight。
func (s *TaskStore) Create(ctx context.Context, userID string) (*models.ReportTask, error) {
	taskID := s.newID()

	ok, err := s.kv.SetNX(ctx, InFlightKey(userID), taskID, s.inFlightTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire in-flight marker: %w", err)
	}
	if !ok {
		existingID, err := s.kv.Get(ctx, InFlightKey(userID))
		if err != nil {
			if errors.Is(err, ErrMiss) {
				return nil, ErrTaskInFlight
			}
			return nil, fmt.Errorf("failed to read in-flight marker: %w", err)
		}
		existing, err := s.Get(ctx, existingID)
		if err != nil {
			return &models.ReportTask{TaskID: existingID, UserID: userID}, ErrTaskInFlight
		}
		return existing, ErrTaskInFlight
	}

	createdAt := s.now()
	task := &models.ReportTask{
		TaskID:    taskID,
		UserID:    userID,
		Status:    models.TaskQueued,
		CreatedAt: &createdAt,
	}
	if err := s.save(ctx, task); err != nil {
		_ = s.kv.Del(ctx, InFlightKey(userID))
		return nil, err
	}
	return task, nil
}

// Get 读取任务
func (s *TaskStore) Get(ctx context.Context, taskID string) (*models.ReportTask, error) {
	raw, err := s.kv.Get(ctx, TaskKey(taskID))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task models.ReportTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// InFlightTaskID 返回用户进行中任务的 ID，没有时返回空字符串
func (s *TaskStore) InFlightTaskID(ctx context.Context, userID string) (string, error) {
	id, err := s.kv.Get(ctx, InFlightKey(userID))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// MarkProcessing queued -> processing
func (s *TaskStore) MarkProcessing(ctx context.Context, taskID string) (*models.ReportTask, error) {
	return s.transition(ctx, taskID, models.TaskProcessing, "")
}

// Complete 标记完成并释放进行中标记
func (s *TaskStore) Complete(ctx context.Context, taskID string) (*models.ReportTask, error) {
	return s.transition(ctx, taskID, models.TaskCompleted, "")
}

// Fail 标记失败并释放进行中标记
func (s *TaskStore) Fail(ctx context.Context, taskID string, reason string) (*models.ReportTask, error) {
	return s.transition(ctx, taskID, models.TaskFailed, reason)
}

// ListTasks 列出仍在保留期内的任务（运维用，按 key 扫描）
func (s *TaskStore) ListTasks(ctx context.Context) ([]*models.ReportTask, error) {
	keys, err := s.kv.ScanKeys(ctx, taskKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan task keys: %w", err)
	}
	tasks := make([]*models.ReportTask, 0, len(keys))
	for _, key := range keys {
		task, err := s.Get(ctx, strings.TrimPrefix(key, taskKeyPrefix))
		if err != nil {
			// 扫描与读取之间过期
			if errors.Is(err, ErrTaskNotFound) {
				continue
			}
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// transition 终态任务不再变化
func (s *TaskStore) transition(ctx context.Context, taskID string, status models.TaskStatus, reason string) (*models.ReportTask, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return task, nil
	}

	task.Status = status
	if status.IsTerminal() {
		completedAt := s.now()
		task.CompletedAt = &completedAt
		task.Error = reason
	}
	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	if status.IsTerminal() {
		if err := s.releaseInFlight(ctx, task); err != nil {
			return task, err
		}
	}
	return task, nil
}

// releaseInFlight 只删除属于本任务的标记
func (s *TaskStore) releaseInFlight(ctx context.Context, task *models.ReportTask) error {
	current, err := s.kv.Get(ctx, InFlightKey(task.UserID))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil
		}
		return fmt.Errorf("failed to read in-flight marker: %w", err)
	}
	if current != task.TaskID {
		return nil
	}
	if err := s.kv.Del(ctx, InFlightKey(task.UserID)); err != nil {
		return fmt.Errorf("failed to release in-flight marker: %w", err)
	}
	return nil
}

func (s *TaskStore) save(ctx context.Context, task *models.ReportTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := s.kv.Set(ctx, TaskKey(task.TaskID), string(b), s.taskTTL); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}
