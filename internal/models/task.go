package models

import "time"

// TaskStatus 异步报告生成任务状态
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// IsTerminal completed / failed 之后状态不再变化
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// ReportTask 报告生成任务
type ReportTask struct {
	TaskID      string     `json:"taskId"`
	UserID      string     `json:"userId"`
	Status      TaskStatus `json:"status"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// GenerateRequest POST /admin/welfare/generate(/async) 请求体
type GenerateRequest struct {
	UserID string `json:"userId"`
}

// GenerateAccepted 202 响应
type GenerateAccepted struct {
	TaskID        string     `json:"taskId"`
	Status        TaskStatus `json:"status"`
	EstimatedTime int        `json:"estimatedTime"`
}

// GenerateConflict 429 响应（已有进行中的任务）
type GenerateConflict struct {
	TaskID  string `json:"taskId,omitempty"`
	Message string `json:"message"`
}

// TaskEnvelope 写入任务队列的消息
type TaskEnvelope struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId"`
}
