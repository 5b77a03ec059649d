// Package client 福利报告 API 的 HTTP 客户端
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"soori-welfare/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TriggerKind 触发异步生成的三种结果
type TriggerKind int

const (
	// TriggerCompleted 服务端直接完成（HTTP 200）
	TriggerCompleted TriggerKind = iota + 1
	// TriggerAccepted 已排队（HTTP 202），需要轮询 TaskID
	TriggerAccepted
	// TriggerDuplicate 已有进行中的任务（HTTP 429），TaskID 可能为空
	TriggerDuplicate
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerCompleted:
		return "completed"
	case TriggerAccepted:
		return "accepted"
	case TriggerDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// TriggerResult TriggerAsync 的结果
type TriggerResult struct {
	Kind          TriggerKind
	TaskID        string
	EstimatedTime int
	Message       string
}

// APIError 非预期的 HTTP 状态码
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound err 是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Config 客户端配置
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client 福利报告 API 客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New 创建客户端
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient, logger: logger}
}

// TriggerAsync POST /admin/welfare/generate/async
func (c *Client) TriggerAsync(ctx context.Context, userID string) (TriggerResult, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(models.GenerateRequest{UserID: userID}).
		Post("/admin/welfare/generate/async")
	if err != nil {
		return TriggerResult{}, fmt.Errorf("failed to trigger report generation: %w", err)
	}

	c.logger.Debug("Trigger response",
		zap.String("user_id", userID),
		zap.Int("status_code", resp.StatusCode()),
	)

	switch resp.StatusCode() {
	case http.StatusOK:
		return TriggerResult{Kind: TriggerCompleted}, nil
	case http.StatusAccepted:
		var body models.GenerateAccepted
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return TriggerResult{}, fmt.Errorf("failed to decode accepted response: %w", err)
		}
		return TriggerResult{
			Kind:          TriggerAccepted,
			TaskID:        body.TaskID,
			EstimatedTime: body.EstimatedTime,
		}, nil
	case http.StatusTooManyRequests:
		var body models.GenerateConflict
		// 429 的 body 可能不是 JSON，此时只当作没有 taskId
		_ = json.Unmarshal(resp.Body(), &body)
		return TriggerResult{
			Kind:    TriggerDuplicate,
			TaskID:  body.TaskID,
			Message: body.Message,
		}, nil
	default:
		return TriggerResult{}, newAPIError(resp)
	}
}

// GenerateSync POST /admin/welfare/generate
func (c *Client) GenerateSync(ctx context.Context, userID string) (*models.WelfareReport, error) {
	var report models.WelfareReport
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(models.GenerateRequest{UserID: userID}).
		SetResult(&report).
		Post("/admin/welfare/generate")
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError(resp)
	}
	return &report, nil
}

// GetTaskStatus GET /admin/welfare/status/{taskId}
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*models.ReportTask, error) {
	var task models.ReportTask
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("taskId", taskID).
		SetResult(&task).
		Get("/admin/welfare/status/{taskId}")
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError(resp)
	}
	return &task, nil
}

// GetReport GET /welfare/reports/{userId}
func (c *Client) GetReport(ctx context.Context, userID string) (*models.ReportView, error) {
	var view models.ReportView
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("userId", userID).
		SetResult(&view).
		Get("/welfare/reports/{userId}")
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError(resp)
	}
	return &view, nil
}

// DownloadExport GET /welfare/reports/{userId}/export，返回 xlsx 内容
func (c *Client) DownloadExport(ctx context.Context, userID string) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("userId", userID).
		SetHeader("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet").
		Get("/welfare/reports/{userId}/export")
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newAPIError(resp)
	}
	return resp.Body(), nil
}

func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	return apiErr
}
