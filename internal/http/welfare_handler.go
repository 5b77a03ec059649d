// Package httpapi 福利报告的 HTTP 接口
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"soori-welfare/internal/evaluator"
	"soori-welfare/internal/export"
	"soori-welfare/internal/generator"
	"soori-welfare/internal/models"
	"soori-welfare/internal/repository"
	"soori-welfare/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	maxBodyBytes       = 1 << 16
	exportRepairsLimit = 50

	msgInFlight = "이미 리포트를 생성하고 있습니다. 잠시 후 다시 확인해주세요."
)

// TaskSubmitter 提交异步任务（consumer.Dispatcher 实现）
type TaskSubmitter interface {
	Submit(ctx context.Context, userID string) (*models.ReportTask, error)
}

// TaskReader 读取任务状态（store.TaskStore 实现）
type TaskReader interface {
	Get(ctx context.Context, taskID string) (*models.ReportTask, error)
	ListTasks(ctx context.Context) ([]*models.ReportTask, error)
}

// ReportGenerator 同步生成报告（generator.Generator 实现）
type ReportGenerator interface {
	Generate(ctx context.Context, userID string) (*models.WelfareReport, error)
}

// WelfareHandler 福利报告相关接口
type WelfareHandler struct {
	submitter     TaskSubmitter
	tasks         TaskReader
	generator     ReportGenerator
	reports       repository.ReportsRepository
	history       repository.HistoryRepository
	estimatedTime int
	logger        *zap.Logger
}

// NewWelfareHandler 创建处理器
func NewWelfareHandler(
	submitter TaskSubmitter,
	tasks TaskReader,
	gen ReportGenerator,
	reports repository.ReportsRepository,
	history repository.HistoryRepository,
	estimatedTime int,
	logger *zap.Logger,
) *WelfareHandler {
	return &WelfareHandler{
		submitter:     submitter,
		tasks:         tasks,
		generator:     gen,
		reports:       reports,
		history:       history,
		estimatedTime: estimatedTime,
		logger:        logger,
	}
}

// Health GET /health
func (h *WelfareHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateAsync POST /admin/welfare/generate/async
func (h *WelfareHandler) GenerateAsync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.readUserID(w, r)
	if !ok {
		return
	}

	task, err := h.submitter.Submit(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrTaskInFlight) {
			conflict := models.GenerateConflict{Message: msgInFlight}
			if task != nil {
				conflict.TaskID = task.TaskID
			}
			writeJSON(w, http.StatusTooManyRequests, conflict)
			return
		}
		h.logger.Error("Failed to submit report task", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit report task")
		return
	}

	writeJSON(w, http.StatusAccepted, models.GenerateAccepted{
		TaskID:        task.TaskID,
		Status:        task.Status,
		EstimatedTime: h.estimatedTime,
	})
}

// GenerateSync POST /admin/welfare/generate，生成完成后返回报告
func (h *WelfareHandler) GenerateSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.readUserID(w, r)
	if !ok {
		return
	}

	report, err := h.generator.Generate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, generator.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Failed to generate report", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// TaskStatus GET /admin/welfare/status/{taskId}
func (h *WelfareHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("Failed to get task", zap.String("task_id", taskID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasks GET /admin/welfare/tasks?status=queued
func (h *WelfareHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	status := models.TaskStatus(r.URL.Query().Get("status"))
	out := make([]*models.ReportTask, 0, len(tasks))
	for _, t := range tasks {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	// 新任务在前，缺少创建时间的排在最后
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	writeJSON(w, http.StatusOK, out)
}

// GetReport GET /welfare/reports/{userId}
func (h *WelfareHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.NewReportView(report, evaluator.ForReport(report)))
}

// ExportReport GET /welfare/reports/{userId}/export
func (h *WelfareHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	repairs, err := h.history.ListRecentRepairs(r.Context(), report.UserID, exportRepairsLimit)
	if err != nil {
		h.logger.Error("Failed to list repairs", zap.String("user_id", report.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load repairs")
		return
	}

	check, err := h.history.GetLatestSelfCheck(r.Context(), report.UserID)
	if err != nil {
		h.logger.Error("Failed to get self check", zap.String("user_id", report.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load self check")
		return
	}

	data, err := export.GenerateReportWorkbook(export.ReportWorkbook{
		Report:    report,
		Metrics:   evaluator.ForReport(report),
		Repairs:   repairs,
		SelfCheck: check,
	})
	if err != nil {
		h.logger.Error("Failed to build workbook", zap.String("user_id", report.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=welfare-report-%s.xlsx", report.UserID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *WelfareHandler) loadReport(w http.ResponseWriter, r *http.Request) (*models.WelfareReport, bool) {
	userID := mux.Vars(r)["userId"]

	report, err := h.reports.GetReport(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get report", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get report")
		return nil, false
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "report not found")
		return nil, false
	}
	return report, true
}

func (h *WelfareHandler) readUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.GenerateRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return "", false
	}
	return req.UserID, true
}
