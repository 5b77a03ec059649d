package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"soori-welfare/internal/models"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI 模拟异步生成流程：queued -> processing -> completed
func fakeAPI(t *testing.T, finalStatus models.TaskStatus) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/admin/welfare/generate/async", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusAccepted, models.GenerateAccepted{TaskID: "task-1", Status: models.TaskQueued, EstimatedTime: 30})
	})
	mux.HandleFunc("/admin/welfare/status/task-1", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		task := models.ReportTask{TaskID: "task-1", UserID: "user-1", Status: models.TaskProcessing}
		if n >= 3 {
			task.Status = finalStatus
			if finalStatus == models.TaskFailed {
				task.Error = "통계 조회 실패"
			}
		}
		respond(w, http.StatusOK, task)
	})
	mux.HandleFunc("/welfare/reports/user-1", func(w http.ResponseWriter, r *http.Request) {
		report := &models.WelfareReport{
			UserID:     "user-1",
			Summary:    "최근 이동이 줄었습니다",
			IsFallback: true,
			Services:   []models.ServiceRecommendation{{Name: "장애인 콜택시", Reason: "외출 지원"}},
			Metadata:   models.ReportMetadata{WeeklyKm: 5, Trend: "decrease"},
		}
		view := models.NewReportView(report, models.DualAxisMetrics{
			UserMobility:    models.UserMobilityIndex{StatusLabel: "감소 중", WeeklyKm: 5},
			DeviceCondition: models.DeviceConditionIndex{Grade: models.GradeB, GradeLabel: "점검 권장"},
		})
		respond(w, http.StatusOK, view)
	})
	mux.HandleFunc("/welfare/reports/user-1/export", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("xlsx-bytes"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("SOORI_BASE_URL", srv.URL)
	t.Setenv("POLL_INTERVAL", "10ms")
	t.Setenv("LOG_LEVEL", "error")
	return srv, &polls
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func resetFlags() {
	syncFlag, noWaitFlag, jsonFlag, outputFlag = false, false, false, ""
}

func TestRunGenerate_PollsUntilCompleted(t *testing.T) {
	resetFlags()
	_, polls := fakeAPI(t, models.TaskCompleted)
	cmd, out := newTestCommand()

	err := runGenerate(cmd, []string{"user-1"})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(polls))
	text := out.String()
	assert.Contains(t, text, "task-1")
	assert.Contains(t, text, "상태: processing")
	assert.Contains(t, text, "리포트가 생성되었습니다.")
	assert.Contains(t, text, "최근 이동이 줄었습니다")
	assert.Contains(t, text, "장애인 콜택시")
}

func TestRunGenerate_Failed(t *testing.T) {
	resetFlags()
	fakeAPI(t, models.TaskFailed)
	cmd, _ := newTestCommand()

	err := runGenerate(cmd, []string{"user-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "통계 조회 실패")
}

func TestRunGenerate_NoWait(t *testing.T) {
	resetFlags()
	noWaitFlag = true
	defer resetFlags()
	_, polls := fakeAPI(t, models.TaskCompleted)
	cmd, out := newTestCommand()

	err := runGenerate(cmd, []string{"user-1"})

	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(polls))
	assert.True(t, strings.HasSuffix(out.String(), "task-1\n"))
}

func TestRunExport(t *testing.T) {
	resetFlags()
	fakeAPI(t, models.TaskCompleted)
	outputFlag = filepath.Join(t.TempDir(), "report.xlsx")
	defer resetFlags()
	cmd, out := newTestCommand()

	err := runExport(cmd, []string{"user-1"})

	require.NoError(t, err)
	data, err := os.ReadFile(outputFlag)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(data))
	assert.Contains(t, out.String(), "Saved")
}

func TestRunClassify(t *testing.T) {
	classifyUser = models.UserStats{WeeklyKm: 5}
	classifyTrend = "increase"
	classifyDevice = models.NewDeviceStats(0, 0)
	cmd, out := newTestCommand()

	err := runClassify(cmd, nil)

	require.NoError(t, err)
	var metrics models.DualAxisMetrics
	require.NoError(t, json.Unmarshal(out.Bytes(), &metrics))
	// 3~10km 非下降为 stable，increase 再提升一级
	assert.Equal(t, models.MobilityActive, metrics.UserMobility.Status)
	// 无点检 15 -> B
	assert.Equal(t, models.GradeB, metrics.DeviceCondition.Grade)
}

func TestFormatReport(t *testing.T) {
	report := &models.WelfareReport{
		UserID:  "user-1",
		Summary: "요약",
		Services: []models.ServiceRecommendation{
			{Name: "전동보장구 수리비 지원", Reason: "점검 필요", Category: models.ServiceCategoryWelfare},
		},
	}
	view := models.NewReportView(report, models.DualAxisMetrics{})

	text := formatReport(&view)

	assert.Contains(t, text, "복지 서비스:")
	assert.NotContains(t, text, "이동 지원:")
	assert.NotContains(t, text, "규칙 기반")
}
