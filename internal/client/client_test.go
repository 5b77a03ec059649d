package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"soori-welfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"}, zap.NewNop())
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestTriggerAsync_Accepted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/welfare/generate/async", r.URL.Path)
		var req models.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user-1", req.UserID)
		respond(w, http.StatusAccepted, models.GenerateAccepted{TaskID: "task-1", Status: models.TaskQueued, EstimatedTime: 30})
	})

	res, err := c.TriggerAsync(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, TriggerAccepted, res.Kind)
	assert.Equal(t, "task-1", res.TaskID)
	assert.Equal(t, 30, res.EstimatedTime)
}

func TestTriggerAsync_Duplicate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusTooManyRequests, models.GenerateConflict{TaskID: "task-existing", Message: "in progress"})
	})

	res, err := c.TriggerAsync(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, TriggerDuplicate, res.Kind)
	assert.Equal(t, "task-existing", res.TaskID)
	assert.Equal(t, "in progress", res.Message)
}

func TestTriggerAsync_DuplicateWithoutTaskID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	})

	res, err := c.TriggerAsync(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, TriggerDuplicate, res.Kind)
	assert.Empty(t, res.TaskID)
}

func TestTriggerAsync_Completed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "completed"})
	})

	res, err := c.TriggerAsync(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, TriggerCompleted, res.Kind)
}

func TestTriggerAsync_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})

	_, err := c.TriggerAsync(context.Background(), "user-1")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestGetTaskStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/welfare/status/task-1" {
			respond(w, http.StatusNotFound, map[string]string{"message": "task not found"})
			return
		}
		respond(w, http.StatusOK, models.ReportTask{TaskID: "task-1", UserID: "user-1", Status: models.TaskProcessing})
	})

	task, err := c.GetTaskStatus(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskProcessing, task.Status)

	_, err = c.GetTaskStatus(context.Background(), "task-2")
	assert.True(t, IsNotFound(err))
}

func TestGetReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/welfare/reports/user-1", r.URL.Path)
		report := &models.WelfareReport{UserID: "user-1", Summary: "요약"}
		respond(w, http.StatusOK, models.NewReportView(report, models.DualAxisMetrics{
			UserMobility: models.UserMobilityIndex{Status: models.MobilityActive},
		}))
	})

	view, err := c.GetReport(context.Background(), "user-1")

	require.NoError(t, err)
	require.NotNil(t, view.WelfareReport)
	assert.Equal(t, "요약", view.Summary)
	assert.Equal(t, models.MobilityActive, view.DualAxis.UserMobility.Status)
}

func TestDownloadExport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("PK-fake"))
	})

	data, err := c.DownloadExport(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, []byte("PK-fake"), data)
}
