package service

import (
	"context"
	"errors"
	"testing"

	"soori-welfare/internal/models"
	"soori-welfare/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticUsers struct {
	ids []string
	err error
}

func (s staticUsers) ListUserIDsWithVehicle(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

type recordingSubmitter struct {
	submitted []string
	results   map[string]error
}

func (r *recordingSubmitter) Submit(ctx context.Context, userID string) (*models.ReportTask, error) {
	r.submitted = append(r.submitted, userID)
	if err := r.results[userID]; err != nil {
		return nil, err
	}
	return &models.ReportTask{TaskID: "task-" + userID, UserID: userID, Status: models.TaskQueued}, nil
}

func TestRefreshJob_QueuesEveryUser(t *testing.T) {
	submitter := &recordingSubmitter{results: map[string]error{
		"busy":   store.ErrTaskInFlight,
		"broken": errors.New("redis down"),
	}}
	job := NewRefreshJob(staticUsers{ids: []string{"a", "busy", "broken", "b"}}, submitter, zap.NewNop())

	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "busy", "broken", "b"}, submitter.submitted)
	assert.Equal(t, RefreshResult{Queued: 2, Skipped: 1, Failed: 1}, result)
}

func TestRefreshJob_ListError(t *testing.T) {
	job := NewRefreshJob(staticUsers{err: errors.New("db down")}, &recordingSubmitter{}, zap.NewNop())

	_, err := job.Run(context.Background())

	assert.Error(t, err)
}

func TestRefreshJob_StopsOnCancel(t *testing.T) {
	submitter := &recordingSubmitter{}
	job := NewRefreshJob(staticUsers{ids: []string{"a", "b"}}, submitter, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := job.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, submitter.submitted)
}

func TestNewScheduler(t *testing.T) {
	job := NewRefreshJob(staticUsers{}, &recordingSubmitter{}, zap.NewNop())

	disabled, err := NewScheduler(context.Background(), "", job, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, disabled)

	_, err = NewScheduler(context.Background(), "every monday", job, zap.NewNop())
	assert.Error(t, err)

	s, err := NewScheduler(context.Background(), "0 0 9 * * MON", job, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)
	s.Start()
	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 9, entries[0].Next.Hour())
	s.Stop(context.Background())
}
