package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"soori-welfare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var reportColumns = []string{
	"user_id", "summary", "risk", "services", "metadata", "stats", "is_fallback", "created_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestGetReport_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReportsRepo(db, zap.NewNop())

	createdAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(reportColumns).AddRow(
		"user-1",
		"이동이 활발합니다",
		"낮음",
		[]byte(`[{"name":"장애인 콜택시","reason":"이동 지원","category":"mobility"}]`),
		[]byte(`{"weeklyKm":42.5,"trend":"increase","recentRepairs":1,"recentSelfChecks":2,"supportedDistrict":"강남구"}`),
		[]byte(`{"user":{"weeklyKm":42.5,"previousWeeklyKm":30,"trend":"increase","activeDays":5},"device":{"recentRepairs":1,"recentSelfChecks":2,"daysSinceLastCheck":4,"estimatedCumulativeKm":1200}}`),
		false,
		createdAt,
	)
	mock.ExpectQuery(`SELECT .* FROM user_welfare_reports`).
		WithArgs("user-1").
		WillReturnRows(rows)

	report, err := repo.GetReport(context.Background(), "user-1")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, "이동이 활발합니다", report.Summary)
	require.Len(t, report.Services, 1)
	assert.Equal(t, "장애인 콜택시", report.Services[0].Name)
	assert.Equal(t, 42.5, report.Metadata.WeeklyKm)
	assert.Equal(t, "강남구", report.Metadata.SupportedDistrict)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 4, report.Stats.Device.DaysSinceLastCheck)
	assert.Equal(t, models.TrendIncrease, report.Stats.User.Trend)
	assert.True(t, createdAt.Equal(report.CreatedAt))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReport_LegacyDocumentDefaults(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReportsRepo(db, zap.NewNop())

	rows := sqlmock.NewRows(reportColumns).AddRow(
		"user-legacy", "요약", "보통", nil, []byte(`{"weeklyKm":5}`), nil, nil, nil,
	)
	mock.ExpectQuery(`SELECT`).WithArgs("user-legacy").WillReturnRows(rows)

	report, err := repo.GetReport(context.Background(), "user-legacy")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Nil(t, report.Stats)
	assert.Empty(t, report.Services)
	assert.NotNil(t, report.Services)
	assert.Equal(t, "stable", report.Metadata.Trend)
	assert.Equal(t, models.DefaultSupportedDistrict, report.Metadata.SupportedDistrict)
	assert.False(t, report.IsFallback)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReport_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReportsRepo(db, zap.NewNop())

	mock.ExpectQuery(`SELECT`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	report, err := repo.GetReport(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Nil(t, report)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReport_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReportsRepo(db, zap.NewNop())

	mock.ExpectQuery(`SELECT`).WithArgs("user-1").WillReturnError(errors.New("connection reset"))

	report, err := repo.GetReport(context.Background(), "user-1")

	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "failed to query welfare report")
}

func TestUpsertReport_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReportsRepo(db, zap.NewNop())

	report := &models.WelfareReport{
		UserID:  "user-1",
		Summary: "요약",
		Risk:    "낮음",
		Services: []models.ServiceRecommendation{
			{Name: "수리비 지원", Reason: "정기 점검", Category: models.ServiceCategoryWelfare},
		},
		Metadata:   models.ReportMetadata{WeeklyKm: 12, Trend: "stable", SupportedDistrict: "성동구"},
		Stats:      &models.ReportStats{User: models.UserStats{WeeklyKm: 12}},
		IsFallback: true,
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec(`INSERT INTO user_welfare_reports`).
		WithArgs("user-1", "요약", "낮음", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertReport(context.Background(), report)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertReport_ExecError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresReportsRepo(db, zap.NewNop())

	mock.ExpectExec(`INSERT`).WillReturnError(errors.New("disk full"))

	err := repo.UpsertReport(context.Background(), &models.WelfareReport{UserID: "user-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert welfare report")
}
