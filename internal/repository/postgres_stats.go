package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"soori-welfare/internal/models"

	"go.uber.org/zap"
)

const (
	statsWindow       = 7 * 24 * time.Hour
	maintenanceWindow = 30 * 24 * time.Hour

	// 周里程变化超过 ±10% 视为趋势变化
	trendTolerance = 0.1
)

// PostgresStatsRepo 基于 trips / repairs / self_checks 表计算统计
type PostgresStatsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStatsRepo 创建统计 Repository
func NewPostgresStatsRepo(db *sql.DB, logger *zap.Logger) *PostgresStatsRepo {
	return &PostgresStatsRepo{db: db, logger: logger}
}

var _ StatsRepository = (*PostgresStatsRepo)(nil)

// TrendFromDistances 比较本周与上周里程得到趋势
func TrendFromDistances(current, previous float64) models.TrendDirection {
	switch {
	case current > previous*(1+trendTolerance):
		return models.TrendIncrease
	case current < previous*(1-trendTolerance):
		return models.TrendDecrease
	default:
		return models.TrendStable
	}
}

// GetUserStats 最近 7 天与之前 7 天的里程、活跃天数
func (r *PostgresStatsRepo) GetUserStats(ctx context.Context, userID string, now time.Time) (models.UserStats, error) {
	weekStart := now.Add(-statsWindow)
	prevStart := now.Add(-2 * statsWindow)

	query := `
		SELECT
			COALESCE(SUM(distance_km) FILTER (WHERE started_at >= $2 AND started_at < $3), 0),
			COALESCE(SUM(distance_km) FILTER (WHERE started_at >= $4 AND started_at < $2), 0),
			COUNT(DISTINCT started_at::date) FILTER (WHERE started_at >= $2 AND started_at < $3)
		FROM trips
		WHERE user_id = $1
	`

	var stats models.UserStats
	err := r.db.QueryRowContext(ctx, query, userID, weekStart, now, prevStart).Scan(
		&stats.WeeklyKm,
		&stats.PreviousWeeklyKm,
		&stats.ActiveDays,
	)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to query user stats: %w", err)
	}
	stats.Trend = TrendFromDistances(stats.WeeklyKm, stats.PreviousWeeklyKm)

	return stats, nil
}

// GetDeviceStats 最近 30 天维修/点检次数，以及距上次维修或点检的天数
func (r *PostgresStatsRepo) GetDeviceStats(ctx context.Context, userID string, now time.Time) (models.DeviceStats, error) {
	since := now.Add(-maintenanceWindow)

	query := `
		SELECT
			(SELECT COUNT(*) FROM repairs rp
			   JOIN vehicles v ON v.vehicle_id = rp.vehicle_id
			  WHERE v.user_id = $1 AND rp.repaired_at >= $2),
			(SELECT COUNT(*) FROM self_checks sc
			   JOIN vehicles v ON v.vehicle_id = sc.vehicle_id
			  WHERE v.user_id = $1 AND sc.created_at >= $2),
			(SELECT MAX(rp.repaired_at) FROM repairs rp
			   JOIN vehicles v ON v.vehicle_id = rp.vehicle_id
			  WHERE v.user_id = $1),
			(SELECT MAX(sc.created_at) FROM self_checks sc
			   JOIN vehicles v ON v.vehicle_id = sc.vehicle_id
			  WHERE v.user_id = $1),
			(SELECT COALESCE(SUM(t.distance_km), 0) FROM trips t WHERE t.user_id = $1)
	`

	var (
		stats      models.DeviceStats
		lastRepair sql.NullTime
		lastCheck  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(
		&stats.RecentRepairs,
		&stats.RecentSelfChecks,
		&lastRepair,
		&lastCheck,
		&stats.EstimatedCumulativeKm,
	)
	if err != nil {
		return models.DeviceStats{}, fmt.Errorf("failed to query device stats: %w", err)
	}

	stats.DaysSinceLastCheck = daysSince(now, lastRepair, lastCheck)
	return stats, nil
}

// daysSince 取较近的一次；都没有时返回默认值
func daysSince(now time.Time, times ...sql.NullTime) int {
	var latest time.Time
	for _, t := range times {
		if t.Valid && t.Time.After(latest) {
			latest = t.Time
		}
	}
	if latest.IsZero() {
		return models.DefaultDaysSinceLastCheck
	}
	days := int(now.Sub(latest).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
