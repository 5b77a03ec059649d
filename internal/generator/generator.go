// Package generator 根据出行与维护统计生成福利报告（规则版）。
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soori-welfare/internal/evaluator"
	"soori-welfare/internal/models"
	"soori-welfare/internal/repository"

	"go.uber.org/zap"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// Generator 规则版报告生成器，生成的报告 IsFallback = true
type Generator struct {
	users   repository.UsersRepository
	stats   repository.StatsRepository
	reports repository.ReportsRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewGenerator 创建报告生成器
func NewGenerator(
	users repository.UsersRepository,
	stats repository.StatsRepository,
	reports repository.ReportsRepository,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		users:   users,
		stats:   stats,
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate 读取统计、生成报告并覆盖保存
func (g *Generator) Generate(ctx context.Context, userID string) (*models.WelfareReport, error) {
	profile, err := g.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	now := g.now()
	us, err := g.stats.GetUserStats(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	ds, err := g.stats.GetDeviceStats(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load device stats: %w", err)
	}

	report := BuildReport(profile, us, ds, now)
	if err := g.reports.UpsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	g.logger.Info("Welfare report generated",
		zap.String("user_id", userID),
		zap.Float64("weekly_km", us.WeeklyKm),
		zap.String("trend", string(us.Trend)),
		zap.Int("service_count", len(report.Services)),
	)
	return report, nil
}

// BuildReport 由统计直接构造报告（纯函数）
func BuildReport(profile *models.UserProfile, us models.UserStats, ds models.DeviceStats, now time.Time) *models.WelfareReport {
	metrics := evaluator.ComputeDualAxisMetrics(us, ds)

	return &models.WelfareReport{
		UserID:   profile.UserID,
		Summary:  summary(metrics),
		Risk:     risk(metrics.DeviceCondition),
		Services: recommendServices(profile, metrics),
		Metadata: models.ReportMetadata{
			WeeklyKm:          us.WeeklyKm,
			Trend:             string(us.Trend),
			RecentRepairs:     ds.RecentRepairs,
			RecentSelfChecks:  ds.RecentSelfChecks,
			SupportedDistrict: profile.SupportedDistrict,
		},
		Stats:      &models.ReportStats{User: us, Device: ds},
		IsFallback: true,
		CreatedAt:  now,
	}
}

func summary(m models.DualAxisMetrics) string {
	mobility := m.UserMobility
	device := m.DeviceCondition
	return fmt.Sprintf("최근 7일간 %.1fkm를 이동했으며 이동 상태는 '%s'입니다. 기기 상태는 '%s'(%s등급)입니다.",
		evaluator.RoundTenth(mobility.WeeklyKm), mobility.StatusLabel, device.GradeLabel, device.Grade)
}

func risk(d models.DeviceConditionIndex) string {
	switch d.Grade {
	case models.GradeA:
		return "특별한 위험 요인이 발견되지 않았습니다."
	case models.GradeB:
		return "점검이 필요한 요인이 있습니다: " + d.Evidence
	default:
		return "안전을 위해 빠른 점검이 필요합니다: " + d.Evidence
	}
}
