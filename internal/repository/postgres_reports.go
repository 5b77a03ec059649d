package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soori-welfare/internal/models"

	"go.uber.org/zap"
)

// PostgresReportsRepo user_welfare_reports 表的实现
type PostgresReportsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresReportsRepo 创建报告 Repository
func NewPostgresReportsRepo(db *sql.DB, logger *zap.Logger) *PostgresReportsRepo {
	return &PostgresReportsRepo{db: db, logger: logger}
}

var _ ReportsRepository = (*PostgresReportsRepo)(nil)

// GetReport 读取用户最新报告，缺省字段按旧文档的默认值补齐
func (r *PostgresReportsRepo) GetReport(ctx context.Context, userID string) (*models.WelfareReport, error) {
	query := `
		SELECT user_id, summary, risk, services, metadata, stats, is_fallback, created_at
		FROM user_welfare_reports
		WHERE user_id = $1
	`

	var (
		report       models.WelfareReport
		summary      sql.NullString
		risk         sql.NullString
		servicesJSON []byte
		metadataJSON []byte
		statsJSON    []byte
		isFallback   sql.NullBool
		createdAt    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&report.UserID,
		&summary,
		&risk,
		&servicesJSON,
		&metadataJSON,
		&statsJSON,
		&isFallback,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		r.logger.Debug("No welfare report found", zap.String("user_id", userID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query welfare report: %w", err)
	}

	report.Summary = summary.String
	report.Risk = risk.String
	report.IsFallback = isFallback.Bool
	report.CreatedAt = createdAt.Time
	if !createdAt.Valid {
		report.CreatedAt = time.Now()
	}

	report.Services = []models.ServiceRecommendation{}
	if len(servicesJSON) > 0 {
		if err := json.Unmarshal(servicesJSON, &report.Services); err != nil {
			return nil, fmt.Errorf("failed to unmarshal services: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &report.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	report.Metadata.ApplyDefaults()

	if len(statsJSON) > 0 && string(statsJSON) != "null" {
		var stats models.ReportStats
		if err := json.Unmarshal(statsJSON, &stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
		report.Stats = &stats
	}

	return &report, nil
}

// UpsertReport 每个用户只保留一份报告
func (r *PostgresReportsRepo) UpsertReport(ctx context.Context, report *models.WelfareReport) error {
	servicesJSON, err := json.Marshal(report.Services)
	if err != nil {
		return fmt.Errorf("failed to marshal services: %w", err)
	}
	metadataJSON, err := json.Marshal(report.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	var statsJSON []byte
	if report.Stats != nil {
		if statsJSON, err = json.Marshal(report.Stats); err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
	}

	query := `
		INSERT INTO user_welfare_reports
			(user_id, summary, risk, services, metadata, stats, is_fallback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET summary = EXCLUDED.summary,
		              risk = EXCLUDED.risk,
		              services = EXCLUDED.services,
		              metadata = EXCLUDED.metadata,
		              stats = EXCLUDED.stats,
		              is_fallback = EXCLUDED.is_fallback,
		              created_at = EXCLUDED.created_at
	`
	_, err = r.db.ExecContext(ctx, query,
		report.UserID,
		report.Summary,
		report.Risk,
		servicesJSON,
		metadataJSON,
		statsJSON,
		report.IsFallback,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert welfare report: %w", err)
	}

	r.logger.Debug("Upserted welfare report",
		zap.String("user_id", report.UserID),
		zap.Int("service_count", len(report.Services)),
	)
	return nil
}
