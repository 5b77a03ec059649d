package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soori-welfare/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresHistoryRepo repairs / self_checks 表的实现
type PostgresHistoryRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresHistoryRepo 创建维修/点检历史 Repository
func NewPostgresHistoryRepo(db *sql.DB, logger *zap.Logger) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{db: db, logger: logger}
}

var _ HistoryRepository = (*PostgresHistoryRepo)(nil)

// ListRecentRepairs 按维修时间倒序
func (r *PostgresHistoryRepo) ListRecentRepairs(ctx context.Context, userID string, limit int) ([]models.Repair, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT rp.repair_id, rp.vehicle_id, rp.repaired_at, rp.price, rp.repair_type,
		       rp.shop_label, rp.problem, rp.action, rp.categories
		FROM repairs rp
		JOIN vehicles v ON v.vehicle_id = rp.vehicle_id
		WHERE v.user_id = $1
		ORDER BY rp.repaired_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query repairs: %w", err)
	}
	defer rows.Close()

	return r.scanRepairs(rows)
}

// ListRepairsByVehicle 某台车的全部维修记录，按维修时间倒序
func (r *PostgresHistoryRepo) ListRepairsByVehicle(ctx context.Context, vehicleID string) ([]models.Repair, error) {
	query := `
		SELECT repair_id, vehicle_id, repaired_at, price, repair_type,
		       shop_label, problem, action, categories
		FROM repairs
		WHERE vehicle_id = $1
		ORDER BY repaired_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicle repairs: %w", err)
	}
	defer rows.Close()

	return r.scanRepairs(rows)
}

func (r *PostgresHistoryRepo) scanRepairs(rows *sql.Rows) ([]models.Repair, error) {
	repairs := []models.Repair{}
	for rows.Next() {
		var (
			rp             models.Repair
			repairType     sql.NullString
			shopLabel      sql.NullString
			problem        sql.NullString
			action         sql.NullString
			categoriesJSON []byte
		)
		if err := rows.Scan(
			&rp.ID,
			&rp.VehicleID,
			&rp.RepairedAt,
			&rp.Price,
			&repairType,
			&shopLabel,
			&problem,
			&action,
			&categoriesJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan repair: %w", err)
		}
		rp.Type = repairType.String
		rp.ShopLabel = shopLabel.String
		rp.Problem = problem.String
		rp.Action = action.String
		rp.Categories = []string{}
		if len(categoriesJSON) > 0 {
			if err := json.Unmarshal(categoriesJSON, &rp.Categories); err != nil {
				r.logger.Warn("Failed to unmarshal repair categories",
					zap.String("repair_id", rp.ID),
					zap.Error(err),
				)
			}
		}
		repairs = append(repairs, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repairs: %w", err)
	}

	return repairs, nil
}

// GetLatestSelfCheck 最近一次点检；answers 列保存问卷 JSON
func (r *PostgresHistoryRepo) GetLatestSelfCheck(ctx context.Context, userID string) (*models.SelfCheck, error) {
	query := `
		SELECT sc.check_id, sc.vehicle_id, sc.answers, sc.created_at
		FROM self_checks sc
		JOIN vehicles v ON v.vehicle_id = sc.vehicle_id
		WHERE v.user_id = $1
		ORDER BY sc.created_at DESC
		LIMIT 1
	`

	var (
		check       models.SelfCheck
		id          string
		vehicleID   string
		answersJSON []byte
		createdAt   time.Time
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&id, &vehicleID, &answersJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query self check: %w", err)
	}

	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &check); err != nil {
			return nil, fmt.Errorf("failed to unmarshal self check answers: %w", err)
		}
	}
	// answers 里不应覆盖行本身的标识
	check.ID = id
	check.VehicleID = vehicleID
	check.CreatedAt = createdAt

	return &check, nil
}

// CreateSelfCheck 问卷整体存入 answers 列
func (r *PostgresHistoryRepo) CreateSelfCheck(ctx context.Context, check *models.SelfCheck) error {
	if check.ID == "" {
		check.ID = uuid.NewString()
	}
	if check.CreatedAt.IsZero() {
		check.CreatedAt = time.Now().UTC()
	}

	answersJSON, err := json.Marshal(check)
	if err != nil {
		return fmt.Errorf("failed to marshal self check answers: %w", err)
	}

	query := `
		INSERT INTO self_checks (check_id, vehicle_id, answers, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, check.ID, check.VehicleID, answersJSON, check.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert self check: %w", err)
	}

	r.logger.Debug("Self check saved",
		zap.String("check_id", check.ID),
		zap.String("vehicle_id", check.VehicleID),
		zap.Int("flagged", len(check.FlaggedItems())),
	)
	return nil
}
