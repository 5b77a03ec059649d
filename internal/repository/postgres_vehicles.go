package repository

import (
	"context"
	"database/sql"
	"fmt"

	"soori-welfare/internal/models"

	"go.uber.org/zap"
)

// PostgresVehiclesRepo vehicles 表的实现
type PostgresVehiclesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresVehiclesRepo 创建车辆 Repository
func NewPostgresVehiclesRepo(db *sql.DB, logger *zap.Logger) *PostgresVehiclesRepo {
	return &PostgresVehiclesRepo{db: db, logger: logger}
}

var _ VehiclesRepository = (*PostgresVehiclesRepo)(nil)

const vehicleColumns = `vehicle_id, user_id, model, purchased_at, created_at, updated_at`

// GetUserVehicle 用户有多台时取最近登记的一台
func (r *PostgresVehiclesRepo) GetUserVehicle(ctx context.Context, userID string) (*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.queryVehicle(ctx, query, userID)
}

// GetVehicle 按 vehicle_id 查询
func (r *PostgresVehiclesRepo) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE vehicle_id = $1
	`
	return r.queryVehicle(ctx, query, vehicleID)
}

func (r *PostgresVehiclesRepo) queryVehicle(ctx context.Context, query string, arg string) (*models.Vehicle, error) {
	var (
		v           models.Vehicle
		model       sql.NullString
		purchasedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&v.ID,
		&v.UserID,
		&model,
		&purchasedAt,
		&v.RegisteredAt,
		&v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicle: %w", err)
	}

	v.Model = model.String
	if purchasedAt.Valid {
		t := purchasedAt.Time
		v.PurchasedAt = &t
	}
	return &v, nil
}
