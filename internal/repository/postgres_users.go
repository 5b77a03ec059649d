package repository

import (
	"context"
	"database/sql"
	"fmt"

	"soori-welfare/internal/models"

	"go.uber.org/zap"
)

// PostgresUsersRepo users / vehicles 表的实现
type PostgresUsersRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresUsersRepo 创建用户 Repository
func NewPostgresUsersRepo(db *sql.DB, logger *zap.Logger) *PostgresUsersRepo {
	return &PostgresUsersRepo{db: db, logger: logger}
}

var _ UsersRepository = (*PostgresUsersRepo)(nil)

// GetProfile 读取用户信息
func (r *PostgresUsersRepo) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT user_id, name, recipient_type, supported_district
		FROM users
		WHERE user_id = $1
	`

	var (
		profile       models.UserProfile
		name          sql.NullString
		recipientType sql.NullString
		district      sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&name,
		&recipientType,
		&district,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user profile: %w", err)
	}

	profile.Name = name.String
	profile.RecipientType = models.RecipientType(recipientType.String)
	if profile.RecipientType == "" {
		profile.RecipientType = models.RecipientGeneral
	}
	profile.SupportedDistrict = district.String
	if profile.SupportedDistrict == "" {
		profile.SupportedDistrict = models.DefaultSupportedDistrict
	}

	return &profile, nil
}

// ListUserIDsWithVehicle 登记了车辆的用户（定时刷新的对象）
func (r *PostgresUsersRepo) ListUserIDsWithVehicle(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT u.user_id
		FROM users u
		JOIN vehicles v ON v.user_id = u.user_id
		ORDER BY u.user_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with vehicle: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	r.logger.Debug("Listed users with vehicle", zap.Int("count", len(userIDs)))
	return userIDs, nil
}
