package repository

import (
	"context"
	"time"

	"soori-welfare/internal/models"
)

// ReportsRepository 福利报告 Repository 接口
type ReportsRepository interface {
	// GetReport 报告不存在时返回 (nil, nil)
	GetReport(ctx context.Context, userID string) (*models.WelfareReport, error)
	UpsertReport(ctx context.Context, report *models.WelfareReport) error
}

// StatsRepository 从出行/维修/点检记录推导评估输入
type StatsRepository interface {
	GetUserStats(ctx context.Context, userID string, now time.Time) (models.UserStats, error)
	GetDeviceStats(ctx context.Context, userID string, now time.Time) (models.DeviceStats, error)
}

// UsersRepository 用户与车辆信息
type UsersRepository interface {
	// GetProfile 用户不存在时返回 (nil, nil)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	ListUserIDsWithVehicle(ctx context.Context) ([]string, error)
}

// HistoryRepository 维修与点检历史
type HistoryRepository interface {
	ListRecentRepairs(ctx context.Context, userID string, limit int) ([]models.Repair, error)
	ListRepairsByVehicle(ctx context.Context, vehicleID string) ([]models.Repair, error)
	// GetLatestSelfCheck 没有点检记录时返回 (nil, nil)
	GetLatestSelfCheck(ctx context.Context, userID string) (*models.SelfCheck, error)
	// CreateSelfCheck 写入后回填 ID 与 CreatedAt
	CreateSelfCheck(ctx context.Context, check *models.SelfCheck) error
}

// VehiclesRepository 车辆信息；不存在时返回 (nil, nil)
type VehiclesRepository interface {
	GetUserVehicle(ctx context.Context, userID string) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error)
}
