package models

import "time"

// Vehicle 用户登记的电动辅具（전동보장구）
type Vehicle struct {
	ID           string     `json:"vehicleId"`
	UserID       string     `json:"userId"`
	Model        string     `json:"model"`
	PurchasedAt  *time.Time `json:"purchasedAt,omitempty"`
	RegisteredAt time.Time  `json:"registeredAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
