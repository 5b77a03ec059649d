package httpapi

import (
	"net/http"
	"time"

	"soori-welfare/internal/models"
	"soori-welfare/internal/repository"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SelfCheckCreated POST /vehicles/{vehicleId}/self-checks 的响应
type SelfCheckCreated struct {
	Success   bool              `json:"success"`
	SelfCheck *models.SelfCheck `json:"selfCheck"`
}

// VehicleRepairs GET /vehicles/{vehicleId}/repairs 的响应
type VehicleRepairs struct {
	Repairs []models.Repair `json:"repairs"`
}

// VehicleHandler 车辆、维修记录与自我点检接口
type VehicleHandler struct {
	vehicles repository.VehiclesRepository
	history  repository.HistoryRepository
	logger   *zap.Logger
}

// NewVehicleHandler 创建处理器
func NewVehicleHandler(vehicles repository.VehiclesRepository, history repository.HistoryRepository, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, history: history, logger: logger}
}

// GetUserVehicle GET /users/{userId}/vehicle
func (h *VehicleHandler) GetUserVehicle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	v, err := h.vehicles.GetUserVehicle(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get user vehicle", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CreateSelfCheck POST /vehicles/{vehicleId}/self-checks
func (h *VehicleHandler) CreateSelfCheck(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	var check models.SelfCheck
	if err := readBodyJSON(r, maxBodyBytes, &check); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// 标识由服务端决定
	check.ID = ""
	check.VehicleID = v.ID
	check.CreatedAt = time.Time{}

	if err := h.history.CreateSelfCheck(r.Context(), &check); err != nil {
		h.logger.Error("Failed to save self check", zap.String("vehicle_id", v.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save self check")
		return
	}

	h.logger.Info("Self check submitted",
		zap.String("vehicle_id", v.ID),
		zap.String("user_id", v.UserID),
		zap.Strings("flagged", check.FlaggedItems()),
	)
	writeJSON(w, http.StatusCreated, SelfCheckCreated{Success: true, SelfCheck: &check})
}

// ListRepairs GET /vehicles/{vehicleId}/repairs
func (h *VehicleHandler) ListRepairs(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	repairs, err := h.history.ListRepairsByVehicle(r.Context(), v.ID)
	if err != nil {
		h.logger.Error("Failed to list vehicle repairs", zap.String("vehicle_id", v.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list repairs")
		return
	}
	writeJSON(w, http.StatusOK, VehicleRepairs{Repairs: repairs})
}

func (h *VehicleHandler) loadVehicle(w http.ResponseWriter, r *http.Request) (*models.Vehicle, bool) {
	vehicleID := mux.Vars(r)["vehicleId"]

	v, err := h.vehicles.GetVehicle(r.Context(), vehicleID)
	if err != nil {
		h.logger.Error("Failed to get vehicle", zap.String("vehicle_id", vehicleID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return nil, false
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return nil, false
	}
	return v, true
}
