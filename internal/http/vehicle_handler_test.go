package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"soori-welfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVehicles map[string]*models.Vehicle

func (f fakeVehicles) GetUserVehicle(ctx context.Context, userID string) (*models.Vehicle, error) {
	for _, v := range f {
		if v.UserID == userID {
			return v, nil
		}
	}
	return nil, nil
}

func (f fakeVehicles) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	return f[vehicleID], nil
}

type recordingHistory struct {
	fakeHistory
	saved   []*models.SelfCheck
	repairs map[string][]models.Repair
	saveErr error
}

func (h *recordingHistory) ListRepairsByVehicle(ctx context.Context, vehicleID string) ([]models.Repair, error) {
	if r, ok := h.repairs[vehicleID]; ok {
		return r, nil
	}
	return []models.Repair{}, nil
}

func (h *recordingHistory) CreateSelfCheck(ctx context.Context, check *models.SelfCheck) error {
	if h.saveErr != nil {
		return h.saveErr
	}
	check.ID = "c-new"
	check.CreatedAt = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	h.saved = append(h.saved, check)
	return nil
}

func setupVehicleRouter() (http.Handler, *recordingHistory) {
	vehicles := fakeVehicles{
		"v-1": {ID: "v-1", UserID: "user-1", Model: "SW-1000", RegisteredAt: time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	history := &recordingHistory{repairs: map[string][]models.Repair{}}
	logger := zap.NewNop()
	h := NewWelfareHandler(&fakeSubmitter{}, fakeTasks{}, &fakeGenerator{}, fakeReports{}, history, 30, logger)
	return NewRouter(h, NewVehicleHandler(vehicles, history, logger), logger), history
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetUserVehicle(t *testing.T) {
	router, _ := setupVehicleRouter()

	w := doRequest(router, http.MethodGet, "/users/user-1/vehicle", "")
	require.Equal(t, http.StatusOK, w.Code)
	var v models.Vehicle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "v-1", v.ID)
	assert.Equal(t, "SW-1000", v.Model)

	missing := doRequest(router, http.MethodGet, "/users/ghost/vehicle", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCreateSelfCheck(t *testing.T) {
	router, history := setupVehicleRouter()

	body := `{"id":"forged","vehicleId":"v-9","batteryBlinking":true,"frameCrack":true}`
	w := doRequest(router, http.MethodPost, "/vehicles/v-1/self-checks", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SelfCheckCreated
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.SelfCheck)
	assert.Equal(t, "c-new", resp.SelfCheck.ID)
	assert.Equal(t, "v-1", resp.SelfCheck.VehicleID)

	require.Len(t, history.saved, 1)
	saved := history.saved[0]
	assert.Equal(t, "v-1", saved.VehicleID)
	assert.Equal(t, []string{"배터리 표시등 깜빡임", "프레임 균열"}, saved.FlaggedItems())
}

func TestCreateSelfCheck_Errors(t *testing.T) {
	router, history := setupVehicleRouter()

	unknown := doRequest(router, http.MethodPost, "/vehicles/v-9/self-checks", `{"motorNoise":true}`)
	assert.Equal(t, http.StatusNotFound, unknown.Code)

	invalid := doRequest(router, http.MethodPost, "/vehicles/v-1/self-checks", `{"motorNoise":`)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	history.saveErr = assert.AnError
	failed := doRequest(router, http.MethodPost, "/vehicles/v-1/self-checks", `{"motorNoise":true}`)
	assert.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.Empty(t, history.saved)
}

func TestListVehicleRepairs(t *testing.T) {
	router, history := setupVehicleRouter()
	history.repairs["v-1"] = []models.Repair{
		{ID: "r-1", VehicleID: "v-1", Price: 35000, Categories: []string{"brake"}},
	}

	w := doRequest(router, http.MethodGet, "/vehicles/v-1/repairs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp VehicleRepairs
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Repairs, 1)
	assert.Equal(t, "r-1", resp.Repairs[0].ID)

	missing := doRequest(router, http.MethodGet, "/vehicles/v-9/repairs", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListVehicleRepairs_EmptyIsArray(t *testing.T) {
	router, _ := setupVehicleRouter()

	w := doRequest(router, http.MethodGet, "/vehicles/v-1/repairs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"repairs":[]}`, w.Body.String())
}
