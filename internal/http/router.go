package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter 注册所有路由
func NewRouter(h *WelfareHandler, vh *VehicleHandler, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog(logger))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin/welfare").Subrouter()
	admin.HandleFunc("/generate/async", h.GenerateAsync).Methods(http.MethodPost)
	admin.HandleFunc("/generate", h.GenerateSync).Methods(http.MethodPost)
	admin.HandleFunc("/status/{taskId}", h.TaskStatus).Methods(http.MethodGet)
	admin.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)

	r.HandleFunc("/welfare/reports/{userId}", h.GetReport).Methods(http.MethodGet)
	r.HandleFunc("/welfare/reports/{userId}/export", h.ExportReport).Methods(http.MethodGet)

	r.HandleFunc("/users/{userId}/vehicle", vh.GetUserVehicle).Methods(http.MethodGet)
	r.HandleFunc("/vehicles/{vehicleId}/self-checks", vh.CreateSelfCheck).Methods(http.MethodPost)
	r.HandleFunc("/vehicles/{vehicleId}/repairs", vh.ListRepairs).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
