package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"soori-welfare/common/database"
	mqttcommon "soori-welfare/common/mqtt"
	rediscommon "soori-welfare/common/redis"
	"soori-welfare/internal/config"
	"soori-welfare/internal/consumer"
	"soori-welfare/internal/generator"
	httpapi "soori-welfare/internal/http"
	"soori-welfare/internal/notify"
	"soori-welfare/internal/repository"
	"soori-welfare/internal/store"

	"go.uber.org/zap"
)

// WelfareService 福利报告服务（整合各层）
type WelfareService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *rediscommon.Client
	mqttClient  *mqttcommon.Client
	logger      *zap.Logger

	// 各层组件
	dispatcher   *consumer.Dispatcher
	taskConsumer *consumer.TaskConsumer
	refreshJob   *RefreshJob
	httpServer   *http.Server
}

// NewWelfareService 连接 PostgreSQL / Redis（以及可选的 MQTT）并组装各层
func NewWelfareService(cfg *config.Config, logger *zap.Logger) (*WelfareService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	// 2. 连接 Redis
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		rediscommon.Close(redisClient)
		db.Close()
		return nil, err
	}

	// 3. MQTT 通知（可选）
	var mqttClient *mqttcommon.Client
	var publisher notify.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			db.Close()
			rediscommon.Close(redisClient)
			return nil, fmt.Errorf("failed to connect mqtt: %w", err)
		}
		publisher = mqttClient
	}

	s := &WelfareService{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		mqttClient:  mqttClient,
		logger:      logger,
	}
	s.build(publisher)
	return s, nil
}

// build 创建 Repository / Store / Consumer / HTTP 各层
func (s *WelfareService) build(publisher notify.Publisher) {
	cfg := s.config

	usersRepo := repository.NewPostgresUsersRepo(s.db, s.logger)
	statsRepo := repository.NewPostgresStatsRepo(s.db, s.logger)
	reportsRepo := repository.NewPostgresReportsRepo(s.db, s.logger)
	historyRepo := repository.NewPostgresHistoryRepo(s.db, s.logger)
	vehiclesRepo := repository.NewPostgresVehiclesRepo(s.db, s.logger)

	tasks := store.NewTaskStore(store.NewRedisKV(s.redisClient), cfg.Report.TaskTTL, cfg.Report.InFlightTTL)
	gen := generator.NewGenerator(usersRepo, statsRepo, reportsRepo, s.logger)
	notifier := notify.NewMQTTNotifier(publisher, cfg.Report.NotifyTopicRoot, cfg.MQTT.QoS, s.logger)

	s.dispatcher = consumer.NewDispatcher(s.redisClient, tasks, cfg.Report.TaskStream, s.logger)
	s.taskConsumer = consumer.NewTaskConsumer(cfg, s.redisClient, tasks, gen, notifier, s.logger)
	s.refreshJob = NewRefreshJob(usersRepo, s.dispatcher, s.logger)

	handler := httpapi.NewWelfareHandler(
		s.dispatcher,
		tasks,
		gen,
		reportsRepo,
		historyRepo,
		cfg.Report.EstimatedTime,
		s.logger,
	)
	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(handler, httpapi.NewVehicleHandler(vehiclesRepo, historyRepo, s.logger), s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Start 启动 HTTP 服务、定时刷新与任务消费者，ctx 取消后返回
func (s *WelfareService) Start(ctx context.Context) error {
	s.logger.Info("Starting welfare report service",
		zap.String("http_addr", s.config.HTTP.Addr),
		zap.String("task_stream", s.config.Report.TaskStream),
		zap.String("refresh_cron", s.config.Report.RefreshCron),
		zap.Bool("mqtt_enabled", s.mqttClient != nil),
	)

	scheduler, err := NewScheduler(ctx, s.config.Report.RefreshCron, s.refreshJob, s.logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	errCh := make(chan error, 2)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := s.taskConsumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("task consumer: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// RefreshAll 立即执行一次全量刷新
func (s *WelfareService) RefreshAll(ctx context.Context) (RefreshResult, error) {
	return s.refreshJob.Run(ctx)
}

// Stop 关闭 HTTP 服务并释放连接
func (s *WelfareService) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := rediscommon.Close(s.redisClient); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
