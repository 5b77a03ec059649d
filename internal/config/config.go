package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"soori-welfare/common/config"
)

// DefaultBaseURL Cloud Functions 上的 API 地址
const DefaultBaseURL = "https://asia-northeast3-soo-ri.cloudfunctions.net/api"

// Config soori-welfare 服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	HTTP struct {
		Addr string
	}

	// 异步报告生成
	Report struct {
		TaskStream      string        // 任务队列 stream 名称
		ConsumerGroup   string        // 消费者组
		ConsumerName    string        // 消费者名称（多实例时需唯一）
		BatchSize       int           // 每次读取的消息数
		EstimatedTime   int           // 202 响应里的预计完成时间（秒）
		TaskTTL         time.Duration // 任务状态保留时间
		InFlightTTL     time.Duration // 进行中标记的最长保留时间
		RefreshCron     string        // 定时全量刷新（robfig/cron 秒级表达式），空字符串表示关闭
		NotifyTopicRoot string        // MQTT 完成通知的 topic 前缀
	}

	// 客户端（CLI）访问 API 的配置
	API struct {
		BaseURL      string
		Timeout      time.Duration
		PollInterval time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（未设置时使用默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "soori"
	cfg.Database.SSLMode = "disable"
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "soori-welfare"
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Report.TaskStream = getEnv("REPORT_TASK_STREAM", "welfare:tasks")
	cfg.Report.ConsumerGroup = getEnv("REPORT_CONSUMER_GROUP", "welfare-report-group")
	cfg.Report.ConsumerName = getEnv("REPORT_CONSUMER_NAME", "welfare-report-1")
	cfg.Report.BatchSize = getEnvInt("REPORT_BATCH_SIZE", 10)
	cfg.Report.EstimatedTime = getEnvInt("REPORT_ESTIMATED_SECONDS", 30)
	cfg.Report.TaskTTL = getEnvDuration("REPORT_TASK_TTL", 24*time.Hour)
	cfg.Report.InFlightTTL = getEnvDuration("REPORT_INFLIGHT_TTL", 10*time.Minute)
	cfg.Report.RefreshCron = getEnv("REPORT_REFRESH_CRON", "0 0 9 * * MON")
	if cfg.Report.RefreshCron == "off" {
		cfg.Report.RefreshCron = ""
	}
	cfg.Report.NotifyTopicRoot = getEnv("REPORT_NOTIFY_TOPIC_ROOT", "soori/welfare")

	cfg.API.BaseURL = ResolveBaseURL(os.Getenv("SOORI_BASE_URL"))
	cfg.API.Timeout = getEnvDuration("SOORI_TIMEOUT", 10*time.Second)
	cfg.API.PollInterval = getEnvDuration("POLL_INTERVAL", 2*time.Second)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// ResolveBaseURL 只接受 Cloud Functions 或本地地址，其余回退到默认地址
func ResolveBaseURL(envURL string) string {
	if strings.Contains(envURL, "cloudfunctions.net") ||
		strings.Contains(envURL, "localhost") ||
		strings.Contains(envURL, "127.0.0.1") {
		return strings.TrimRight(envURL, "/")
	}
	return DefaultBaseURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
