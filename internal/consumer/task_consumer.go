package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscommon "soori-welfare/common/redis"
	"soori-welfare/internal/config"
	"soori-welfare/internal/models"
	"soori-welfare/internal/store"

	"go.uber.org/zap"
)

// ReportGenerator 生成并保存报告
type ReportGenerator interface {
	Generate(ctx context.Context, userID string) (*models.WelfareReport, error)
}

// TaskNotifier 任务进入终态时的通知
type TaskNotifier interface {
	NotifyTask(ctx context.Context, task *models.ReportTask) error
}

// readBlock 每次 XREADGROUP 的阻塞时间
const readBlock = 2 * time.Second

// TaskConsumer 消费 welfare:tasks，逐条生成报告
type TaskConsumer struct {
	config      *config.Config
	redisClient *rediscommon.Client
	tasks       *store.TaskStore
	generator   ReportGenerator
	notifier    TaskNotifier
	logger      *zap.Logger
	block       time.Duration
}

// NewTaskConsumer 创建任务消费者
func NewTaskConsumer(
	cfg *config.Config,
	redisClient *rediscommon.Client,
	tasks *store.TaskStore,
	generator ReportGenerator,
	notifier TaskNotifier,
	logger *zap.Logger,
) *TaskConsumer {
	return &TaskConsumer{
		config:      cfg,
		redisClient: redisClient,
		tasks:       tasks,
		generator:   generator,
		notifier:    notifier,
		logger:      logger,
		block:       readBlock,
	}
}

// Start 启动消费循环，ctx 取消后返回
func (c *TaskConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.config.Report.TaskStream, c.config.Report.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", c.config.Report.TaskStream, err)
	}

	c.logger.Info("Task consumer started",
		zap.String("stream", c.config.Report.TaskStream),
		zap.String("consumer_group", c.config.Report.ConsumerGroup),
		zap.String("consumer_name", c.config.Report.ConsumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume task stream",
				zap.Error(err),
				zap.Duration("backoff", backoffDuration),
			)

			// 指数退避
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoffDuration):
				backoffDuration *= 2
				if backoffDuration > maxBackoff {
					backoffDuration = maxBackoff
				}
			}
			continue
		}
		backoffDuration = time.Second
	}
}

// consumeOnce 读取一批消息并处理；单条消息失败不影响其他消息
func (c *TaskConsumer) consumeOnce(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStream(
		ctx,
		c.redisClient,
		c.config.Report.TaskStream,
		c.config.Report.ConsumerGroup,
		c.config.Report.ConsumerName,
		int64(c.config.Report.BatchSize),
		c.block,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", c.config.Report.TaskStream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Failed to process task message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		if err := rediscommon.Ack(ctx, c.redisClient, msg.Stream, c.config.Report.ConsumerGroup, msg.ID); err != nil {
			c.logger.Warn("Failed to ack task message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// processMessage 返回的错误只用于日志，任务状态已在这里落定
func (c *TaskConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	data, ok := msg.Data()
	if !ok {
		return fmt.Errorf("message has no data field")
	}
	var envelope models.TaskEnvelope
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal task envelope: %w", err)
	}

	task, err := c.tasks.MarkProcessing(ctx, envelope.TaskID)
	if err != nil {
		return fmt.Errorf("failed to mark task processing: %w", err)
	}
	if task.Status.IsTerminal() {
		c.logger.Debug("Skipping finished task", zap.String("task_id", task.TaskID))
		return nil
	}

	start := time.Now()
	_, genErr := c.generator.Generate(ctx, envelope.UserID)
	if genErr != nil {
		task, err = c.tasks.Fail(ctx, envelope.TaskID, genErr.Error())
	} else {
		task, err = c.tasks.Complete(ctx, envelope.TaskID)
	}
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	c.logger.Info("Report task finished",
		zap.String("task_id", task.TaskID),
		zap.String("user_id", task.UserID),
		zap.String("status", string(task.Status)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if c.notifier != nil {
		if err := c.notifier.NotifyTask(ctx, task); err != nil {
			c.logger.Warn("Failed to notify task result",
				zap.String("task_id", task.TaskID),
				zap.Error(err),
			)
		}
	}

	if genErr != nil {
		return fmt.Errorf("report generation failed: %w", genErr)
	}
	return nil
}
