package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"soori-welfare/internal/models"

	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（common/mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// TaskEvent 任务结果通知的消息体
type TaskEvent struct {
	TaskID string            `json:"taskId"`
	UserID string            `json:"userId"`
	Status models.TaskStatus `json:"status"`
	Error  string            `json:"error,omitempty"`
}

// MQTTNotifier 把任务结果发布到 {topicRoot}/{userId}/report
type MQTTNotifier struct {
	publisher Publisher
	topicRoot string
	qos       byte
	logger    *zap.Logger
}

// NewMQTTNotifier publisher 为 nil 时 NotifyTask 不做任何事
func NewMQTTNotifier(publisher Publisher, topicRoot string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		publisher: publisher,
		topicRoot: strings.TrimSuffix(topicRoot, "/"),
		qos:       qos,
		logger:    logger,
	}
}

// Topic 用户的报告通知 topic
func (n *MQTTNotifier) Topic(userID string) string {
	return fmt.Sprintf("%s/%s/report", n.topicRoot, userID)
}

// NotifyTask 发布任务结果
func (n *MQTTNotifier) NotifyTask(ctx context.Context, task *models.ReportTask) error {
	if n.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(TaskEvent{
		TaskID: task.TaskID,
		UserID: task.UserID,
		Status: task.Status,
		Error:  task.Error,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal task event: %w", err)
	}

	topic := n.Topic(task.UserID)
	if err := n.publisher.Publish(topic, n.qos, false, payload); err != nil {
		return err
	}

	n.logger.Debug("Published task event",
		zap.String("topic", topic),
		zap.String("task_id", task.TaskID),
		zap.String("status", string(task.Status)),
	)
	return nil
}
