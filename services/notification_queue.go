package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"

	"interfone-http-service/config"
)

// TypeNotificationDeliver 投递任务的asynq类型名
const TypeNotificationDeliver = "notification:deliver"

// NotificationTaskPayload 队列任务只携带任务ID，渠道数据从数据库读取
type NotificationTaskPayload struct {
	JobID string `json:"job_id"`
}

// InterfaceNotificationQueue 定义通知队列的接口
type InterfaceNotificationQueue interface {
	Enqueue(jobID string) error
	Close() error
}

// NotificationQueue 基于Redis的后台投递队列。
// 重试由业务层生成新的任务记录，asynq侧不做自动重试。
type NotificationQueue struct {
	client *asynq.Client
}

// NewNotificationQueue 创建通知队列的生产端
func NewNotificationQueue(cfg *config.Config) InterfaceNotificationQueue {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &NotificationQueue{client: client}
}

// Enqueue 将投递任务放入队列
func (q *NotificationQueue) Enqueue(jobID string) error {
	payload, err := json.Marshal(NotificationTaskPayload{JobID: jobID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeNotificationDeliver, payload)
	info, err := q.client.Enqueue(task, asynq.MaxRetry(0))
	if err != nil {
		return err
	}
	log.Printf("[QUEUE] enqueued notification job %s as task %s", jobID, info.ID)
	return nil
}

// Close 关闭队列连接
func (q *NotificationQueue) Close() error {
	return q.client.Close()
}

// JobProcessor 任务处理方，由NotificationService实现
type JobProcessor interface {
	ProcessJob(jobID string) error
}

// NotificationWorker 队列的消费端
type NotificationWorker struct {
	server    *asynq.Server
	processor JobProcessor
}

// NewNotificationWorker 创建通知队列的消费端
func NewNotificationWorker(cfg *config.Config, processor JobProcessor) *NotificationWorker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 10,
		},
	)
	return &NotificationWorker{
		server:    server,
		processor: processor,
	}
}

// Start 启动消费循环（非阻塞）
func (w *NotificationWorker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationDeliver, w.handleDeliver)
	return w.server.Start(mux)
}

// Shutdown 停止消费
func (w *NotificationWorker) Shutdown() {
	w.server.Shutdown()
}

// handleDeliver 处理单个投递任务。
// 投递结果（含失败）都记录在任务记录上，这里始终返回nil避免asynq重试。
func (w *NotificationWorker) handleDeliver(ctx context.Context, t *asynq.Task) error {
	var payload NotificationTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Printf("[QUEUE] malformed task payload: %v", err)
		return nil
	}

	if err := w.processor.ProcessJob(payload.JobID); err != nil {
		log.Printf("[QUEUE] job %s processing error: %v", payload.JobID, err)
	}
	return nil
}
