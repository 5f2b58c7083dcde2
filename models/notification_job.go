package models

import "time"

// NotificationKind 通知事件类型
type NotificationKind string

const (
	KindVisitor       NotificationKind = "visitor"
	KindDelivery      NotificationKind = "delivery"
	KindCommunication NotificationKind = "communication"
	KindEmergency     NotificationKind = "emergency"
	KindIncomingCall  NotificationKind = "incoming_call"
	KindCallEnded     NotificationKind = "call_ended"
)

// NotificationChannel 投递渠道
type NotificationChannel string

const (
	ChannelPush     NotificationChannel = "push"
	ChannelVoipPush NotificationChannel = "voip_push"
	ChannelWhatsapp NotificationChannel = "whatsapp"
)

// JobStatus 投递任务状态，pending → processing → sent|failed，单向推进
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSent       JobStatus = "sent"
	JobFailed     JobStatus = "failed"
)

// NotificationJob 表示一次针对单个收件人、单个渠道的投递任务。
// 终态记录不再修改；重试会生成引用 RetryOf 的新记录，Attempt 递增。
type NotificationJob struct {
	BaseModel
	JobID         string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"job_id"`
	Kind          NotificationKind    `gorm:"type:varchar(30);not null;index" json:"kind"`
	RecipientID   uint                `gorm:"not null;index" json:"recipient_id"`
	RecipientType string              `gorm:"type:varchar(20);not null" json:"recipient_type"` // doorman, resident
	Channel       NotificationChannel `gorm:"type:varchar(20);not null" json:"channel"`
	Payload       string              `gorm:"type:text" json:"payload"` // JSON 序列化的渠道载荷
	Priority      string              `gorm:"type:varchar(10);default:'normal'" json:"priority"`
	Status        JobStatus           `gorm:"type:varchar(20);not null;index" json:"status"`
	Attempt       int                 `gorm:"default:1" json:"attempt"`
	RetryOf       string              `gorm:"type:varchar(64);index" json:"retry_of,omitempty"` // 上一次失败任务的JobID
	LastError     string              `gorm:"type:varchar(500)" json:"last_error,omitempty"`
	SentAt        *time.Time          `json:"sent_at,omitempty"`
}

// IsTerminal 判断任务是否已到终态
func (j *NotificationJob) IsTerminal() bool {
	return j.Status == JobSent || j.Status == JobFailed
}
