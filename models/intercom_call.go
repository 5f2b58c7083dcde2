package models

import (
	"fmt"
	"time"
)

// CallStatus 表示对讲呼叫的状态
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated" // 已创建，记录尚未对外振铃
	CallStatusRinging   CallStatus = "ringing"   // 振铃中，等待住户应答
	CallStatusAnswered  CallStatus = "answered"  // 已接听，通话进行中
	CallStatusDeclined  CallStatus = "declined"  // 被拒接
	CallStatusEnded     CallStatus = "ended"     // 正常结束
	CallStatusMissed    CallStatus = "missed"    // 振铃超时未接
	CallStatusFailed    CallStatus = "failed"    // 异常失败
)

// EndCause 表示呼叫终止的原因
type EndCause string

const (
	EndCauseCompleted EndCause = "completed"
	EndCauseDeclined  EndCause = "declined"
	EndCauseTimeout   EndCause = "timeout"
	EndCauseCancelled EndCause = "cancelled"
	EndCauseError     EndCause = "error"
)

// CallerType 呼叫发起方类型
const (
	UserTypeDoorman  = "doorman"
	UserTypeResident = "resident"
)

// IntercomCall 表示一次门卫与住户之间的对讲呼叫。
// 记录只增不删，终止后保留为通话历史。
type IntercomCall struct {
	BaseModel
	CallID        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"call_id"`
	ChannelName   string     `gorm:"type:varchar(80);not null" json:"channel_name"` // 媒体频道名，"call-"+CallID
	BuildingID    uint       `gorm:"not null;index" json:"building_id"`
	ApartmentID   uint       `gorm:"not null;index" json:"apartment_id"`
	InitiatorID   uint       `gorm:"not null" json:"initiator_id"`
	InitiatorType string     `gorm:"type:varchar(20);not null" json:"initiator_type"` // doorman, resident
	Status        CallStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	EndCause      EndCause   `gorm:"type:varchar(20)" json:"end_cause,omitempty"`
	Duration      int        `json:"duration"` // 通话时长（秒），从接听算起

	// ActiveKey 在呼叫存活期间为 "buildingID:apartmentID"，终止后置空。
	// 唯一索引保证同一公寓同时最多一路存活呼叫。
	ActiveKey *string `gorm:"type:varchar(40);uniqueIndex" json:"-"`

	// Relations
	Building     *Building         `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	Apartment    *Apartment        `gorm:"foreignKey:ApartmentID" json:"apartment,omitempty"`
	Participants []CallParticipant `gorm:"foreignKey:CallRef;references:ID" json:"participants,omitempty"`
}

// ActiveCallKey 生成存活呼叫的唯一键
func ActiveCallKey(buildingID, apartmentID uint) string {
	return fmt.Sprintf("%d:%d", buildingID, apartmentID)
}

// ChannelNameFor 根据呼叫ID派生媒体频道名
func ChannelNameFor(callID string) string {
	return "call-" + callID
}

// IsTerminal 判断呼叫是否已终止
func (c *IntercomCall) IsTerminal() bool {
	switch c.Status {
	case CallStatusDeclined, CallStatusEnded, CallStatusMissed, CallStatusFailed:
		return true
	}
	return false
}

// ActiveCallStatuses 存活状态集合，供条件更新使用
func ActiveCallStatuses() []CallStatus {
	return []CallStatus{CallStatusInitiated, CallStatusRinging, CallStatusAnswered}
}
