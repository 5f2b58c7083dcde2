package models

import "time"

// ParticipantStatus 表示参与者在呼叫中的状态
type ParticipantStatus string

const (
	ParticipantInvited  ParticipantStatus = "invited"
	ParticipantJoined   ParticipantStatus = "joined"
	ParticipantLeft     ParticipantStatus = "left"
	ParticipantDeclined ParticipantStatus = "declined"
	ParticipantMissed   ParticipantStatus = "missed"
)

// ParticipantRole 参与者角色
const (
	RoleCaller = "caller"
	RoleCallee = "callee"
)

// CallParticipant 表示呼叫中的一个参与者。
// 同一呼叫内 (user_id, user_type) 唯一，支持一户多人接听竞争。
type CallParticipant struct {
	BaseModel
	CallRef  uint              `gorm:"not null;uniqueIndex:idx_call_user" json:"call_ref"`
	UserID   uint              `gorm:"not null;uniqueIndex:idx_call_user" json:"user_id"`
	UserType string            `gorm:"type:varchar(20);not null;uniqueIndex:idx_call_user" json:"user_type"` // doorman, resident
	Role     string            `gorm:"type:varchar(20);not null" json:"role"`                                // caller, callee
	Status   ParticipantStatus `gorm:"type:varchar(20);not null" json:"status"`
	JoinedAt *time.Time        `json:"joined_at,omitempty"`
	LeftAt   *time.Time        `json:"left_at,omitempty"`

	// Relations
	Call *IntercomCall `gorm:"foreignKey:CallRef" json:"-"`
}
