package models

import (
	"time"
)

// SystemLog represents system operation logs
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `json:"actor_id"`
	ActorType string    `gorm:"type:varchar(20)" json:"actor_type"` // doorman, resident, system
	Action    string    `gorm:"type:varchar(100);not null" json:"action"`
	Target    string    `gorm:"type:varchar(100)" json:"target"` // Target of action (call, shift, job)
	Detail    string    `gorm:"type:varchar(500)" json:"detail"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}
