package models

import "time"

// ShiftStatus 值班记录状态
type ShiftStatus string

const (
	ShiftStatusActive    ShiftStatus = "active"
	ShiftStatusCompleted ShiftStatus = "completed"
)

// Shift 表示门卫的一次值班。
// ActiveDoormanKey 与 ActiveBuildingKey 仅在值班进行中填写，结束后置空；
// 两个唯一索引在插入时保证：同一门卫最多一个进行中的值班，
// 同一楼栋最多一个在岗门卫。
type Shift struct {
	BaseModel
	DoormanID  uint        `gorm:"not null;index" json:"doorman_id"`
	BuildingID uint        `gorm:"not null;index" json:"building_id"`
	Status     ShiftStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	EndedAt    *time.Time  `json:"ended_at,omitempty"`
	EndNote    string      `gorm:"type:varchar(100)" json:"end_note,omitempty"` // 正常结束为空，自动关闭时记录原因

	ActiveDoormanKey  *uint `gorm:"uniqueIndex" json:"-"`
	ActiveBuildingKey *uint `gorm:"uniqueIndex" json:"-"`

	// Relations
	Doorman  *Doorman  `gorm:"foreignKey:DoormanID" json:"doorman,omitempty"`
	Building *Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
}
