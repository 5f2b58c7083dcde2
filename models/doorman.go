package models

import (
	"gorm.io/gorm"

	"interfone-http-service/utils"
)

// Doorman 表示楼栋门卫（porteiro）
type Doorman struct {
	BaseModel
	Name       string `gorm:"type:varchar(50);not null" json:"name"`
	Username   string `gorm:"type:varchar(50);unique;not null" json:"username"`
	Password   string `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	Phone      string `gorm:"type:varchar(20)" json:"phone"`
	BuildingID uint   `gorm:"not null;index" json:"building_id"`
	PushToken  string `gorm:"type:varchar(200)" json:"push_token"`
	Status     string `gorm:"type:varchar(20);default:'active'" json:"status"` // 状态：active, inactive

	// Relations
	Building *Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	Shifts   []Shift   `gorm:"foreignKey:DoormanID" json:"shifts,omitempty"`
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (d *Doorman) BeforeCreate(tx *gorm.DB) error {
	if d.Password != "" {
		hashedPassword, err := utils.HashPassword(d.Password)
		if err != nil {
			return err
		}
		d.Password = hashedPassword
	}
	return nil
}

// BeforeSave 是一个GORM钩子，在保存记录前运行
func (d *Doorman) BeforeSave(tx *gorm.DB) error {
	if d.Password != "" && len(d.Password) < 60 {
		hashedPassword, err := utils.HashPassword(d.Password)
		if err != nil {
			return err
		}
		d.Password = hashedPassword
	}
	return nil
}
