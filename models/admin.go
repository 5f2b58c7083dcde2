package models

import (
	"gorm.io/gorm"

	"interfone-http-service/utils"
)

// Admin 表示系统管理员
type Admin struct {
	BaseModel
	Username string `gorm:"type:varchar(50);unique;not null" json:"username"`
	Password string `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	Email    string `gorm:"type:varchar(100)" json:"email"`
	Status   string `gorm:"type:varchar(20);default:'active'" json:"status"` // 状态：active, inactive
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	if a.Password != "" {
		hashedPassword, err := utils.HashPassword(a.Password)
		if err != nil {
			return err
		}
		a.Password = hashedPassword
	}
	return nil
}

// BeforeSave 是一个GORM钩子，在保存记录前运行
func (a *Admin) BeforeSave(tx *gorm.DB) error {
	if a.Password != "" && len(a.Password) < 60 {
		hashedPassword, err := utils.HashPassword(a.Password)
		if err != nil {
			return err
		}
		a.Password = hashedPassword
	}
	return nil
}
