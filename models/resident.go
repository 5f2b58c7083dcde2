package models

import (
	"gorm.io/gorm"

	"interfone-http-service/utils"
)

// Resident represents apartment residents
type Resident struct {
	BaseModel
	Name        string `gorm:"type:varchar(50);not null" json:"name"`
	Email       string `gorm:"type:varchar(100)" json:"email"`
	Phone       string `gorm:"type:varchar(20);not null" json:"phone"`
	Password    string `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	ApartmentID uint   `gorm:"not null;index" json:"apartment_id"`

	// 推送渠道信息
	PushToken           string `gorm:"type:varchar(200)" json:"push_token"`      // Expo推送令牌
	VoipPushToken       string `gorm:"type:varchar(200)" json:"voip_push_token"` // iOS VoIP推送令牌
	NotificationEnabled bool   `gorm:"default:true" json:"notification_enabled"`
	WhatsappPhone       string `gorm:"type:varchar(20)" json:"whatsapp_phone"` // 不填时回退到Phone

	// Relations
	Apartment *Apartment `gorm:"foreignKey:ApartmentID" json:"apartment,omitempty"`
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (r *Resident) BeforeCreate(tx *gorm.DB) error {
	// 如果提供了密码，对其进行哈希处理
	if r.Password != "" {
		hashedPassword, err := utils.HashPassword(r.Password)
		if err != nil {
			return err
		}
		r.Password = hashedPassword
	}
	return nil
}

// BeforeSave 是一个GORM钩子，在保存记录前运行
func (r *Resident) BeforeSave(tx *gorm.DB) error {
	// 如果提供了密码且不是已哈希的，对其进行哈希处理
	if r.Password != "" && len(r.Password) < 60 {
		hashedPassword, err := utils.HashPassword(r.Password)
		if err != nil {
			return err
		}
		r.Password = hashedPassword
	}
	return nil
}

// NotificationPhone 返回WhatsApp通知使用的号码
func (r *Resident) NotificationPhone() string {
	if r.WhatsappPhone != "" {
		return r.WhatsappPhone
	}
	return r.Phone
}
