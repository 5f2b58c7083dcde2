package services

import (
	"time"

	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/models"
)

// EmergencyAlert 紧急广播请求
type EmergencyAlert struct {
	BuildingID  uint   `json:"building_id"`
	Type        string `json:"type"` // 如：fire, intrusion, medical
	Description string `json:"description"`
	ReportedBy  uint   `json:"reported_by"`
}

// EmergencyResult 紧急广播的投递结果
type EmergencyResult struct {
	NotifiedResidents int                `json:"notified_residents"`
	JobIDs            []string           `json:"job_ids"`
	Skipped           []SkippedRecipient `json:"skipped,omitempty"`
}

// InterfaceEmergencyService defines the emergency service interface
type InterfaceEmergencyService interface {
	BroadcastAlert(alert *EmergencyAlert) (*EmergencyResult, error)
}

// EmergencyService 处理紧急事件广播。
// 紧急事件不做在岗过滤，楼栋内所有可达的住户和门卫都会收到。
type EmergencyService struct {
	DB        *gorm.DB
	Config    *config.Config
	NotifySvc InterfaceNotificationService
}

// NewEmergencyService 创建新的紧急事件服务
func NewEmergencyService(db *gorm.DB, cfg *config.Config, notifySvc InterfaceNotificationService) InterfaceEmergencyService {
	return &EmergencyService{
		DB:        db,
		Config:    cfg,
		NotifySvc: notifySvc,
	}
}

// BroadcastAlert 向楼栋内全部公寓广播紧急通知
func (s *EmergencyService) BroadcastAlert(alert *EmergencyAlert) (*EmergencyResult, error) {
	var apartments []models.Apartment
	if err := s.DB.Where("building_id = ?", alert.BuildingID).Find(&apartments).Error; err != nil {
		return nil, err
	}

	result := &EmergencyResult{}
	for _, apt := range apartments {
		outcome, err := s.NotifySvc.RouteVisitorEvent(&VisitorEvent{
			Kind:            models.KindEmergency,
			BuildingID:      alert.BuildingID,
			ApartmentNumber: apt.Number,
			Message:         alert.Description,
			NotifyResidents: true,
		})
		if err != nil {
			config.Error("[EMERGENCY] notify apartment %s failed: %v", apt.Number, err)
			continue
		}
		result.JobIDs = append(result.JobIDs, outcome.JobIDs...)
		result.Skipped = append(result.Skipped, outcome.Skipped...)
		result.NotifiedResidents += len(outcome.JobIDs)
	}

	// 同时通知在岗门卫
	doormanOutcome, err := s.NotifySvc.RouteVisitorEvent(&VisitorEvent{
		Kind:       models.KindEmergency,
		BuildingID: alert.BuildingID,
		Message:    alert.Description,
	})
	if err == nil {
		result.JobIDs = append(result.JobIDs, doormanOutcome.JobIDs...)
		result.Skipped = append(result.Skipped, doormanOutcome.Skipped...)
	}

	s.DB.Create(&models.SystemLog{
		ActorID:   alert.ReportedBy,
		ActorType: models.UserTypeDoorman,
		Action:    "emergency_broadcast",
		Target:    alert.Type,
		Detail:    alert.Description,
		Timestamp: time.Now(),
	})

	return result, nil
}
