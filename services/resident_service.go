package services

import (
	"errors"

	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/models"
)

// InterfaceResidentService defines the resident service interface
type InterfaceResidentService interface {
	GetAllResidents(page int, pageSize int) ([]models.Resident, int64, error)
	GetResidentByID(id uint) (*models.Resident, error)
	GetResidentsByApartment(apartmentID uint) ([]models.Resident, error)
	CreateResident(resident *models.Resident) error
	UpdateResident(id uint, updates map[string]interface{}) (*models.Resident, error)
	RegisterPushTokens(id uint, pushToken, voipPushToken string) error
	SetNotificationEnabled(id uint, enabled bool) error
	DeleteResident(id uint) error
}

// ResidentService 提供住户相关的服务
type ResidentService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewResidentService 创建一个新的住户服务
func NewResidentService(db *gorm.DB, cfg *config.Config) InterfaceResidentService {
	return &ResidentService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllResidents 获取所有住户
func (s *ResidentService) GetAllResidents(page int, pageSize int) ([]models.Resident, int64, error) {
	var residents []models.Resident
	var total int64
	if err := s.DB.Model(&models.Resident{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.DB.Preload("Apartment").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&residents).Error; err != nil {
		return nil, 0, err
	}
	return residents, total, nil
}

// 2 GetResidentByID 根据ID获取住户
func (s *ResidentService) GetResidentByID(id uint) (*models.Resident, error) {
	var resident models.Resident
	if err := s.DB.Preload("Apartment").First(&resident, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResidentNotFound
		}
		return nil, err
	}
	return &resident, nil
}

// 3 GetResidentsByApartment 获取公寓的全部住户
func (s *ResidentService) GetResidentsByApartment(apartmentID uint) ([]models.Resident, error) {
	var residents []models.Resident
	if err := s.DB.Where("apartment_id = ?", apartmentID).Find(&residents).Error; err != nil {
		return nil, err
	}
	return residents, nil
}

// 4 CreateResident 创建新住户
func (s *ResidentService) CreateResident(resident *models.Resident) error {
	// 验证手机号唯一性
	var count int64
	if err := s.DB.Model(&models.Resident{}).Where("phone = ?", resident.Phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("手机号已被使用")
	}

	// 验证公寓是否存在
	var apartment models.Apartment
	if err := s.DB.First(&apartment, resident.ApartmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApartmentNotFound
		}
		return err
	}

	return s.DB.Create(resident).Error
}

// 5 UpdateResident 更新住户信息
func (s *ResidentService) UpdateResident(id uint, updates map[string]interface{}) (*models.Resident, error) {
	resident, err := s.GetResidentByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新手机号，需要检查唯一性
	if phone, ok := updates["phone"].(string); ok && phone != resident.Phone {
		var count int64
		if err := s.DB.Model(&models.Resident{}).Where("phone = ? AND id != ?", phone, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("手机号已被其他住户使用")
		}
	}

	if err := s.DB.Model(resident).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetResidentByID(id)
}

// 6 RegisterPushTokens 登记客户端的推送令牌，来电通知依赖这里的数据
func (s *ResidentService) RegisterPushTokens(id uint, pushToken, voipPushToken string) error {
	result := s.DB.Model(&models.Resident{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"push_token":      pushToken,
			"voip_push_token": voipPushToken,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResidentNotFound
	}
	return nil
}

// 7 SetNotificationEnabled 设置住户的通知开关
func (s *ResidentService) SetNotificationEnabled(id uint, enabled bool) error {
	result := s.DB.Model(&models.Resident{}).Where("id = ?", id).
		Update("notification_enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResidentNotFound
	}
	return nil
}

// 8 DeleteResident 删除住户
func (s *ResidentService) DeleteResident(id uint) error {
	result := s.DB.Delete(&models.Resident{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResidentNotFound
	}
	return nil
}
