package services

import (
	"errors"

	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/models"
	"interfone-http-service/utils"
)

// InterfaceDoormanService defines the doorman service interface
type InterfaceDoormanService interface {
	GetAllDoormen(buildingID uint, page, pageSize int) ([]models.Doorman, int64, error)
	GetDoormanByID(id uint) (*models.Doorman, error)
	CreateDoorman(doorman *models.Doorman) error
	UpdateDoorman(id uint, updates map[string]interface{}) (*models.Doorman, error)
	RegisterPushToken(id uint, pushToken string) error
	Authenticate(username, password string) (*models.Doorman, error)
	DeleteDoorman(id uint) error
}

// DoormanService 提供门卫相关的服务
type DoormanService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewDoormanService 创建一个新的门卫服务
func NewDoormanService(db *gorm.DB, cfg *config.Config) InterfaceDoormanService {
	return &DoormanService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllDoormen 获取门卫列表，可按楼栋过滤
func (s *DoormanService) GetAllDoormen(buildingID uint, page, pageSize int) ([]models.Doorman, int64, error) {
	var doormen []models.Doorman
	var total int64

	query := s.DB.Model(&models.Doorman{})
	if buildingID > 0 {
		query = query.Where("building_id = ?", buildingID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := s.DB.Preload("Building")
	if buildingID > 0 {
		find = find.Where("building_id = ?", buildingID)
	}
	if err := find.Offset((page - 1) * pageSize).Limit(pageSize).Find(&doormen).Error; err != nil {
		return nil, 0, err
	}

	return doormen, total, nil
}

// 2 GetDoormanByID 根据ID获取门卫
func (s *DoormanService) GetDoormanByID(id uint) (*models.Doorman, error) {
	var doorman models.Doorman
	if err := s.DB.Preload("Building").First(&doorman, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}
	return &doorman, nil
}

// 3 CreateDoorman 创建新门卫
func (s *DoormanService) CreateDoorman(doorman *models.Doorman) error {
	// 验证用户名唯一性
	var count int64
	if err := s.DB.Model(&models.Doorman{}).Where("username = ?", doorman.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("用户名已存在")
	}

	// 验证楼栋是否存在
	var building models.Building
	if err := s.DB.First(&building, doorman.BuildingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBuildingNotFound
		}
		return err
	}

	return s.DB.Create(doorman).Error
}

// 4 UpdateDoorman 更新门卫信息
func (s *DoormanService) UpdateDoorman(id uint, updates map[string]interface{}) (*models.Doorman, error) {
	doorman, err := s.GetDoormanByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(doorman).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetDoormanByID(id)
}

// 5 RegisterPushToken 登记门卫终端的推送令牌
func (s *DoormanService) RegisterPushToken(id uint, pushToken string) error {
	result := s.DB.Model(&models.Doorman{}).Where("id = ?", id).
		Update("push_token", pushToken)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDoormanNotFound
	}
	return nil
}

// 6 Authenticate 校验门卫的用户名和密码
func (s *DoormanService) Authenticate(username, password string) (*models.Doorman, error) {
	var doorman models.Doorman
	if err := s.DB.Where("username = ?", username).First(&doorman).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, doorman.Password) {
		return nil, errors.New("用户密码错误")
	}

	return &doorman, nil
}

// 7 DeleteDoorman 删除门卫
func (s *DoormanService) DeleteDoorman(id uint) error {
	result := s.DB.Delete(&models.Doorman{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDoormanNotFound
	}
	return nil
}
