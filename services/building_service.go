package services

import (
	"errors"

	"gorm.io/gorm"

	"interfone-http-service/models"
)

// InterfaceBuildingService 定义楼栋服务的接口
type InterfaceBuildingService interface {
	GetAllBuildings(page, pageSize int) ([]models.Building, int64, error)
	GetBuildingByID(id uint) (*models.Building, error)
	CreateBuilding(building *models.Building) error
	UpdateBuilding(id uint, updates map[string]interface{}) (*models.Building, error)
	DeleteBuilding(id uint) error
	GetApartments(buildingID uint) ([]models.Apartment, error)
	CreateApartment(apartment *models.Apartment) error
	FindApartment(buildingID uint, number string) (*models.Apartment, error)
}

// BuildingService 提供楼栋与公寓管理服务
type BuildingService struct {
	DB *gorm.DB
}

// NewBuildingService 创建一个新的楼栋服务
func NewBuildingService(db *gorm.DB) *BuildingService {
	return &BuildingService{DB: db}
}

// 1 GetAllBuildings 分页获取楼栋列表
func (s *BuildingService) GetAllBuildings(page, pageSize int) ([]models.Building, int64, error) {
	var buildings []models.Building
	var total int64

	if err := s.DB.Model(&models.Building{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Offset(offset).Limit(pageSize).Order("id").Find(&buildings).Error; err != nil {
		return nil, 0, err
	}

	return buildings, total, nil
}

// 2 GetBuildingByID 根据ID获取楼栋
func (s *BuildingService) GetBuildingByID(id uint) (*models.Building, error) {
	var building models.Building
	if err := s.DB.Preload("Apartments").First(&building, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}
	return &building, nil
}

// 3 CreateBuilding 创建楼栋
func (s *BuildingService) CreateBuilding(building *models.Building) error {
	return s.DB.Create(building).Error
}

// 4 UpdateBuilding 更新楼栋信息
func (s *BuildingService) UpdateBuilding(id uint, updates map[string]interface{}) (*models.Building, error) {
	var building models.Building
	if err := s.DB.First(&building, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}

	if err := s.DB.Model(&building).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &building, nil
}

// 5 DeleteBuilding 删除楼栋
func (s *BuildingService) DeleteBuilding(id uint) error {
	result := s.DB.Delete(&models.Building{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBuildingNotFound
	}
	return nil
}

// 6 GetApartments 获取楼栋下的公寓列表
func (s *BuildingService) GetApartments(buildingID uint) ([]models.Apartment, error) {
	var apartments []models.Apartment
	if err := s.DB.Where("building_id = ?", buildingID).Order("number").Find(&apartments).Error; err != nil {
		return nil, err
	}
	return apartments, nil
}

// 7 CreateApartment 在楼栋下创建公寓
func (s *BuildingService) CreateApartment(apartment *models.Apartment) error {
	var building models.Building
	if err := s.DB.First(&building, apartment.BuildingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBuildingNotFound
		}
		return err
	}
	return s.DB.Create(apartment).Error
}

// 8 FindApartment 按楼栋与编号查找公寓
func (s *BuildingService) FindApartment(buildingID uint, number string) (*models.Apartment, error) {
	var apartment models.Apartment
	if err := s.DB.Where("building_id = ? AND number = ?", buildingID, number).First(&apartment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}
	return &apartment, nil
}
