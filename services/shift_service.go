package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/models"
)

// InterfaceShiftService defines the shift ledger service interface
type InterfaceShiftService interface {
	StartShift(doormanID, buildingID uint) (*models.Shift, error)
	EndShift(doormanID uint) (*models.Shift, error)
	IsOnDuty(doormanID uint) (bool, error)
	OnDutyDoorman(buildingID uint) (*models.Doorman, error)
	GetActiveShift(doormanID uint) (*models.Shift, error)
	GetShiftHistory(doormanID uint, page, pageSize int) ([]models.Shift, int64, error)
}

// ShiftService 管理门卫值班台账。
// 并发约束完全依赖 Shift 表上的两个唯一索引：
// 同一门卫、同一楼栋同时只能有一条进行中的值班记录。
type ShiftService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewShiftService 创建一个新的值班服务
func NewShiftService(db *gorm.DB, cfg *config.Config) InterfaceShiftService {
	return &ShiftService{
		DB:     db,
		Config: cfg,
	}
}

// 1 StartShift 开始值班。
// 先自动关闭该门卫超龄的进行中值班（跨天忘记下班的情况），
// 再插入新记录；唯一索引冲突说明门卫或楼栋已被占用。
func (s *ShiftService) StartShift(doormanID, buildingID uint) (*models.Shift, error) {
	// 确认门卫和楼栋存在
	var doorman models.Doorman
	if err := s.DB.First(&doorman, doormanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}
	var building models.Building
	if err := s.DB.First(&building, buildingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}

	// 自动关闭超龄值班
	if err := s.closeStaleShifts(doormanID); err != nil {
		return nil, err
	}

	now := time.Now()
	dKey := doormanID
	bKey := buildingID
	shift := &models.Shift{
		DoormanID:         doormanID,
		BuildingID:        buildingID,
		Status:            models.ShiftStatusActive,
		StartedAt:         now,
		ActiveDoormanKey:  &dKey,
		ActiveBuildingKey: &bKey,
	}

	if err := s.DB.Create(shift).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, s.resolveShiftConflict(doormanID, buildingID)
		}
		return nil, err
	}

	return shift, nil
}

// closeStaleShifts 关闭该门卫开始时间早于上限的进行中值班
func (s *ShiftService) closeStaleShifts(doormanID uint) error {
	maxAge := s.Config.ShiftMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cutoff := StaleShiftCutoff(time.Now(), maxAge)

	now := time.Now()
	result := s.DB.Model(&models.Shift{}).
		Where("doorman_id = ? AND status = ? AND started_at < ?",
			doormanID, models.ShiftStatusActive, cutoff).
		Updates(map[string]interface{}{
			"status":              models.ShiftStatusCompleted,
			"ended_at":            now,
			"end_note":            "auto-closed: exceeded max shift age",
			"active_doorman_key":  nil,
			"active_building_key": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		config.Warning("[SHIFT] auto-closed %d stale shift(s) for doorman %d", result.RowsAffected, doormanID)
		s.DB.Create(&models.SystemLog{
			ActorType: "system",
			Action:    "shift_auto_close",
			Target:    "shift",
			Detail:    "stale active shift auto-closed on new shift start",
			Timestamp: now,
		})
	}
	return nil
}

// resolveShiftConflict 区分唯一索引冲突的具体原因
func (s *ShiftService) resolveShiftConflict(doormanID, buildingID uint) error {
	var count int64
	if err := s.DB.Model(&models.Shift{}).
		Where("doorman_id = ? AND status = ?", doormanID, models.ShiftStatusActive).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyOnDuty
	}
	return ErrBuildingOccupied
}

// 2 EndShift 结束值班。条件更新零行表示没有进行中的值班。
// 按主键关闭并返回同一行，避免拿到该门卫随后新开的值班记录。
func (s *ShiftService) EndShift(doormanID uint) (*models.Shift, error) {
	var shift models.Shift
	if err := s.DB.Where("doorman_id = ? AND status = ?", doormanID, models.ShiftStatusActive).
		First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, err
	}

	now := time.Now()
	result := s.DB.Model(&models.Shift{}).
		Where("id = ? AND status = ?", shift.ID, models.ShiftStatusActive).
		Updates(map[string]interface{}{
			"status":              models.ShiftStatusCompleted,
			"ended_at":            now,
			"active_doorman_key":  nil,
			"active_building_key": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoActiveShift
	}

	shift.Status = models.ShiftStatusCompleted
	shift.EndedAt = &now
	shift.ActiveDoormanKey = nil
	shift.ActiveBuildingKey = nil
	return &shift, nil
}

// 3 IsOnDuty 判断门卫是否在岗
func (s *ShiftService) IsOnDuty(doormanID uint) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.Shift{}).
		Where("doorman_id = ? AND status = ?", doormanID, models.ShiftStatusActive).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// 4 OnDutyDoorman 返回楼栋当前在岗的门卫
func (s *ShiftService) OnDutyDoorman(buildingID uint) (*models.Doorman, error) {
	var shift models.Shift
	if err := s.DB.Preload("Doorman").
		Where("building_id = ? AND status = ?", buildingID, models.ShiftStatusActive).
		First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, err
	}
	if shift.Doorman == nil {
		return nil, ErrDoormanNotFound
	}
	return shift.Doorman, nil
}

// 5 GetActiveShift 获取门卫当前的值班记录
func (s *ShiftService) GetActiveShift(doormanID uint) (*models.Shift, error) {
	var shift models.Shift
	if err := s.DB.Preload("Building").
		Where("doorman_id = ? AND status = ?", doormanID, models.ShiftStatusActive).
		First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, err
	}
	return &shift, nil
}

// 6 GetShiftHistory 获取门卫的值班历史，支持分页
func (s *ShiftService) GetShiftHistory(doormanID uint, page, pageSize int) ([]models.Shift, int64, error) {
	var shifts []models.Shift
	var total int64

	if err := s.DB.Model(&models.Shift{}).
		Where("doorman_id = ?", doormanID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Preload("Building").
		Where("doorman_id = ?", doormanID).
		Order("started_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// StaleShiftCutoff 计算超龄值班的截止时间点
func StaleShiftCutoff(now time.Time, maxAge time.Duration) time.Time {
	return now.Add(-maxAge)
}

// isDuplicateKeyError 识别唯一索引冲突，兼容MySQL和SQLite的报错格式
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "1062") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
