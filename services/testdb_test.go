package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"interfone-http-service/config"
	"interfone-http-service/models"
)

// newTestDB 打开一个测试专用的内存数据库并建表。
// cache=shared 让连接池里的连接看到同一份数据。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Building{},
		&models.Apartment{},
		&models.Resident{},
		&models.Doorman{},
		&models.Admin{},
		&models.Shift{},
		&models.IntercomCall{},
		&models.CallParticipant{},
		&models.NotificationJob{},
		&models.SystemLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		RingTimeout:       45 * time.Second,
		ShiftMaxAge:       24 * time.Hour,
		NotifyMaxAttempts: 3,
	}
}

// seedBuilding 创建楼栋、公寓、一名住户和一名门卫，返回各自的记录
func seedBuilding(t *testing.T, db *gorm.DB) (*models.Building, *models.Apartment, *models.Resident, *models.Doorman) {
	t.Helper()

	building := &models.Building{Name: "Edifício Solar", Code: "B" + strings.ReplaceAll(t.Name(), "/", "-")}
	if err := db.Create(building).Error; err != nil {
		t.Fatalf("seed building: %v", err)
	}
	apartment := &models.Apartment{BuildingID: building.ID, Number: "101"}
	if err := db.Create(apartment).Error; err != nil {
		t.Fatalf("seed apartment: %v", err)
	}
	resident := &models.Resident{
		Name:                "Maria",
		Phone:               "11987654321",
		ApartmentID:         apartment.ID,
		PushToken:           "resident-push",
		NotificationEnabled: true,
	}
	if err := db.Create(resident).Error; err != nil {
		t.Fatalf("seed resident: %v", err)
	}
	doorman := &models.Doorman{
		Name:       "João",
		Username:   "joao-" + strings.ReplaceAll(t.Name(), "/", "-"),
		BuildingID: building.ID,
		PushToken:  "doorman-push",
	}
	if err := db.Create(doorman).Error; err != nil {
		t.Fatalf("seed doorman: %v", err)
	}
	return building, apartment, resident, doorman
}

// stubTokenService 签发固定令牌包，可配置签发失败
type stubTokenService struct {
	issued  []string
	failErr error
}

func (s *stubTokenService) Issue(channel, subject, role string, ttl time.Duration) (*MediaToken, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	return &MediaToken{Token: "tok", Channel: channel, Subject: subject, Role: role}, nil
}

func (s *stubTokenService) IssueBundle(channel, subject string) (*MediaTokenBundle, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.issued = append(s.issued, subject)
	return &MediaTokenBundle{RTCToken: "rtc", RTMToken: "rtm", UID: subject, ChannelName: channel}, nil
}

func (s *stubTokenService) Validate(tokenString, channel, subject string) (*MediaTokenClaims, error) {
	return nil, ErrMediaTokenInvalid
}

// stubShiftService 返回预置的在岗门卫或错误
type stubShiftService struct {
	doorman *models.Doorman
	err     error
}

func (s *stubShiftService) StartShift(doormanID, buildingID uint) (*models.Shift, error) {
	return nil, s.err
}

func (s *stubShiftService) EndShift(doormanID uint) (*models.Shift, error) {
	return nil, s.err
}

func (s *stubShiftService) IsOnDuty(doormanID uint) (bool, error) {
	return s.doorman != nil, s.err
}

func (s *stubShiftService) OnDutyDoorman(buildingID uint) (*models.Doorman, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doorman, nil
}

func (s *stubShiftService) GetActiveShift(doormanID uint) (*models.Shift, error) {
	return nil, s.err
}

func (s *stubShiftService) GetShiftHistory(doormanID uint, page, pageSize int) ([]models.Shift, int64, error) {
	return nil, 0, s.err
}

// stubQueue 记录入队的任务ID
type stubQueue struct {
	enqueued []string
}

func (q *stubQueue) Enqueue(jobID string) error {
	q.enqueued = append(q.enqueued, jobID)
	return nil
}

func (q *stubQueue) Close() error { return nil }

type stubPushService struct{}

func (p *stubPushService) SendPush(token, title, body string, data map[string]interface{}) error {
	return nil
}

func (p *stubPushService) SendVoipPush(token string, data map[string]interface{}) error {
	return nil
}

type stubWhatsAppService struct{}

func (w *stubWhatsAppService) SendMessage(phone, message string) error { return nil }
