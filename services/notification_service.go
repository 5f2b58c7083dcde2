package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/models"
)

// VisitorEvent 表示一次门口事件（访客、快递、通知等）
type VisitorEvent struct {
	Kind            models.NotificationKind `json:"kind"`
	BuildingID      uint                    `json:"building_id"`
	ApartmentNumber string                  `json:"apartment_number,omitempty"`
	VisitorName     string                  `json:"visitor_name,omitempty"`
	Message         string                  `json:"message,omitempty"`
	NotifyResidents bool                    `json:"notify_residents"` // 为真时通知公寓住户而非门卫
}

// SkippedRecipient 记录被跳过的收件人及原因
type SkippedRecipient struct {
	RecipientID   uint   `json:"recipient_id"`
	RecipientType string `json:"recipient_type"`
	Reason        string `json:"reason"`
}

// DispatchOutcome 一次事件路由的结果
type DispatchOutcome struct {
	JobIDs  []string           `json:"job_ids"`
	Skipped []SkippedRecipient `json:"skipped,omitempty"`
}

// notificationPayload 投递任务的渠道载荷，JSON存储在任务记录上
type notificationPayload struct {
	Title string                 `json:"title,omitempty"`
	Body  string                 `json:"body,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// InterfaceNotificationService defines the notification router interface
type InterfaceNotificationService interface {
	RouteIncomingCall(call *models.IntercomCall) (*DispatchOutcome, error)
	RouteCallOutcome(call *models.IntercomCall) (*DispatchOutcome, error)
	RouteVisitorEvent(event *VisitorEvent) (*DispatchOutcome, error)
	ProcessJob(jobID string) error
	GetJob(jobID string) (*models.NotificationJob, error)
	OnCallEvent(event CallEvent)
}

// NotificationService 将事件翻译为针对具体收件人、具体渠道的投递任务。
// 任务状态单向推进，失败在次数上限内生成新的重试任务记录。
type NotificationService struct {
	DB       *gorm.DB
	Config   *config.Config
	ShiftSvc InterfaceShiftService
	PushSvc  InterfacePushService
	WASvc    InterfaceWhatsAppService
	Queue    InterfaceNotificationQueue
}

// NewNotificationService 创建一个新的通知路由服务
func NewNotificationService(
	db *gorm.DB,
	cfg *config.Config,
	shiftSvc InterfaceShiftService,
	pushSvc InterfacePushService,
	waSvc InterfaceWhatsAppService,
	queue InterfaceNotificationQueue,
) *NotificationService {
	return &NotificationService{
		DB:       db,
		Config:   cfg,
		ShiftSvc: shiftSvc,
		PushSvc:  pushSvc,
		WASvc:    waSvc,
		Queue:    queue,
	}
}

// SelectResidentChannel 为住户选择投递渠道。
// 优先级：VoIP推送 > 普通推送 > WhatsApp；通知关闭或无渠道时返回跳过原因。
func SelectResidentChannel(r *models.Resident) (models.NotificationChannel, string) {
	if !r.NotificationEnabled {
		return "", "notifications disabled"
	}
	if r.VoipPushToken != "" {
		return models.ChannelVoipPush, ""
	}
	if r.PushToken != "" {
		return models.ChannelPush, ""
	}
	if r.NotificationPhone() != "" {
		return models.ChannelWhatsapp, ""
	}
	return "", "no delivery channel"
}

// 1 RouteIncomingCall 来电通知：逐个住户选择渠道并生成投递任务。
// 住户发起的呼叫方向相反，转交给门卫侧的来电通知。
func (s *NotificationService) RouteIncomingCall(call *models.IntercomCall) (*DispatchOutcome, error) {
	if call.InitiatorType == models.UserTypeResident {
		return s.routeCallToDoorman(call)
	}

	var residents []models.Resident
	if err := s.DB.Where("apartment_id = ?", call.ApartmentID).Find(&residents).Error; err != nil {
		return nil, err
	}

	var apartment models.Apartment
	if err := s.DB.First(&apartment, call.ApartmentID).Error; err != nil {
		return nil, err
	}
	var doorman models.Doorman
	if err := s.DB.First(&doorman, call.InitiatorID).Error; err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"type":            "incoming_call",
		"callId":          call.CallID,
		"channelName":     call.ChannelName,
		"doormanName":     doorman.Name,
		"apartmentNumber": apartment.Number,
	}

	outcome := &DispatchOutcome{}
	for i := range residents {
		r := residents[i]
		channel, reason := SelectResidentChannel(&r)
		if channel == "" {
			outcome.Skipped = append(outcome.Skipped, SkippedRecipient{
				RecipientID:   r.ID,
				RecipientType: models.UserTypeResident,
				Reason:        reason,
			})
			config.Info("[NOTIFY] skipping resident %d for call %s: %s", r.ID, call.CallID, reason)
			continue
		}

		payload := &notificationPayload{
			Title: "Interfone",
			Body:  fmt.Sprintf("%s está chamando o apartamento %s", doorman.Name, apartment.Number),
			Data:  data,
		}
		jobID, err := s.createAndEnqueue(models.KindIncomingCall, r.ID, models.UserTypeResident, channel, payload, "high")
		if err != nil {
			return nil, err
		}
		outcome.JobIDs = append(outcome.JobIDs, jobID)
	}

	return outcome, nil
}

// routeCallToDoorman 住户呼叫门卫：通知被叫的门卫来电
func (s *NotificationService) routeCallToDoorman(call *models.IntercomCall) (*DispatchOutcome, error) {
	var resident models.Resident
	if err := s.DB.First(&resident, call.InitiatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResidentNotFound
		}
		return nil, err
	}
	var apartment models.Apartment
	if err := s.DB.First(&apartment, call.ApartmentID).Error; err != nil {
		return nil, err
	}

	var callee models.CallParticipant
	if err := s.DB.Where("call_ref = ? AND role = ? AND user_type = ?",
		call.ID, models.RoleCallee, models.UserTypeDoorman).First(&callee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}
	var doorman models.Doorman
	if err := s.DB.First(&doorman, callee.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}

	outcome := &DispatchOutcome{}
	if doorman.PushToken == "" {
		outcome.Skipped = append(outcome.Skipped, SkippedRecipient{
			RecipientID:   doorman.ID,
			RecipientType: models.UserTypeDoorman,
			Reason:        "no delivery channel",
		})
		config.Info("[NOTIFY] skipping doorman %d for call %s: no delivery channel", doorman.ID, call.CallID)
		return outcome, nil
	}

	payload := &notificationPayload{
		Title: "Interfone",
		Body:  fmt.Sprintf("Apartamento %s está chamando a portaria", apartment.Number),
		Data: map[string]interface{}{
			"type":            "incoming_call",
			"callId":          call.CallID,
			"channelName":     call.ChannelName,
			"residentName":    resident.Name,
			"apartmentNumber": apartment.Number,
		},
	}
	jobID, err := s.createAndEnqueue(models.KindIncomingCall, doorman.ID, models.UserTypeDoorman, models.ChannelPush, payload, "high")
	if err != nil {
		return nil, err
	}
	outcome.JobIDs = append(outcome.JobIDs, jobID)
	return outcome, nil
}

// 2 RouteCallOutcome 呼叫结果通知：回告发起呼叫的门卫
func (s *NotificationService) RouteCallOutcome(call *models.IntercomCall) (*DispatchOutcome, error) {
	if call.InitiatorType != models.UserTypeDoorman {
		return &DispatchOutcome{}, nil
	}

	var doorman models.Doorman
	if err := s.DB.First(&doorman, call.InitiatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}

	outcome := &DispatchOutcome{}
	if doorman.PushToken == "" {
		outcome.Skipped = append(outcome.Skipped, SkippedRecipient{
			RecipientID:   doorman.ID,
			RecipientType: models.UserTypeDoorman,
			Reason:        "no delivery channel",
		})
		return outcome, nil
	}

	payload := &notificationPayload{
		Title: "Interfone",
		Body:  outcomeMessage(call),
		Data: map[string]interface{}{
			"type":      "call_outcome",
			"callId":    call.CallID,
			"status":    call.Status,
			"end_cause": call.EndCause,
		},
	}
	jobID, err := s.createAndEnqueue(models.KindCallEnded, doorman.ID, models.UserTypeDoorman, models.ChannelPush, payload, "normal")
	if err != nil {
		return nil, err
	}
	outcome.JobIDs = append(outcome.JobIDs, jobID)
	return outcome, nil
}

func outcomeMessage(call *models.IntercomCall) string {
	switch call.Status {
	case models.CallStatusAnswered:
		return "Chamada atendida"
	case models.CallStatusDeclined:
		return "Chamada recusada"
	case models.CallStatusMissed:
		return "Chamada não atendida"
	case models.CallStatusEnded:
		return "Chamada encerrada"
	}
	return "Atualização da chamada"
}

// 3 RouteVisitorEvent 门口事件通知。
// 面向门卫的事件只投递给在岗门卫，不在岗时记录跳过而不生成任务。
func (s *NotificationService) RouteVisitorEvent(event *VisitorEvent) (*DispatchOutcome, error) {
	if event.NotifyResidents {
		return s.routeEventToResidents(event)
	}
	return s.routeEventToDoorman(event)
}

func (s *NotificationService) routeEventToDoorman(event *VisitorEvent) (*DispatchOutcome, error) {
	outcome := &DispatchOutcome{}

	doorman, err := s.ShiftSvc.OnDutyDoorman(event.BuildingID)
	if err != nil {
		if errors.Is(err, ErrNoActiveShift) || errors.Is(err, ErrDoormanNotFound) {
			// 没有在岗门卫时事件静默跳过，只留痕
			config.Warning("[NOTIFY] skipping %s event for building %d: no doorman on duty", event.Kind, event.BuildingID)
			s.DB.Create(&models.SystemLog{
				ActorType: "system",
				Action:    "notification_skipped",
				Target:    string(event.Kind),
				Detail:    "no doorman on duty",
				Timestamp: time.Now(),
			})
			outcome.Skipped = append(outcome.Skipped, SkippedRecipient{
				RecipientType: models.UserTypeDoorman,
				Reason:        "not on duty",
			})
			return outcome, nil
		}
		return nil, err
	}

	if doorman.PushToken == "" {
		outcome.Skipped = append(outcome.Skipped, SkippedRecipient{
			RecipientID:   doorman.ID,
			RecipientType: models.UserTypeDoorman,
			Reason:        "no delivery channel",
		})
		return outcome, nil
	}

	payload := &notificationPayload{
		Title: eventTitle(event.Kind),
		Body:  event.Message,
		Data: map[string]interface{}{
			"type":         string(event.Kind),
			"building_id":  event.BuildingID,
			"visitor_name": event.VisitorName,
		},
	}
	jobID, err := s.createAndEnqueue(event.Kind, doorman.ID, models.UserTypeDoorman, models.ChannelPush, payload, "normal")
	if err != nil {
		return nil, err
	}
	outcome.JobIDs = append(outcome.JobIDs, jobID)
	return outcome, nil
}

func (s *NotificationService) routeEventToResidents(event *VisitorEvent) (*DispatchOutcome, error) {
	var apartment models.Apartment
	if err := s.DB.Where("building_id = ? AND number = ?", event.BuildingID, event.ApartmentNumber).
		First(&apartment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}

	var residents []models.Resident
	if err := s.DB.Where("apartment_id = ?", apartment.ID).Find(&residents).Error; err != nil {
		return nil, err
	}

	outcome := &DispatchOutcome{}
	for i := range residents {
		r := residents[i]
		channel, reason := SelectResidentChannel(&r)
		if channel == models.ChannelVoipPush {
			// VoIP推送仅用于来电，普通事件降级为普通推送
			if r.PushToken != "" {
				channel = models.ChannelPush
			} else if r.NotificationPhone() != "" {
				channel = models.ChannelWhatsapp
			} else {
				channel, reason = "", "no delivery channel"
			}
		}
		if channel == "" {
			outcome.Skipped = append(outcome.Skipped, SkippedRecipient{
				RecipientID:   r.ID,
				RecipientType: models.UserTypeResident,
				Reason:        reason,
			})
			continue
		}

		payload := &notificationPayload{
			Title: eventTitle(event.Kind),
			Body:  event.Message,
			Data: map[string]interface{}{
				"type":         string(event.Kind),
				"building_id":  event.BuildingID,
				"visitor_name": event.VisitorName,
			},
		}
		jobID, err := s.createAndEnqueue(event.Kind, r.ID, models.UserTypeResident, channel, payload, "normal")
		if err != nil {
			return nil, err
		}
		outcome.JobIDs = append(outcome.JobIDs, jobID)
	}

	return outcome, nil
}

func eventTitle(kind models.NotificationKind) string {
	switch kind {
	case models.KindVisitor:
		return "Visitante na portaria"
	case models.KindDelivery:
		return "Entrega na portaria"
	case models.KindEmergency:
		return "Emergência"
	}
	return "Aviso do condomínio"
}

// createAndEnqueue 创建投递任务记录并放入队列
func (s *NotificationService) createAndEnqueue(
	kind models.NotificationKind,
	recipientID uint,
	recipientType string,
	channel models.NotificationChannel,
	payload *notificationPayload,
	priority string,
) (string, error) {
	return s.createJob(kind, recipientID, recipientType, channel, payload, priority, "", 1)
}

func (s *NotificationService) createJob(
	kind models.NotificationKind,
	recipientID uint,
	recipientType string,
	channel models.NotificationChannel,
	payload *notificationPayload,
	priority string,
	retryOf string,
	attempt int,
) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	job := &models.NotificationJob{
		JobID:         uuid.New().String(),
		Kind:          kind,
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Channel:       channel,
		Payload:       string(raw),
		Priority:      priority,
		Status:        models.JobPending,
		Attempt:       attempt,
		RetryOf:       retryOf,
	}
	if err := s.DB.Create(job).Error; err != nil {
		return "", err
	}

	if err := s.Queue.Enqueue(job.JobID); err != nil {
		// 入队失败时任务保持pending，由补扫或人工处理
		config.Error("[NOTIFY] enqueue job %s failed: %v", job.JobID, err)
		return job.JobID, nil
	}

	return job.JobID, nil
}

// 4 ProcessJob 执行单个投递任务。
// pending→processing 的条件更新保证每个任务只被一个worker执行。
func (s *NotificationService) ProcessJob(jobID string) error {
	var job models.NotificationJob
	if err := s.DB.Where("job_id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		return err
	}

	result := s.DB.Model(&models.NotificationJob{}).
		Where("job_id = ? AND status = ?", jobID, models.JobPending).
		Update("status", models.JobProcessing)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 已被其他worker处理或已到终态
		return nil
	}

	sendErr := s.deliver(&job)
	now := time.Now()

	if sendErr == nil {
		return s.DB.Model(&models.NotificationJob{}).
			Where("job_id = ? AND status = ?", jobID, models.JobProcessing).
			Updates(map[string]interface{}{
				"status":  models.JobSent,
				"sent_at": now,
			}).Error
	}

	config.Warning("[NOTIFY] job %s delivery failed (attempt %d): %v", jobID, job.Attempt, sendErr)
	if err := s.DB.Model(&models.NotificationJob{}).
		Where("job_id = ? AND status = ?", jobID, models.JobProcessing).
		Updates(map[string]interface{}{
			"status":     models.JobFailed,
			"last_error": sendErr.Error(),
		}).Error; err != nil {
		return err
	}

	// 次数未达上限时生成新的重试任务
	maxAttempts := s.Config.NotifyMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if job.Attempt < maxAttempts {
		var payload notificationPayload
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return err
		}
		_, err := s.createJob(job.Kind, job.RecipientID, job.RecipientType, job.Channel,
			&payload, job.Priority, job.JobID, job.Attempt+1)
		return err
	}

	return nil
}

// deliver 按渠道发送
func (s *NotificationService) deliver(job *models.NotificationJob) error {
	var payload notificationPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}

	switch job.Channel {
	case models.ChannelPush:
		token, err := s.recipientPushToken(job)
		if err != nil {
			return err
		}
		return s.PushSvc.SendPush(token, payload.Title, payload.Body, payload.Data)

	case models.ChannelVoipPush:
		var resident models.Resident
		if err := s.DB.First(&resident, job.RecipientID).Error; err != nil {
			return err
		}
		if resident.VoipPushToken == "" {
			return errors.New("resident has no voip push token")
		}
		return s.PushSvc.SendVoipPush(resident.VoipPushToken, payload.Data)

	case models.ChannelWhatsapp:
		var resident models.Resident
		if err := s.DB.First(&resident, job.RecipientID).Error; err != nil {
			return err
		}
		return s.WASvc.SendMessage(resident.NotificationPhone(), payload.Body)
	}

	return fmt.Errorf("unknown channel: %s", job.Channel)
}

func (s *NotificationService) recipientPushToken(job *models.NotificationJob) (string, error) {
	switch job.RecipientType {
	case models.UserTypeResident:
		var resident models.Resident
		if err := s.DB.First(&resident, job.RecipientID).Error; err != nil {
			return "", err
		}
		if resident.PushToken == "" {
			return "", errors.New("resident has no push token")
		}
		return resident.PushToken, nil
	case models.UserTypeDoorman:
		var doorman models.Doorman
		if err := s.DB.First(&doorman, job.RecipientID).Error; err != nil {
			return "", err
		}
		if doorman.PushToken == "" {
			return "", errors.New("doorman has no push token")
		}
		return doorman.PushToken, nil
	}
	return "", fmt.Errorf("unknown recipient type: %s", job.RecipientType)
}

// 5 GetJob 查询投递任务状态
func (s *NotificationService) GetJob(jobID string) (*models.NotificationJob, error) {
	var job models.NotificationJob
	if err := s.DB.Where("job_id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// OnCallEvent 实现呼叫事件下游：来电通知住户，结果回告门卫
func (s *NotificationService) OnCallEvent(event CallEvent) {
	var err error
	switch event.Type {
	case EventCallRinging:
		_, err = s.RouteIncomingCall(event.Call)
	case EventCallAnswered, EventCallDeclined, EventCallMissed:
		_, err = s.RouteCallOutcome(event.Call)
	case EventCallEnded:
		// 双方都在线的正常挂断无需通知
		if event.Call.EndCause == models.EndCauseTimeout || event.Call.EndCause == models.EndCauseError {
			_, err = s.RouteCallOutcome(event.Call)
		}
	}
	if err != nil {
		config.Error("[NOTIFY] routing call event %s failed: %v", event.Type, err)
	}
}
