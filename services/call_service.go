package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/models"
)

// 呼叫事件类型，广播给通知路由、WebSocket与MQTT
const (
	EventCallRinging  = "call.ringing"
	EventCallAnswered = "call.answered"
	EventCallDeclined = "call.declined"
	EventCallEnded    = "call.ended"
	EventCallMissed   = "call.missed"
)

// CallStatistics 呼叫统计信息
type CallStatistics struct {
	TotalCalls      int64 `json:"total_calls"`
	AnsweredCalls   int64 `json:"answered_calls"`
	MissedCalls     int64 `json:"missed_calls"`
	DeclinedCalls   int64 `json:"declined_calls"`
	AverageDuration int   `json:"average_duration"` // 秒
}

// CallEvent 表示一次呼叫状态变更
type CallEvent struct {
	Type         string
	Call         *models.IntercomCall
	Participants []models.CallParticipant
	ActorID      uint
	ActorType    string
}

// CallEventSink 接收呼叫事件的下游（通知路由、实时推送、MQTT）
type CallEventSink interface {
	OnCallEvent(event CallEvent)
}

// StartCallResult 发起呼叫的返回，包含发起方的媒体令牌包
type StartCallResult struct {
	Call         *models.IntercomCall     `json:"call"`
	Participants []models.CallParticipant `json:"participants"`
	Tokens       *MediaTokenBundle        `json:"tokens"`
}

// AnswerCallResult 接听呼叫的返回，双方令牌一次下发
type AnswerCallResult struct {
	Call            *models.IntercomCall `json:"call"`
	Tokens          *MediaTokenBundle    `json:"tokens"`
	InitiatorTokens *MediaTokenBundle    `json:"initiator_tokens,omitempty"`
}

// InterfaceCallService defines the call registry service interface
type InterfaceCallService interface {
	StartCall(doormanID, buildingID uint, apartmentNumber string) (*StartCallResult, error)
	CallDoorman(residentID uint) (*StartCallResult, error)
	AnswerCall(callID string, userID uint, userType string) (*AnswerCallResult, error)
	DeclineCall(callID string, userID uint, userType, reason string) (*models.IntercomCall, error)
	EndCall(callID string, userID uint, userType string, cause models.EndCause) (*models.IntercomCall, error)
	GetCallStatus(callID string) (*models.IntercomCall, error)
	GetActiveCalls(buildingID uint) ([]models.IntercomCall, error)
	GetPendingCalls(userID uint, userType string) ([]models.IntercomCall, error)
	GetCallHistory(buildingID uint, page, pageSize int) ([]models.IntercomCall, int64, error)
	GetCallStatistics(buildingID uint) (*CallStatistics, error)
	AddSink(sink CallEventSink)
	StartSweeper()
	StopSweeper()
}

// CallService 维护对讲呼叫的状态机。
// 所有状态迁移都走一条带状态前置条件的UPDATE，零行即输掉竞争；
// 配合 active_key 唯一索引，不需要任何应用层全局锁。
type CallService struct {
	DB          *gorm.DB
	Config      *config.Config
	TokenSvc    InterfaceMediaTokenService
	ShiftSvc    InterfaceShiftService
	sinks       []CallEventSink
	sweeperStop chan struct{}
}

// NewCallService 创建一个新的呼叫服务
func NewCallService(db *gorm.DB, cfg *config.Config, tokenSvc InterfaceMediaTokenService, shiftSvc InterfaceShiftService) *CallService {
	return &CallService{
		DB:       db,
		Config:   cfg,
		TokenSvc: tokenSvc,
		ShiftSvc: shiftSvc,
	}
}

// AddSink 注册呼叫事件下游
func (s *CallService) AddSink(sink CallEventSink) {
	s.sinks = append(s.sinks, sink)
}

func (s *CallService) emit(event CallEvent) {
	for _, sink := range s.sinks {
		go func(sk CallEventSink) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[CALL] event sink panic: %v", r)
				}
			}()
			sk.OnCallEvent(event)
		}(sink)
	}
}

// 1 StartCall 门卫向公寓发起呼叫。
// 同一公寓已有存活呼叫时返回冲突；成功后立即进入振铃并广播事件。
func (s *CallService) StartCall(doormanID, buildingID uint, apartmentNumber string) (*StartCallResult, error) {
	var doorman models.Doorman
	if err := s.DB.First(&doorman, doormanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoormanNotFound
		}
		return nil, err
	}

	var apartment models.Apartment
	if err := s.DB.Where("building_id = ? AND number = ?", buildingID, apartmentNumber).
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
	if len(residents) == 0 {
		return nil, ErrNoResidents
	}

	callID := uuid.New().String()
	activeKey := models.ActiveCallKey(buildingID, apartment.ID)
	now := time.Now()

	call := &models.IntercomCall{
		CallID:        callID,
		ChannelName:   models.ChannelNameFor(callID),
		BuildingID:    buildingID,
		ApartmentID:   apartment.ID,
		InitiatorID:   doormanID,
		InitiatorType: models.UserTypeDoorman,
		Status:        models.CallStatusInitiated,
		StartedAt:     now,
		ActiveKey:     &activeKey,
	}

	participants := make([]models.CallParticipant, 0, len(residents)+1)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(call).Error; err != nil {
			return err
		}

		caller := models.CallParticipant{
			CallRef:  call.ID,
			UserID:   doormanID,
			UserType: models.UserTypeDoorman,
			Role:     models.RoleCaller,
			Status:   models.ParticipantJoined,
			JoinedAt: &now,
		}
		if err := tx.Create(&caller).Error; err != nil {
			return err
		}
		participants = append(participants, caller)

		for _, r := range residents {
			callee := models.CallParticipant{
				CallRef:  call.ID,
				UserID:   r.ID,
				UserType: models.UserTypeResident,
				Role:     models.RoleCallee,
				Status:   models.ParticipantInvited,
			}
			if err := tx.Create(&callee).Error; err != nil {
				return err
			}
			participants = append(participants, callee)
		}

		return tx.Model(&models.IntercomCall{}).
			Where("id = ? AND status = ?", call.ID, models.CallStatusInitiated).
			Update("status", models.CallStatusRinging).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrConflictingCall
		}
		return nil, err
	}
	call.Status = models.CallStatusRinging

	tokens, err := s.TokenSvc.IssueBundle(call.ChannelName, SubjectFor(models.UserTypeDoorman, doormanID))
	if err != nil {
		// 令牌签发失败时呼叫无法进行，标记为失败
		s.failCall(call.CallID)
		return nil, err
	}

	s.emit(CallEvent{
		Type:         EventCallRinging,
		Call:         call,
		Participants: participants,
		ActorID:      doormanID,
		ActorType:    models.UserTypeDoorman,
	})

	return &StartCallResult{
		Call:         call,
		Participants: participants,
		Tokens:       tokens,
	}, nil
}

// failCall 将呼叫标记为失败并释放占用键
func (s *CallService) failCall(callID string) {
	now := time.Now()
	s.DB.Model(&models.IntercomCall{}).
		Where("call_id = ? AND status IN ?", callID, models.ActiveCallStatuses()).
		Updates(map[string]interface{}{
			"status":     models.CallStatusFailed,
			"ended_at":   now,
			"end_cause":  models.EndCauseError,
			"active_key": nil,
		})
}

// 2 CallDoorman 住户呼叫所在楼栋的在岗门卫。
// 公寓的存活呼叫唯一约束对两个方向同样生效。
func (s *CallService) CallDoorman(residentID uint) (*StartCallResult, error) {
	var resident models.Resident
	if err := s.DB.First(&resident, residentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResidentNotFound
		}
		return nil, err
	}

	var apartment models.Apartment
	if err := s.DB.First(&apartment, resident.ApartmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}

	// 没有在岗门卫时无法呼叫
	doorman, err := s.ShiftSvc.OnDutyDoorman(apartment.BuildingID)
	if err != nil {
		return nil, err
	}

	callID := uuid.New().String()
	activeKey := models.ActiveCallKey(apartment.BuildingID, apartment.ID)
	now := time.Now()

	call := &models.IntercomCall{
		CallID:        callID,
		ChannelName:   models.ChannelNameFor(callID),
		BuildingID:    apartment.BuildingID,
		ApartmentID:   apartment.ID,
		InitiatorID:   residentID,
		InitiatorType: models.UserTypeResident,
		Status:        models.CallStatusInitiated,
		StartedAt:     now,
		ActiveKey:     &activeKey,
	}

	var participants []models.CallParticipant

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(call).Error; err != nil {
			return err
		}

		caller := models.CallParticipant{
			CallRef:  call.ID,
			UserID:   residentID,
			UserType: models.UserTypeResident,
			Role:     models.RoleCaller,
			Status:   models.ParticipantJoined,
			JoinedAt: &now,
		}
		if err := tx.Create(&caller).Error; err != nil {
			return err
		}

		callee := models.CallParticipant{
			CallRef:  call.ID,
			UserID:   doorman.ID,
			UserType: models.UserTypeDoorman,
			Role:     models.RoleCallee,
			Status:   models.ParticipantInvited,
		}
		if err := tx.Create(&callee).Error; err != nil {
			return err
		}
		participants = append(participants, caller, callee)

		return tx.Model(&models.IntercomCall{}).
			Where("id = ? AND status = ?", call.ID, models.CallStatusInitiated).
			Update("status", models.CallStatusRinging).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrConflictingCall
		}
		return nil, err
	}
	call.Status = models.CallStatusRinging

	tokens, err := s.TokenSvc.IssueBundle(call.ChannelName, SubjectFor(models.UserTypeResident, residentID))
	if err != nil {
		s.failCall(call.CallID)
		return nil, err
	}

	s.emit(CallEvent{
		Type:         EventCallRinging,
		Call:         call,
		Participants: participants,
		ActorID:      residentID,
		ActorType:    models.UserTypeResident,
	})

	return &StartCallResult{
		Call:         call,
		Participants: participants,
		Tokens:       tokens,
	}, nil
}

// 3 AnswerCall 住户接听呼叫，先到先得。
// 条件更新只允许 ringing→answered，输掉竞争的一方不会拿到令牌。
func (s *CallService) AnswerCall(callID string, userID uint, userType string) (*AnswerCallResult, error) {
	call, err := s.loadCall(callID)
	if err != nil {
		return nil, err
	}

	if !s.isParticipant(call.ID, userID, userType) {
		return nil, ErrNotAParticipant
	}

	now := time.Now()
	result := s.DB.Model(&models.IntercomCall{}).
		Where("id = ? AND status = ?", call.ID, models.CallStatusRinging).
		Updates(map[string]interface{}{
			"status":      models.CallStatusAnswered,
			"answered_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrCallNotRinging
	}

	// 接听者标记为已加入，其余被叫标记为未接
	s.DB.Model(&models.CallParticipant{}).
		Where("call_ref = ? AND user_id = ? AND user_type = ?", call.ID, userID, userType).
		Updates(map[string]interface{}{
			"status":    models.ParticipantJoined,
			"joined_at": now,
		})
	s.DB.Model(&models.CallParticipant{}).
		Where("call_ref = ? AND role = ? AND status = ?", call.ID, models.RoleCallee, models.ParticipantInvited).
		Update("status", models.ParticipantMissed)

	call.Status = models.CallStatusAnswered
	call.AnsweredAt = &now

	// 签发失败时终止呼叫，不能让 answered 状态占着公寓的存活键
	tokens, err := s.TokenSvc.IssueBundle(call.ChannelName, SubjectFor(userType, userID))
	if err != nil {
		s.failCall(call.CallID)
		return nil, err
	}

	// 发起方令牌一并签发，通过状态变更事件送达门卫端
	var initiatorTokens *MediaTokenBundle
	if call.InitiatorID != userID || call.InitiatorType != userType {
		initiatorTokens, err = s.TokenSvc.IssueBundle(call.ChannelName, SubjectFor(call.InitiatorType, call.InitiatorID))
		if err != nil {
			s.failCall(call.CallID)
			return nil, err
		}
	}

	s.emit(CallEvent{
		Type:      EventCallAnswered,
		Call:      call,
		ActorID:   userID,
		ActorType: userType,
	})

	return &AnswerCallResult{Call: call, Tokens: tokens, InitiatorTokens: initiatorTokens}, nil
}

// 4 DeclineCall 住户拒接。
// 只有当所有被叫都拒接后呼叫才整体转为 declined。
func (s *CallService) DeclineCall(callID string, userID uint, userType, reason string) (*models.IntercomCall, error) {
	call, err := s.loadCall(callID)
	if err != nil {
		return nil, err
	}

	if !s.isParticipant(call.ID, userID, userType) {
		return nil, ErrNotAParticipant
	}
	if call.IsTerminal() || call.Status == models.CallStatusAnswered {
		return nil, ErrCallNotRinging
	}

	result := s.DB.Model(&models.CallParticipant{}).
		Where("call_ref = ? AND user_id = ? AND user_type = ? AND status = ?",
			call.ID, userID, userType, models.ParticipantInvited).
		Update("status", models.ParticipantDeclined)
	if result.Error != nil {
		return nil, result.Error
	}

	// 仍有被叫未表态时呼叫继续振铃
	var remaining int64
	if err := s.DB.Model(&models.CallParticipant{}).
		Where("call_ref = ? AND role = ? AND status = ?",
			call.ID, models.RoleCallee, models.ParticipantInvited).
		Count(&remaining).Error; err != nil {
		return nil, err
	}
	if remaining > 0 {
		return call, nil
	}

	now := time.Now()
	declined := s.DB.Model(&models.IntercomCall{}).
		Where("id = ? AND status = ?", call.ID, models.CallStatusRinging).
		Updates(map[string]interface{}{
			"status":     models.CallStatusDeclined,
			"ended_at":   now,
			"end_cause":  models.EndCauseDeclined,
			"active_key": nil,
		})
	if declined.Error != nil {
		return nil, declined.Error
	}
	if declined.RowsAffected == 0 {
		// 竞争中被接听或已被扫描器处理
		return s.loadCall(callID)
	}

	call.Status = models.CallStatusDeclined
	call.EndedAt = &now
	call.EndCause = models.EndCauseDeclined
	call.ActiveKey = nil

	s.emit(CallEvent{
		Type:      EventCallDeclined,
		Call:      call,
		ActorID:   userID,
		ActorType: userType,
	})

	return call, nil
}

// 5 EndCall 结束呼叫。对已终止的呼叫幂等，原样返回终态记录。
func (s *CallService) EndCall(callID string, userID uint, userType string, cause models.EndCause) (*models.IntercomCall, error) {
	call, err := s.loadCall(callID)
	if err != nil {
		return nil, err
	}

	if call.IsTerminal() {
		return call, nil
	}

	if !s.isParticipant(call.ID, userID, userType) {
		return nil, ErrNotAParticipant
	}

	now := time.Now()
	if cause == "" {
		// 振铃中挂断视为取消，通话中挂断为正常结束
		if call.Status == models.CallStatusAnswered {
			cause = models.EndCauseCompleted
		} else {
			cause = models.EndCauseCancelled
		}
	}

	duration := 0
	if call.AnsweredAt != nil {
		duration = int(now.Sub(*call.AnsweredAt).Seconds())
	}

	result := s.DB.Model(&models.IntercomCall{}).
		Where("id = ? AND status IN ?", call.ID,
			[]models.CallStatus{models.CallStatusRinging, models.CallStatusAnswered}).
		Updates(map[string]interface{}{
			"status":     models.CallStatusEnded,
			"ended_at":   now,
			"end_cause":  cause,
			"duration":   duration,
			"active_key": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// 并发下已被其他路径终止，返回最新终态
		return s.loadCall(callID)
	}

	// 在通话中的参与者标记为已离开
	s.DB.Model(&models.CallParticipant{}).
		Where("call_ref = ? AND status = ?", call.ID, models.ParticipantJoined).
		Updates(map[string]interface{}{
			"status":  models.ParticipantLeft,
			"left_at": now,
		})

	call.Status = models.CallStatusEnded
	call.EndedAt = &now
	call.EndCause = cause
	call.Duration = duration
	call.ActiveKey = nil

	s.emit(CallEvent{
		Type:      EventCallEnded,
		Call:      call,
		ActorID:   userID,
		ActorType: userType,
	})

	return call, nil
}

// 6 GetCallStatus 查询呼叫当前状态
func (s *CallService) GetCallStatus(callID string) (*models.IntercomCall, error) {
	return s.loadCall(callID)
}

// 7 GetActiveCalls 查询楼栋当前存活的呼叫
func (s *CallService) GetActiveCalls(buildingID uint) ([]models.IntercomCall, error) {
	var calls []models.IntercomCall
	if err := s.DB.Preload("Participants").Preload("Apartment").
		Where("building_id = ? AND status IN ?", buildingID, models.ActiveCallStatuses()).
		Order("started_at DESC").
		Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}

// 8 GetPendingCalls 查询等待该用户应答的振铃呼叫。
// 供推送不可达的客户端轮询。
func (s *CallService) GetPendingCalls(userID uint, userType string) ([]models.IntercomCall, error) {
	var callRefs []uint
	if err := s.DB.Model(&models.CallParticipant{}).
		Where("user_id = ? AND user_type = ? AND status = ?",
			userID, userType, models.ParticipantInvited).
		Pluck("call_ref", &callRefs).Error; err != nil {
		return nil, err
	}
	if len(callRefs) == 0 {
		return []models.IntercomCall{}, nil
	}

	var calls []models.IntercomCall
	if err := s.DB.Preload("Apartment").
		Where("id IN ? AND status = ?", callRefs, models.CallStatusRinging).
		Order("started_at DESC").
		Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}

// 9 GetCallHistory 查询楼栋的呼叫历史，支持分页
func (s *CallService) GetCallHistory(buildingID uint, page, pageSize int) ([]models.IntercomCall, int64, error) {
	var calls []models.IntercomCall
	var total int64

	query := s.DB.Model(&models.IntercomCall{}).Where("building_id = ?", buildingID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Preload("Apartment").
		Where("building_id = ?", buildingID).
		Order("started_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&calls).Error; err != nil {
		return nil, 0, err
	}

	return calls, total, nil
}

// 10 GetCallStatistics 获取楼栋的呼叫统计信息
func (s *CallService) GetCallStatistics(buildingID uint) (*CallStatistics, error) {
	var statistics CallStatistics

	base := func() *gorm.DB {
		return s.DB.Model(&models.IntercomCall{}).Where("building_id = ?", buildingID)
	}

	if err := base().Count(&statistics.TotalCalls).Error; err != nil {
		return nil, err
	}
	if err := base().Where("answered_at IS NOT NULL").Count(&statistics.AnsweredCalls).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.CallStatusMissed).Count(&statistics.MissedCalls).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.CallStatusDeclined).Count(&statistics.DeclinedCalls).Error; err != nil {
		return nil, err
	}

	// 计算平均通话时长
	if statistics.AnsweredCalls > 0 {
		var result struct {
			TotalDuration int64
		}
		if err := base().
			Where("answered_at IS NOT NULL").
			Select("sum(duration) as total_duration").
			Scan(&result).Error; err != nil {
			return nil, err
		}
		statistics.AverageDuration = int(result.TotalDuration / statistics.AnsweredCalls)
	}

	return &statistics, nil
}

// loadCall 按业务呼叫ID加载记录
func (s *CallService) loadCall(callID string) (*models.IntercomCall, error) {
	var call models.IntercomCall
	if err := s.DB.Preload("Participants").
		Where("call_id = ?", callID).First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	return &call, nil
}

func (s *CallService) isParticipant(callRef, userID uint, userType string) bool {
	var count int64
	s.DB.Model(&models.CallParticipant{}).
		Where("call_ref = ? AND user_id = ? AND user_type = ?", callRef, userID, userType).
		Count(&count)
	return count > 0
}

// StartSweeper 启动振铃超时扫描。
// 超过振铃时限仍未应答的呼叫被转为 missed，走与用户操作相同的条件更新。
func (s *CallService) StartSweeper() {
	if s.sweeperStop != nil {
		return
	}
	s.sweeperStop = make(chan struct{})

	interval := s.Config.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweepRingTimeouts()
			case <-s.sweeperStop:
				return
			}
		}
	}()
	log.Printf("[CALL] ring timeout sweeper started, interval=%s", interval)
}

// StopSweeper 停止扫描
func (s *CallService) StopSweeper() {
	if s.sweeperStop != nil {
		close(s.sweeperStop)
		s.sweeperStop = nil
	}
}

func (s *CallService) sweepRingTimeouts() {
	ringTimeout := s.Config.RingTimeout
	if ringTimeout <= 0 {
		ringTimeout = 45 * time.Second
	}
	cutoff := time.Now().Add(-ringTimeout)

	var expired []models.IntercomCall
	if err := s.DB.Where("status = ? AND started_at < ?", models.CallStatusRinging, cutoff).
		Find(&expired).Error; err != nil {
		config.Error("[CALL] sweep query failed: %v", err)
		return
	}

	for i := range expired {
		call := expired[i]
		now := time.Now()
		result := s.DB.Model(&models.IntercomCall{}).
			Where("id = ? AND status = ?", call.ID, models.CallStatusRinging).
			Updates(map[string]interface{}{
				"status":     models.CallStatusMissed,
				"ended_at":   now,
				"end_cause":  models.EndCauseTimeout,
				"active_key": nil,
			})
		if result.Error != nil {
			config.Error("[CALL] sweep update failed for call %s: %v", call.CallID, result.Error)
			continue
		}
		if result.RowsAffected == 0 {
			// 扫描期间被接听或终止
			continue
		}

		s.DB.Model(&models.CallParticipant{}).
			Where("call_ref = ? AND role = ? AND status = ?",
				call.ID, models.RoleCallee, models.ParticipantInvited).
			Update("status", models.ParticipantMissed)

		call.Status = models.CallStatusMissed
		call.EndedAt = &now
		call.EndCause = models.EndCauseTimeout
		call.ActiveKey = nil

		config.Warning("[CALL] call %s missed after ring timeout", call.CallID)
		s.emit(CallEvent{
			Type:      EventCallMissed,
			Call:      &call,
			ActorType: "system",
		})
	}
}

// SubjectFor 生成媒体令牌的用户标识
func SubjectFor(userType string, userID uint) string {
	return fmt.Sprintf("%s-%d", userType, userID)
}
