package services

import (
	"errors"
	"testing"
	"time"

	"interfone-http-service/models"
)

func newTestCallService(t *testing.T, shiftSvc InterfaceShiftService) (*CallService, *stubTokenService) {
	t.Helper()
	db := newTestDB(t)
	tok := &stubTokenService{}
	return NewCallService(db, testConfig(), tok, shiftSvc), tok
}

func TestStartCallConflictsOnSameApartment(t *testing.T) {
	svc, _ := newTestCallService(t, &stubShiftService{})
	_, apartment, _, doorman := seedBuilding(t, svc.DB)

	if _, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number); err != nil {
		t.Fatalf("first StartCall: %v", err)
	}
	if _, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number); !errors.Is(err, ErrConflictingCall) {
		t.Fatalf("second StartCall error = %v, want ErrConflictingCall", err)
	}
}

func TestAnswerCallFirstAnswerWins(t *testing.T) {
	svc, _ := newTestCallService(t, &stubShiftService{})
	_, apartment, resident, doorman := seedBuilding(t, svc.DB)

	second := &models.Resident{
		Name:                "Pedro",
		Phone:               "11912341234",
		ApartmentID:         apartment.ID,
		PushToken:           "second-push",
		NotificationEnabled: true,
	}
	if err := svc.DB.Create(second).Error; err != nil {
		t.Fatalf("seed second resident: %v", err)
	}

	result, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	if _, err := svc.AnswerCall(result.Call.CallID, resident.ID, models.UserTypeResident); err != nil {
		t.Fatalf("first AnswerCall: %v", err)
	}
	if _, err := svc.AnswerCall(result.Call.CallID, second.ID, models.UserTypeResident); !errors.Is(err, ErrCallNotRinging) {
		t.Fatalf("second AnswerCall error = %v, want ErrCallNotRinging", err)
	}

	// 输掉竞争的被叫被标记为未接
	var p models.CallParticipant
	if err := svc.DB.Where("call_ref = ? AND user_id = ? AND user_type = ?",
		result.Call.ID, second.ID, models.UserTypeResident).First(&p).Error; err != nil {
		t.Fatalf("load second participant: %v", err)
	}
	if p.Status != models.ParticipantMissed {
		t.Errorf("second participant status = %s, want %s", p.Status, models.ParticipantMissed)
	}
}

func TestEndCallIdempotentOnTerminal(t *testing.T) {
	svc, _ := newTestCallService(t, &stubShiftService{})
	_, apartment, resident, doorman := seedBuilding(t, svc.DB)

	result, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if _, err := svc.AnswerCall(result.Call.CallID, resident.ID, models.UserTypeResident); err != nil {
		t.Fatalf("AnswerCall: %v", err)
	}

	first, err := svc.EndCall(result.Call.CallID, resident.ID, models.UserTypeResident, "")
	if err != nil {
		t.Fatalf("first EndCall: %v", err)
	}
	again, err := svc.EndCall(result.Call.CallID, resident.ID, models.UserTypeResident, "")
	if err != nil {
		t.Fatalf("repeated EndCall: %v", err)
	}
	if again.Status != first.Status || again.EndCause != first.EndCause {
		t.Errorf("repeated EndCall returned (%s, %s), want (%s, %s)",
			again.Status, again.EndCause, first.Status, first.EndCause)
	}
	if again.ActiveKey != nil {
		t.Error("terminal call still holds active key")
	}
}

func TestSweepConvertsStaleRingingToMissed(t *testing.T) {
	svc, _ := newTestCallService(t, &stubShiftService{})
	_, apartment, resident, doorman := seedBuilding(t, svc.DB)

	result, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	// 把振铃起点回拨到超时线之前
	stale := time.Now().Add(-2 * svc.Config.RingTimeout)
	if err := svc.DB.Model(&models.IntercomCall{}).
		Where("id = ?", result.Call.ID).
		Update("started_at", stale).Error; err != nil {
		t.Fatalf("backdate call: %v", err)
	}

	svc.sweepRingTimeouts()

	var call models.IntercomCall
	if err := svc.DB.Where("call_id = ?", result.Call.CallID).First(&call).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if call.Status != models.CallStatusMissed {
		t.Errorf("status = %s, want %s", call.Status, models.CallStatusMissed)
	}
	if call.EndCause != models.EndCauseTimeout {
		t.Errorf("end cause = %s, want %s", call.EndCause, models.EndCauseTimeout)
	}
	if call.ActiveKey != nil {
		t.Error("missed call still holds active key")
	}

	var p models.CallParticipant
	if err := svc.DB.Where("call_ref = ? AND user_id = ? AND user_type = ?",
		call.ID, resident.ID, models.UserTypeResident).First(&p).Error; err != nil {
		t.Fatalf("load participant: %v", err)
	}
	if p.Status != models.ParticipantMissed {
		t.Errorf("callee status = %s, want %s", p.Status, models.ParticipantMissed)
	}

	if _, err := svc.AnswerCall(call.CallID, resident.ID, models.UserTypeResident); !errors.Is(err, ErrCallNotRinging) {
		t.Errorf("AnswerCall after sweep error = %v, want ErrCallNotRinging", err)
	}
}

func TestAnswerCallFailsCallWhenTokenIssueBreaks(t *testing.T) {
	svc, tok := newTestCallService(t, &stubShiftService{})
	_, apartment, resident, doorman := seedBuilding(t, svc.DB)

	result, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	tok.failErr = errors.New("token signer unavailable")
	if _, err := svc.AnswerCall(result.Call.CallID, resident.ID, models.UserTypeResident); err == nil {
		t.Fatal("AnswerCall succeeded despite token failure")
	}

	// 呼叫必须转为失败并释放公寓的存活键，否则该公寓再也无法被呼叫
	var call models.IntercomCall
	if err := svc.DB.Where("call_id = ?", result.Call.CallID).First(&call).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if call.Status != models.CallStatusFailed {
		t.Errorf("status = %s, want %s", call.Status, models.CallStatusFailed)
	}
	if call.ActiveKey != nil {
		t.Error("failed call still holds active key")
	}

	tok.failErr = nil
	if _, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number); err != nil {
		t.Errorf("StartCall after failed answer: %v", err)
	}
}

func TestCallDoormanCreatesRingingCall(t *testing.T) {
	db := newTestDB(t)
	_, apartment, resident, doorman := seedBuilding(t, db)
	tok := &stubTokenService{}
	svc := NewCallService(db, testConfig(), tok, &stubShiftService{doorman: doorman})

	result, err := svc.CallDoorman(resident.ID)
	if err != nil {
		t.Fatalf("CallDoorman: %v", err)
	}
	if result.Call.Status != models.CallStatusRinging {
		t.Errorf("status = %s, want %s", result.Call.Status, models.CallStatusRinging)
	}
	if result.Call.InitiatorType != models.UserTypeResident || result.Call.InitiatorID != resident.ID {
		t.Errorf("initiator = %s/%d, want resident/%d",
			result.Call.InitiatorType, result.Call.InitiatorID, resident.ID)
	}
	if result.Tokens == nil {
		t.Fatal("resident received no token bundle")
	}

	var callee models.CallParticipant
	if err := db.Where("call_ref = ? AND role = ?", result.Call.ID, models.RoleCallee).
		First(&callee).Error; err != nil {
		t.Fatalf("load callee: %v", err)
	}
	if callee.UserType != models.UserTypeDoorman || callee.UserID != doorman.ID {
		t.Errorf("callee = %s/%d, want doorman/%d", callee.UserType, callee.UserID, doorman.ID)
	}
	if callee.Status != models.ParticipantInvited {
		t.Errorf("callee status = %s, want %s", callee.Status, models.ParticipantInvited)
	}

	// 门卫接听后双方都能拿到令牌
	answer, err := svc.AnswerCall(result.Call.CallID, doorman.ID, models.UserTypeDoorman)
	if err != nil {
		t.Fatalf("doorman AnswerCall: %v", err)
	}
	if answer.Tokens == nil || answer.InitiatorTokens == nil {
		t.Error("answer must carry bundles for both parties")
	}

	expected := apartment.BuildingID
	if result.Call.BuildingID != expected {
		t.Errorf("call building = %d, want %d", result.Call.BuildingID, expected)
	}
}

func TestCallDoormanRequiresOnDutyDoorman(t *testing.T) {
	db := newTestDB(t)
	_, _, resident, _ := seedBuilding(t, db)
	svc := NewCallService(db, testConfig(), &stubTokenService{}, &stubShiftService{err: ErrNoActiveShift})

	if _, err := svc.CallDoorman(resident.ID); !errors.Is(err, ErrNoActiveShift) {
		t.Fatalf("CallDoorman error = %v, want ErrNoActiveShift", err)
	}

	var count int64
	db.Model(&models.IntercomCall{}).Count(&count)
	if count != 0 {
		t.Errorf("created %d calls without an on-duty doorman", count)
	}
}

func TestCallDoormanConflictsWithActiveCall(t *testing.T) {
	db := newTestDB(t)
	_, apartment, resident, doorman := seedBuilding(t, db)
	svc := NewCallService(db, testConfig(), &stubTokenService{}, &stubShiftService{doorman: doorman})

	if _, err := svc.StartCall(doorman.ID, apartment.BuildingID, apartment.Number); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if _, err := svc.CallDoorman(resident.ID); !errors.Is(err, ErrConflictingCall) {
		t.Fatalf("CallDoorman error = %v, want ErrConflictingCall", err)
	}
}
