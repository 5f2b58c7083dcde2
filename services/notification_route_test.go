package services

import (
	"testing"
	"time"

	"interfone-http-service/models"
)

func newTestNotificationService(t *testing.T, shiftSvc InterfaceShiftService) (*NotificationService, *stubQueue) {
	t.Helper()
	db := newTestDB(t)
	queue := &stubQueue{}
	svc := NewNotificationService(db, testConfig(), shiftSvc, &stubPushService{}, &stubWhatsAppService{}, queue)
	return svc, queue
}

func TestRouteVisitorEventSkipsWhenNoDoormanOnDuty(t *testing.T) {
	svc, queue := newTestNotificationService(t, &stubShiftService{err: ErrNoActiveShift})
	building, _, _, _ := seedBuilding(t, svc.DB)

	outcome, err := svc.RouteVisitorEvent(&VisitorEvent{
		Kind:        models.KindVisitor,
		BuildingID:  building.ID,
		VisitorName: "Carlos",
	})
	if err != nil {
		t.Fatalf("RouteVisitorEvent: %v", err)
	}

	if len(outcome.JobIDs) != 0 {
		t.Errorf("created %d jobs without an on-duty doorman", len(outcome.JobIDs))
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("enqueued %d jobs without an on-duty doorman", len(queue.enqueued))
	}
	if len(outcome.Skipped) != 1 || outcome.Skipped[0].Reason != "not on duty" {
		t.Fatalf("skipped = %+v, want one entry with reason %q", outcome.Skipped, "not on duty")
	}

	var jobs int64
	svc.DB.Model(&models.NotificationJob{}).Count(&jobs)
	if jobs != 0 {
		t.Errorf("found %d persisted jobs, want 0", jobs)
	}

	// 跳过必须留痕
	var logEntry models.SystemLog
	if err := svc.DB.Where("action = ?", "notification_skipped").First(&logEntry).Error; err != nil {
		t.Fatalf("load skip log: %v", err)
	}
	if logEntry.Target != string(models.KindVisitor) {
		t.Errorf("skip log target = %q, want %q", logEntry.Target, models.KindVisitor)
	}
}

func TestRouteVisitorEventDeliversToOnDutyDoorman(t *testing.T) {
	db := newTestDB(t)
	building, _, _, doorman := seedBuilding(t, db)
	queue := &stubQueue{}
	svc := NewNotificationService(db, testConfig(), &stubShiftService{doorman: doorman},
		&stubPushService{}, &stubWhatsAppService{}, queue)

	outcome, err := svc.RouteVisitorEvent(&VisitorEvent{
		Kind:        models.KindDelivery,
		BuildingID:  building.ID,
		VisitorName: "Entregador",
	})
	if err != nil {
		t.Fatalf("RouteVisitorEvent: %v", err)
	}

	if len(outcome.JobIDs) != 1 {
		t.Fatalf("created %d jobs, want 1", len(outcome.JobIDs))
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != outcome.JobIDs[0] {
		t.Errorf("enqueued = %v, want [%s]", queue.enqueued, outcome.JobIDs[0])
	}

	var job models.NotificationJob
	if err := db.Where("job_id = ?", outcome.JobIDs[0]).First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.RecipientID != doorman.ID || job.RecipientType != models.UserTypeDoorman {
		t.Errorf("recipient = %s/%d, want doorman/%d", job.RecipientType, job.RecipientID, doorman.ID)
	}
	if job.Channel != models.ChannelPush {
		t.Errorf("channel = %s, want %s", job.Channel, models.ChannelPush)
	}
}

func TestRouteIncomingCallNotifiesCalleeDoorman(t *testing.T) {
	db := newTestDB(t)
	_, apartment, resident, doorman := seedBuilding(t, db)
	queue := &stubQueue{}
	svc := NewNotificationService(db, testConfig(), &stubShiftService{doorman: doorman},
		&stubPushService{}, &stubWhatsAppService{}, queue)

	activeKey := models.ActiveCallKey(apartment.BuildingID, apartment.ID)
	call := &models.IntercomCall{
		CallID:        "resident-call-1",
		ChannelName:   models.ChannelNameFor("resident-call-1"),
		BuildingID:    apartment.BuildingID,
		ApartmentID:   apartment.ID,
		InitiatorID:   resident.ID,
		InitiatorType: models.UserTypeResident,
		Status:        models.CallStatusRinging,
		StartedAt:     time.Now(),
		ActiveKey:     &activeKey,
	}
	if err := db.Create(call).Error; err != nil {
		t.Fatalf("seed call: %v", err)
	}
	if err := db.Create(&models.CallParticipant{
		CallRef:  call.ID,
		UserID:   doorman.ID,
		UserType: models.UserTypeDoorman,
		Role:     models.RoleCallee,
		Status:   models.ParticipantInvited,
	}).Error; err != nil {
		t.Fatalf("seed callee: %v", err)
	}

	outcome, err := svc.RouteIncomingCall(call)
	if err != nil {
		t.Fatalf("RouteIncomingCall: %v", err)
	}
	if len(outcome.JobIDs) != 1 {
		t.Fatalf("created %d jobs, want 1", len(outcome.JobIDs))
	}

	var job models.NotificationJob
	if err := db.Where("job_id = ?", outcome.JobIDs[0]).First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.RecipientID != doorman.ID || job.RecipientType != models.UserTypeDoorman {
		t.Errorf("recipient = %s/%d, want doorman/%d", job.RecipientType, job.RecipientID, doorman.ID)
	}
	if job.Kind != models.KindIncomingCall {
		t.Errorf("kind = %s, want %s", job.Kind, models.KindIncomingCall)
	}
}
