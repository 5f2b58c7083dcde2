package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"interfone-http-service/models"
)

func TestStaleShiftCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	cutoff := StaleShiftCutoff(now, 24*time.Hour)
	want := time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC)
	if !cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", cutoff, want)
	}

	// 开始于截止点之前的值班视为超龄
	staleStart := now.Add(-25 * time.Hour)
	if !staleStart.Before(cutoff) {
		t.Error("expected 25h-old shift to be stale")
	}
	freshStart := now.Add(-23 * time.Hour)
	if freshStart.Before(cutoff) {
		t.Error("expected 23h-old shift to be fresh")
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil错误", nil, false},
		{"gorm哨兵错误", gorm.ErrDuplicatedKey, true},
		{"MySQL错误文本", errors.New("Error 1062 (23000): Duplicate entry '3' for key 'shifts.active_doorman_key'"), true},
		{"SQLite错误文本", errors.New("UNIQUE constraint failed: shifts.active_doorman_key"), true},
		{"其他错误", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("isDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStartShiftGuards(t *testing.T) {
	db := newTestDB(t)
	building, _, _, doorman := seedBuilding(t, db)
	svc := NewShiftService(db, testConfig())

	if _, err := svc.StartShift(doorman.ID, building.ID); err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	if _, err := svc.StartShift(doorman.ID, building.ID); !errors.Is(err, ErrAlreadyOnDuty) {
		t.Errorf("repeated StartShift error = %v, want ErrAlreadyOnDuty", err)
	}

	other := &models.Doorman{Name: "Rafael", Username: "rafael-" + t.Name(), BuildingID: building.ID}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("seed second doorman: %v", err)
	}
	if _, err := svc.StartShift(other.ID, building.ID); !errors.Is(err, ErrBuildingOccupied) {
		t.Errorf("StartShift on occupied building error = %v, want ErrBuildingOccupied", err)
	}
}

func TestEndShiftReturnsTheClosedShift(t *testing.T) {
	db := newTestDB(t)
	building, _, _, doorman := seedBuilding(t, db)
	svc := NewShiftService(db, testConfig())

	active, err := svc.StartShift(doorman.ID, building.ID)
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}

	// 同一门卫更晚开始、已结束的另一条记录不能被误选为关闭结果
	later := time.Now().Add(time.Minute)
	if err := db.Create(&models.Shift{
		DoormanID:  doorman.ID,
		BuildingID: building.ID,
		Status:     models.ShiftStatusCompleted,
		StartedAt:  later,
		EndedAt:    &later,
	}).Error; err != nil {
		t.Fatalf("seed later shift: %v", err)
	}

	closed, err := svc.EndShift(doorman.ID)
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	if closed.ID != active.ID {
		t.Fatalf("EndShift returned shift %d, want %d", closed.ID, active.ID)
	}
	if closed.Status != models.ShiftStatusCompleted || closed.EndedAt == nil {
		t.Errorf("closed shift = (%s, %v), want completed with end time", closed.Status, closed.EndedAt)
	}
	if closed.ActiveDoormanKey != nil || closed.ActiveBuildingKey != nil {
		t.Error("closed shift still holds active keys")
	}

	if _, err := svc.EndShift(doorman.ID); !errors.Is(err, ErrNoActiveShift) {
		t.Errorf("repeated EndShift error = %v, want ErrNoActiveShift", err)
	}
}
