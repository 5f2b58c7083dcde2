package models

import "testing"

func TestActiveCallKey(t *testing.T) {
	if got := ActiveCallKey(3, 101); got != "3:101" {
		t.Errorf("ActiveCallKey(3, 101) = %q, want %q", got, "3:101")
	}
}

func TestChannelNameFor(t *testing.T) {
	got := ChannelNameFor("550e8400-e29b-41d4-a716-446655440000")
	want := "call-550e8400-e29b-41d4-a716-446655440000"
	if got != want {
		t.Errorf("ChannelNameFor = %q, want %q", got, want)
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status CallStatus
		want   bool
	}{
		{CallStatusInitiated, false},
		{CallStatusRinging, false},
		{CallStatusAnswered, false},
		{CallStatusDeclined, true},
		{CallStatusMissed, true},
		{CallStatusEnded, true},
		{CallStatusFailed, true},
	}

	for _, tt := range tests {
		call := IntercomCall{Status: tt.status}
		if got := call.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// 存活状态集合与终止判断必须互补，条件更新依赖这一点
func TestActiveCallStatusesAreNotTerminal(t *testing.T) {
	for _, status := range ActiveCallStatuses() {
		call := IntercomCall{Status: status}
		if call.IsTerminal() {
			t.Errorf("status %s is both active and terminal", status)
		}
	}
}
