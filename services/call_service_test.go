package services

import "testing"

func TestSubjectFor(t *testing.T) {
	tests := []struct {
		userType string
		userID   uint
		want     string
	}{
		{"doorman", 1, "doorman-1"},
		{"resident", 7, "resident-7"},
		{"resident", 120, "resident-120"},
	}

	for _, tt := range tests {
		if got := SubjectFor(tt.userType, tt.userID); got != tt.want {
			t.Errorf("SubjectFor(%q, %d) = %q, want %q", tt.userType, tt.userID, got, tt.want)
		}
	}
}

func TestCallEventTypesDistinct(t *testing.T) {
	events := []string{
		EventCallRinging,
		EventCallAnswered,
		EventCallDeclined,
		EventCallEnded,
		EventCallMissed,
	}

	seen := make(map[string]bool)
	for _, e := range events {
		if e == "" {
			t.Error("event type must not be empty")
		}
		if seen[e] {
			t.Errorf("duplicate event type %q", e)
		}
		seen[e] = true
	}
}
