package services

import (
	"testing"

	"interfone-http-service/models"
)

func TestSelectResidentChannel(t *testing.T) {
	tests := []struct {
		name       string
		resident   models.Resident
		wantChan   models.NotificationChannel
		wantReason string
	}{
		{
			name: "VoIP优先",
			resident: models.Resident{
				NotificationEnabled: true,
				VoipPushToken:       "voip-token",
				PushToken:           "push-token",
				Phone:               "11987654321",
			},
			wantChan: models.ChannelVoipPush,
		},
		{
			name: "无VoIP时用普通推送",
			resident: models.Resident{
				NotificationEnabled: true,
				PushToken:           "push-token",
				Phone:               "11987654321",
			},
			wantChan: models.ChannelPush,
		},
		{
			name: "无推送令牌时回退WhatsApp",
			resident: models.Resident{
				NotificationEnabled: true,
				Phone:               "11987654321",
			},
			wantChan: models.ChannelWhatsapp,
		},
		{
			name: "专用WhatsApp号码同样可用",
			resident: models.Resident{
				NotificationEnabled: true,
				WhatsappPhone:       "11912345678",
			},
			wantChan: models.ChannelWhatsapp,
		},
		{
			name: "通知已关闭",
			resident: models.Resident{
				NotificationEnabled: false,
				VoipPushToken:       "voip-token",
			},
			wantChan:   "",
			wantReason: "notifications disabled",
		},
		{
			name: "没有任何渠道",
			resident: models.Resident{
				NotificationEnabled: true,
			},
			wantChan:   "",
			wantReason: "no delivery channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotChan, gotReason := SelectResidentChannel(&tt.resident)
			if gotChan != tt.wantChan {
				t.Errorf("channel = %q, want %q", gotChan, tt.wantChan)
			}
			if gotReason != tt.wantReason {
				t.Errorf("reason = %q, want %q", gotReason, tt.wantReason)
			}
		})
	}
}

func TestOutcomeMessage(t *testing.T) {
	tests := []struct {
		status models.CallStatus
		want   string
	}{
		{models.CallStatusAnswered, "Chamada atendida"},
		{models.CallStatusDeclined, "Chamada recusada"},
		{models.CallStatusMissed, "Chamada não atendida"},
		{models.CallStatusEnded, "Chamada encerrada"},
		{models.CallStatusRinging, "Atualização da chamada"},
	}

	for _, tt := range tests {
		got := outcomeMessage(&models.IntercomCall{Status: tt.status})
		if got != tt.want {
			t.Errorf("outcomeMessage(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestEventTitleCoversAllKinds(t *testing.T) {
	kinds := []models.NotificationKind{
		models.KindVisitor,
		models.KindDelivery,
		models.KindCommunication,
		models.KindEmergency,
	}

	for _, kind := range kinds {
		if title := eventTitle(kind); title == "" {
			t.Errorf("eventTitle(%s) returned empty title", kind)
		}
	}
}
