package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func newWSTestServer(t *testing.T, svc *RealtimeService, userType string, userID uint) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		svc.HandleConnection(conn, userType, userID)
	}))
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestSendToUserDropsWhenOffline(t *testing.T) {
	svc := NewRealtimeService()

	// 用户不在线时静默丢弃，不得崩溃
	svc.SendToUser("resident", 42, &RealtimeEnvelope{Type: "call.ringing"})
	if got := svc.ConnectedCount(); got != 0 {
		t.Errorf("ConnectedCount() = %d, want 0", got)
	}
}

func TestSendToUserSurvivesReconnectChurn(t *testing.T) {
	svc := NewRealtimeService()
	srv := newWSTestServer(t, svc, "resident", 7)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	// 重连不断挤掉旧连接的同时持续推送，
	// 推送不能落在已被关闭的发送通道上
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		envelope := &RealtimeEnvelope{Type: "call.ringing"}
		for {
			select {
			case <-done:
				return
			default:
				svc.SendToUser("resident", 7, envelope)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		next := dialWS(t, srv)
		conn.Close()
		conn = next
	}

	close(done)
	wg.Wait()

	if got := svc.ConnectedCount(); got > 1 {
		t.Errorf("ConnectedCount() = %d, want at most 1", got)
	}
}
