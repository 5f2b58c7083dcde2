package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// RealtimeEnvelope WebSocket下行消息的统一包装
type RealtimeEnvelope struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// wsClient 一个已连接的终端
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// InterfaceRealtimeService 定义实时推送服务的接口
type InterfaceRealtimeService interface {
	HandleConnection(conn *websocket.Conn, userType string, userID uint)
	SendToUser(userType string, userID uint, envelope *RealtimeEnvelope)
	Broadcast(envelope *RealtimeEnvelope)
	ConnectedCount() int
	OnCallEvent(event CallEvent)
}

// RealtimeService 维护WebSocket连接池，向在线客户端推送呼叫状态。
// 推送层缺失时客户端通过pending接口轮询，这里不保证送达。
type RealtimeService struct {
	clients map[string]*wsClient
	mu      sync.RWMutex
}

// NewRealtimeService 创建一个新的实时推送服务
func NewRealtimeService() *RealtimeService {
	return &RealtimeService{
		clients: make(map[string]*wsClient),
	}
}

func clientKey(userType string, userID uint) string {
	return SubjectFor(userType, userID)
}

// HandleConnection 接管一个升级完成的WebSocket连接。
// 同一用户重复连接时挤掉旧连接。
func (s *RealtimeService) HandleConnection(conn *websocket.Conn, userType string, userID uint) {
	key := clientKey(userType, userID)
	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 32),
	}

	s.mu.Lock()
	if old, ok := s.clients[key]; ok {
		close(old.send)
	}
	s.clients[key] = client
	s.mu.Unlock()

	log.Printf("[WS] client connected: %s (total %d)", key, s.ConnectedCount())

	go s.writePump(key, client)
	go s.readPump(key, client)
}

// readPump 只消费控制帧，客户端不通过WebSocket上行业务数据
func (s *RealtimeService) readPump(key string, client *wsClient) {
	defer s.drop(key, client)

	client.conn.SetReadLimit(1024)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *RealtimeService) writePump(key string, client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *RealtimeService) drop(key string, client *wsClient) {
	s.mu.Lock()
	if current, ok := s.clients[key]; ok && current == client {
		delete(s.clients, key)
		close(client.send)
	}
	s.mu.Unlock()
	client.conn.Close()
	log.Printf("[WS] client disconnected: %s", key)
}

// SendToUser 向指定用户推送消息，用户不在线时静默丢弃
func (s *RealtimeService) SendToUser(userType string, userID uint, envelope *RealtimeEnvelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("[WS] marshal envelope failed: %v", err)
		return
	}

	// 持锁期间 send 不会被关闭，重连替换旧连接时不会写到已关闭的通道
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientKey(userType, userID)]
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		// 发送缓冲已满，丢弃消息避免阻塞广播
		log.Printf("[WS] send buffer full, dropping message for %s", clientKey(userType, userID))
	}
}

// Broadcast 向所有在线客户端推送消息
func (s *RealtimeService) Broadcast(envelope *RealtimeEnvelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, client := range s.clients {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] send buffer full, dropping broadcast for %s", key)
		}
	}
}

// ConnectedCount 当前在线连接数
func (s *RealtimeService) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// OnCallEvent 实现呼叫事件下游，向呼叫参与者推送状态变更
func (s *RealtimeService) OnCallEvent(event CallEvent) {
	envelope := &RealtimeEnvelope{
		Type:      event.Type,
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"call_id":      event.Call.CallID,
			"channel_name": event.Call.ChannelName,
			"status":       event.Call.Status,
			"end_cause":    event.Call.EndCause,
		},
	}

	if len(event.Participants) > 0 {
		for _, p := range event.Participants {
			s.SendToUser(p.UserType, p.UserID, envelope)
		}
		return
	}

	// 事件未携带参与者时从呼叫记录读取
	for _, p := range event.Call.Participants {
		s.SendToUser(p.UserType, p.UserID, envelope)
	}
}
