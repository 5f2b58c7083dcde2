package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"interfone-http-service/config"
	"interfone-http-service/models"
	"interfone-http-service/utils"
)

// 信令主题常量
const (
	// 来电通知主题，大堂设备与门卫终端订阅
	TopicCallIncoming = "interfone/call/incoming"

	// 呼叫状态变更主题
	TopicCallState = "interfone/call/state"

	// 设备状态主题
	TopicDeviceStatus = "interfone/device/status"

	// 系统消息主题
	TopicSystemMessage = "interfone/system"
)

// MQTTSignal MQTT信令消息基础结构。
// MessageID供设备端在QoS 1重复投递时去重。
type MQTTSignal struct {
	MessageID int32          `json:"message_id"`
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// InterfaceMQTTSignalService 定义MQTT信令服务接口
type InterfaceMQTTSignalService interface {
	Connect() error
	Disconnect()
	PublishCallIncoming(call *models.IntercomCall) error
	PublishCallState(call *models.IntercomCall, actorType string) error
	PublishDeviceStatus(deviceID string, status map[string]interface{}) error
	PublishSystemMessage(messageType string, message map[string]interface{}) error
	OnCallEvent(event CallEvent)
}

// MQTTSignalService 将呼叫生命周期事件发布到MQTT主题，
// 供大堂对讲设备等不走WebSocket的终端消费。
type MQTTSignalService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护连接尝试与消息发布
}

// NewMQTTSignalService 创建一个新的MQTT信令服务
func NewMQTTSignalService(cfg *config.Config) InterfaceMQTTSignalService {
	service := &MQTTSignalService{
		Config:      cfg,
		IsConnected: false,
	}

	service.setupMQTTClient()

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTSignalService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("interfone-%s-%d", uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		log.Printf("[MQTT] 收到未处理的消息: topic=%s", msg.Topic())
	})

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") {
		log.Println("[MQTT] 使用TLS连接")
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: true, // 默认跳过验证，如有CA证书则使用
		})
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("[MQTT] 成功连接到", s.Config.MQTTBrokerURL)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Println("[MQTT] 正在尝试重连...")
	})

	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，带有重试机制
func (s *MQTTSignalService) Connect() error {
	log.Printf("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	// 加锁，确保同一时间只有一个连接尝试
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	// 最大重试次数和指数退避策略
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.IsConnected = true
			s.connectedMutex.Unlock()
			log.Printf("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		log.Printf("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *MQTTSignalService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// publish 序列化并发布消息，QoS 1保证至少一次投递
func (s *MQTTSignalService) publish(topic string, signal *MQTTSignal) error {
	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client != nil && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if !isConnected {
		return fmt.Errorf("MQTT未连接, 无法发布到 %s", topic)
	}

	if signal.MessageID == 0 {
		signal.MessageID = utils.RandomInt31()
	}

	data, err := json.Marshal(signal)
	if err != nil {
		return err
	}

	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	token := s.Client.Publish(topic, 1, false, data)
	if token.WaitTimeout(3*time.Second) && token.Error() != nil {
		return fmt.Errorf("发布消息失败 [%s]: %v", topic, token.Error())
	}
	return nil
}

// 1 PublishCallIncoming 发布来电通知
func (s *MQTTSignalService) PublishCallIncoming(call *models.IntercomCall) error {
	return s.publish(TopicCallIncoming, &MQTTSignal{
		Type:      "incoming_call",
		Timestamp: time.Now().UnixMilli(),
		Payload: map[string]any{
			"call_id":      call.CallID,
			"channel_name": call.ChannelName,
			"building_id":  call.BuildingID,
			"apartment_id": call.ApartmentID,
			"status":       call.Status,
		},
	})
}

// 2 PublishCallState 发布呼叫状态变更
func (s *MQTTSignalService) PublishCallState(call *models.IntercomCall, actorType string) error {
	payload := map[string]any{
		"call_id":    call.CallID,
		"status":     call.Status,
		"actor_type": actorType,
	}
	if call.EndCause != "" {
		payload["end_cause"] = call.EndCause
	}
	return s.publish(TopicCallState, &MQTTSignal{
		Type:      "call_state",
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	})
}

// 3 PublishDeviceStatus 发布设备状态
func (s *MQTTSignalService) PublishDeviceStatus(deviceID string, status map[string]interface{}) error {
	payload := map[string]any{"device_id": deviceID}
	for k, v := range status {
		payload[k] = v
	}
	return s.publish(TopicDeviceStatus, &MQTTSignal{
		Type:      "device_status",
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	})
}

// 4 PublishSystemMessage 发布系统消息
func (s *MQTTSignalService) PublishSystemMessage(messageType string, message map[string]interface{}) error {
	return s.publish(TopicSystemMessage, &MQTTSignal{
		Type:      messageType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   message,
	})
}

// OnCallEvent 实现呼叫事件下游，向设备侧转发状态
func (s *MQTTSignalService) OnCallEvent(event CallEvent) {
	var err error
	switch event.Type {
	case EventCallRinging:
		err = s.PublishCallIncoming(event.Call)
	default:
		err = s.PublishCallState(event.Call, event.ActorType)
	}
	if err != nil {
		log.Printf("[MQTT] 转发呼叫事件失败: %v", err)
	}
}
