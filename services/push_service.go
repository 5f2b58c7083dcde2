package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"interfone-http-service/config"
)

// InterfacePushService 定义应用推送服务的接口
type InterfacePushService interface {
	SendPush(token, title, body string, data map[string]interface{}) error
	SendVoipPush(token string, data map[string]interface{}) error
}

// ExpoPushService 通过Expo Push API发送应用推送。
// iOS来电使用VoIP推送唤醒CallKit，其余场景走普通推送。
type ExpoPushService struct {
	Config     *config.Config
	HTTPClient *http.Client
}

// expoPushRequest Expo推送请求体
type expoPushRequest struct {
	To               string                 `json:"to"`
	Title            string                 `json:"title,omitempty"`
	Body             string                 `json:"body,omitempty"`
	Data             map[string]interface{} `json:"data,omitempty"`
	Sound            string                 `json:"sound,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	ChannelID        string                 `json:"channelId,omitempty"`
	ContentAvailable bool                   `json:"_contentAvailable,omitempty"`
}

// expoPushResponse Expo推送响应体
type expoPushResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

// NewExpoPushService 创建一个新的Expo推送服务
func NewExpoPushService(cfg *config.Config) InterfacePushService {
	return &ExpoPushService{
		Config: cfg,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// 1 SendPush 发送普通推送
func (s *ExpoPushService) SendPush(token, title, body string, data map[string]interface{}) error {
	return s.send(&expoPushRequest{
		To:        token,
		Title:     title,
		Body:      body,
		Data:      data,
		Sound:     "default",
		Priority:  "high",
		ChannelID: "calls",
	})
}

// 2 SendVoipPush 发送VoIP推送，静默唤醒iOS客户端的来电界面
func (s *ExpoPushService) SendVoipPush(token string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["type"] = "voip_call"

	return s.send(&expoPushRequest{
		To:               token,
		Data:             data,
		Priority:         "high",
		ContentAvailable: true,
	})
}

func (s *ExpoPushService) send(req *expoPushRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.Config.ExpoPushURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("expo push request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var pushResp expoPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		return fmt.Errorf("decode expo push response: %w", err)
	}

	for _, ticket := range pushResp.Data {
		if ticket.Status == "error" {
			// DeviceNotRegistered等错误由投递任务的重试策略处理
			return fmt.Errorf("expo push ticket error: %s (%s)", ticket.Message, ticket.Details.Error)
		}
	}

	return nil
}
