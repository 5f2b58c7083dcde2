package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interfone-http-service/config"
)

// ErrInvalidPhone 号码无法归一化为有效的巴西手机号
var ErrInvalidPhone = errors.New("invalid brazilian phone number")

// InterfaceWhatsAppService 定义WhatsApp消息服务的接口
type InterfaceWhatsAppService interface {
	SendMessage(phone, message string) error
}

// WhatsAppService 通过Evolution API发送WhatsApp消息，
// 作为没有推送令牌的住户的兜底通知渠道。
type WhatsAppService struct {
	Config     *config.Config
	HTTPClient *http.Client
}

// NewWhatsAppService 创建一个新的WhatsApp消息服务
func NewWhatsAppService(cfg *config.Config) InterfaceWhatsAppService {
	return &WhatsAppService{
		Config: cfg,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NormalizeBrazilianPhone 将号码归一化为带55国家码的数字串。
// 接受带格式符号的输入，如 "+55 (11) 98765-4321"。
func NormalizeBrazilianPhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()

	// 去掉重复的国家码前缀
	if strings.HasPrefix(number, "55") && len(number) >= 12 {
		number = number[2:]
	}

	// DDD(2位) + 号码(8或9位)
	if len(number) < 10 || len(number) > 11 {
		return "", ErrInvalidPhone
	}

	return "55" + number, nil
}

// SendMessage 发送一条文本消息
func (s *WhatsAppService) SendMessage(phone, message string) error {
	if s.Config.EvolutionAPIURL == "" {
		return errors.New("evolution API is not configured")
	}

	number, err := NormalizeBrazilianPhone(phone)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"number": number,
		"text":   message,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/message/sendText/%s",
		strings.TrimRight(s.Config.EvolutionAPIURL, "/"), s.Config.EvolutionInstance)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.Config.EvolutionAPIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("evolution API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("evolution API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
