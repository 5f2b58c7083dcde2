package services

import (
	"fmt"
	"time"

	"github.com/tencentyun/tls-sig-api-v2-golang/tencentyun"

	"interfone-http-service/config"
)

// InterfaceTencentRTCService 定义旧版TRTC设备的签名服务接口
type InterfaceTencentRTCService interface {
	GetUserSig(userID string) (*TencentRTCTokenInfo, error)
	GenPrivateMapKey(userID string, roomID string, expire int) (string, error)
}

// TencentRTCService 处理腾讯云TRTC的UserSig签发。
// 仅用于仍在使用腾讯SDK的旧版大堂设备，新客户端走媒体令牌服务。
type TencentRTCService struct {
	Config *config.Config
}

// TencentRTCTokenInfo 表示腾讯云TRTC的令牌信息
type TencentRTCTokenInfo struct {
	SDKAppID    int       `json:"sdk_app_id"`
	UserID      string    `json:"user_id"`
	UserSig     string    `json:"user_sig"`
	ExpireTime  time.Time `json:"expire_time"`
	RequestTime time.Time `json:"request_time"`
}

// NewTencentRTCService 创建一个新的腾讯云TRTC服务
func NewTencentRTCService(cfg *config.Config) *TencentRTCService {
	return &TencentRTCService{
		Config: cfg,
	}
}

// GetUserSig 使用服务端方式生成腾讯云TRTC的UserSig
// 这是推荐的正式环境使用方式，密钥只存储在服务端
func (s *TencentRTCService) GetUserSig(userID string) (*TencentRTCTokenInfo, error) {
	// 检查是否配置了必要的参数
	if s.Config.TencentSDKAppID == 0 || s.Config.TencentSecretKey == "" {
		return nil, fmt.Errorf("缺少必要的腾讯云TRTC配置")
	}

	// 旧版设备UserSig有效期为24小时
	expireSeconds := 86400
	now := time.Now()
	expireTime := now.Add(time.Duration(expireSeconds) * time.Second)

	// 使用腾讯云官方SDK生成UserSig
	userSig, err := tencentyun.GenUserSig(
		s.Config.TencentSDKAppID,
		s.Config.TencentSecretKey,
		userID,
		expireSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("生成UserSig失败: %w", err)
	}

	tokenInfo := &TencentRTCTokenInfo{
		SDKAppID:    s.Config.TencentSDKAppID,
		UserID:      userID,
		UserSig:     userSig,
		ExpireTime:  expireTime,
		RequestTime: now,
	}

	return tokenInfo, nil
}

// GenPrivateMapKey 生成用于权限控制的PrivateMapKey (可选功能)
func (s *TencentRTCService) GenPrivateMapKey(userID string, roomID string, expire int) (string, error) {
	if s.Config.TencentSDKAppID == 0 || s.Config.TencentSecretKey == "" {
		return "", fmt.Errorf("缺少必要的腾讯云TRTC配置")
	}

	// 默认权限设置：音视频全部权限
	// 1(创建房间) + 2(加入房间) + 4(发送语音) + 8(接收语音) + 16(发送视频) + 32(接收视频) + 64(发送屏幕共享) + 128(接收屏幕共享)
	privilegeMap := uint32(255)

	// 生成带字符串房间号的PrivateMapKey
	privateMapKey, err := tencentyun.GenPrivateMapKeyWithStringRoomID(
		s.Config.TencentSDKAppID,
		s.Config.TencentSecretKey,
		userID,
		expire,
		roomID,
		privilegeMap,
	)

	if err != nil {
		return "", fmt.Errorf("生成PrivateMapKey失败: %w", err)
	}

	return privateMapKey, nil
}
