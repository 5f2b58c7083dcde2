package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"interfone-http-service/config"
)

// 媒体令牌角色
const (
	MediaRolePublisher  = "publisher"
	MediaRoleSubscriber = "subscriber"
)

// 媒体令牌校验错误
var (
	ErrMediaTokenExpired = errors.New("media token expired")
	ErrMediaTokenScope   = errors.New("media token does not match channel or user")
	ErrMediaTokenInvalid = errors.New("media token invalid")
)

// InterfaceMediaTokenService 定义媒体令牌签发服务的接口
type InterfaceMediaTokenService interface {
	Issue(channel, subject, role string, ttl time.Duration) (*MediaToken, error)
	IssueBundle(channel, subject string) (*MediaTokenBundle, error)
	Validate(tokenString, channel, subject string) (*MediaTokenClaims, error)
}

// MediaTokenService 签发加入媒体频道所需的短时令牌。
// 令牌绑定频道与用户，呼叫级别的短有效期，过期后需重新申请。
type MediaTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// MediaToken 表示一个已签发的媒体令牌
type MediaToken struct {
	Token     string    `json:"token"`
	Channel   string    `json:"channel"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MediaTokenBundle 表示客户端加入呼叫所需的完整令牌包，
// RTC用于音视频频道，RTM用于信令消息
type MediaTokenBundle struct {
	RTCToken    string    `json:"rtcToken"`
	RTMToken    string    `json:"rtmToken"`
	UID         string    `json:"uid"`
	ChannelName string    `json:"channelName"`
	RTCRole     string    `json:"rtcRole"`
	TTLSeconds  int       `json:"ttlSeconds"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// MediaTokenClaims 媒体令牌的JWT声明
type MediaTokenClaims struct {
	Channel string `json:"channel"`
	Role    string `json:"media_role"`
	Kind    string `json:"kind"` // rtc, rtm
	jwt.RegisteredClaims
}

// NewMediaTokenService 创建媒体令牌服务。
// 签名密钥缺失属于部署错误，直接返回错误让启动流程失败。
func NewMediaTokenService(cfg *config.Config) (*MediaTokenService, error) {
	if cfg.MediaTokenSecret == "" {
		return nil, errors.New("MEDIA_TOKEN_SECRET is not configured")
	}

	ttl := cfg.MediaTokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &MediaTokenService{
		secret: []byte(cfg.MediaTokenSecret),
		ttl:    ttl,
		issuer: "interfone-http-service",
	}, nil
}

// DefaultTTL 返回默认的令牌有效期
func (s *MediaTokenService) DefaultTTL() time.Duration {
	return s.ttl
}

// Issue 为指定频道和用户签发一个媒体令牌
func (s *MediaTokenService) Issue(channel, subject, role string, ttl time.Duration) (*MediaToken, error) {
	return s.issueKind(channel, subject, role, "rtc", ttl)
}

func (s *MediaTokenService) issueKind(channel, subject, role, kind string, ttl time.Duration) (*MediaToken, error) {
	if channel == "" || subject == "" {
		return nil, fmt.Errorf("channel and subject are required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &MediaTokenClaims{
		Channel: channel,
		Role:    role,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign media token: %w", err)
	}

	return &MediaToken{
		Token:     signed,
		Channel:   channel,
		Subject:   subject,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueBundle 签发客户端加入呼叫所需的RTC+RTM令牌包
func (s *MediaTokenService) IssueBundle(channel, subject string) (*MediaTokenBundle, error) {
	rtc, err := s.issueKind(channel, subject, MediaRolePublisher, "rtc", s.ttl)
	if err != nil {
		return nil, err
	}

	rtm, err := s.issueKind(channel, subject, MediaRolePublisher, "rtm", s.ttl)
	if err != nil {
		return nil, err
	}

	return &MediaTokenBundle{
		RTCToken:    rtc.Token,
		RTMToken:    rtm.Token,
		UID:         subject,
		ChannelName: channel,
		RTCRole:     MediaRolePublisher,
		TTLSeconds:  int(s.ttl.Seconds()),
		IssuedAt:    rtc.IssuedAt,
		ExpiresAt:   rtc.ExpiresAt,
	}, nil
}

// Validate 校验令牌签名、有效期，并确认其绑定的频道与用户。
// 跨频道或跨用户的令牌一律拒绝。
func (s *MediaTokenService) Validate(tokenString, channel, subject string) (*MediaTokenClaims, error) {
	claims := &MediaTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrMediaTokenExpired
		}
		return nil, ErrMediaTokenInvalid
	}
	if !token.Valid {
		return nil, ErrMediaTokenInvalid
	}

	if claims.Channel != channel || claims.Subject != subject {
		return nil, ErrMediaTokenScope
	}

	return claims, nil
}
