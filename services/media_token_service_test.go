package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"interfone-http-service/config"
)

func newTestTokenService(t *testing.T) *MediaTokenService {
	t.Helper()

	cfg := &config.Config{
		MediaTokenSecret: "test-secret-key",
		MediaTokenTTL:    30 * time.Minute,
	}
	svc, err := NewMediaTokenService(cfg)
	if err != nil {
		t.Fatalf("NewMediaTokenService: %v", err)
	}
	return svc
}

// 签名密钥缺失属于部署错误，构造必须失败
func TestNewMediaTokenServiceMissingSecret(t *testing.T) {
	_, err := NewMediaTokenService(&config.Config{})
	if err == nil {
		t.Fatal("expected error when MEDIA_TOKEN_SECRET is empty")
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue("call-abc", "doorman-1", MediaRolePublisher, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token.Channel != "call-abc" || token.Subject != "doorman-1" {
		t.Errorf("unexpected binding: channel=%s subject=%s", token.Channel, token.Subject)
	}
	if !token.ExpiresAt.After(token.IssuedAt) {
		t.Error("expected expiry after issue time")
	}

	claims, err := svc.Validate(token.Token, "call-abc", "doorman-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Role != MediaRolePublisher {
		t.Errorf("unexpected role: %s", claims.Role)
	}
	if claims.Kind != "rtc" {
		t.Errorf("unexpected kind: %s", claims.Kind)
	}
}

// 令牌与频道或用户不匹配时必须拒绝
func TestValidateScopeMismatch(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue("call-abc", "resident-7", MediaRoleSubscriber, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Validate(token.Token, "call-other", "resident-7"); !errors.Is(err, ErrMediaTokenScope) {
		t.Errorf("cross-channel: got %v, want ErrMediaTokenScope", err)
	}
	if _, err := svc.Validate(token.Token, "call-abc", "resident-8"); !errors.Is(err, ErrMediaTokenScope) {
		t.Errorf("cross-subject: got %v, want ErrMediaTokenScope", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)

	// 手工构造一个已过期的令牌
	now := time.Now().Add(-2 * time.Hour)
	claims := &MediaTokenClaims{
		Channel: "call-abc",
		Role:    MediaRolePublisher,
		Kind:    "rtc",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doorman-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Validate(signed, "call-abc", "doorman-1"); !errors.Is(err, ErrMediaTokenExpired) {
		t.Errorf("got %v, want ErrMediaTokenExpired", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	svc := newTestTokenService(t)

	other, err := NewMediaTokenService(&config.Config{MediaTokenSecret: "another-secret"})
	if err != nil {
		t.Fatalf("NewMediaTokenService: %v", err)
	}

	token, err := other.Issue("call-abc", "doorman-1", MediaRolePublisher, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Validate(token.Token, "call-abc", "doorman-1"); !errors.Is(err, ErrMediaTokenInvalid) {
		t.Errorf("got %v, want ErrMediaTokenInvalid", err)
	}
}

func TestIssueBundle(t *testing.T) {
	svc := newTestTokenService(t)

	bundle, err := svc.IssueBundle("call-abc", "resident-7")
	if err != nil {
		t.Fatalf("IssueBundle: %v", err)
	}

	if bundle.UID != "resident-7" || bundle.ChannelName != "call-abc" {
		t.Errorf("unexpected bundle binding: uid=%s channel=%s", bundle.UID, bundle.ChannelName)
	}
	if bundle.RTCToken == "" || bundle.RTMToken == "" {
		t.Error("expected both RTC and RTM tokens")
	}
	if bundle.RTCToken == bundle.RTMToken {
		t.Error("RTC and RTM tokens must differ")
	}
	if bundle.TTLSeconds != int((30 * time.Minute).Seconds()) {
		t.Errorf("unexpected TTL: %d", bundle.TTLSeconds)
	}

	// RTC令牌按rtc种类签发
	claims, err := svc.Validate(bundle.RTCToken, "call-abc", "resident-7")
	if err != nil {
		t.Fatalf("Validate RTC: %v", err)
	}
	if claims.Kind != "rtc" {
		t.Errorf("unexpected RTC kind: %s", claims.Kind)
	}

	claims, err = svc.Validate(bundle.RTMToken, "call-abc", "resident-7")
	if err != nil {
		t.Fatalf("Validate RTM: %v", err)
	}
	if claims.Kind != "rtm" {
		t.Errorf("unexpected RTM kind: %s", claims.Kind)
	}
}

func TestIssueRequiresChannelAndSubject(t *testing.T) {
	svc := newTestTokenService(t)

	if _, err := svc.Issue("", "doorman-1", MediaRolePublisher, 0); err == nil {
		t.Error("expected error for empty channel")
	}
	if _, err := svc.Issue("call-abc", "", MediaRolePublisher, 0); err == nil {
		t.Error("expected error for empty subject")
	}
}
