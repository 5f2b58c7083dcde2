package middleware

import (
	"testing"
	"time"
)

func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(1, 5)

	// 桶初始装满，允许突发5个请求
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}

	// 桶空后立即请求被拒绝
	if tb.Allow() {
		t.Error("request after burst should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("second immediate request should be denied")
	}

	// 100个/秒的速率下，20毫秒足够补充一个令牌
	time.Sleep(20 * time.Millisecond)
	if !tb.Allow() {
		t.Error("request after refill should be allowed")
	}
}

func TestTokenBucketCapacityCap(t *testing.T) {
	tb := NewTokenBucket(1, 2)

	// 等待补充后，仍只能突发到容量上限
	time.Sleep(50 * time.Millisecond)
	allowed := 0
	for i := 0; i < 10; i++ {
		if tb.Allow() {
			allowed++
		}
	}
	if allowed > 2 {
		t.Errorf("allowed %d requests, capacity is 2", allowed)
	}
}

func TestToKeyString(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"字符串", "doorman", "doorman"},
		{"JWT数值声明", float64(42), "42"},
		{"不支持的类型", struct{}{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toKeyString(tt.input); got != tt.want {
				t.Errorf("toKeyString(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
