package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"interfone-http-service/internal/error/code"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestSuccessEnvelope(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, gin.H{"call_id": "abc"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	resp := decodeBody(t, w)
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Code != code.ErrSuccess {
		t.Errorf("code = %d, want %d", resp.Code, code.ErrSuccess)
	}
	if resp.Error != "" {
		t.Errorf("error should be empty on success, got %q", resp.Error)
	}
}

// 冲突类错误码必须映射到409
func TestFailConflictStatus(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Fail(c, code.ErrConflictingCall, nil)
	})

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}

	resp := decodeBody(t, w)
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Code != code.ErrConflictingCall {
		t.Errorf("code = %d, want %d", resp.Code, code.ErrConflictingCall)
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
}

func TestFailStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		errorCode  int
		wantStatus int
	}{
		{"呼叫不存在", code.ErrCallNotFound, http.StatusNotFound},
		{"非参与者", code.ErrNotAParticipant, http.StatusForbidden},
		{"门卫已在值班", code.ErrAlreadyOnDuty, http.StatusConflict},
		{"楼栋已有人值班", code.ErrBuildingOccupied, http.StatusConflict},
		{"呼叫已不在振铃", code.ErrCallNotRinging, http.StatusConflict},
		{"令牌无效", code.ErrTokenInvalid, http.StatusUnauthorized},
		{"请求过多", code.ErrTooManyRequests, http.StatusTooManyRequests},
		{"参数错误", code.ErrValidation, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Fail(c, tt.errorCode, nil)
			})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestFailWithMessageOverridesText(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		FailWithMessage(c, code.ErrValidation, "building_id is required", nil)
	})

	resp := decodeBody(t, w)
	if resp.Error != "building_id is required" {
		t.Errorf("error = %q, want custom message", resp.Error)
	}
}
