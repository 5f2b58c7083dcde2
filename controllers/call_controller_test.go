package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRoleContext(t *testing.T, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	ctx.Set("userID", uint(1))
	ctx.Set("role", role)
	return ctx, w
}

// 发起对公寓的呼叫是门卫动作，住户令牌不能冒充门卫发起
func TestStartCallRejectsResidentRole(t *testing.T) {
	ctx, w := newRoleContext(t, "resident")
	controller := NewCallController(ctx, nil)

	controller.StartCall()

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestStartCallRejectsMissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	ctx.Set("userID", uint(1))
	controller := NewCallController(ctx, nil)

	controller.StartCall()

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestCallDoormanRejectsDoormanRole(t *testing.T) {
	ctx, w := newRoleContext(t, "doorman")
	controller := NewCallController(ctx, nil)

	controller.CallDoorman()

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
