package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// 测试配置
type TestConfig struct {
	BaseURL     string `json:"base_url"`
	AdminUser   string `json:"admin_user"`
	AdminPass   string `json:"admin_pass"`
	Concurrency int    `json:"concurrency"`
	Requests    int    `json:"requests"`
}

// 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// 登录响应
type LoginResponse struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

var (
	config    TestConfig
	authToken string
)

// TestMain 测试主函数。目标服务不可达时跳过整个套件，
// 基准测试需要运行中的服务和后端MySQL/Redis。
func TestMain(m *testing.M) {
	// 加载测试配置
	if err := loadConfig(); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 获取认证令牌
	if err := getAuthToken(); err != nil {
		fmt.Printf("服务不可达，跳过基准测试: %v\n", err)
		os.Exit(0)
	}

	// 运行测试
	os.Exit(m.Run())
}

// loadConfig 加载测试配置
func loadConfig() error {
	// 默认配置
	config = TestConfig{
		BaseURL:     "http://localhost:8080/api",
		AdminUser:   "admin",
		AdminPass:   "admin123",
		Concurrency: 10,
		Requests:    100,
	}

	// 尝试从文件加载配置
	data, err := os.ReadFile("test_config.json")
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("解析配置文件失败: %v", err)
		}
	}

	return nil
}

// getAuthToken 登录并解析认证令牌
func getAuthToken() error {
	loginReq := LoginRequest{
		Username: config.AdminUser,
		Password: config.AdminPass,
	}

	body, err := json.Marshal(loginReq)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(config.BaseURL+"/auth/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("解析登录响应失败: %v", err)
	}
	if !loginResp.Success || loginResp.Data.Token == "" {
		return fmt.Errorf("登录失败: code=%d", loginResp.Code)
	}

	authToken = loginResp.Data.Token
	return nil
}

// TestBuildingList 测试楼栋列表接口
func TestBuildingList(t *testing.T) {
	benchmark := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, authToken)
	result := benchmark.RunGET("/buildings")
	result.PrintResult()

	// 验证结果
	if result.FailureCount > 0 {
		t.Errorf("楼栋列表接口测试失败: 成功率 %.2f%%", float64(result.SuccessCount)/float64(result.TotalRequests)*100)
	}
}

// TestResidentList 测试住户列表接口
func TestResidentList(t *testing.T) {
	benchmark := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, authToken)
	result := benchmark.RunGET("/residents")
	result.PrintResult()

	// 验证结果
	if result.FailureCount > 0 {
		t.Errorf("住户列表接口测试失败: 成功率 %.2f%%", float64(result.SuccessCount)/float64(result.TotalRequests)*100)
	}
}

// TestDoormanList 测试门卫列表接口
func TestDoormanList(t *testing.T) {
	benchmark := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, authToken)
	result := benchmark.RunGET("/doormen")
	result.PrintResult()

	// 验证结果
	if result.FailureCount > 0 {
		t.Errorf("门卫列表接口测试失败: 成功率 %.2f%%", float64(result.SuccessCount)/float64(result.TotalRequests)*100)
	}
}

// TestCallHistory 测试呼叫历史接口
func TestCallHistory(t *testing.T) {
	benchmark := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, authToken)
	result := benchmark.RunGET("/calls/history?building_id=1")
	result.PrintResult()

	// 验证结果
	if result.FailureCount > 0 {
		t.Errorf("呼叫历史接口测试失败: 成功率 %.2f%%", float64(result.SuccessCount)/float64(result.TotalRequests)*100)
	}
}

// TestLogin 测试登录接口，bcrypt校验是主要开销
func TestLogin(t *testing.T) {
	benchmark := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, "")
	result := benchmark.RunPOST("/auth/login", LoginRequest{
		Username: config.AdminUser,
		Password: config.AdminPass,
	})
	result.PrintResult()

	// 验证结果
	if result.FailureCount > 0 {
		t.Errorf("登录接口测试失败: 成功率 %.2f%%", float64(result.SuccessCount)/float64(result.TotalRequests)*100)
	}
}

// TestCallStatistics 测试呼叫统计接口
func TestCallStatistics(t *testing.T) {
	benchmark := NewAPIBenchmark(config.BaseURL, config.Concurrency, config.Requests, authToken)
	result := benchmark.RunGET("/calls/statistics?building_id=1")
	result.PrintResult()

	// 验证结果
	if result.FailureCount > 0 {
		t.Errorf("呼叫统计接口测试失败: 成功率 %.2f%%", float64(result.SuccessCount)/float64(result.TotalRequests)*100)
	}
}
