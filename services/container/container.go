package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"interfone-http-service/config"
	"interfone-http-service/services"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService services.InterfaceJWTService

	// 媒体令牌服务
	mediaTokenService services.InterfaceMediaTokenService
	tencentRTCService services.InterfaceTencentRTCService

	// 数据存储服务
	redisService *services.RedisService

	// 信令服务
	mqttSignalService services.InterfaceMQTTSignalService
	realtimeService   services.InterfaceRealtimeService

	// 呼叫与值班服务
	callService  services.InterfaceCallService
	shiftService services.InterfaceShiftService

	// 通知服务
	pushService         services.InterfacePushService
	whatsappService     services.InterfaceWhatsAppService
	notificationQueue   services.InterfaceNotificationQueue
	notificationService services.InterfaceNotificationService
	notificationWorker  *services.NotificationWorker

	// 业务服务
	buildingService  services.InterfaceBuildingService
	residentService  services.InterfaceResidentService
	doormanService   services.InterfaceDoormanService
	emergencyService services.InterfaceEmergencyService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器。
// 媒体令牌密钥缺失等致命配置错误会在这里直接panic，阻止服务启动。
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)

	// 初始化媒体令牌服务，密钥缺失属于部署错误
	mediaTokenService, err := services.NewMediaTokenService(c.config)
	if err != nil {
		panic("媒体令牌服务初始化失败: " + err.Error())
	}
	c.mediaTokenService = mediaTokenService
	c.tencentRTCService = services.NewTencentRTCService(c.config)

	// 初始化Redis服务
	c.redisService = services.NewRedisService(c.config)

	// 初始化值班服务
	c.shiftService = services.NewShiftService(c.db, c.config)

	// 初始化通知链路：渠道发送方 → 队列 → 路由
	c.pushService = services.NewExpoPushService(c.config)
	c.whatsappService = services.NewWhatsAppService(c.config)
	c.notificationQueue = services.NewNotificationQueue(c.config)
	notificationService := services.NewNotificationService(
		c.db, c.config, c.shiftService, c.pushService, c.whatsappService, c.notificationQueue)
	c.notificationService = notificationService

	// 启动队列消费端
	c.notificationWorker = services.NewNotificationWorker(c.config, notificationService)
	if err := c.notificationWorker.Start(); err != nil {
		log.Printf("通知队列消费端启动失败: %v", err)
	}

	// 初始化信令服务
	c.mqttSignalService = services.NewMQTTSignalService(c.config)
	if err := c.mqttSignalService.Connect(); err != nil {
		log.Printf("MQTT服务连接失败: %v", err)
	}
	c.realtimeService = services.NewRealtimeService()

	// 初始化呼叫服务并接上事件下游
	callService := services.NewCallService(c.db, c.config, c.mediaTokenService, c.shiftService)
	callService.AddSink(notificationService)
	callService.AddSink(c.realtimeService)
	callService.AddSink(c.mqttSignalService)
	callService.StartSweeper()
	c.callService = callService

	// 初始化业务服务
	c.buildingService = services.NewBuildingService(c.db)
	c.residentService = services.NewResidentService(c.db, c.config)
	c.doormanService = services.NewDoormanService(c.db, c.config)
	c.emergencyService = services.NewEmergencyService(c.db, c.config, c.notificationService)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "media_token":
		return c.mediaTokenService
	case "tencent_rtc":
		return c.tencentRTCService
	case "redis":
		return c.redisService
	case "mqtt_signal":
		return c.mqttSignalService
	case "realtime":
		return c.realtimeService
	case "call":
		return c.callService
	case "shift":
		return c.shiftService
	case "push":
		return c.pushService
	case "whatsapp":
		return c.whatsappService
	case "notification":
		return c.notificationService
	case "building":
		return c.buildingService
	case "resident":
		return c.residentService
	case "doorman":
		return c.doormanService
	case "emergency":
		return c.emergencyService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Shutdown 停止后台组件
func (c *ServiceContainer) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.callService != nil {
		c.callService.StopSweeper()
	}
	if c.notificationWorker != nil {
		c.notificationWorker.Shutdown()
	}
	if c.notificationQueue != nil {
		c.notificationQueue.Close()
	}
	if c.mqttSignalService != nil {
		c.mqttSignalService.Disconnect()
	}
}
