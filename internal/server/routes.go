package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/xpanvictor/humidhub/internal/domains/device"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	"github.com/xpanvictor/humidhub/internal/handlers"
	"github.com/xpanvictor/humidhub/pkg/Logger"
)

type Dependencies struct {
	UserService   user.UserService
	DeviceService device.DeviceService
	Logger        *Logger.Logger
}

func NewServerDependencies(
	userService user.UserService,
	deviceService device.DeviceService,
	logger *Logger.Logger,
) Dependencies {
	return Dependencies{
		UserService:   userService,
		DeviceService: deviceService,
		Logger:        logger,
	}
}

func InitializeRoutes(r *gin.Engine, dep Dependencies) {
	// device ids may carry an escaped "/"
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.GET("/", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	userHandler := handlers.NewUserHandler(dep.UserService, dep.Logger.Named("users"))
	deviceHandler := handlers.NewDeviceHandler(dep.DeviceService, dep.Logger.Named("devices"))

	r.POST("/signup", userHandler.Signup)
	r.POST("/login", userHandler.Login)
	r.POST("/publish-humidity", deviceHandler.PublishHumidity)

	users := r.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/:userId", userHandler.GetUser)
		users.GET("/:userId/devices", deviceHandler.ListDevices)
		users.POST("/:userId/devices", deviceHandler.AddDevice)
		users.GET("/:userId/devices/:deviceId", deviceHandler.GetDevice)
		users.PUT("/:userId/devices/:deviceId", deviceHandler.UpdateHumidity)
	}
}
