package app

import (
	"fmt"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/humidhub/internal/config"
	"github.com/xpanvictor/humidhub/internal/database"
	"github.com/xpanvictor/humidhub/internal/domains/device"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	userRepo "github.com/xpanvictor/humidhub/internal/repository/user"
	"github.com/xpanvictor/humidhub/internal/server"
	"github.com/xpanvictor/humidhub/pkg/Logger"
	"github.com/xpanvictor/humidhub/pkg/notify"
	"gorm.io/gorm"
)

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	DB     *gorm.DB
	RC     *redis.Client
	// repos
	UserRepo user.UserRepository
	// services
	Publisher     notify.Publisher
	UserService   user.UserService
	DeviceService device.DeviceService
	ServerDeps    server.Dependencies

	mqtt *notify.MQTTPublisher
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.setupDependencies(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// 1. storage
	if err := a.setupStore(); err != nil {
		return err
	}

	// 2. notifications
	if err := a.setupPublisher(); err != nil {
		return err
	}

	// 3. services
	a.UserService = user.NewUserService(a.UserRepo, a.Logger.Named("user"))
	a.DeviceService = device.NewDeviceService(a.UserRepo, a.Publisher, a.Logger.Named("device"))

	a.ServerDeps = server.NewServerDependencies(
		a.UserService,
		a.DeviceService,
		a.Logger,
	)
	return nil
}

func (a *App) setupStore() error {
	switch a.Config.DB.Driver {
	case config.DriverMySQL:
		db, err := database.InitDB(a.Config)
		if err != nil {
			return err
		}
		if err := database.MigrateDB(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.DB = db
		a.UserRepo = userRepo.NewGormUserRepo(db)
	case config.DriverRedis:
		rc, err := database.NewRedis(a.Config.DB)
		if err != nil {
			return err
		}
		a.RC = rc
		a.UserRepo = userRepo.NewRedisUserRepo(rc)
	case config.DriverMemory:
		a.Logger.Warn("using in-memory store, data is lost on restart")
		a.UserRepo = userRepo.NewMemoryUserRepo()
	default:
		return fmt.Errorf("unknown database driver %q", a.Config.DB.Driver)
	}
	a.Logger.Infof("user store ready (driver=%s)", a.Config.DB.Driver)
	return nil
}

func (a *App) setupPublisher() error {
	if a.Config.MQTT.Broker == "" {
		a.Logger.Warn("MQTT broker not configured, notifications will only be logged")
		a.Publisher = notify.NewLogPublisher(a.Logger.Named("notify"))
		return nil
	}

	pub, err := notify.ConnectMQTT(notify.MQTTOptions{
		Broker:         a.Config.MQTT.Broker,
		ClientID:       a.Config.MQTT.ClientID,
		PublishTimeout: a.Config.MQTT.PublishTimeout,
		ConnectTimeout: a.Config.MQTT.ConnectTimeout,
	}, a.Logger.Named("mqtt"))
	if err != nil {
		return err
	}
	a.mqtt = pub
	a.Publisher = pub
	return nil
}

// Close releases the broker connection and store handles.
func (a *App) Close() {
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.RC != nil {
		if err := a.RC.Close(); err != nil {
			a.Logger.Warnf("failed to close redis: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Warnf("failed to close database: %v", err)
			}
		}
	}
}
