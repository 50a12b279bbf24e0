package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"brainboost/internal/api"
	"brainboost/internal/models"
	"brainboost/internal/repository"
	"brainboost/internal/service"
	"brainboost/internal/storage"
	"brainboost/internal/uploads"
	"brainboost/pkg/config"
)

func main() {
	// 初始化全域日誌
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// 載入應用程式配置
	// 從配置文件中讀取設置，如數據庫連接信息和服務器地址等
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	// 確保在程序結束時關閉數據庫連接
	defer db.Close()

	// 自動遷移資料庫結構
	// 根據定義的模型自動創建或更新數據庫表結構
	if err := db.AutoMigrate(&models.Room{}, &models.RoomIdentity{}, &models.Message{}); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate database")
	}

	// 初始化附件存儲
	resolver, err := uploads.NewLocal(cfg.Upload.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize upload storage")
	}

	// 初始化 repositories 和 services
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, service.Options{
		StorageTimeout: cfg.Chat.StorageTimeout,
		RosterGrace:    cfg.Chat.RosterGrace,
	})

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, api.RouterConfig{
		JWTSecret: cfg.JWT.Secret,
		UploadDir: cfg.Upload.Dir,
		Resolver:  resolver,
	})

	// 啟動伺服器
	log.Info().Str("addr", cfg.Server.Address).Msg("brainboost server started")
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
