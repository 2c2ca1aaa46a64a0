package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"short_clip_service/internal/api/handlers"
	"short_clip_service/internal/api/router"
	clipapp "short_clip_service/internal/clip/app"
	clipdomain "short_clip_service/internal/clip/domain"
	cliprepo "short_clip_service/internal/clip/repository"
	memberapp "short_clip_service/internal/member/app"
	memberdomain "short_clip_service/internal/member/domain"
	memberrepo "short_clip_service/internal/member/repository"
	"short_clip_service/pkg/config"
	"short_clip_service/pkg/database"
	"short_clip_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ClipService, config.EnvConfig.ClipServiceLogPath)

	cfg := config.LoadConfig[config.ClipService](config.EnvConfig.ClipService, config.EnvConfig.ClipServiceYAMLPath)

	// 1. 連線 PostgreSQL（pgx pool 給會員、gorm 給影片/剪輯）
	sqlParams := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    sqlParams,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", sqlParams)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", dsn)),
			zap.Error(err),
		)
	}

	// 自動遷移影片/剪輯資料表
	videoRepo := cliprepo.NewVideoRepo(db)
	if err := videoRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}
	clipRepo := cliprepo.NewClipRepo(db)
	if err := clipRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 2. 初始化 MinIO 客戶端
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.BucketName,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to minio after retries",
			zap.Error(err),
		)
	}

	// 3. Redis：會員 session 與規劃草稿共用同一連線
	redisClient, err := database.NewRedisClient(
		fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	sessionRepo := database.NewRedisRepository[memberdomain.MemberSession](redisClient)
	planRepo := database.NewRedisRepository[clipdomain.PlanningSession](redisClient)

	// 4. RabbitMQ：probe 佇列
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer rabbitChannel.Close()

	//先初始化一個queue name = probe
	if _, err := rabbitChannel.QueueDeclare(
		clipdomain.ProbeQueueName, // queue name
		true,                      // durable
		false,                     // autoDelete
		false,                     // exclusive
		false,                     // noWait
		nil,                       // arguments
	); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}
	rabbitRepo := database.NewRabbitRepository(rabbitChannel)

	// 5. usecase 組裝
	memberRepo := memberrepo.NewMemberRepository(pool)
	memberUC := memberapp.NewMemberUseCase(memberRepo, cfg.SessionTTL*time.Minute, sessionRepo)

	libraryUC := clipapp.NewLibraryUseCase(videoRepo, clipRepo, minioClient, rabbitRepo)
	plannerUC := clipapp.NewPlannerUseCase(videoRepo, clipRepo, planRepo, cfg.PlanTTL*time.Minute)

	engine := clipapp.NewExportEngine(clipapp.ExportEngineConfig{
		CanvasWidth:  cfg.Export.CanvasWidth,
		CanvasHeight: cfg.Export.CanvasHeight,
		FrameRate:    cfg.Export.FrameRate,
		MediaTimeout: cfg.Export.MediaTimeout * time.Second,
	})
	hub := clipapp.NewProgressHub()
	exportUC := clipapp.NewExportUseCase(clipRepo, videoRepo, minioClient, engine, hub)

	// 6. probe worker（goroutine 消費）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := clipapp.NewProbeWorker(videoRepo, minioClient, rabbitRepo)
	go func() {
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Log.Error("probe worker stopped", zap.Error(err))
		}
	}()

	// 7. 建立 Fiber 應用
	r := fiber.New(fiber.Config{
		BodyLimit: 1024 * 1024 * 1024, // 長片上傳
	})

	memberHandler := handlers.NewMemberHandler(memberUC)
	libraryHandler := handlers.NewLibraryHandler(libraryUC)
	plannerHandler := handlers.NewPlannerHandler(plannerUC)
	exportHandler := handlers.NewExportHandler(exportUC)
	router.RegisterRoutes(r, memberHandler, libraryHandler, plannerHandler, exportHandler)

	logger.Log.Info(fmt.Sprintf("ClipService listening on : %s", cfg.Port))
	if err := r.Listen(cfg.IP + ":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
