package app

import (
	"context"
	"encoding/json"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/internal/clip/repository"
	"short_clip_service/pkg/database"
	"short_clip_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ProbeWorker 消化 probe 佇列，補齊來源影片的 duration/解析度
type ProbeWorker struct {
	videoRepo  repository.VideoRepo
	minioRepo  database.MinIOClientRepo
	rabbitRepo database.RabbitRepo
	probe      func(input string) (*domain.SourceMetadata, error)
}

// NewProbeWorker 創建 probe worker
func NewProbeWorker(videoRepo repository.VideoRepo, minioRepo database.MinIOClientRepo,
	rabbitRepo database.RabbitRepo) *ProbeWorker {
	return &ProbeWorker{
		videoRepo:  videoRepo,
		minioRepo:  minioRepo,
		rabbitRepo: rabbitRepo,
		probe:      ProbeSource,
	}
}

// Run 阻塞消費，佇列 channel 關閉或 ctx 取消才返回
func (w *ProbeWorker) Run(ctx context.Context) error {
	msgs, err := w.rabbitRepo.GetRabbit().Consume(
		domain.ProbeQueueName,
		"",    // consumer tag
		false, // auto-ack 關掉，probe 失敗要能 requeue
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	logger.Log.Info("probe worker started", zap.String("queue", domain.ProbeQueueName))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *ProbeWorker) handle(ctx context.Context, msg amqp.Delivery) {
	var job domain.ProbeJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.Log.Error("probe job unmarshal failed", zap.Error(err))
		// 壞訊息 requeue 只會無限循環，直接丟棄
		_ = msg.Nack(false, false)
		return
	}

	if err := w.probeVideo(ctx, job); err != nil {
		logger.Log.Error("probe video failed",
			zap.Uint("video_id", job.VideoID), zap.Error(err))
		// 標記 failed 後訊息不 requeue，重傳交給重新上傳
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}

func (w *ProbeWorker) probeVideo(ctx context.Context, job domain.ProbeJob) error {
	video, err := w.videoRepo.GetByID(job.VideoID)
	if err != nil {
		return err
	}

	// ffprobe 直接吃 presigned URL，不用整支載下來
	url, err := w.minioRepo.PresignGetURL(ctx, job.StoragePath, time.Hour)
	if err != nil {
		w.markFailed(video)
		return err
	}

	meta, err := w.probe(url)
	if err != nil {
		w.markFailed(video)
		return err
	}

	video.Duration = meta.Duration
	video.Width = meta.Width
	video.Height = meta.Height
	video.Status = domain.SourceCompleted
	if err := w.videoRepo.Update(video); err != nil {
		return err
	}

	logger.Log.Info("source video probed",
		zap.Uint("video_id", video.ID),
		zap.Float64("duration", meta.Duration),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
	)
	return nil
}

func (w *ProbeWorker) markFailed(video *domain.SourceVideo) {
	video.Status = domain.SourceFailed
	if err := w.videoRepo.Update(video); err != nil {
		logger.Log.Error("mark video failed status error",
			zap.Uint("video_id", video.ID), zap.Error(err))
	}
}
