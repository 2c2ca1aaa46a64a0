package app

import (
	"context"
	"fmt"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/internal/clip/repository"
	"short_clip_service/pkg/database"
	"short_clip_service/pkg/err"
)

// ExportUseCase 匯出用例定義 export usecase
type ExportUseCase interface {
	// ExportClip 匯出指定剪輯為直式影片，阻塞到 finalized 或 failed
	ExportClip(ctx context.Context, memberID string, clipID uint) (*domain.ExportResult, error)
	// WatchProgress 訂閱某個剪輯的匯出進度
	WatchProgress(memberID string, clipID uint) (<-chan domain.ExportProgress, func())
}

type exportUseCase struct {
	clipRepo  repository.ClipRepo
	videoRepo repository.VideoRepo
	minioRepo database.MinIOClientRepo
	engine    *ExportEngine
	hub       *ProgressHub
}

// NewExportUseCase 創建匯出用例
func NewExportUseCase(clipRepo repository.ClipRepo, videoRepo repository.VideoRepo,
	minioRepo database.MinIOClientRepo, engine *ExportEngine, hub *ProgressHub) ExportUseCase {
	return &exportUseCase{
		clipRepo:  clipRepo,
		videoRepo: videoRepo,
		minioRepo: minioRepo,
		engine:    engine,
		hub:       hub,
	}
}

func (uc *exportUseCase) ExportClip(ctx context.Context, memberID string, clipID uint) (*domain.ExportResult, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: missing member", domain.ErrAuthentication)
	}

	clip, e := uc.clipRepo.GetByID(clipID)
	if e != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("export clip(%d) not found", clipID),
			fmt.Errorf("%w: clip not found", domain.ErrValidation))
	}
	if clip.MemberID != memberID {
		return nil, fmt.Errorf("%w: clip does not belong to member", domain.ErrAuthentication)
	}

	source, e := uc.videoRepo.GetByID(clip.SourceVideoID)
	if e != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("export source(%d) not found", clip.SourceVideoID),
			fmt.Errorf("%w: source video not found", domain.ErrValidation))
	}
	if source.Status != domain.SourceCompleted {
		return nil, fmt.Errorf("%w: source video is not ready", domain.ErrValidation)
	}

	// 來源走 presigned URL 給 ffmpeg 串流，不落地整支原片
	sourceURL, e := uc.minioRepo.PresignGetURL(ctx, source.StoragePath, time.Hour)
	if e != nil {
		return nil, errprocess.Wrap("export presign source url failed",
			fmt.Errorf("%w: %v", domain.ErrMediaLoad, e))
	}

	key := exportKey(memberID, clip.ID)
	return uc.engine.Export(ctx, memberID, clip, sourceURL, func(p domain.ExportProgress) {
		uc.hub.Publish(key, p)
	})
}

func (uc *exportUseCase) WatchProgress(memberID string, clipID uint) (<-chan domain.ExportProgress, func()) {
	return uc.hub.Subscribe(exportKey(memberID, clipID))
}
