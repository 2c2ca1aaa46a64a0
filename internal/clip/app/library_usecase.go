package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/internal/clip/repository"
	"short_clip_service/pkg/database"
	"short_clip_service/pkg/err"
	"short_clip_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// LibraryUseCase 片庫用例定義 library usecase
type LibraryUseCase interface {
	// UploadVideo 上傳長片來源，metadata 交給 probe worker 非同步補齊
	UploadVideo(ctx context.Context, req domain.UploadVideoReq) (*domain.UploadVideoRes, error)
	// GetVideo 取得單支來源影片與播放連結
	GetVideo(ctx context.Context, memberID string, videoID uint) (*domain.GetVideoRes, error)
	// ListVideos 會員的來源影片列表
	ListVideos(ctx context.Context, memberID string) ([]domain.GetVideoRes, error)
	// ListClips 某支來源底下已確認的剪輯
	ListClips(ctx context.Context, memberID string, videoID uint) ([]domain.VideoClip, error)
	// DeleteSource 刪除來源影片與底下所有剪輯
	DeleteSource(ctx context.Context, memberID string, videoID uint) error
}

type libraryUseCase struct {
	videoRepo  repository.VideoRepo
	clipRepo   repository.ClipRepo
	minioRepo  database.MinIOClientRepo
	rabbitRepo database.RabbitRepo
}

// NewLibraryUseCase 創建片庫用例
func NewLibraryUseCase(videoRepo repository.VideoRepo, clipRepo repository.ClipRepo,
	minioRepo database.MinIOClientRepo, rabbitRepo database.RabbitRepo) LibraryUseCase {
	return &libraryUseCase{
		videoRepo:  videoRepo,
		clipRepo:   clipRepo,
		minioRepo:  minioRepo,
		rabbitRepo: rabbitRepo,
	}
}

func (uc *libraryUseCase) UploadVideo(ctx context.Context, req domain.UploadVideoReq) (*domain.UploadVideoRes, error) {
	if req.MemberID == "" {
		return nil, fmt.Errorf("%w: missing member", domain.ErrAuthentication)
	}
	if req.Title == "" || req.FileName == "" || req.File == nil {
		return nil, fmt.Errorf("%w: title and file are required", domain.ErrValidation)
	}

	// 先落地暫存檔，minio client 走檔案路徑上傳
	tmpFile, e := os.CreateTemp("", "upload-*"+filepath.Ext(req.FileName))
	if e != nil {
		return nil, errprocess.Set(fmt.Sprintf("create temp upload file failed: %v", e))
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, e = io.Copy(tmpFile, req.File); e != nil {
		tmpFile.Close()
		return nil, errprocess.Set(fmt.Sprintf("stage upload file failed: %v", e))
	}
	tmpFile.Close()

	// 先建 processing 記錄拿到 ID，object key 用 ID 當前綴
	video := &domain.SourceVideo{
		MemberID: req.MemberID,
		Title:    req.Title,
		Status:   domain.SourceProcessing,
	}
	if e = uc.videoRepo.Create(video); e != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("create source video failed: %v", e),
			fmt.Errorf("%w: create source video", domain.ErrPersistence))
	}

	objectName := fmt.Sprintf("original/%d/%s", video.ID, filepath.Base(req.FileName))
	if e = uc.minioRepo.UploadFile(ctx, objectName, tmpPath, "video/mp4"); e != nil {
		// 上傳失敗要把記錄標成 failed，不能永遠卡在 processing
		video.Status = domain.SourceFailed
		_ = uc.videoRepo.Update(video)
		return nil, errprocess.Set(fmt.Sprintf("upload source video(%d) to storage failed: %v", video.ID, e))
	}

	video.StoragePath = objectName
	if e = uc.videoRepo.Update(video); e != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("update source video(%d) failed: %v", video.ID, e),
			fmt.Errorf("%w: update source video", domain.ErrPersistence))
	}

	// 推 probe job，worker 補 duration 與解析度
	body, e := json.Marshal(domain.ProbeJob{VideoID: video.ID, StoragePath: objectName})
	if e != nil {
		return nil, errprocess.Set(fmt.Sprintf("marshal probe job for video(%d) failed: %v", video.ID, e))
	}
	if e = uc.rabbitRepo.Publish("", domain.ProbeQueueName, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); e != nil {
		logger.Log.Error("publish probe job failed", zap.Uint("video_id", video.ID), zap.Error(e))
		video.Status = domain.SourceFailed
		_ = uc.videoRepo.Update(video)
		return nil, errprocess.Set(fmt.Sprintf("queue probe job for video(%d) failed", video.ID))
	}

	return &domain.UploadVideoRes{
		Message: "upload accepted, metadata probing in progress",
		VideoID: video.ID,
	}, nil
}

func (uc *libraryUseCase) GetVideo(ctx context.Context, memberID string, videoID uint) (*domain.GetVideoRes, error) {
	video, e := uc.ownedVideo(memberID, videoID)
	if e != nil {
		return nil, e
	}

	res := &domain.GetVideoRes{
		VideoID:  video.ID,
		Title:    video.Title,
		Duration: video.Duration,
		Status:   string(video.Status),
	}
	// 還在 probe 或已失敗就不給播放連結
	if video.Status == domain.SourceCompleted {
		url, e := uc.minioRepo.PresignGetURL(ctx, video.StoragePath, time.Hour)
		if e != nil {
			return nil, errprocess.Set(fmt.Sprintf("presign video(%d) url failed: %v", videoID, e))
		}
		res.PlayURL = url
	}
	return res, nil
}

func (uc *libraryUseCase) ListVideos(ctx context.Context, memberID string) ([]domain.GetVideoRes, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: missing member", domain.ErrAuthentication)
	}
	videos, e := uc.videoRepo.FindByMember(memberID)
	if e != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("list videos for member(%s) failed: %v", memberID, e),
			fmt.Errorf("%w: list videos", domain.ErrPersistence))
	}

	res := make([]domain.GetVideoRes, 0, len(videos))
	for _, v := range videos {
		res = append(res, domain.GetVideoRes{
			VideoID:  v.ID,
			Title:    v.Title,
			Duration: v.Duration,
			Status:   string(v.Status),
		})
	}
	return res, nil
}

func (uc *libraryUseCase) ListClips(ctx context.Context, memberID string, videoID uint) ([]domain.VideoClip, error) {
	if _, e := uc.ownedVideo(memberID, videoID); e != nil {
		return nil, e
	}
	clips, e := uc.clipRepo.FindBySource(videoID)
	if e != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("list clips of video(%d) failed: %v", videoID, e),
			fmt.Errorf("%w: list clips", domain.ErrPersistence))
	}
	return clips, nil
}

func (uc *libraryUseCase) DeleteSource(ctx context.Context, memberID string, videoID uint) error {
	video, e := uc.ownedVideo(memberID, videoID)
	if e != nil {
		return e
	}

	if e = uc.clipRepo.DeleteBySource(videoID); e != nil {
		return errprocess.Wrap(fmt.Sprintf("delete clips of video(%d) failed: %v", videoID, e),
			fmt.Errorf("%w: delete clips", domain.ErrPersistence))
	}
	if e = uc.videoRepo.Delete(videoID); e != nil {
		return errprocess.Wrap(fmt.Sprintf("delete video(%d) failed: %v", videoID, e),
			fmt.Errorf("%w: delete video", domain.ErrPersistence))
	}
	// object 刪失敗只記 log，資料列已移除
	if video.StoragePath != "" {
		if e = uc.minioRepo.RemoveObject(ctx, video.StoragePath); e != nil {
			logger.Log.Warn("remove source object failed",
				zap.String("object", video.StoragePath), zap.Error(e))
		}
	}
	return nil
}

func (uc *libraryUseCase) ownedVideo(memberID string, videoID uint) (*domain.SourceVideo, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: missing member", domain.ErrAuthentication)
	}
	video, e := uc.videoRepo.GetByID(videoID)
	if e != nil {
		return nil, fmt.Errorf("%w: video not found", domain.ErrValidation)
	}
	if video.MemberID != memberID {
		return nil, fmt.Errorf("%w: video does not belong to member", domain.ErrAuthentication)
	}
	return video, nil
}
