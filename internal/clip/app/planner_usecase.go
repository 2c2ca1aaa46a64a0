package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/internal/clip/repository"
	"short_clip_service/pkg/database"
	errprocess "short_clip_service/pkg/err"
	"short_clip_service/pkg/logger"

	"go.uber.org/zap"
)

// PlannerUseCase 片段規劃服務
// 草稿存於 Redis（以會員+來源為 key），確認後才批次入庫
type PlannerUseCase interface {
	AutoSlice(ctx context.Context, memberID string, sourceID uint, sliceLength float64) ([]domain.ClipSegment, error)
	MarkAt(ctx context.Context, memberID string, sourceID uint, position, sliceLength float64) ([]domain.ClipSegment, error)
	RemoveDraft(ctx context.Context, memberID string, sourceID uint, index int) ([]domain.ClipSegment, error)
	RenameDraft(ctx context.Context, memberID string, sourceID uint, index int, title string) ([]domain.ClipSegment, error)
	Drafts(ctx context.Context, memberID string, sourceID uint) ([]domain.ClipSegment, error)
	Confirm(ctx context.Context, memberID string, sourceID uint) ([]domain.VideoClip, error)
}

type plannerUseCase struct {
	videoRepo repository.VideoRepo
	clipRepo  repository.ClipRepo
	planRepo  database.RedisRepository[domain.PlanningSession]
	planTTL   time.Duration
}

// NewPlannerUseCase 建立一個新的 PlannerUseCase
func NewPlannerUseCase(videoRepo repository.VideoRepo,
	clipRepo repository.ClipRepo,
	planRepo database.RedisRepository[domain.PlanningSession],
	planTTL time.Duration,
) PlannerUseCase {
	return &plannerUseCase{
		videoRepo: videoRepo,
		clipRepo:  clipRepo,
		planRepo:  planRepo,
		planTTL:   planTTL,
	}
}

func planKey(memberID string, sourceID uint) string {
	return fmt.Sprintf("plan:%s:%d", memberID, sourceID)
}

// completedSource 取得已完成 probe 的來源影片，未完成不可規劃
func (p *plannerUseCase) completedSource(memberID string, sourceID uint) (*domain.SourceVideo, error) {
	video, err := p.videoRepo.GetByID(sourceID)
	if err != nil {
		return nil, errprocess.Set(fmt.Sprintf("sourceID[%d] 找不到來源影片: %v", sourceID, err))
	}
	if video.MemberID != memberID {
		return nil, fmt.Errorf("%w: source not owned by member", domain.ErrAuthentication)
	}
	if video.Status != domain.SourceCompleted {
		return nil, fmt.Errorf("%w: source video not ready", domain.ErrValidation)
	}
	return video, nil
}

func (p *plannerUseCase) loadSession(ctx context.Context, memberID string, sourceID uint) domain.PlanningSession {
	session, err := p.planRepo.Get(ctx, planKey(memberID, sourceID))
	if err != nil {
		// 沒有既存 session 就從空清單開始
		return domain.PlanningSession{SourceID: sourceID}
	}
	return session
}

func (p *plannerUseCase) saveSession(ctx context.Context, memberID string, session domain.PlanningSession) error {
	return p.planRepo.Set(ctx, planKey(memberID, session.SourceID), session, p.planTTL)
}

// AutoSlice 以固定長度自動切片，覆蓋既有草稿
func (p *plannerUseCase) AutoSlice(ctx context.Context, memberID string, sourceID uint, sliceLength float64) ([]domain.ClipSegment, error) {
	video, err := p.completedSource(memberID, sourceID)
	if err != nil {
		return nil, err
	}

	drafts := AutoSlice(video.Duration, sliceLength)
	session := domain.PlanningSession{SourceID: sourceID, Drafts: drafts}
	if err := p.saveSession(ctx, memberID, session); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("sourceID[%d] 儲存規劃 session 失敗: %v", sourceID, err))
	}

	return drafts, nil
}

// MarkAt 在目前播放位置追加一段草稿
func (p *plannerUseCase) MarkAt(ctx context.Context, memberID string, sourceID uint, position, sliceLength float64) ([]domain.ClipSegment, error) {
	video, err := p.completedSource(memberID, sourceID)
	if err != nil {
		return nil, err
	}

	seg, err := MarkAt(position, sliceLength, video.Duration)
	if err != nil {
		return nil, err
	}

	session := p.loadSession(ctx, memberID, sourceID)
	seg.Title = fmt.Sprintf("Clip %d", len(session.Drafts)+1)
	session.Drafts = append(session.Drafts, seg)

	if err := p.saveSession(ctx, memberID, session); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("sourceID[%d] 儲存規劃 session 失敗: %v", sourceID, err))
	}
	return session.Drafts, nil
}

// RemoveDraft 刪除一段草稿
func (p *plannerUseCase) RemoveDraft(ctx context.Context, memberID string, sourceID uint, index int) ([]domain.ClipSegment, error) {
	session := p.loadSession(ctx, memberID, sourceID)

	drafts, err := RemoveDraft(session.Drafts, index)
	if err != nil {
		return nil, err
	}
	session.Drafts = drafts

	if err := p.saveSession(ctx, memberID, session); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("sourceID[%d] 儲存規劃 session 失敗: %v", sourceID, err))
	}
	return session.Drafts, nil
}

// RenameDraft 修改草稿標題（確認前都可改）
func (p *plannerUseCase) RenameDraft(ctx context.Context, memberID string, sourceID uint, index int, title string) ([]domain.ClipSegment, error) {
	session := p.loadSession(ctx, memberID, sourceID)
	if index < 0 || index >= len(session.Drafts) {
		return nil, fmt.Errorf("%w: draft index %d out of range", domain.ErrValidation, index)
	}
	if strings.TrimSpace(title) != "" {
		session.Drafts[index].Title = title
	}

	if err := p.saveSession(ctx, memberID, session); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("sourceID[%d] 儲存規劃 session 失敗: %v", sourceID, err))
	}
	return session.Drafts, nil
}

// Drafts 取回目前的草稿清單
func (p *plannerUseCase) Drafts(ctx context.Context, memberID string, sourceID uint) ([]domain.ClipSegment, error) {
	session := p.loadSession(ctx, memberID, sourceID)
	return session.Drafts, nil
}

// Confirm 將全部草稿併發入庫
// 驗證失敗在任何寫入前就擋下；任一筆寫入失敗整批回報失敗，
// 已成功的不做補償回滾。成功後清除草稿並依 start_time 重新查詢
func (p *plannerUseCase) Confirm(ctx context.Context, memberID string, sourceID uint) ([]domain.VideoClip, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: no active session", domain.ErrAuthentication)
	}

	video, err := p.completedSource(memberID, sourceID)
	if err != nil {
		return nil, err
	}

	session := p.loadSession(ctx, memberID, sourceID)
	if err := ValidateDrafts(session.Drafts); err != nil {
		return nil, err
	}

	// 批次寫入：全部併發送出，等全部完成後再統整結果
	var wg sync.WaitGroup
	errs := make([]error, len(session.Drafts))
	for i, draft := range session.Drafts {
		wg.Add(1)
		go func(i int, draft domain.ClipSegment) {
			defer wg.Done()
			clip := domain.VideoClip{
				SourceVideoID: video.ID,
				MemberID:      memberID,
				Title:         draft.Title,
				StoragePath:   video.StoragePath,
				StartTime:     draft.Start,
				Duration:      draft.Duration,
			}
			errs[i] = p.clipRepo.Create(&clip)
		}(i, draft)
	}
	wg.Wait()

	failed := 0
	for i, e := range errs {
		if e != nil {
			failed++
			logger.Log.Error("剪輯寫入失敗",
				zap.Int("draft", i),
				zap.Uint("source_id", sourceID),
				zap.Error(e),
			)
		}
	}
	if failed > 0 {
		return nil, fmt.Errorf("%w: %d of %d inserts failed", domain.ErrPersistence, failed, len(errs))
	}

	if err := p.planRepo.Del(ctx, planKey(memberID, sourceID)); err != nil {
		logger.Log.Warn("清除規劃 session 失敗", zap.Error(err))
	}

	clips, err := p.clipRepo.FindBySource(sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload clips: %v", domain.ErrPersistence, err)
	}
	return clips, nil
}
