package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

// === 以下為假的 mock repository，用來做 TDD ===
type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}
func (m *mockVideoRepo) Create(video *domain.SourceVideo) error {
	args := m.Called(video)
	return args.Error(0)
}
func (m *mockVideoRepo) GetByID(id uint) (*domain.SourceVideo, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceVideo), args.Error(1)
}
func (m *mockVideoRepo) Update(video *domain.SourceVideo) error {
	args := m.Called(video)
	return args.Error(0)
}
func (m *mockVideoRepo) FindByMember(memberID string) ([]domain.SourceVideo, error) {
	args := m.Called(memberID)
	return args.Get(0).([]domain.SourceVideo), args.Error(1)
}
func (m *mockVideoRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

type mockClipRepo struct {
	mock.Mock
}

func (m *mockClipRepo) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}
func (m *mockClipRepo) Create(clip *domain.VideoClip) error {
	args := m.Called(clip)
	return args.Error(0)
}
func (m *mockClipRepo) GetByID(id uint) (*domain.VideoClip, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoClip), args.Error(1)
}
func (m *mockClipRepo) FindBySource(sourceID uint) ([]domain.VideoClip, error) {
	args := m.Called(sourceID)
	return args.Get(0).([]domain.VideoClip), args.Error(1)
}
func (m *mockClipRepo) DeleteBySource(sourceID uint) error {
	args := m.Called(sourceID)
	return args.Error(0)
}

type mockPlanRepo struct {
	mock.Mock
}

func (m *mockPlanRepo) Set(ctx context.Context, key string, value domain.PlanningSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *mockPlanRepo) Get(ctx context.Context, key string) (domain.PlanningSession, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.PlanningSession), args.Error(1)
}
func (m *mockPlanRepo) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *mockPlanRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

var completedVideo = &domain.SourceVideo{
	ID:          7,
	MemberID:    "member-1",
	Title:       "長片",
	StoragePath: "original/7/long.mp4",
	Duration:    95,
	Width:       1920,
	Height:      1080,
	Status:      domain.SourceCompleted,
}

// === 測試 AutoSlice usecase ===
func TestPlannerAutoSlice(t *testing.T) {
	ctx := context.Background()

	t.Run("來源完成才可切片", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(&domain.SourceVideo{
			ID: 7, MemberID: "member-1", Status: domain.SourceProcessing,
		}, nil)

		_, err := usecase.AutoSlice(ctx, "member-1", 7, 30)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("他人影片不可切片", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)

		_, err := usecase.AutoSlice(ctx, "member-2", 7, 30)
		assert.ErrorIs(t, err, domain.ErrAuthentication)
	})

	t.Run("切片結果覆蓋既有草稿並寫回 session", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)
		planRepo.On("Set", ctx, "plan:member-1:7", mock.Anything, 30*time.Minute).Return(nil)

		drafts, err := usecase.AutoSlice(ctx, "member-1", 7, 30)

		assert.NoError(t, err)
		assert.Len(t, drafts, 4)
		planRepo.AssertCalled(t, "Set", ctx, "plan:member-1:7", mock.Anything, 30*time.Minute)
	})
}

// === 測試 Confirm ===
func TestPlannerConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("沒有會員 session 直接擋下", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		_, err := usecase.Confirm(ctx, "", 7)

		assert.ErrorIs(t, err, domain.ErrAuthentication)
		videoRepo.AssertNotCalled(t, "GetByID", mock.Anything)
		clipRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("空草稿不做任何寫入", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)
		planRepo.On("Get", ctx, "plan:member-1:7").Return(domain.PlanningSession{SourceID: 7}, nil)

		_, err := usecase.Confirm(ctx, "member-1", 7)

		assert.ErrorIs(t, err, domain.ErrValidation)
		clipRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("duration 不合法整批擋下", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)
		planRepo.On("Get", ctx, "plan:member-1:7").Return(domain.PlanningSession{
			SourceID: 7,
			Drafts: []domain.ClipSegment{
				{Start: 0, Duration: 30, Title: "Clip 1"},
				{Start: 30, Duration: -1, Title: "Clip 2"},
			},
		}, nil)

		_, err := usecase.Confirm(ctx, "member-1", 7)

		assert.ErrorIs(t, err, domain.ErrValidation)
		clipRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("全部寫入成功後清除草稿", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)
		planRepo.On("Get", ctx, "plan:member-1:7").Return(domain.PlanningSession{
			SourceID: 7,
			Drafts: []domain.ClipSegment{
				{Start: 0, Duration: 30, Title: "Clip 1"},
				{Start: 30, Duration: 30, Title: "Clip 2"},
			},
		}, nil)
		clipRepo.On("Create", mock.Anything).Return(nil)
		planRepo.On("Del", ctx, "plan:member-1:7").Return(nil)
		clipRepo.On("FindBySource", uint(7)).Return([]domain.VideoClip{
			{ID: 1, SourceVideoID: 7, StartTime: 0, Duration: 30},
			{ID: 2, SourceVideoID: 7, StartTime: 30, Duration: 30},
		}, nil)

		clips, err := usecase.Confirm(ctx, "member-1", 7)

		assert.NoError(t, err)
		assert.Len(t, clips, 2)
		clipRepo.AssertNumberOfCalls(t, "Create", 2)
		planRepo.AssertCalled(t, "Del", ctx, "plan:member-1:7")
	})

	t.Run("任一筆寫入失敗整批回報且不回滾", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)
		planRepo.On("Get", ctx, "plan:member-1:7").Return(domain.PlanningSession{
			SourceID: 7,
			Drafts: []domain.ClipSegment{
				{Start: 0, Duration: 30, Title: "Clip 1"},
				{Start: 30, Duration: 30, Title: "Clip 2"},
			},
		}, nil)
		// 其中一筆失敗
		clipRepo.On("Create", mock.MatchedBy(func(c *domain.VideoClip) bool {
			return c.Title == "Clip 2"
		})).Return(errors.New("insert failed"))
		clipRepo.On("Create", mock.Anything).Return(nil)

		_, err := usecase.Confirm(ctx, "member-1", 7)

		assert.ErrorIs(t, err, domain.ErrPersistence)
		// 全部嘗試過、成功的不刪除
		clipRepo.AssertNumberOfCalls(t, "Create", 2)
		clipRepo.AssertNotCalled(t, "Delete", mock.Anything)
		planRepo.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
	})
}

// === 測試 MarkAt usecase ===
func TestPlannerMarkAt(t *testing.T) {
	ctx := context.Background()

	t.Run("標記沿用下一個序號標題", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		planRepo := new(mockPlanRepo)
		usecase := NewPlannerUseCase(videoRepo, clipRepo, planRepo, 30*time.Minute)

		videoRepo.On("GetByID", uint(7)).Return(completedVideo, nil)
		planRepo.On("Get", ctx, "plan:member-1:7").Return(domain.PlanningSession{
			SourceID: 7,
			Drafts:   []domain.ClipSegment{{Start: 0, Duration: 30, Title: "Clip 1"}},
		}, nil)
		planRepo.On("Set", ctx, "plan:member-1:7", mock.Anything, 30*time.Minute).Return(nil)

		drafts, err := usecase.MarkAt(ctx, "member-1", 7, 50, 30)

		assert.NoError(t, err)
		assert.Len(t, drafts, 2)
		assert.Equal(t, "Clip 2", drafts[1].Title)
		assert.Equal(t, 50.0, drafts[1].Start)
		assert.Equal(t, 30.0, drafts[1].Duration)
	})
}
