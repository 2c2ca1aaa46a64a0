package app

import (
	"context"
	"os"
	"testing"
	"time"

	"short_clip_service/internal/member/domain"
	"short_clip_service/pkg/encrypt"
	"short_clip_service/pkg/logger"
	"short_clip_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()

	// 測試不依賴真實簽章
	token.GenerateJWTFunc = func(memberID, role, issuer string) (string, error) {
		return "test-token-" + memberID, nil
	}
	token.ParseJWTFunc = func(t string) (*token.Claims, error) {
		return &token.Claims{MemberID: "member-1"}, nil
	}

	os.Exit(m.Run())
}

// === 以下為假的 mock repository，用來做 TDD ===
type mockMemberRepo struct {
	mock.Mock
}

func (m *mockMemberRepo) CreateUser(ctx context.Context, user *domain.Member) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *mockMemberRepo) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *mockMemberRepo) UpdateMemberStatus(ctx context.Context, user *domain.Member) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Set(ctx context.Context, key string, ms domain.MemberSession, ttl time.Duration) error {
	args := m.Called(ctx, key, ms, ttl)
	return args.Error(0)
}
func (m *mockSessionRepo) Get(ctx context.Context, key string) (domain.MemberSession, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.MemberSession), args.Error(1)
}
func (m *mockSessionRepo) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *mockSessionRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

// === 測試 Login ===
func TestMemberUseCase_Login(t *testing.T) {
	ctx := context.Background()

	hashed, err := encrypt.HashPassword("Pass1234")
	assert.NoError(t, err)

	member := &domain.Member{ID: 1, MemberID: "member-1", Email: "user@example.com", Password: hashed}

	memberRepo := new(mockMemberRepo)
	sessionRepo := new(mockSessionRepo)
	usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

	memberRepo.On("FindByMember", ctx, mock.Anything).Return(member, nil)
	memberRepo.On("UpdateMemberStatus", ctx, mock.Anything).Return(nil)
	sessionRepo.On("Set", ctx, "member-1", mock.Anything, 30*time.Minute).Return(nil)

	// 測試正確密碼
	tk, err := usecase.Login(ctx, "user@example.com", "Pass1234")
	assert.NoError(t, err)
	assert.NotEmpty(t, tk)

	// 測試錯誤密碼
	_, err = usecase.Login(ctx, "user@example.com", "wrongpass")
	assert.ErrorIs(t, err, encrypt.ErrPasswordMismatch)
}

// === 測試 CurrentMember ===
func TestMemberUseCase_CurrentMember(t *testing.T) {
	ctx := context.Background()

	t.Run("session 有效且展延", func(t *testing.T) {
		memberRepo := new(mockMemberRepo)
		sessionRepo := new(mockSessionRepo)
		usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

		now := time.Now()
		sessionRepo.On("Get", ctx, "member-1").Return(domain.MemberSession{
			Token:        "test-token-member-1",
			MemberID:     "member-1",
			CreatedAt:    now.Add(-time.Minute),
			LastActivity: now.Add(-time.Minute),
			ExpiredAt:    now.Add(29 * time.Minute),
		}, nil)
		sessionRepo.On("Set", ctx, "member-1", mock.Anything, 30*time.Minute).Return(nil)
		memberRepo.On("FindByMember", ctx, mock.Anything).
			Return(&domain.Member{ID: 1, MemberID: "member-1", Email: "user@example.com"}, nil)

		member, err := usecase.CurrentMember(ctx, "test-token-member-1")

		assert.NoError(t, err)
		assert.Equal(t, "member-1", member.MemberID)
		sessionRepo.AssertCalled(t, "Set", ctx, "member-1", mock.Anything, 30*time.Minute)
	})

	t.Run("session 已過期", func(t *testing.T) {
		memberRepo := new(mockMemberRepo)
		sessionRepo := new(mockSessionRepo)
		usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

		now := time.Now()
		sessionRepo.On("Get", ctx, "member-1").Return(domain.MemberSession{
			Token:     "test-token-member-1",
			MemberID:  "member-1",
			CreatedAt: now.Add(-2 * time.Hour),
			ExpiredAt: now.Add(-time.Hour),
		}, nil)
		sessionRepo.On("Del", ctx, "member-1").Return(nil)

		_, err := usecase.CurrentMember(ctx, "test-token-member-1")

		assert.ErrorIs(t, err, ErrNoActiveSession)
		sessionRepo.AssertCalled(t, "Del", ctx, "member-1")
	})

	t.Run("redis 沒有 session", func(t *testing.T) {
		memberRepo := new(mockMemberRepo)
		sessionRepo := new(mockSessionRepo)
		usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

		sessionRepo.On("Get", ctx, "member-1").
			Return(domain.MemberSession{}, assert.AnError)

		_, err := usecase.CurrentMember(ctx, "test-token-member-1")
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})
}

// === 測試 Register ===
func TestMemberUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("email 已存在", func(t *testing.T) {
		memberRepo := new(mockMemberRepo)
		sessionRepo := new(mockSessionRepo)
		usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

		memberRepo.On("FindByMember", ctx, mock.Anything).
			Return(&domain.Member{Email: "user@example.com"}, nil)

		err := usecase.Register(ctx, "user@example.com", "Pass1234")

		assert.Error(t, err)
		assert.Equal(t, "email already exists", err.Error())
		memberRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("弱密碼擋下", func(t *testing.T) {
		memberRepo := new(mockMemberRepo)
		sessionRepo := new(mockSessionRepo)
		usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

		memberRepo.On("FindByMember", ctx, mock.Anything).Return(nil, assert.AnError)

		err := usecase.Register(ctx, "new@example.com", "weak")

		assert.Error(t, err)
		memberRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("註冊成功", func(t *testing.T) {
		memberRepo := new(mockMemberRepo)
		sessionRepo := new(mockSessionRepo)
		usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

		memberRepo.On("FindByMember", ctx, mock.Anything).Return(nil, assert.AnError)
		memberRepo.On("CreateUser", ctx, mock.Anything).Return(nil)

		err := usecase.Register(ctx, "new@example.com", "Pass1234")

		assert.NoError(t, err)
		memberRepo.AssertCalled(t, "CreateUser", ctx, mock.Anything)
	})
}

// === 測試 Logout ===
func TestMemberUseCase_Logout(t *testing.T) {
	ctx := context.Background()

	memberRepo := new(mockMemberRepo)
	sessionRepo := new(mockSessionRepo)
	usecase := NewMemberUseCase(memberRepo, 30*time.Minute, sessionRepo)

	sessionRepo.On("Del", ctx, "member-1").Return(nil)
	memberRepo.On("UpdateMemberStatus", ctx, mock.MatchedBy(func(m *domain.Member) bool {
		return m.MemberID == "member-1" && m.Status == domain.MemberStatusOffLine
	})).Return(nil)

	err := usecase.Logout(ctx, "test-token-member-1")

	assert.NoError(t, err)
	sessionRepo.AssertCalled(t, "Del", ctx, "member-1")
}
