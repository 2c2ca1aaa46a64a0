package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"short_clip_service/internal/member/domain"
	"short_clip_service/internal/member/repository"
	"short_clip_service/pkg/database"
	"short_clip_service/pkg/encrypt"
	"short_clip_service/pkg/logger"
	token "short_clip_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoActiveSession 查無有效 session（token 過期或已登出）
var ErrNoActiveSession = errors.New("no active session")

// MemberUseCase 這裡封裝了對外提供的應用服務
// CurrentMember 即核心所依賴的 session provider：有 session 回傳會員，否則回錯誤
type MemberUseCase interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	CurrentMember(ctx context.Context, token string) (*domain.Member, error)
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	sessionTTL time.Duration
	redisRepo  database.RedisRepository[domain.MemberSession]
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
) MemberUseCase {
	return &memberUseCase{
		memberRepo: memberRepo,
		sessionTTL: sessionTTL,
		redisRepo:  redisRepo,
	}
}

// Register
func (m *memberUseCase) Register(ctx context.Context, email, password string) error {
	// 檢查 email 是否已存在
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email}); err == nil {
		return errors.New("email already exists")
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return err
	}

	user := domain.Member{
		MemberID: uuid.New().String(),
		Email:    email,
		Password: pw,
	}

	logger.Log.Info(fmt.Sprintf("usecase Register : %s", user.Email))

	return m.memberRepo.CreateUser(ctx, &user)
}

// Login
func (m *memberUseCase) Login(ctx context.Context, email, password string) (string, error) {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Error("email can't find!!!")
		return "", errors.New("user not found")
	}

	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Error("password can't match!!!")
		return "", err
	}

	member.Status = domain.MemberStatusOnLine

	t, err := token.GenerateJWTWrapper(member.MemberID, string(token.RoleMember))
	if err != nil {
		return "", err
	}

	now := time.Now()
	session := domain.MemberSession{
		Token:        t,
		MemberID:     member.MemberID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}

	if err := m.redisRepo.Set(ctx, member.MemberID, session, m.sessionTTL); err != nil {
		return "", err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		return "", err
	}

	return t, nil
}

// Logout
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWTWrapper(t)
	if err != nil {
		logger.Log.Error("Logout err :", zap.String("err", err.Error()))
		return err
	}

	m.redisRepo.Del(ctx, tokenInfo.MemberID)

	return m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: tokenInfo.MemberID,
		Status:   domain.MemberStatusOffLine,
	})
}

// CurrentMember 依 token 取回目前登入的會員
// 剪輯確認/匯出前都以此做授權，沒有 session 一律擋下
func (m *memberUseCase) CurrentMember(ctx context.Context, t string) (*domain.Member, error) {
	tokenInfo, err := token.ParseJWTWrapper(t)
	if err != nil {
		return nil, ErrNoActiveSession
	}

	session, err := m.redisRepo.Get(ctx, tokenInfo.MemberID)
	if err != nil {
		return nil, ErrNoActiveSession
	}
	if time.Now().After(session.ExpiredAt) {
		m.redisRepo.Del(ctx, tokenInfo.MemberID)
		return nil, ErrNoActiveSession
	}

	// 活動中就展延 session
	session.LastActivity = time.Now()
	m.redisRepo.Set(ctx, tokenInfo.MemberID, session, m.sessionTTL)

	return m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &tokenInfo.MemberID})
}
