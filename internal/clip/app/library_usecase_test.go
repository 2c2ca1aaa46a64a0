package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"short_clip_service/internal/clip/domain"

	"github.com/minio/minio-go/v7"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMinioRepo struct {
	mock.Mock
}

func (m *mockMinioRepo) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	args := m.Called(ctx, objectName, filePath, contentType)
	return args.Error(0)
}
func (m *mockMinioRepo) DownloadFile(ctx context.Context, objectName, destPath string) error {
	args := m.Called(ctx, objectName, destPath)
	return args.Error(0)
}
func (m *mockMinioRepo) GetObject(ctx context.Context, objectName string, opts minio.GetObjectOptions) (io.Reader, error) {
	args := m.Called(ctx, objectName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.Reader), args.Error(1)
}
func (m *mockMinioRepo) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}
func (m *mockMinioRepo) RemoveObject(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

type mockRabbitRepo struct {
	mock.Mock
}

func (m *mockRabbitRepo) GetRabbit() *amqp.Channel {
	return nil
}
func (m *mockRabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func uploadReq() domain.UploadVideoReq {
	return domain.UploadVideoReq{
		MemberID: "member-1",
		Title:    "長片",
		FileName: "long.mp4",
		File:     strings.NewReader("fake-video-bytes"),
	}
}

func TestLibraryUploadVideo(t *testing.T) {
	ctx := context.Background()

	t.Run("成功建立記錄並推 probe job", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		minioRepo := new(mockMinioRepo)
		rabbitRepo := new(mockRabbitRepo)

		videoRepo.On("Create", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(0).(*domain.SourceVideo).ID = 9
		}).Return(nil)
		minioRepo.On("UploadFile", mock.Anything, "original/9/long.mp4", mock.Anything, "video/mp4").Return(nil)
		videoRepo.On("Update", mock.Anything).Return(nil)
		rabbitRepo.On("Publish", "", domain.ProbeQueueName, false, false, mock.Anything).Return(nil)

		uc := NewLibraryUseCase(videoRepo, clipRepo, minioRepo, rabbitRepo)
		res, err := uc.UploadVideo(ctx, uploadReq())

		assert.NoError(t, err)
		assert.Equal(t, uint(9), res.VideoID)
		rabbitRepo.AssertExpectations(t)
	})

	t.Run("上傳失敗記錄標成 failed", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		minioRepo := new(mockMinioRepo)
		rabbitRepo := new(mockRabbitRepo)

		videoRepo.On("Create", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(0).(*domain.SourceVideo).ID = 9
		}).Return(nil)
		minioRepo.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("storage unreachable"))
		videoRepo.On("Update", mock.MatchedBy(func(v *domain.SourceVideo) bool {
			return v.ID == 9 && v.Status == domain.SourceFailed
		})).Return(nil)

		uc := NewLibraryUseCase(videoRepo, clipRepo, minioRepo, rabbitRepo)
		res, err := uc.UploadVideo(ctx, uploadReq())

		assert.Error(t, err)
		assert.Nil(t, res)
		// 不能永遠卡在 processing
		videoRepo.AssertExpectations(t)
		rabbitRepo.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("推 job 失敗同樣標成 failed", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		clipRepo := new(mockClipRepo)
		minioRepo := new(mockMinioRepo)
		rabbitRepo := new(mockRabbitRepo)

		videoRepo.On("Create", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(0).(*domain.SourceVideo).ID = 9
		}).Return(nil)
		minioRepo.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		videoRepo.On("Update", mock.MatchedBy(func(v *domain.SourceVideo) bool {
			return v.Status != domain.SourceFailed
		})).Return(nil)
		rabbitRepo.On("Publish", "", domain.ProbeQueueName, false, false, mock.Anything).
			Return(errors.New("broker down"))
		videoRepo.On("Update", mock.MatchedBy(func(v *domain.SourceVideo) bool {
			return v.Status == domain.SourceFailed
		})).Return(nil)

		uc := NewLibraryUseCase(videoRepo, clipRepo, minioRepo, rabbitRepo)
		res, err := uc.UploadVideo(ctx, uploadReq())

		assert.Error(t, err)
		assert.Nil(t, res)
		videoRepo.AssertNumberOfCalls(t, "Update", 2)
		videoRepo.AssertExpectations(t)
	})
}
