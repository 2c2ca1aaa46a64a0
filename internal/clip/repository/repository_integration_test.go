package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/pkg/database"
	"short_clip_service/pkg/logger"
	testtool "short_clip_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()

	// **啟動 PostgreSQL**
	postgresContainer, postgresHost, postgresPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "postgres:latest",
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}
	fmt.Printf("✅ PostgreSQL running at %s:%s\n", postgresHost, postgresPort)

	dsn := fmt.Sprintf("host=%s user=test password=test dbname=testdb port=%s sslmode=disable", postgresHost, postgresPort)
	testDB, err = database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    5,
		RetryInterval: 2 * time.Second,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}

	// **執行 Migrations**
	if err := NewVideoRepo(testDB).AutoMigrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := NewClipRepo(testDB).AutoMigrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	code := m.Run()

	// **停止測試容器**
	_ = postgresContainer.Terminate(ctx)

	os.Exit(code)
}

// **測試影片 CRUD**
func TestVideoRepoCRUD(t *testing.T) {
	repo := NewVideoRepo(testDB)

	video := &domain.SourceVideo{
		MemberID: "member-1",
		Title:    "長片 A",
		Status:   domain.SourceProcessing,
	}

	t.Run("建立後可查回", func(t *testing.T) {
		assert.NoError(t, repo.Create(video))
		assert.NotZero(t, video.ID)

		got, err := repo.GetByID(video.ID)
		assert.NoError(t, err)
		assert.Equal(t, "長片 A", got.Title)
		assert.Equal(t, domain.SourceProcessing, got.Status)
	})

	t.Run("probe 結果可回寫", func(t *testing.T) {
		video.Duration = 95
		video.Width = 1920
		video.Height = 1080
		video.Status = domain.SourceCompleted
		assert.NoError(t, repo.Update(video))

		got, err := repo.GetByID(video.ID)
		assert.NoError(t, err)
		assert.Equal(t, 95.0, got.Duration)
		assert.Equal(t, domain.SourceCompleted, got.Status)
	})

	t.Run("依會員查詢新在前", func(t *testing.T) {
		second := &domain.SourceVideo{MemberID: "member-1", Title: "長片 B", Status: domain.SourceProcessing}
		assert.NoError(t, repo.Create(second))

		videos, err := repo.FindByMember("member-1")
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(videos), 2)
		assert.Equal(t, "長片 B", videos[0].Title)
	})

	t.Run("刪除後查不到", func(t *testing.T) {
		toDelete := &domain.SourceVideo{MemberID: "member-2", Title: "待刪", Status: domain.SourceProcessing}
		assert.NoError(t, repo.Create(toDelete))
		assert.NoError(t, repo.Delete(toDelete.ID))

		_, err := repo.GetByID(toDelete.ID)
		assert.Error(t, err)
	})
}

// **測試剪輯查詢排序與連帶刪除**
func TestClipRepo(t *testing.T) {
	videoRepo := NewVideoRepo(testDB)
	clipRepo := NewClipRepo(testDB)

	video := &domain.SourceVideo{MemberID: "member-3", Title: "排序用", Status: domain.SourceCompleted, Duration: 95}
	assert.NoError(t, videoRepo.Create(video))

	// 故意亂序寫入
	clips := []domain.VideoClip{
		{SourceVideoID: video.ID, MemberID: "member-3", Title: "Clip 3", StartTime: 60, Duration: 30},
		{SourceVideoID: video.ID, MemberID: "member-3", Title: "Clip 1", StartTime: 0, Duration: 30},
		{SourceVideoID: video.ID, MemberID: "member-3", Title: "Clip 4", StartTime: 90, Duration: 5},
		{SourceVideoID: video.ID, MemberID: "member-3", Title: "Clip 2", StartTime: 30, Duration: 30},
	}
	for i := range clips {
		assert.NoError(t, clipRepo.Create(&clips[i]))
	}

	t.Run("依起點升序回傳", func(t *testing.T) {
		got, err := clipRepo.FindBySource(video.ID)

		assert.NoError(t, err)
		assert.Len(t, got, 4)
		assert.Equal(t, []string{"Clip 1", "Clip 2", "Clip 3", "Clip 4"},
			[]string{got[0].Title, got[1].Title, got[2].Title, got[3].Title})
	})

	t.Run("隨來源連帶刪除", func(t *testing.T) {
		assert.NoError(t, clipRepo.DeleteBySource(video.ID))

		got, err := clipRepo.FindBySource(video.ID)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}
