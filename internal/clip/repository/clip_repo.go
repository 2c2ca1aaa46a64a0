package repository

import (
	"short_clip_service/internal/clip/domain"

	"gorm.io/gorm"
)

// ClipRepo definition get video clip info
type ClipRepo interface {
	AutoMigrate() error
	Create(clip *domain.VideoClip) error
	GetByID(id uint) (*domain.VideoClip, error)
	FindBySource(sourceID uint) ([]domain.VideoClip, error)
	DeleteBySource(sourceID uint) error
}

type clipRepo struct {
	db *gorm.DB
}

// NewClipRepo create ClipRepo
func NewClipRepo(db *gorm.DB) ClipRepo {
	return &clipRepo{db: db}
}

func (r *clipRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.VideoClip{})
}

func (r *clipRepo) Create(clip *domain.VideoClip) error {
	return r.db.Create(clip).Error
}

func (r *clipRepo) GetByID(id uint) (*domain.VideoClip, error) {
	var c domain.VideoClip
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindBySource 取回來源影片底下的剪輯，依起點升序
func (r *clipRepo) FindBySource(sourceID uint) ([]domain.VideoClip, error) {
	var clips []domain.VideoClip
	if err := r.db.Where("source_video_id = ?", sourceID).Order("start_time ASC").Find(&clips).Error; err != nil {
		return nil, err
	}
	return clips, nil
}

// DeleteBySource 隨父影片刪除時連帶刪除剪輯（剪輯不單獨刪除）
func (r *clipRepo) DeleteBySource(sourceID uint) error {
	return r.db.Where("source_video_id = ?", sourceID).Delete(&domain.VideoClip{}).Error
}
