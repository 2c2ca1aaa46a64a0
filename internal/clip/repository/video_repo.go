package repository

import (
	"short_clip_service/internal/clip/domain"

	"gorm.io/gorm"
)

// VideoRepo definition get source video info
type VideoRepo interface {
	AutoMigrate() error
	Create(video *domain.SourceVideo) error
	GetByID(id uint) (*domain.SourceVideo, error)
	Update(video *domain.SourceVideo) error
	FindByMember(memberID string) ([]domain.SourceVideo, error)
	Delete(id uint) error
}

type videoRepo struct {
	db *gorm.DB
}

// NewVideoRepo create VideoRepo
func NewVideoRepo(db *gorm.DB) VideoRepo {
	return &videoRepo{db: db}
}

func (r *videoRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.SourceVideo{})
}

func (r *videoRepo) Create(video *domain.SourceVideo) error {
	return r.db.Create(video).Error
}

// GetByID get SourceVideo by id
func (r *videoRepo) GetByID(id uint) (*domain.SourceVideo, error) {
	var v domain.SourceVideo
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoRepo) Update(video *domain.SourceVideo) error {
	return r.db.Save(video).Error
}

// FindByMember 取回該會員的所有來源影片
func (r *videoRepo) FindByMember(memberID string) ([]domain.SourceVideo, error) {
	var videos []domain.SourceVideo
	if err := r.db.Where("member_id = ?", memberID).Order("id DESC").Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *videoRepo) Delete(id uint) error {
	return r.db.Delete(&domain.SourceVideo{}, id).Error
}
