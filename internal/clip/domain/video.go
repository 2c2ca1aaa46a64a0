package domain

import "io"

// SourceStatus definition source video status
type SourceStatus string

const (
	//SourceProcessing metadata probe not yet finished
	SourceProcessing SourceStatus = "processing"
	//SourceCompleted metadata probe succeeded, video is usable
	SourceCompleted SourceStatus = "completed"
	//SourceFailed metadata probe failed
	SourceFailed SourceStatus = "failed"
)

// UploadVideoReq usecase upload video request
type UploadVideoReq struct {
	MemberID string
	Title    string
	FileName string
	File     io.Reader
}

// UploadVideoRes usecase upload video response
type UploadVideoRes struct {
	Message string
	VideoID uint
}

// GetVideoRes usecase get video response
type GetVideoRes struct {
	VideoID  uint
	Title    string
	Duration float64
	Status   string
	PlayURL  string
}

// SourceVideo 定義長片來源模型
// Duration/Width/Height 由 probe worker 寫入，完成後不再變動
type SourceVideo struct {
	ID          uint `gorm:"primaryKey"`
	MemberID    string
	Title       string
	StoragePath string  // 存於 MinIO 上的 object key
	Duration    float64 // 總長度（秒）
	Width       int
	Height      int
	Status      SourceStatus // "processing", "completed", "failed"
}
