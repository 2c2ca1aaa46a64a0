package domain

// ClipSegment 規劃階段的草稿片段，尚未入庫
// Start/Duration 單位秒；Title 在確認前可隨意修改
type ClipSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Title    string  `json:"title"`
}

// End 回傳片段結束位置
func (s ClipSegment) End() float64 {
	return s.Start + s.Duration
}

// PlanningSession 一個會員對一支來源影片的規劃狀態，存於 Redis
type PlanningSession struct {
	SourceID uint          `json:"source_id"`
	Drafts   []ClipSegment `json:"drafts"`
}

// VideoClip 定義已確認的剪輯模型
// StoragePath 與來源相同（剪輯不複製媒體，只記錄時間範圍）
type VideoClip struct {
	ID            uint `gorm:"primaryKey"`
	SourceVideoID uint `gorm:"index"`
	MemberID      string
	Title         string
	StoragePath   string
	StartTime     float64
	Duration      float64
	ThumbnailPath string
}
