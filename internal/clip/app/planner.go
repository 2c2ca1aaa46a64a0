package app

import (
	"fmt"
	"math"

	"short_clip_service/internal/clip/domain"
)

// AutoSlice 從 0 開始以固定長度切片，最後一段可較短
// 產生的片段連續不重疊，恰好覆蓋 [0, totalDuration)
// totalDuration 或 sliceLength 不為正時回傳空清單
func AutoSlice(totalDuration, sliceLength float64) []domain.ClipSegment {
	if totalDuration <= 0 || sliceLength <= 0 {
		return nil
	}

	var segments []domain.ClipSegment
	cursor := 0.0
	for n := 1; cursor < totalDuration; n++ {
		length := math.Min(sliceLength, totalDuration-cursor)
		segments = append(segments, domain.ClipSegment{
			Start:    cursor,
			Duration: length,
			Title:    fmt.Sprintf("Clip %d", n),
		})
		cursor += length
	}

	return segments
}

// MarkAt 以目前播放位置新增一段草稿，長度以剩餘時間為上限
// 不檢查與既有草稿重疊：手動標記允許重疊
func MarkAt(position, sliceLength, totalDuration float64) (domain.ClipSegment, error) {
	if position < 0 || position >= totalDuration {
		return domain.ClipSegment{}, fmt.Errorf("%w: position %.2f out of range [0, %.2f)", domain.ErrValidation, position, totalDuration)
	}
	if sliceLength <= 0 {
		return domain.ClipSegment{}, fmt.Errorf("%w: slice length must be positive", domain.ErrValidation)
	}

	length := math.Min(sliceLength, totalDuration-position)
	return domain.ClipSegment{
		Start:    position,
		Duration: length,
	}, nil
}

// RemoveDraft 移除一段草稿，其餘順序維持不變
func RemoveDraft(drafts []domain.ClipSegment, index int) ([]domain.ClipSegment, error) {
	if index < 0 || index >= len(drafts) {
		return drafts, fmt.Errorf("%w: draft index %d out of range", domain.ErrValidation, index)
	}
	out := make([]domain.ClipSegment, 0, len(drafts)-1)
	out = append(out, drafts[:index]...)
	out = append(out, drafts[index+1:]...)
	return out, nil
}

// ValidateDrafts 確認前的整批驗證：清單不可為空、每段 duration 需為正
func ValidateDrafts(drafts []domain.ClipSegment) error {
	if len(drafts) == 0 {
		return fmt.Errorf("%w: no drafts to confirm", domain.ErrValidation)
	}
	for i, d := range drafts {
		if d.Duration <= 0 {
			return fmt.Errorf("%w: draft %d has non-positive duration", domain.ErrValidation, i)
		}
	}
	return nil
}
