package app

import (
	"fmt"
	"testing"

	"short_clip_service/internal/clip/domain"

	"github.com/stretchr/testify/assert"
)

// === 測試 AutoSlice ===
func TestAutoSlice(t *testing.T) {
	t.Run("最後一段較短", func(t *testing.T) {
		segments := AutoSlice(95, 30)

		assert.Len(t, segments, 4)
		assert.Equal(t, []float64{0, 30, 60, 90}, starts(segments))
		assert.Equal(t, []float64{30, 30, 30, 5}, durations(segments))
		assert.Equal(t, "Clip 1", segments[0].Title)
		assert.Equal(t, "Clip 4", segments[3].Title)
	})

	t.Run("整除", func(t *testing.T) {
		segments := AutoSlice(60, 30)

		assert.Len(t, segments, 2)
		assert.Equal(t, []float64{30, 30}, durations(segments))
	})

	t.Run("片長超過總長只產生一段", func(t *testing.T) {
		segments := AutoSlice(10, 30)

		assert.Len(t, segments, 1)
		assert.Equal(t, 0.0, segments[0].Start)
		assert.Equal(t, 10.0, segments[0].Duration)
	})

	t.Run("參數不為正回傳空清單", func(t *testing.T) {
		assert.Empty(t, AutoSlice(0, 30))
		assert.Empty(t, AutoSlice(-5, 30))
		assert.Empty(t, AutoSlice(95, 0))
		assert.Empty(t, AutoSlice(95, -1))
	})

	t.Run("片段連續且恰好覆蓋整支來源", func(t *testing.T) {
		segments := AutoSlice(123.7, 17)

		cursor := 0.0
		for i, seg := range segments {
			assert.InDelta(t, cursor, seg.Start, 1e-9, "segment %d start", i)
			assert.Greater(t, seg.Duration, 0.0)
			assert.Equal(t, fmt.Sprintf("Clip %d", i+1), seg.Title)
			cursor += seg.Duration
		}
		assert.InDelta(t, 123.7, cursor, 1e-9)
	})
}

// === 測試 MarkAt ===
func TestMarkAt(t *testing.T) {
	t.Run("片尾標記截到剩餘長度", func(t *testing.T) {
		seg, err := MarkAt(90, 30, 95)

		assert.NoError(t, err)
		assert.Equal(t, 90.0, seg.Start)
		assert.Equal(t, 5.0, seg.Duration)
	})

	t.Run("正常標記", func(t *testing.T) {
		seg, err := MarkAt(10, 30, 95)

		assert.NoError(t, err)
		assert.Equal(t, 30.0, seg.Duration)
	})

	t.Run("位置超出範圍", func(t *testing.T) {
		_, err := MarkAt(95, 30, 95)
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = MarkAt(-1, 30, 95)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("片長不為正", func(t *testing.T) {
		_, err := MarkAt(10, 0, 95)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

// === 測試 RemoveDraft ===
func TestRemoveDraft(t *testing.T) {
	drafts := []domain.ClipSegment{
		{Start: 0, Duration: 30, Title: "Clip 1"},
		{Start: 30, Duration: 30, Title: "Clip 2"},
		{Start: 60, Duration: 30, Title: "Clip 3"},
	}

	t.Run("移除中間一段其餘順序不變", func(t *testing.T) {
		out, err := RemoveDraft(drafts, 1)

		assert.NoError(t, err)
		assert.Len(t, out, 2)
		assert.Equal(t, "Clip 1", out[0].Title)
		assert.Equal(t, "Clip 3", out[1].Title)
	})

	t.Run("index 超出範圍", func(t *testing.T) {
		_, err := RemoveDraft(drafts, 3)
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = RemoveDraft(drafts, -1)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

// === 測試 ValidateDrafts ===
func TestValidateDrafts(t *testing.T) {
	t.Run("空清單", func(t *testing.T) {
		err := ValidateDrafts(nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("duration 不為正", func(t *testing.T) {
		err := ValidateDrafts([]domain.ClipSegment{
			{Start: 0, Duration: 30},
			{Start: 30, Duration: 0},
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("合法清單", func(t *testing.T) {
		err := ValidateDrafts([]domain.ClipSegment{
			{Start: 0, Duration: 30},
			{Start: 30, Duration: 5},
		})
		assert.NoError(t, err)
	})
}

func starts(segments []domain.ClipSegment) []float64 {
	out := make([]float64, 0, len(segments))
	for _, s := range segments {
		out = append(out, s.Start)
	}
	return out
}

func durations(segments []domain.ClipSegment) []float64 {
	out := make([]float64, 0, len(segments))
	for _, s := range segments {
		out = append(out, s.Duration)
	}
	return out
}
