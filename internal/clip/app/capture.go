package app

import (
	"context"
	"math"
	"strings"
	"unicode"

	"short_clip_service/internal/clip/domain"
)

// DrawGeometry 單格繪製的縮放尺寸與置中偏移
type DrawGeometry struct {
	DrawWidth  int
	DrawHeight int
	OffsetX    int
	OffsetY    int
}

// CoverFit 計算 cover-fit 置中裁切
// 來源比目標寬：以畫布高為準縮放，左右超出置中裁掉
// 否則以畫布寬為準縮放，上下超出置中裁掉
// 永遠填滿畫布，不留黑邊（多的裁掉，不補 padding）
func CoverFit(sourceWidth, sourceHeight, canvasWidth, canvasHeight int) DrawGeometry {
	sourceRatio := float64(sourceWidth) / float64(sourceHeight)
	targetRatio := float64(canvasWidth) / float64(canvasHeight)

	var g DrawGeometry
	if sourceRatio > targetRatio {
		g.DrawHeight = canvasHeight
		g.DrawWidth = int(math.Round(float64(canvasHeight) * sourceRatio))
		g.OffsetX = -(g.DrawWidth - canvasWidth) / 2
		g.OffsetY = 0
	} else {
		g.DrawWidth = canvasWidth
		g.DrawHeight = int(math.Round(float64(canvasWidth) / sourceRatio))
		g.OffsetX = 0
		g.OffsetY = -(g.DrawHeight - canvasHeight) / 2
	}
	return g
}

// Canvas 固定尺寸 RGBA 畫布，錄製期間重複使用同一塊緩衝
type Canvas struct {
	Width  int
	Height int
	Pix    []byte // RGBA, 4 bytes per pixel
}

// NewCanvas create a canvas
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// FillBlack 整面塗黑（裁切背景）
func (c *Canvas) FillBlack() {
	for i := 0; i < len(c.Pix); i += 4 {
		c.Pix[i] = 0
		c.Pix[i+1] = 0
		c.Pix[i+2] = 0
		c.Pix[i+3] = 0xff
	}
}

// DrawFrame 先塗黑再把 frame 依偏移貼上，超出畫布的部分捨棄
// frame 為 g.DrawWidth x g.DrawHeight 的 RGBA 資料（解碼端已縮放）
func (c *Canvas) DrawFrame(frame []byte, g DrawGeometry) {
	c.FillBlack()

	for row := 0; row < c.Height; row++ {
		srcRow := row - g.OffsetY
		if srcRow < 0 || srcRow >= g.DrawHeight {
			continue
		}

		// 可見的水平範圍（畫布座標）
		dstStart := g.OffsetX
		if dstStart < 0 {
			dstStart = 0
		}
		dstEnd := g.OffsetX + g.DrawWidth
		if dstEnd > c.Width {
			dstEnd = c.Width
		}
		if dstStart >= dstEnd {
			continue
		}

		srcStart := dstStart - g.OffsetX
		srcOff := (srcRow*g.DrawWidth + srcStart) * 4
		dstOff := (row*c.Width + dstStart) * 4
		copy(c.Pix[dstOff:dstOff+(dstEnd-dstStart)*4], frame[srcOff:srcOff+(dstEnd-dstStart)*4])
	}
}

// AudioSpec 音訊直接取自來源，不另行解碼
type AudioSpec struct {
	URL      string
	Offset   float64
	Duration float64
}

// MediaSource 可播放的來源媒體資源，一個匯出 job 獨占一個實例
type MediaSource interface {
	// LoadMetadata 等待來源 metadata（寬高/總長），逾時回 ErrMediaLoad
	LoadMetadata(ctx context.Context) (*domain.SourceMetadata, error)
	// Seek 要求跳至剪輯起點
	Seek(ctx context.Context, offset float64) error
	// Play 開始即時遞送解碼畫面，輸出已縮放為 g.DrawWidth x g.DrawHeight 的 RGBA
	Play(ctx context.Context, g DrawGeometry) error
	// ReadFrame 讀入下一格到 buf，阻塞至有畫面或來源結束
	ReadFrame(buf []byte) error
	// AudioInput 錄製端混入音軌用的來源描述
	AudioInput() AudioSpec
	Close() error
}

// Recorder 串流編碼器：收 RGBA 畫格與來源音軌，邊錄邊吐出編碼 chunk
type Recorder interface {
	Start(ctx context.Context, profile domain.RecordingProfile, frameRate int, audio AudioSpec) error
	WriteFrame(frame []byte) error
	// Chunks 編碼輸出分塊（data-available 事件），編碼器 flush 完會關閉
	Chunks() <-chan []byte
	// Err 編碼器執行期錯誤，最多一筆
	Err() <-chan error
	Stop() error
}

// CapabilityProber 能力協商：依偏好遞減逐一確認容器/編碼器可用
type CapabilityProber interface {
	Negotiate(ctx context.Context, profiles []domain.RecordingProfile) (domain.RecordingProfile, error)
}

// ExportFileName 由剪輯標題導出檔名：空白收斂為底線、轉小寫，
// 去掉不安全字元，加上直式後綴
func ExportFileName(title, extension string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsSpace(r):
			if !lastSep {
				b.WriteRune('_')
				lastSep = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
			lastSep = false
		}
	}

	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "clip"
	}
	return name + "_portrait" + extension
}
