package domain

import "errors"

// ExportState 匯出工作狀態，嚴格依序推進不跳段
type ExportState string

const (
	//ExportIdle job 尚未啟動
	ExportIdle ExportState = "idle"
	//ExportLoadingMetadata 等待來源 metadata
	ExportLoadingMetadata ExportState = "loading-metadata"
	//ExportSeeking 等待 seek 到剪輯起點
	ExportSeeking ExportState = "seeking"
	//ExportPreparingCapture 能力協商（容器/編碼器）
	ExportPreparingCapture ExportState = "preparing-capture"
	//ExportRecording 繪製迴圈與編碼進行中
	ExportRecording ExportState = "recording"
	//ExportStopped 停止已觸發，等待編碼器 flush
	ExportStopped ExportState = "stopped"
	//ExportFinalized 輸出完成（終態）
	ExportFinalized ExportState = "finalized"
	//ExportFailed 失敗並已釋放資源（終態）
	ExportFailed ExportState = "failed"
)

// 錯誤分類：全部在元件邊界被攔截，轉成使用者可見訊息並釋放資源
var (
	// ErrValidation 草稿清單為空或 duration 不合法
	ErrValidation = errors.New("validation error")
	// ErrAuthentication 確認當下沒有有效 session
	ErrAuthentication = errors.New("authentication error")
	// ErrPersistence 批次寫入有任一筆失敗（不回滾成功的部分）
	ErrPersistence = errors.New("persistence error")
	// ErrMediaLoad 來源 metadata 或 seek 未能完成
	ErrMediaLoad = errors.New("media load error")
	// ErrUnsupportedEnvironment 沒有可用的擷取/編碼能力
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
	// ErrEncodeRuntime 錄製途中編碼器回報錯誤
	ErrEncodeRuntime = errors.New("encode runtime error")
	// ErrExportBusy 同一 session 已有匯出進行中
	ErrExportBusy = errors.New("export already in progress")
)

// 固定 9:16 直式畫布
const (
	CanvasWidth  = 720
	CanvasHeight = 1280
)

// RecordingProfile 一組容器/編碼器組合，依偏好遞減排列後逐一試用
type RecordingProfile struct {
	Container    string // e.g. "webm", "mp4"
	Extension    string // 輸出副檔名
	ContentType  string
	VideoEncoder string // ffmpeg encoder 名稱
	AudioEncoder string
}

// SourceMetadata 來源影片經 probe 後的靜態資訊
type SourceMetadata struct {
	Width    int
	Height   int
	Duration float64
}

// ExportResult 匯出成功後的單一輸出檔
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportProgress 推送給前端的狀態轉移事件
type ExportProgress struct {
	JobID string      `json:"job_id"`
	State ExportState `json:"state"`
	Error string      `json:"error,omitempty"`
}
