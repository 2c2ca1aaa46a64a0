package domain

const (
	//ProbeQueueName definition probe queue name
	ProbeQueueName = "probe"
)

// ProbeJob 定義 metadata 探測工作訊息
// 上傳完成後發布，worker 探測時長/解析度並更新狀態
type ProbeJob struct {
	VideoID     uint   `json:"video_id"`
	StoragePath string `json:"storage_path"` // 原始檔在 MinIO 上的 object key
}
