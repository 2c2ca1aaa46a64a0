package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"short_clip_service/internal/clip/domain"
	"short_clip_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ExportEngineConfig 匯出引擎設定，零值會帶入 720x1280/30fps 的預設
type ExportEngineConfig struct {
	CanvasWidth  int
	CanvasHeight int
	FrameRate    int
	MediaTimeout time.Duration
	Profiles     []domain.RecordingProfile
}

// ExportEngine 直式匯出引擎
//
// 每次呼叫 Export 是一個獨立的 job：來源、畫布、編碼器都是新建實例，
// 不跨 job 重用，任何結束路徑（成功/失敗/取消）都會全部釋放。
// 同一會員對同一剪輯同時只允許一個 job，第二個進來直接回 ErrExportBusy，
// 不會讓兩條繪製迴圈疊在同一塊畫布上。
type ExportEngine struct {
	cfg         ExportEngineConfig
	newSource   func(url string, clipDuration float64) MediaSource
	newRecorder func() Recorder
	prober      CapabilityProber

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewExportEngine 建立一個新的 ExportEngine（生產環境用 ffmpeg 實作）
func NewExportEngine(cfg ExportEngineConfig) *ExportEngine {
	return NewExportEngineWith(cfg, NewFFmpegSource, NewFFmpegRecorder, NewEncoderProber())
}

// NewExportEngineWith 注入來源/編碼器工廠，測試時替換成假實作
func NewExportEngineWith(cfg ExportEngineConfig,
	newSource func(url string, clipDuration float64) MediaSource,
	newRecorder func() Recorder,
	prober CapabilityProber,
) *ExportEngine {
	if cfg.CanvasWidth == 0 {
		cfg.CanvasWidth = domain.CanvasWidth
	}
	if cfg.CanvasHeight == 0 {
		cfg.CanvasHeight = domain.CanvasHeight
	}
	if cfg.FrameRate == 0 {
		cfg.FrameRate = 30
	}
	if cfg.MediaTimeout == 0 {
		cfg.MediaTimeout = 15 * time.Second
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultProfiles()
	}

	return &ExportEngine{
		cfg:         cfg,
		newSource:   newSource,
		newRecorder: newRecorder,
		prober:      prober,
		inFlight:    make(map[string]bool),
	}
}

// exportJob 單次匯出的狀態機，狀態嚴格依序推進
type exportJob struct {
	id         string
	state      domain.ExportState
	onProgress func(domain.ExportProgress)

	stopOnce  sync.Once
	stopCh    chan struct{}
	recording atomic.Bool
	stopErr   error // stopOnce 內寫入，stopCh 關閉後讀取
}

func (j *exportJob) setState(s domain.ExportState) {
	j.state = s
	if j.onProgress != nil {
		j.onProgress(domain.ExportProgress{JobID: j.id, State: s})
	}
}

func (j *exportJob) fail(err error) error {
	j.state = domain.ExportFailed
	if j.onProgress != nil {
		j.onProgress(domain.ExportProgress{JobID: j.id, State: domain.ExportFailed, Error: err.Error()})
	}
	return err
}

// stop 一次性停止：計時器到期、外部取消、編碼錯誤
// 與來源播畢四條路徑收斂成同一次停止，避免重複釋放
func (j *exportJob) stop(reason error) {
	j.stopOnce.Do(func() {
		j.stopErr = reason
		j.recording.Store(false)
		close(j.stopCh)
	})
}

func exportKey(memberID string, clipID uint) string {
	return fmt.Sprintf("%s:%d", memberID, clipID)
}

// Export 把一段已確認的剪輯匯出成 9:16 直式影片
// 回傳單一輸出檔（只做本地下載，不回存 MinIO）
func (e *ExportEngine) Export(ctx context.Context, memberID string, clip *domain.VideoClip, sourceURL string,
	onProgress func(domain.ExportProgress)) (*domain.ExportResult, error) {

	key := exportKey(memberID, clip.ID)
	e.mu.Lock()
	if e.inFlight[key] {
		e.mu.Unlock()
		return nil, domain.ErrExportBusy
	}
	e.inFlight[key] = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()
	}()

	job := &exportJob{
		id:         uuid.New().String(),
		state:      domain.ExportIdle,
		onProgress: onProgress,
		stopCh:     make(chan struct{}),
	}

	src := e.newSource(sourceURL, clip.Duration)
	defer src.Close()

	// loading-metadata
	job.setState(domain.ExportLoadingMetadata)
	mctx, mcancel := context.WithTimeout(ctx, e.cfg.MediaTimeout)
	meta, err := src.LoadMetadata(mctx)
	mcancel()
	if err != nil {
		return nil, job.fail(err)
	}

	// seeking
	job.setState(domain.ExportSeeking)
	sctx, scancel := context.WithTimeout(ctx, e.cfg.MediaTimeout)
	err = src.Seek(sctx, clip.StartTime)
	scancel()
	if err != nil {
		return nil, job.fail(err)
	}

	// preparing-capture：能力不足就在任何錄製開始前失敗
	job.setState(domain.ExportPreparingCapture)
	profile, err := e.prober.Negotiate(ctx, e.cfg.Profiles)
	if err != nil {
		return nil, job.fail(err)
	}

	geom := CoverFit(meta.Width, meta.Height, e.cfg.CanvasWidth, e.cfg.CanvasHeight)
	canvas := NewCanvas(e.cfg.CanvasWidth, e.cfg.CanvasHeight)
	rec := e.newRecorder()

	// recording
	if err := rec.Start(ctx, profile, e.cfg.FrameRate, src.AudioInput()); err != nil {
		rec.Stop()
		return nil, job.fail(err)
	}
	if err := src.Play(ctx, geom); err != nil {
		rec.Stop()
		return nil, job.fail(err)
	}

	job.recording.Store(true)
	job.setState(domain.ExportRecording)

	logger.Log.Info("export recording started",
		zap.String("job_id", job.id),
		zap.Uint("clip_id", clip.ID),
		zap.Float64("start", clip.StartTime),
		zap.Float64("duration", clip.Duration),
		zap.String("container", profile.Container),
	)

	// 錄滿剪輯長度（wall-clock）就停
	timer := time.AfterFunc(time.Duration(clip.Duration*float64(time.Second)), func() {
		job.stop(nil)
	})
	defer timer.Stop()

	// 外部取消走同一條停止路徑，輸出作廢
	go func() {
		select {
		case <-ctx.Done():
			job.stop(ctx.Err())
		case <-job.stopCh:
		}
	}()

	// 編碼器執行期錯誤
	go func() {
		select {
		case recErr := <-rec.Err():
			job.stop(fmt.Errorf("%w: %v", domain.ErrEncodeRuntime, recErr))
		case <-job.stopCh:
		}
	}()

	// 繪製迴圈：每格檢查停止旗標，自行終止
	var drawWG sync.WaitGroup
	drawWG.Add(1)
	go func() {
		defer drawWG.Done()
		frame := make([]byte, geom.DrawWidth*geom.DrawHeight*4)
		ticker := time.NewTicker(time.Second / time.Duration(e.cfg.FrameRate))
		defer ticker.Stop()

		for {
			select {
			case <-job.stopCh:
				return
			case <-ticker.C:
				if !job.recording.Load() {
					return
				}
				if err := src.ReadFrame(frame); err != nil {
					if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
						// 來源播畢視為正常完成，與計時器收斂成同一次停止
						job.stop(nil)
					} else {
						job.stop(fmt.Errorf("%w: read frame: %v", domain.ErrEncodeRuntime, err))
					}
					return
				}
				canvas.DrawFrame(frame, geom)
				if err := rec.WriteFrame(canvas.Pix); err != nil {
					job.stop(fmt.Errorf("%w: write frame: %v", domain.ErrEncodeRuntime, err))
					return
				}
			}
		}
	}()

	// 收集編碼輸出，channel 關閉代表 flush 完成
	var out []byte
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for chunk := range rec.Chunks() {
			out = append(out, chunk...)
		}
	}()

	<-job.stopCh

	// stopped：停繪製、停編碼器、釋放所有軌道
	job.setState(domain.ExportStopped)
	drawWG.Wait()
	rec.Stop()
	src.Close()
	<-collectDone

	// flush 期間編碼器才爆錯的情況
	if job.stopErr == nil {
		select {
		case recErr := <-rec.Err():
			job.stopErr = fmt.Errorf("%w: %v", domain.ErrEncodeRuntime, recErr)
		default:
		}
	}

	if job.stopErr != nil {
		// 取消或錯誤：不產出部分檔案
		return nil, job.fail(job.stopErr)
	}

	// finalized：chunk 串成單一檔案
	job.setState(domain.ExportFinalized)
	return &domain.ExportResult{
		FileName:    ExportFileName(clip.Title, profile.Extension),
		ContentType: profile.ContentType,
		Data:        out,
	}, nil
}
