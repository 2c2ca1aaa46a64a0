package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"short_clip_service/internal/clip/domain"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DefaultProfiles 錄製容器/編碼器偏好，由高至低逐一協商
// 影像重新編碼，聲音沿用來源解出的音軌給容器要求的編碼器
func DefaultProfiles() []domain.RecordingProfile {
	return []domain.RecordingProfile{
		{Container: "webm", Extension: ".webm", ContentType: "video/webm", VideoEncoder: "libvpx-vp9", AudioEncoder: "libopus"},
		{Container: "webm", Extension: ".webm", ContentType: "video/webm", VideoEncoder: "libvpx", AudioEncoder: "libopus"},
		{Container: "mp4", Extension: ".mp4", ContentType: "video/mp4", VideoEncoder: "libx264", AudioEncoder: "aac"},
	}
}

// ProbeSource 探測來源影片的時長與解析度
// MinIO presigned URL 可直接給 ffprobe 讀
func ProbeSource(input string) (*domain.SourceMetadata, error) {
	probe, err := ffmpeg.Probe(input)
	if err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}
	return parseProbe(probe)
}

func parseProbe(probe string) (*domain.SourceMetadata, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	streams, ok := data["streams"].([]interface{})
	if !ok || len(streams) == 0 {
		return nil, errors.New("no streams found in video")
	}

	meta := &domain.SourceMetadata{}
	var videoStream map[string]interface{}
	for _, s := range streams {
		stream, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		if stream["codec_type"] == "video" {
			videoStream = stream
			break
		}
	}
	if videoStream == nil {
		return nil, errors.New("no video stream found")
	}

	if w, ok := videoStream["width"].(float64); ok {
		meta.Width = int(w)
	}
	if h, ok := videoStream["height"].(float64); ok {
		meta.Height = int(h)
	}

	// 先試 stream duration，沒有再退回 format duration
	if durationStr, ok := videoStream["duration"].(string); ok {
		if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil {
			meta.Duration = d
		}
	}
	if meta.Duration == 0 {
		if format, ok := data["format"].(map[string]interface{}); ok {
			if durationStr, ok := format["duration"].(string); ok {
				if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil {
					meta.Duration = d
				}
			}
		}
	}

	if meta.Width == 0 || meta.Height == 0 || meta.Duration == 0 {
		return nil, errors.New("could not determine video dimensions or duration")
	}
	return meta, nil
}

// encoderProber 以 ffmpeg -encoders 的輸出做一次性能力協商
type encoderProber struct {
	once     sync.Once
	encoders map[string]bool
	probeErr error
}

// NewEncoderProber create a CapabilityProber backed by the local ffmpeg
func NewEncoderProber() CapabilityProber {
	return &encoderProber{}
}

func (p *encoderProber) load(ctx context.Context) {
	p.once.Do(func() {
		out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").Output()
		if err != nil {
			p.probeErr = errors.Wrap(err, "ffmpeg -encoders")
			return
		}

		p.encoders = parseEncoders(string(out))
	})
}

func parseEncoders(out string) map[string]bool {
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		// 每行格式 " V..... libx264  H.264 ..."，取第二欄
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 {
			encoders[fields[1]] = true
		}
	}
	return encoders
}

// selectProfile 依偏好遞減找出第一組編碼器齊備的 profile
func selectProfile(encoders map[string]bool, profiles []domain.RecordingProfile) (domain.RecordingProfile, error) {
	for _, profile := range profiles {
		if encoders[profile.VideoEncoder] && encoders[profile.AudioEncoder] {
			return profile, nil
		}
	}
	return domain.RecordingProfile{}, fmt.Errorf("%w: no supported container/codec combination", domain.ErrUnsupportedEnvironment)
}

// Negotiate 依偏好遞減找出第一組可用的容器/編碼器
// 協商只做一次，錄製中不重新探測
func (p *encoderProber) Negotiate(ctx context.Context, profiles []domain.RecordingProfile) (domain.RecordingProfile, error) {
	p.load(ctx)
	if p.probeErr != nil {
		return domain.RecordingProfile{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedEnvironment, p.probeErr)
	}

	return selectProfile(p.encoders, profiles)
}

// ffmpegSource MediaSource 的 ffmpeg 實作
// Play 之後由解碼程序以即時速率（-re）吐出縮放好的 RGBA 畫格
type ffmpegSource struct {
	url          string
	clipDuration float64
	seekOffset   float64
	meta         *domain.SourceMetadata

	cmd    *exec.Cmd
	stdout io.ReadCloser

	closeOnce sync.Once
}

// NewFFmpegSource create a MediaSource for one export job
func NewFFmpegSource(url string, clipDuration float64) MediaSource {
	return &ffmpegSource{url: url, clipDuration: clipDuration}
}

func (s *ffmpegSource) LoadMetadata(ctx context.Context) (*domain.SourceMetadata, error) {
	type probeRes struct {
		meta *domain.SourceMetadata
		err  error
	}
	ch := make(chan probeRes, 1)
	go func() {
		meta, err := ProbeSource(s.url)
		ch <- probeRes{meta, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMediaLoad, res.err)
		}
		s.meta = res.meta
		return res.meta, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: metadata wait: %v", domain.ErrMediaLoad, ctx.Err())
	}
}

// Seek 解碼是一次性的：記下起點，Play 時以 -ss 帶入
func (s *ffmpegSource) Seek(ctx context.Context, offset float64) error {
	if s.meta == nil {
		return fmt.Errorf("%w: seek before metadata", domain.ErrMediaLoad)
	}
	if offset < 0 || offset >= s.meta.Duration {
		return fmt.Errorf("%w: seek offset %.2f out of range", domain.ErrMediaLoad, offset)
	}
	s.seekOffset = offset
	return nil
}

func (s *ffmpegSource) Play(ctx context.Context, g DrawGeometry) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-re", // 以即時速率遞送，配合 wall-clock 錄製窗
		"-ss", fmt.Sprintf("%.3f", s.seekOffset),
		"-t", fmt.Sprintf("%.3f", s.clipDuration+1), // 預留一格緩衝，停止仍由計時器決定
		"-i", s.url,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", g.DrawWidth, g.DrawHeight),
		"-an",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "source stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start decoder: %v", domain.ErrMediaLoad, err)
	}

	s.cmd = cmd
	s.stdout = stdout
	return nil
}

func (s *ffmpegSource) ReadFrame(buf []byte) error {
	if s.stdout == nil {
		return errors.New("source not playing")
	}
	_, err := io.ReadFull(s.stdout, buf)
	return err
}

func (s *ffmpegSource) AudioInput() AudioSpec {
	return AudioSpec{
		URL:      s.url,
		Offset:   s.seekOffset,
		Duration: s.clipDuration,
	}
}

// Close 釋放解碼程序，任何結束路徑都會走到
func (s *ffmpegSource) Close() error {
	s.closeOnce.Do(func() {
		if s.stdout != nil {
			s.stdout.Close()
		}
		if s.cmd != nil && s.cmd.Process != nil {
			s.cmd.Process.Kill()
			s.cmd.Wait()
		}
	})
	return nil
}

// ffmpegRecorder Recorder 的 ffmpeg 實作
// stdin 收 RGBA 畫格、來源 URL 供音軌，stdout 以 chunk 形式吐出編碼結果
type ffmpegRecorder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	chunks chan []byte
	errCh  chan error

	stopOnce sync.Once
}

// NewFFmpegRecorder create a Recorder for one export job
func NewFFmpegRecorder() Recorder {
	return &ffmpegRecorder{
		chunks: make(chan []byte, 16),
		errCh:  make(chan error, 1),
	}
}

func (r *ffmpegRecorder) Start(ctx context.Context, profile domain.RecordingProfile, frameRate int, audio AudioSpec) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		// 影像：畫布餵進來的 RGBA 串流
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", domain.CanvasWidth, domain.CanvasHeight),
		"-r", strconv.Itoa(frameRate),
		"-i", "pipe:0",
		// 聲音：直接從來源取剪輯區間，不經過畫布
		"-ss", fmt.Sprintf("%.3f", audio.Offset),
		"-t", fmt.Sprintf("%.3f", audio.Duration),
		"-i", audio.URL,
		"-map", "0:v:0",
		"-map", "1:a:0?",
		"-c:v", profile.VideoEncoder,
		"-c:a", profile.AudioEncoder,
		"-shortest",
	}
	if profile.Container == "mp4" {
		// mp4 要可串流輸出必須用 fragmented 寫法
		args = append(args, "-movflags", "frag_keyframe+empty_moov")
	}
	args = append(args, "-f", profile.Container, "pipe:1")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "recorder stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "recorder stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start encoder: %v", domain.ErrUnsupportedEnvironment, err)
	}

	r.cmd = cmd
	r.stdin = stdin

	// data-available：編碼輸出按塊送出，程序結束後關閉 channel
	go func() {
		defer close(r.chunks)
		for {
			buf := make([]byte, 64*1024)
			n, err := stdout.Read(buf)
			if n > 0 {
				r.chunks <- buf[:n]
			}
			if err != nil {
				break
			}
		}
		if err := cmd.Wait(); err != nil {
			select {
			case r.errCh <- errors.Wrap(err, "encoder exited"):
			default:
			}
		}
	}()

	return nil
}

func (r *ffmpegRecorder) WriteFrame(frame []byte) error {
	_, err := r.stdin.Write(frame)
	return err
}

func (r *ffmpegRecorder) Chunks() <-chan []byte {
	return r.chunks
}

func (r *ffmpegRecorder) Err() <-chan error {
	return r.errCh
}

// Stop 關閉 stdin 讓編碼器 flush；重複呼叫無作用
func (r *ffmpegRecorder) Stop() error {
	r.stopOnce.Do(func() {
		if r.stdin != nil {
			r.stdin.Close()
		}
	})
	return nil
}
