package handlers

import (
	"fmt"
	"strconv"
	"time"

	"short_clip_service/internal/clip/app"
	"short_clip_service/pkg/logger"
	"short_clip_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ExportHandler 处理直式匯出的 HTTP/WebSocket 请求
type ExportHandler struct {
	ExportUseCase app.ExportUseCase
}

// NewExportHandler 创建新的 ExportHandler
func NewExportHandler(exportUseCase app.ExportUseCase) *ExportHandler {
	return &ExportHandler{
		ExportUseCase: exportUseCase,
	}
}

// ExportClip godoc
// @Summary Export clip as portrait video
// @Description Re-encode one confirmed clip into a 9:16 portrait file and return it as a download
// @Tags Export
// @Produce octet-stream
// @Param id path int true "Clip ID"
// @Success 200 {file} file "Exported video file"
// @Failure 400 {object} string "Bad Request"
// @Failure 409 {object} string "Export already running"
// @Failure 501 {object} string "No supported encoder"
// @Router /export/clips/{id} [post]
func (h *ExportHandler) ExportClip(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	clipID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid clip id"})
	}

	logger.Log.Info("export requested",
		zap.String("member_id", memberID), zap.Uint64("clip_id", clipID))

	result, err := h.ExportUseCase.ExportClip(c.UserContext(), memberID, uint(clipID))
	if err != nil {
		return fail(c, err)
	}

	// 單一檔案直接給下載，不落地伺服器
	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, result.FileName))
	return c.Send(result.Data)
}

// ExportProgress 匯出進度 WebSocket
// client 先開這條再送出匯出請求，每次狀態轉換都會收到一筆 JSON
func (h *ExportHandler) ExportProgress() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		tokenMember := conn.Locals(middlewares.TokenMemberID)
		memberID, ok := tokenMember.(string)
		if !ok || memberID == "" {
			conn.Close()
			return
		}

		clipID, err := strconv.ParseUint(conn.Params("id"), 10, 64)
		if err != nil {
			conn.Close()
			return
		}

		progressCh, cancel := h.ExportUseCase.WatchProgress(memberID, uint(clipID))
		closed := make(chan struct{})

		defer func() {
			cancel()
			logger.Log.Info("progress websocket close",
				zap.String("member_id", memberID), zap.Uint64("clip_id", clipID))
			conn.Close()
		}()

		//client發出close
		//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
		conn.SetCloseHandler(func(code int, text string) error {
			logger.Log.Infof("progress websocket closed:", conn.RemoteAddr())
			return nil
		})

		// read loop 只為了偵測斷線
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-closed:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					return
				}
			case p, ok := <-progressCh:
				if !ok {
					return
				}
				if err := conn.WriteJSON(p); err != nil {
					logger.Log.Errorf("progress websocket write error:", err)
					return
				}
			}
		}
	})
}
