package handlers

import (
	"net/http"
	"strconv"

	"short_clip_service/internal/clip/app"
	"short_clip_service/internal/clip/domain"
	"short_clip_service/pkg/logger"
	"short_clip_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LibraryHandler 处理长片片库的 HTTP 请求
type LibraryHandler struct {
	LibraryUseCase app.LibraryUseCase
}

// NewLibraryHandler 创建新的 LibraryHandler
func NewLibraryHandler(libraryUseCase app.LibraryUseCase) *LibraryHandler {
	return &LibraryHandler{
		LibraryUseCase: libraryUseCase,
	}
}

// UploadVideo godoc
// @Summary Upload source video
// @Description Uploads a long-form source video for clip planning
// @Tags Library
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Video Title"
// @Param file formData file true "Video File"
// @Success 200 {object} string "Upload accepted"
// @Failure 400 {object} string "Bad Request"
// @Failure 500 {object} string "Internal Server Error"
// @Router /library/upload [post]
func (h *LibraryHandler) UploadVideo(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}

	// 1. 解析表單資料
	title := c.FormValue("title")

	// 取得上傳的檔案
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Missing file"})
	}

	// 開啟檔案
	file, err := fileHeader.Open()
	if err != nil {
		logger.Log.Errorf("Open file failed", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open file"})
	}
	defer file.Close()

	res, err := h.LibraryUseCase.UploadVideo(c.UserContext(), domain.UploadVideoReq{
		MemberID: memberID,
		Title:    title,
		FileName: fileHeader.Filename,
		File:     file,
	})
	if err != nil {
		return fail(c, err)
	}

	logger.Log.Info("upload accepted",
		zap.String("member_id", memberID), zap.Uint("video_id", res.VideoID))
	return c.JSON(fiber.Map{"message": res.Message, "video_id": res.VideoID})
}

// ListVideos godoc
// @Summary List source videos
// @Description List all source videos of the current member
// @Tags Library
// @Produce json
// @Success 200 {object} string "Video list"
// @Failure 401 {object} string "Unauthorized"
// @Router /library/videos [get]
func (h *LibraryHandler) ListVideos(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}

	videos, err := h.LibraryUseCase.ListVideos(c.UserContext(), memberID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"videos": videos})
}

// GetVideo godoc
// @Summary Get source video
// @Description Get one source video with a playable URL
// @Tags Library
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} string "Video detail"
// @Failure 400 {object} string "Bad Request"
// @Router /library/videos/{id} [get]
func (h *LibraryHandler) GetVideo(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	videoID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	video, err := h.LibraryUseCase.GetVideo(c.UserContext(), memberID, uint(videoID))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"video": video})
}

// ListClips godoc
// @Summary List confirmed clips
// @Description List confirmed clips of a source video, ordered by start time
// @Tags Library
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} string "Clip list"
// @Failure 400 {object} string "Bad Request"
// @Router /library/videos/{id}/clips [get]
func (h *LibraryHandler) ListClips(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	videoID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	clips, err := h.LibraryUseCase.ListClips(c.UserContext(), memberID, uint(videoID))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"clips": clips})
}

// DeleteVideo godoc
// @Summary Delete source video
// @Description Delete a source video together with all of its clips
// @Tags Library
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} string "Deleted"
// @Failure 400 {object} string "Bad Request"
// @Router /library/videos/{id} [delete]
func (h *LibraryHandler) DeleteVideo(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	videoID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	if err := h.LibraryUseCase.DeleteSource(c.UserContext(), memberID, uint(videoID)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "delete success"})
}
