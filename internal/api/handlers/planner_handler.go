package handlers

import (
	"strconv"

	"short_clip_service/internal/clip/app"
	"short_clip_service/pkg/logger"
	"short_clip_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PlannerHandler 处理片段规划的 HTTP 请求
type PlannerHandler struct {
	PlannerUseCase app.PlannerUseCase
}

// NewPlannerHandler 创建新的 PlannerHandler
func NewPlannerHandler(plannerUseCase app.PlannerUseCase) *PlannerHandler {
	return &PlannerHandler{
		PlannerUseCase: plannerUseCase,
	}
}

func plannerSourceID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// AutoSlice godoc
// @Summary Auto slice source video
// @Description Partition the whole source into fixed length draft segments
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path int true "Video ID"
// @Param request body object true "slice_length in seconds"
// @Success 200 {object} string "Draft list"
// @Failure 400 {object} string "Bad Request"
// @Router /planner/{id}/auto-slice [post]
func (h *PlannerHandler) AutoSlice(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	sourceID, err := plannerSourceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	type request struct {
		SliceLength float64 `json:"slice_length"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	drafts, err := h.PlannerUseCase.AutoSlice(c.UserContext(), memberID, sourceID, req.SliceLength)
	if err != nil {
		return fail(c, err)
	}

	logger.Log.Debug("auto slice",
		zap.Uint("source_id", sourceID), zap.Int("drafts", len(drafts)))
	return c.JSON(fiber.Map{"drafts": drafts})
}

// MarkAt godoc
// @Summary Mark a clip at position
// @Description Append one draft segment starting at the given position
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path int true "Video ID"
// @Param request body object true "position and slice_length in seconds"
// @Success 200 {object} string "Draft list"
// @Failure 400 {object} string "Bad Request"
// @Router /planner/{id}/mark [post]
func (h *PlannerHandler) MarkAt(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	sourceID, err := plannerSourceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	type request struct {
		Position    float64 `json:"position"`
		SliceLength float64 `json:"slice_length"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	drafts, err := h.PlannerUseCase.MarkAt(c.UserContext(), memberID, sourceID, req.Position, req.SliceLength)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"drafts": drafts})
}

// Drafts godoc
// @Summary Get current drafts
// @Description Current draft segments of the planning session
// @Tags Planner
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} string "Draft list"
// @Router /planner/{id}/drafts [get]
func (h *PlannerHandler) Drafts(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	sourceID, err := plannerSourceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	drafts, err := h.PlannerUseCase.Drafts(c.UserContext(), memberID, sourceID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"drafts": drafts})
}

// RemoveDraft godoc
// @Summary Remove a draft
// @Description Remove one draft segment by index
// @Tags Planner
// @Produce json
// @Param id path int true "Video ID"
// @Param index path int true "Draft index"
// @Success 200 {object} string "Draft list"
// @Failure 400 {object} string "Bad Request"
// @Router /planner/{id}/drafts/{index} [delete]
func (h *PlannerHandler) RemoveDraft(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	sourceID, err := plannerSourceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid draft index"})
	}

	drafts, err := h.PlannerUseCase.RemoveDraft(c.UserContext(), memberID, sourceID, index)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"drafts": drafts})
}

// RenameDraft godoc
// @Summary Rename a draft
// @Description Change the title of one draft segment
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path int true "Video ID"
// @Param index path int true "Draft index"
// @Param request body object true "new title"
// @Success 200 {object} string "Draft list"
// @Failure 400 {object} string "Bad Request"
// @Router /planner/{id}/drafts/{index} [patch]
func (h *PlannerHandler) RenameDraft(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	sourceID, err := plannerSourceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid draft index"})
	}

	type request struct {
		Title string `json:"title"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	drafts, err := h.PlannerUseCase.RenameDraft(c.UserContext(), memberID, sourceID, index, req.Title)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"drafts": drafts})
}

// Confirm godoc
// @Summary Confirm drafts
// @Description Persist all draft segments as clips in one batch
// @Tags Planner
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} string "Confirmed clips"
// @Failure 400 {object} string "Bad Request"
// @Failure 500 {object} string "Internal Server Error"
// @Router /planner/{id}/confirm [post]
func (h *PlannerHandler) Confirm(c *fiber.Ctx) error {
	memberID, ok := memberIDFromCtx(c, middlewares.TokenMemberID)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing member"})
	}
	sourceID, err := plannerSourceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid video id"})
	}

	clips, err := h.PlannerUseCase.Confirm(c.UserContext(), memberID, sourceID)
	if err != nil {
		return fail(c, err)
	}

	logger.Log.Info("drafts confirmed",
		zap.Uint("source_id", sourceID), zap.Int("clips", len(clips)))
	return c.JSON(fiber.Map{"clips": clips})
}
