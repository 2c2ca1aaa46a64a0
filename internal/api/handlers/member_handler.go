package handlers

import (
	memberapp "short_clip_service/internal/member/app"
	"short_clip_service/pkg/logger"
	"short_clip_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler 处理用户相关的 HTTP 请求
type MemberHandler struct {
	MemberUseCase memberapp.MemberUseCase
}

// NewMemberHandler 创建新的 MemberHandler
func NewMemberHandler(memberUseCase memberapp.MemberUseCase) *MemberHandler {
	return &MemberHandler{
		MemberUseCase: memberUseCase,
	}
}

// Register 注册新用户
// @Summary 注册新用户
// @Description 处理用户注册请求
// @Tags Members
// @Accept json
// @Produce json
// @Param request body object true "注册请求"
// @Success 200 {object} string "注册成功"
// @Failure 400 {object} string "请求错误"
// @Failure 500 {object} string "服务器错误"
// @Router /member/register [post]
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Info("Register request", zap.String("email", req.Email))

	if err := h.MemberUseCase.Register(c.UserContext(), req.Email, req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "register success"})
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录
// @Tags Members
// @Accept json
// @Produce json
// @Param request body object true "用户登录信息"
// @Success 200 {object} string "登录成功"
// @Failure 400 {object} string "请求错误"
// @Failure 401 {object} string "登录失败"
// @Router /member/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("Login", zap.String("Email", req.Email))

	token, err := h.MemberUseCase.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	// token 同時塞進 cookie，之後的請求可以不用帶 query
	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    token,
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{"token": token, "message": "login success"})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销用户会话
// @Tags Members
// @Accept json
// @Produce json
// @Param auth query string false "用户登出信息"
// @Success 200 {object} string "注销成功"
// @Failure 400 {object} string "请求错误"
// @Failure 500 {object} string "服务器错误"
// @Router /member/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	token := c.Query(middlewares.QueryToken)
	if token == "" {
		token = c.Cookies(middlewares.CookieToken)
	}
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing token"})
	}

	if err := h.MemberUseCase.Logout(c.UserContext(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.ClearCookie(middlewares.CookieToken)

	logger.Log.Info("member logout success")
	return c.JSON(fiber.Map{"message": "logout success"})
}

// Me 查找当前登录用户信息
// @Summary 查找当前用户信息
// @Description 根据 session 取得当前登录的用户
// @Tags Members
// @Accept json
// @Produce json
// @Success 200 {object} string "用户信息"
// @Failure 401 {object} string "未登录"
// @Router /member/me [get]
func (h *MemberHandler) Me(c *fiber.Ctx) error {
	token := c.Query(middlewares.QueryToken)
	if token == "" {
		token = c.Cookies(middlewares.CookieToken)
	}

	member, err := h.MemberUseCase.CurrentMember(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "no active session"})
	}

	return c.JSON(fiber.Map{
		"member": fiber.Map{
			"member_id": member.MemberID,
			"email":     member.Email,
			"status":    member.Status,
		},
	})
}
