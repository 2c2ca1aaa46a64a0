package router

import (
	"short_clip_service/internal/api/handlers"
	"short_clip_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterRoutes 注册所有路由
// @title Short Clip Service API
// @version 1.0
// @description API documentation for Short Clip Service
// @host localhost:8080
// @BasePath /
func RegisterRoutes(app *fiber.App,
	memberHandler *handlers.MemberHandler,
	libraryHandler *handlers.LibraryHandler,
	plannerHandler *handlers.PlannerHandler,
	exportHandler *handlers.ExportHandler,
) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", handlers.DebugLogFlag)

	memberRoutes := app.Group("/member")
	memberRoutes.Post("/register", memberHandler.Register)
	memberRoutes.Post("/login", memberHandler.Login)

	memberRoutes.Use(middlewares.JWTMiddleware())
	memberRoutes.Post("/logout", memberHandler.Logout)
	memberRoutes.Get("/me", memberHandler.Me)

	libraryRoutes := app.Group("/library", middlewares.JWTMiddleware())
	libraryRoutes.Post("/upload", libraryHandler.UploadVideo)
	libraryRoutes.Get("/videos", libraryHandler.ListVideos)
	libraryRoutes.Get("/videos/:id", libraryHandler.GetVideo)
	libraryRoutes.Get("/videos/:id/clips", libraryHandler.ListClips)
	libraryRoutes.Delete("/videos/:id", libraryHandler.DeleteVideo)

	plannerRoutes := app.Group("/planner", middlewares.JWTMiddleware())
	plannerRoutes.Post("/:id/auto-slice", plannerHandler.AutoSlice)
	plannerRoutes.Post("/:id/mark", plannerHandler.MarkAt)
	plannerRoutes.Get("/:id/drafts", plannerHandler.Drafts)
	plannerRoutes.Delete("/:id/drafts/:index", plannerHandler.RemoveDraft)
	plannerRoutes.Patch("/:id/drafts/:index", plannerHandler.RenameDraft)
	plannerRoutes.Post("/:id/confirm", plannerHandler.Confirm)

	exportRoutes := app.Group("/export", middlewares.JWTMiddleware())
	exportRoutes.Post("/clips/:id", exportHandler.ExportClip)
	exportRoutes.Get("/clips/:id/progress", exportHandler.ExportProgress())
}
