package api

import (
	"holding-rag/docs"
	"holding-rag/internal/api/handlers"
	"holding-rag/pkg/auth"
	"holding-rag/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	queryHandler *handlers.QueryHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			// Unanticipated failures get a generic message only.
			appLogger.Error("Unhandled request error", zap.Error(err))
			return c.Status(code).JSON(fiber.Map{
				"error": "خطای داخلی سرور. لطفاً دوباره تلاش کنید",
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Swagger - importing the docs package registers the documentation via init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes (public)
	app.Post("/token", authHandler.Login)
	app.Post("/token/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("", middleware.AuthMiddleware(jwtManager, appLogger))
	protected.Post("/query", queryHandler.Query)
	protected.Get("/me", authHandler.Me)

	return app
}
