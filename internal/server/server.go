package server

import (
	"context"
	"log"

	"medscribe-be/internal/bootstrap"
	"medscribe-be/internal/config"
	"medscribe-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	bodyLimitMB := cfg.App.BodyLimitMB
	if bodyLimitMB <= 0 {
		bodyLimitMB = 25
	}
	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimitMB * 1024 * 1024,
		// params and headers outlive the handler in stored cases and turns
		Immutable: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + serverutils.UserIdHeader,
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	auth := serverutils.AuthMiddleware(cfg.Auth.Mode, cfg.Auth.JwtSecret)

	c.HealthController.RegisterRoutes(app)

	c.IngestController.RegisterRoutes(app, auth)
	c.CaseController.RegisterRoutes(app, auth)
	c.ChatController.RegisterRoutes(app, auth)
	c.ConversationController.RegisterRoutes(app, auth)
	c.VectorController.RegisterRoutes(app, auth)
	c.UserController.RegisterRoutes(app, auth)
}
