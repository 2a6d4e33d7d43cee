package server

import (
	"context"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"
	"adscout/internal/datastore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ClassifierService is the classification entry point the HTTP layer depends
// on.
type ClassifierService interface {
	Classify(ctx context.Context, rawURL, accessToken string) (classifier.Result, error)
}

// Server is the HTTP surface of the service: a health endpoint and the
// classification endpoint.
type Server struct {
	app        *fiber.App
	cfg        config.ServerConfig
	classifier ClassifierService
	sessions   *SessionReader
	audit      *datastore.AuditStore
	logger     zerolog.Logger
}

// NewServer wires the fiber application. audit may be nil to disable the
// audit trail.
func NewServer(
	cfg config.ServerConfig,
	svc ClassifierService,
	sessions *SessionReader,
	audit *datastore.AuditStore,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		cfg:        cfg,
		classifier: svc,
		sessions:   sessions,
		audit:      audit,
		logger:     logger.With().Str("component", "Server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestIDMiddleware)
	s.app.Use(s.requestLogMiddleware)

	s.app.Get("/health", s.handleHealth)
	s.app.Post("/api/classify", s.handleClassify)

	return s
}

// Listen blocks serving requests until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info().Str("address", s.cfg.ListenAddress).Msg("HTTP server listening")
	return s.app.Listen(s.cfg.ListenAddress)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestIDMiddleware(c *fiber.Ctx) error {
	requestID := c.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Locals("request_id", requestID)
	c.Set("X-Request-ID", requestID)
	return c.Next()
}

func (s *Server) requestLogMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Info().
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("Request handled")
	return err
}

// errorHandler is the last line of defense: any unhandled error becomes the
// conservative website default so the dashboard flow never breaks on a
// server fault.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	s.logger.Error().
		Err(err).
		Str("request_id", requestID(c)).
		Str("path", c.Path()).
		Msg("Unhandled server error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success":               false,
		"error":                 "Internal server error",
		"type":                  classifier.TypeWebsite,
		"suggestedCampaignType": classifier.CampaignSearch,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("request_id").(string); ok {
		return id
	}
	return ""
}
