package web

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/omnitool-ai/omnitool-sub002/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Server is the HTTP surface of the component runtime.
type Server struct {
	logger   *slog.Logger
	handlers *APIHandlers
	gatherer prometheus.Gatherer
}

// NewServer creates the server. A nil gatherer disables /metrics.
func NewServer(logger *slog.Logger, handlers *APIHandlers, gatherer prometheus.Gatherer) *Server {
	return &Server{
		logger:   logger,
		handlers: handlers,
		gatherer: gatherer,
	}
}

func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(recoverer.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Omnitool component runtime")
	})

	if s.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(s.gatherer)))
	}

	comp := app.Group("/components")
	comp.Get("/", s.handlers.ListComponents)
	comp.Get("/:key", s.handlers.GetComponent)
	comp.Post("/:key/build", s.handlers.BuildComponent)
	comp.Post("/:key/execute", s.handlers.ExecuteComponent)

	app.Get("/sockets", s.handlers.ListSockets)
	app.Get("/sockets/connect", s.handlers.CanConnect)
	app.Get("/fid/:fid", s.handlers.GetFile)

	app.Get("/health", s.handlers.HealthCheck)

	return app
}

func (s *Server) Start(port int) error {
	s.logger.Info("Starting HTTP server", "port", port)

	return s.App().Listen(":" + strconv.Itoa(port))
}
