package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/docgen-api/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents   DocumentGenerator
	DocumentCfg DocumentHandlerConfig
	Metrics     *metrics.RenderMetrics // nil = sin métricas HTTP
	Gatherer    prometheus.Gatherer    // nil = sin /metrics
	JWTSecret   string
	JWTIssuer   string
	ServiceName string
	Log         zerolog.Logger
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: LocalRequestID,
	}))
	app.Use(deps.Metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Documentos (identidad opcional: solo se exige token si JWT_SECRET está definido)
	documents := api.Group("/documents", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	documentHandler := NewDocumentHandler(deps.Documents, deps.DocumentCfg, deps.Log.With().Str("component", "http").Logger())
	documents.Post("/generate", documentHandler.Generate)
	documents.Get("/:orderId", documentHandler.GenerateForOrder)
}
