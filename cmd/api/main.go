package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/repository"
	"github.com/jhoicas/docgen-api/internal/infrastructure/clock"
	"github.com/jhoicas/docgen-api/internal/infrastructure/letterhead"
	"github.com/jhoicas/docgen-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/docgen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/docgen-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/docgen-api/internal/interfaces/http"
	"github.com/jhoicas/docgen-api/pkg/config"
	"github.com/jhoicas/docgen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("streaming", cfg.Render.Streaming).
		Msg("iniciando aplicación")

	// Base de datos opcional: solo la usa GET /api/documents/:orderId.
	ctx := context.Background()
	var orderRepo repository.OrderRepository
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		orderRepo = postgres.NewOrderRepository(pool)
	} else {
		log.Warn().Msg("sin DATABASE_URL/DB_HOST: la ruta por orden responderá 500")
	}

	// Assets de solo lectura, cargados una vez.
	fonts := infrapdf.LoadFonts(cfg.Assets.FontsDir, log.Component("pdf"))
	brand := document.Brand{Name: cfg.Brand.Name, Subtitle: cfg.Brand.Subtitle}
	if cfg.Assets.LogoPath != "" {
		logo, err := os.ReadFile(cfg.Assets.LogoPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Assets.LogoPath).Msg("logo no disponible, encabezado solo texto")
		} else {
			brand.Logo = logo
			brand.LogoMIME = http.DetectContentType(logo)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	renderMetrics := metrics.NewRenderMetrics(registry, metrics.Config{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Env,
	})

	encoder := infrapdf.NewEncoder(infrapdf.Options{
		Fonts:       fonts,
		Compression: cfg.Render.Compression,
		ChunkSize:   cfg.Render.ChunkSize,
		Creator:     cfg.App.Name,
	}, log.Component("pdf"))

	var resolverOpts []letterhead.Option
	if cfg.Letterhead.AllowPrivate {
		resolverOpts = append(resolverOpts, letterhead.WithPrivateNetworks())
	}

	generateUC := document.NewGenerateDocumentUseCase(
		clock.SystemClock{},
		document.NewComposer(brand),
		letterhead.NewHTTPResolver(cfg.Letterhead.FetchTimeout, cfg.Letterhead.MaxBytes, log.Component("letterhead"), resolverOpts...),
		encoder,
		orderRepo,
		document.Defaults{Payment: entity.PaymentTerms{
			Till:  cfg.Brand.PayTill,
			Bank:  cfg.Brand.PayBank,
			Terms: cfg.Brand.Terms,
		}},
		renderMetrics,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimit,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Masterpiece Empire Documents API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents: generateUC,
		DocumentCfg: httpRouter.DocumentHandlerConfig{
			Streaming: cfg.Render.Streaming,
			Timeout:   cfg.Render.Timeout,
		},
		Metrics:     renderMetrics,
		Gatherer:    registry,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		ServiceName: cfg.App.Name,
		Log:         log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
