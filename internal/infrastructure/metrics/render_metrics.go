// Package metrics expone métricas Prometheus del servicio.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/docgen-api/internal/application/document"
)

var _ document.RenderObserver = (*RenderMetrics)(nil)

// Config etiquetas constantes de todas las series.
type Config struct {
	ServiceName string
	Environment string
}

// RenderMetrics métricas de baja cardinalidad del pipeline de documentos y del HTTP.
type RenderMetrics struct {
	renderDuration  *prometheus.HistogramVec
	renderTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewRenderMetrics registra las métricas en registerer (nil = DefaultRegisterer).
func NewRenderMetrics(registerer prometheus.Registerer, cfg Config) *RenderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "docgen"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "docgen_render_duration_seconds",
			Help:        "Duración del pipeline Build → Encode hasta entregar el stream.",
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		},
		[]string{"doc_type"},
	)
	renderTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "docgen_render_total",
			Help:        "Documentos procesados por tipo y resultado.",
			ConstLabels: constLabels,
		},
		[]string{"doc_type", "result"}, // ok | validation_error | render_error | internal_error
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "docgen_http_request_duration_seconds",
			Help:        "Duración de las peticiones HTTP por ruta y status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"route", "status_code"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "docgen_http_in_flight",
			Help:        "Peticiones HTTP en curso.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(renderDuration, renderTotal, requestDuration, inFlight)

	return &RenderMetrics{
		renderDuration:  renderDuration,
		renderTotal:     renderTotal,
		requestDuration: requestDuration,
		inFlight:        inFlight,
	}
}

// ObserveRender implementa document.RenderObserver.
func (m *RenderMetrics) ObserveRender(docType, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.renderTotal.WithLabelValues(docType, result).Inc()
	if result == "ok" {
		m.renderDuration.WithLabelValues(docType).Observe(elapsed.Seconds())
	}
}

// Middleware registra duración e in-flight de cada petición. La ruta es la
// plantilla registrada (/api/documents/:orderId), nunca el path crudo.
func (m *RenderMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		m.inFlight.Inc()
		start := time.Now()
		err := c.Next()
		m.inFlight.Dec()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		m.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		return err
	}
}
