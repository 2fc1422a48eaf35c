package http

import (
	"bufio"
	"context"
	"errors"
	"iter"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/application/dto"
	"github.com/jhoicas/docgen-api/internal/domain"
)

// DocumentGenerator lo implementa document.GenerateDocumentUseCase.
type DocumentGenerator interface {
	Generate(ctx context.Context, raw []byte) (*document.Result, error)
	GenerateForOrder(ctx context.Context, orderID, docType string) (*document.Result, error)
}

var _ DocumentGenerator = (*document.GenerateDocumentUseCase)(nil)

// DocumentHandlerConfig modo de respuesta del PDF.
type DocumentHandlerConfig struct {
	Streaming bool          // true: el cuerpo se escribe a medida que el encoder produce trozos
	Timeout   time.Duration // 0 = sin límite
}

// DocumentHandler expone el generador de documentos por HTTP.
type DocumentHandler struct {
	uc  DocumentGenerator
	cfg DocumentHandlerConfig
	log zerolog.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc DocumentGenerator, cfg DocumentHandlerConfig, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, cfg: cfg, log: log}
}

// Generate godoc
// @Summary      Generar factura, cotización o nota de entrega en PDF
// @Tags         documents
// @Accept       json
// @Produce      application/pdf
// @Param        body  body  dto.GenerateDocumentRequest  true  "docType (invoice|quotation|delivery), customer, items, shipping, letterhead, payment"
// @Success      200   {file}    binary
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/documents/generate [post]
func (h *DocumentHandler) Generate(c *fiber.Ctx) error {
	ctx, cancel := h.renderContext(c)
	res, err := h.uc.Generate(ctx, c.Body())
	if err != nil {
		cancel()
		return h.writeError(c, err)
	}
	return h.send(c, res, cancel)
}

// GenerateForOrder godoc
// @Summary      PDF de una orden guardada
// @Tags         documents
// @Produce      application/pdf
// @Param        orderId  path   string  true   "ID de la orden"
// @Param        type     query  string  false  "invoice (por defecto), quotation o delivery"
// @Success      200      {file}    binary
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      401      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /api/documents/{orderId} [get]
func (h *DocumentHandler) GenerateForOrder(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "orderId requerido"})
	}
	ctx, cancel := h.renderContext(c)
	res, err := h.uc.GenerateForOrder(ctx, orderID, c.Query("type"))
	if err != nil {
		cancel()
		return h.writeError(c, err)
	}
	return h.send(c, res, cancel)
}

// renderContext el cancel lo llama send cuando el stream termina, no al volver del handler:
// en modo streaming el cuerpo se escribe después.
func (h *DocumentHandler) renderContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.cfg.Timeout > 0 {
		return context.WithTimeout(c.UserContext(), h.cfg.Timeout)
	}
	return context.WithCancel(c.UserContext())
}

func (h *DocumentHandler) send(c *fiber.Ctx, res *document.Result, cancel context.CancelFunc) error {
	log := h.requestLogger(c)
	if len(res.Warnings) > 0 {
		log.Warn().
			Str("doc_type", res.DocType.String()).
			Str("doc_code", res.Code).
			Strs("warnings", res.Warnings).
			Msg("documento: valores coaccionados a 0")
	}

	if !h.cfg.Streaming {
		defer cancel()
		data, err := res.Stream.Bytes()
		if err != nil {
			return h.writeError(c, err)
		}
		setPDFHeaders(c, res.Filename)
		log.Info().Str("doc_type", res.DocType.String()).Str("doc_code", res.Code).Int("bytes", len(data)).Msg("documento generado")
		return c.Send(data)
	}

	// El primer trozo se pide antes de escribir cabeceras: un fallo temprano
	// todavía puede responder 500 con cuerpo JSON.
	next, stop := iter.Pull2(res.Stream.Chunks())
	first, err, ok := next()
	if err != nil {
		stop()
		_ = res.Stream.Close()
		cancel()
		return h.writeError(c, err)
	}

	setPDFHeaders(c, res.Filename)
	c.Status(fiber.StatusOK)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer func() { _ = res.Stream.Close() }()
		defer stop()

		total := 0
		for chunk := first; ok; chunk, err, ok = next() {
			if err != nil {
				// Cabeceras ya enviadas: solo queda cortar el cuerpo.
				log.Error().Err(err).Str("doc_code", res.Code).Int("bytes", total).Msg("documento: stream interrumpido")
				return
			}
			if _, werr := w.Write(chunk); werr != nil {
				log.Warn().Err(werr).Str("doc_code", res.Code).Msg("documento: cliente desconectado")
				return
			}
			if werr := w.Flush(); werr != nil {
				log.Warn().Err(werr).Str("doc_code", res.Code).Msg("documento: cliente desconectado")
				return
			}
			total += len(chunk)
		}
		log.Info().Str("doc_type", res.DocType.String()).Str("doc_code", res.Code).Int("bytes", total).Msg("documento generado")
	})
	return nil
}

func setPDFHeaders(c *fiber.Ctx, filename string) {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
}

// writeError traduce la taxonomía de errores de dominio a HTTP.
// Los mensajes de tipo de documento son los que espera el formulario web.
func (h *DocumentHandler) writeError(c *fiber.Ctx, err error) error {
	var (
		ve *domain.ValidationError
		re *domain.RenderError
		ie *domain.InternalError
	)
	lg := h.requestLogger(c)
	switch {
	case errors.Is(err, domain.ErrDocTypeRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Document type is required."})
	case errors.Is(err, domain.ErrUnknownDocType):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Invalid document type."})
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: ve.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "Order not found"})
	case errors.As(err, &re):
		lg.Warn().Err(err).Str("op", re.Op).Msg("documento: fallo de render")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "RENDER", Message: err.Error()})
	case errors.As(err, &ie):
		lg.Error().Err(err).Str("where", ie.Where).Str("path", c.Path()).Msg("documento: error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	lg.Error().Err(err).Str("path", c.Path()).Msg("documento: error no clasificado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func (h *DocumentHandler) requestLogger(c *fiber.Ctx) zerolog.Logger {
	lc := h.log.With()
	if rid := GetRequestID(c); rid != "" {
		lc = lc.Str("request_id", rid)
	}
	if uid := GetUserID(c); uid != "" {
		lc = lc.Str("user_id", uid)
	}
	return lc.Logger()
}
