package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/repository"
)

// Result documento listo para enviar. Stream pertenece al caller: debe consumirlo o cerrarlo.
type Result struct {
	DocType  entity.DocType
	Code     string
	Filename string
	Warnings []string
	Stream   Stream
}

// GenerateDocumentUseCase ejecuta el pipeline Build → Annotate → Compose → Encode.
// No guarda estado entre requests; solo lee la configuración inyectada.
type GenerateDocumentUseCase struct {
	clock     Clock
	composer  *Composer
	resolver  LetterheadResolver
	encoder   Encoder
	orderRepo repository.OrderRepository
	defaults  Defaults
	observer  RenderObserver
}

// NewGenerateDocumentUseCase construye el caso de uso inyectando sus dependencias.
// orderRepo y observer pueden ser nil.
func NewGenerateDocumentUseCase(
	clock Clock,
	composer *Composer,
	resolver LetterheadResolver,
	encoder Encoder,
	orderRepo repository.OrderRepository,
	defaults Defaults,
	observer RenderObserver,
) *GenerateDocumentUseCase {
	if observer == nil {
		observer = nopObserver{}
	}
	return &GenerateDocumentUseCase{
		clock:     clock,
		composer:  composer,
		resolver:  resolver,
		encoder:   encoder,
		orderRepo: orderRepo,
		defaults:  defaults,
		observer:  observer,
	}
}

// Generate genera el PDF a partir del cuerpo JSON del formulario.
//
// Retorna:
//   - *domain.ValidationError  tipo faltante/desconocido, JSON inválido o montos negativos.
//   - *domain.RenderError      membrete ilegible o fallo del encoder.
//   - *domain.InternalError    invariante violada (defecto).
func (uc *GenerateDocumentUseCase) Generate(ctx context.Context, raw []byte) (*Result, error) {
	doc, err := Build(raw, uc.defaults)
	if err != nil {
		uc.observer.ObserveRender("unknown", outcome(err), 0)
		return nil, err
	}
	res, err := uc.render(ctx, doc)
	if err != nil {
		return nil, err
	}
	res.Filename = doc.Type.String() + ".pdf"
	return res, nil
}

// GenerateForOrder genera el documento de una orden guardada. docType vacío = invoice.
//
// Retorna domain.ErrNotFound si la orden no existe.
func (uc *GenerateDocumentUseCase) GenerateForOrder(ctx context.Context, orderID, docType string) (*Result, error) {
	if uc.orderRepo == nil {
		return nil, &domain.InternalError{Where: "document.GenerateForOrder", Detail: "repositorio de órdenes no configurado"}
	}
	if strings.TrimSpace(docType) == "" {
		docType = entity.DocTypeInvoice.String()
	}
	t, ok := entity.ParseDocType(docType)
	if !ok {
		return nil, &domain.ValidationError{Field: "type", Reason: "unknown document type", Err: domain.ErrUnknownDocType}
	}

	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("documento: obtener orden: %w", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	res, err := uc.render(ctx, FromOrder(order, t, uc.defaults))
	if err != nil {
		return nil, err
	}
	res.Filename = fmt.Sprintf("%s_%s.pdf", t.String(), order.ID)
	return res, nil
}

func (uc *GenerateDocumentUseCase) render(ctx context.Context, doc *entity.Document) (res *Result, err error) {
	start := uc.clock.Now()
	defer func() {
		uc.observer.ObserveRender(doc.Type.String(), outcome(err), uc.clock.Now().Sub(start))
	}()

	// ── 1. Campos derivados (código con el instante del render, calculado una vez) ──
	annotated, err := Annotate(doc, start)
	if err != nil {
		return nil, err
	}

	// ── 2. Membrete remoto: único punto de espera antes del encoder ──────────────
	if annotated.Letterhead.IsRemote() {
		lh, err := uc.resolver.Resolve(ctx, annotated.Letterhead)
		if err != nil {
			return nil, asRenderError("letterhead", err)
		}
		annotated.Letterhead = lh
	}

	// ── 3. Maquetación ───────────────────────────────────────────────────────────
	tree, err := uc.composer.Compose(annotated)
	if err != nil {
		return nil, err
	}

	// ── 4. PDF ───────────────────────────────────────────────────────────────────
	stream, err := uc.encoder.Encode(ctx, tree)
	if err != nil {
		return nil, asRenderError("encode", err)
	}

	return &Result{
		DocType:  annotated.Type,
		Code:     annotated.Code,
		Warnings: annotated.Warnings,
		Stream:   stream,
	}, nil
}

// asRenderError conserva los errores ya tipados y envuelve el resto como RenderError.
func asRenderError(op string, err error) error {
	var (
		re *domain.RenderError
		ie *domain.InternalError
		ve *domain.ValidationError
	)
	if errors.As(err, &re) || errors.As(err, &ie) || errors.As(err, &ve) {
		return err
	}
	return &domain.RenderError{Op: op, Err: err}
}

// outcome etiqueta de métrica para el resultado del render.
func outcome(err error) string {
	var (
		re *domain.RenderError
		ie *domain.InternalError
	)
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidation(err):
		return "validation_error"
	case errors.As(err, &re):
		return "render_error"
	case errors.As(err, &ie):
		return "internal_error"
	}
	return "error"
}
