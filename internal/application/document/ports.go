package document

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/layout"
)

// Clock fuente de tiempo; los tests la congelan para obtener códigos estables.
type Clock interface {
	Now() time.Time
}

// LetterheadResolver descarga un membrete referenciado por URL. Es el único paso
// del pipeline con I/O antes del encoder.
type LetterheadResolver interface {
	Resolve(ctx context.Context, lh *entity.Letterhead) (*entity.Letterhead, error)
}

// Stream secuencia finita y no reiniciable de bytes del PDF.
// Se consume una sola vez: por trozos (Chunks) o completa (Bytes).
type Stream interface {
	Chunks() iter.Seq2[[]byte, error]
	Bytes() ([]byte, error)
	Close() error
}

// Encoder convierte el árbol de maquetación en un PDF.
type Encoder interface {
	Encode(ctx context.Context, tree *layout.Document) (Stream, error)
}

// RenderObserver recibe el resultado de cada render (métricas).
type RenderObserver interface {
	ObserveRender(docType, result string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRender(string, string, time.Duration) {}
