package pdf

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync/atomic"

	"github.com/jhoicas/docgen-api/internal/domain"
)

// DefaultChunkSize tamaño de cada trozo entregado por Chunks.
const DefaultChunkSize = 32 << 10

var (
	// ErrStreamConsumed el stream ya fue leído; no es reiniciable.
	ErrStreamConsumed = errors.New("pdf: stream ya consumido")
	// ErrStreamClosed el consumidor cerró el stream antes de terminar.
	ErrStreamClosed = errors.New("pdf: stream cerrado")
)

// Stream secuencia finita de bytes del PDF alimentada por la goroutine de render
// a través de un io.Pipe. Se consume una sola vez.
type Stream struct {
	ctx      context.Context
	pr       *io.PipeReader
	chunk    int
	consumed atomic.Bool
	closed   atomic.Bool
	stop     func() bool // desregistra el AfterFunc del contexto
}

func newStream(ctx context.Context, pr *io.PipeReader, chunk int, stop func() bool) *Stream {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Stream{ctx: ctx, pr: pr, chunk: chunk, stop: stop}
}

// read lee del pipe; un contexto terminado corta la lectura aunque el productor ya haya escrito.
func (s *Stream) read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	return s.pr.Read(p)
}

// Chunks entrega el PDF en trozos. Un error termina la secuencia; los trozos ya
// entregados quedan incompletos y el consumidor debe descartarlos.
func (s *Stream) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(nil, ErrStreamConsumed)
			return
		}
		defer s.Close()

		buf := make([]byte, s.chunk)
		for {
			n, err := io.ReadFull(readerFunc(s.read), buf)
			if n > 0 {
				out := make([]byte, n)
				copy(out, buf[:n])
				if !yield(out, nil) {
					return
				}
			}
			switch {
			case err == nil:
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return
			default:
				yield(nil, asRenderError("stream", err))
				return
			}
		}
	}
}

// Bytes drena el stream completo. Ante cualquier error retorna nil: nunca bytes parciales.
func (s *Stream) Bytes() ([]byte, error) {
	if !s.consumed.CompareAndSwap(false, true) {
		return nil, ErrStreamConsumed
	}
	defer s.Close()

	data, err := io.ReadAll(readerFunc(s.read))
	if err != nil {
		return nil, asRenderError("stream", err)
	}
	return data, nil
}

// WriteTo copia el stream a w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	if !s.consumed.CompareAndSwap(false, true) {
		return 0, ErrStreamConsumed
	}
	defer s.Close()

	n, err := io.Copy(w, readerFunc(s.read))
	if err != nil {
		return n, asRenderError("stream", err)
	}
	return n, nil
}

// Close libera la goroutine productora. Es idempotente.
func (s *Stream) Close() error {
	s.closed.Store(true)
	if s.stop != nil {
		s.stop()
	}
	return s.pr.CloseWithError(ErrStreamClosed)
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func asRenderError(op string, err error) error {
	var re *domain.RenderError
	if errors.As(err, &re) {
		return err
	}
	return &domain.RenderError{Op: op, Err: err}
}

// cancelOnDone cierra el extremo de escritura con el error del contexto cuando este termina.
func cancelOnDone(ctx context.Context, pw *io.PipeWriter) func() bool {
	return context.AfterFunc(ctx, func() {
		_ = pw.CloseWithError(ctx.Err())
	})
}
