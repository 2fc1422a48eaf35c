// Package letterhead descarga membretes referenciados por URL.
package letterhead

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
)

var _ document.LetterheadResolver = (*HTTPResolver)(nil)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 5 << 20
)

var (
	// ErrTooLarge el membrete supera el tamaño permitido.
	ErrTooLarge = errors.New("membrete demasiado grande")
	// ErrBlockedAddress la URL resuelve a loopback, red privada o link-local.
	ErrBlockedAddress = errors.New("dirección de membrete no permitida")
)

// Option ajusta el resolver.
type Option func(*options)

type options struct {
	allowPrivate bool
}

// WithPrivateNetworks permite descargar desde loopback y redes privadas (desarrollo, tests).
func WithPrivateNetworks() Option {
	return func(o *options) { o.allowPrivate = true }
}

// HTTPResolver resuelve membretes http(s) con un cliente con timeout y límite de tamaño.
type HTTPResolver struct {
	httpClient *http.Client
	maxBytes   int64
	log        zerolog.Logger
}

// NewHTTPResolver construye el resolver. timeout o maxBytes <= 0 usan los valores por defecto.
// Por defecto solo se conecta a direcciones públicas; el chequeo se hace sobre la IP ya
// resuelta, así que también cubre redirecciones y DNS que apunten a la red interna.
func NewHTTPResolver(timeout time.Duration, maxBytes int64, log zerolog.Logger, opts ...Option) *HTTPResolver {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if !o.allowPrivate {
		dialer.Control = publicOnly
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &HTTPResolver{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		maxBytes:   maxBytes,
		log:        log,
	}
}

// Resolve descarga lh.Source y devuelve una copia con Data y MIMEType completos.
// Un membrete ya resuelto (o nil) se devuelve tal cual.
func (r *HTTPResolver) Resolve(ctx context.Context, lh *entity.Letterhead) (*entity.Letterhead, error) {
	if !lh.IsRemote() {
		return lh, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lh.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("letterhead: construir request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("letterhead: descargar %s: %w", lh.Source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("letterhead: %s respondió %d", lh.Source, resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, fmt.Errorf("letterhead: %d bytes: %w", resp.ContentLength, ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("letterhead: leer cuerpo: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("letterhead: más de %d bytes: %w", r.maxBytes, ErrTooLarge)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("letterhead: %s sin contenido", lh.Source)
	}

	mt := http.DetectContentType(data)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil && strings.HasPrefix(parsed, "image/") {
			mt = parsed
		}
	}

	r.log.Debug().
		Str("source", lh.Source).
		Int("bytes", len(data)).
		Str("mime", mt).
		Dur("elapsed", time.Since(start)).
		Msg("letterhead: descargado")

	return &entity.Letterhead{Source: lh.Source, MIMEType: mt, Data: data}, nil
}

// publicOnly rechaza la conexión antes del connect si la IP destino no es pública.
func publicOnly(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := ap.Addr().Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() || ip.IsMulticast() || ip.IsInterfaceLocalMulticast() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}
