package pdf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/repository"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
)

const (
	robotoFamily  = "roboto"
	robotoRegular = "Roboto-Regular.ttf"
	robotoBold    = "Roboto-Bold.ttf"
)

// FontSet fuentes registradas en maroto. Se carga una vez al arrancar y solo se lee.
type FontSet struct {
	Family string
	Custom []*entity.CustomFont
}

// UTF8 true cuando hay una fuente TrueType cargada; si no, se usa Helvetica (Windows-1252).
func (f FontSet) UTF8() bool { return len(f.Custom) > 0 }

// HelveticaFonts fuente base de PDF, sin archivos.
func HelveticaFonts() FontSet {
	return FontSet{Family: fontfamily.Helvetica}
}

// LoadFonts registra Roboto regular y bold desde dir. Si dir está vacío o falta
// algún archivo se usa Helvetica y se deja constancia en el log.
func LoadFonts(dir string, log zerolog.Logger) FontSet {
	if strings.TrimSpace(dir) == "" {
		log.Info().Msg("pdf: sin directorio de fuentes, usando Helvetica")
		return HelveticaFonts()
	}
	regular := filepath.Join(dir, robotoRegular)
	bold := filepath.Join(dir, robotoBold)
	for _, p := range []string{regular, bold} {
		if _, err := os.Stat(p); err != nil {
			log.Warn().Err(err).Str("font", p).Msg("pdf: fuente no disponible, usando Helvetica")
			return HelveticaFonts()
		}
	}

	fonts, err := repository.New().
		AddUTF8Font(robotoFamily, fontstyle.Normal, regular).
		AddUTF8Font(robotoFamily, fontstyle.Bold, bold).
		Load()
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("pdf: no se pudieron cargar las fuentes, usando Helvetica")
		return HelveticaFonts()
	}
	log.Info().Str("dir", dir).Str("family", robotoFamily).Msg("pdf: fuentes cargadas")
	return FontSet{Family: robotoFamily, Custom: fonts}
}

// sanitize1252 reemplaza por '?' los caracteres que Helvetica no puede representar.
func sanitize1252(s string) string {
	ok := true
	for _, r := range s {
		if _, enc := charmap.Windows1252.EncodeRune(r); !enc {
			ok = false
			break
		}
	}
	if ok {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, enc := charmap.Windows1252.EncodeRune(r); enc {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
