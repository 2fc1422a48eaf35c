package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// raster imagen lista para maroto: PNG o JPEG con sus dimensiones en píxeles.
type raster struct {
	data   []byte
	ext    extension.Type
	width  int
	height int
}

// aspect alto/ancho.
func (r *raster) aspect() float64 {
	return float64(r.height) / float64(r.width)
}

// decodeRaster detecta el formato por contenido (el MIME declarado no se usa).
// PNG y JPEG pasan tal cual; GIF, BMP, WEBP y TIFF se recodifican a PNG.
func decodeRaster(data []byte) (*raster, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("imagen vacía")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("formato de imagen no soportado: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("dimensiones inválidas %dx%d", cfg.Width, cfg.Height)
	}

	out := &raster{data: data, width: cfg.Width, height: cfg.Height}
	switch format {
	case "png":
		out.ext = extension.Png
	case "jpeg":
		out.ext = extension.Jpg
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decodificar %s: %w", format, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("convertir %s a png: %w", format, err)
		}
		out.data = buf.Bytes()
		out.ext = extension.Png
	}
	return out, nil
}
