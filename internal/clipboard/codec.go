package clipboard

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// PNGCodec encodes clip image side files as PNG.
type PNGCodec struct{}

// NewPNGCodec returns the PNG side-file codec.
func NewPNGCodec() PNGCodec {
	return PNGCodec{}
}

// EncodeToFile writes raw RGBA pixels to path as PNG, creating parent
// directories as needed. The file is written to a temp name first and
// renamed into place so readers never observe a half-written side file.
func (PNGCodec) EncodeToFile(pixels []byte, width, height int, path string) error {
	img, err := nrgbaImage(pixels, width, height)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create image directory: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode image: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close image file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize image file: %w", err)
	}
	return nil
}

// DecodeFile reads a PNG side file back into raw RGBA pixels.
func (PNGCodec) DecodeFile(path string) ([]byte, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open image file: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	pixels, width, height := rgbaPixels(img)
	return pixels, width, height, nil
}
