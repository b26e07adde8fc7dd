package app

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/soocke/cursorcast-go/domain/capture"
)

// Snapshot captures one canvas through the regular pipeline and writes it to
// path. A .bmp extension selects BMP; anything else is written as PNG.
func Snapshot(b capture.Backend, canvas image.Point, path string, logger *slog.Logger) error {
	runtime.LockOSThread()
	img, err := capture.CaptureImage(b, canvas, logger)
	runtime.UnlockOSThread()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeImage(f, img, path); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	return f.Close()
}

func encodeImage(f *os.File, img image.Image, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		return bmp.Encode(f, img)
	}
	return png.Encode(f, img)
}
