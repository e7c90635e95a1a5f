// Package media provides image processing utilities for comic pages
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// VisionMaxDimension caps the longest edge of images sent to the vision
// vendor to keep request payloads small.
const VisionMaxDimension = 1024

// ImageProcessor handles page image processing for one pages directory
type ImageProcessor struct {
	maxWidth    int
	webpQuality int
}

// NewImageProcessor creates an ImageProcessor that downscales page images
// to maxWidth for web display and encodes WebP variants at webpQuality.
func NewImageProcessor(maxWidth, webpQuality int) *ImageProcessor {
	return &ImageProcessor{maxWidth: maxWidth, webpQuality: webpQuality}
}

// OptimizeForDisplay downscales an image to the configured display width
// while preserving aspect ratio. Images already narrower pass through.
func (p *ImageProcessor) OptimizeForDisplay(img image.Image) image.Image {
	if img.Bounds().Dx() <= p.maxWidth {
		return img
	}
	return imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
}

// SavePagePNG writes a page image as PNG, creating parent directories.
func (p *ImageProcessor) SavePagePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pages directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create page image %s: %w", path, err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("failed to encode page image %s: %w", path, err)
	}
	return nil
}

// SaveWebPVariant writes a lossy WebP alongside the PNG for the reader UI.
// The variant is best-effort; the PNG remains the source of truth.
func (p *ImageProcessor) SaveWebPVariant(img image.Image, pngPath string) (string, error) {
	webpPath := pngPath[:len(pngPath)-len(filepath.Ext(pngPath))] + ".webp"

	out, err := os.Create(webpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create webp variant: %w", err)
	}
	defer out.Close()

	if err := webp.Encode(out, img, &webp.Options{Quality: float32(p.webpQuality)}); err != nil {
		return "", fmt.Errorf("failed to encode webp variant: %w", err)
	}
	return webpPath, nil
}

// VisionPNGBytes loads a page image, bounds it to VisionMaxDimension, and
// returns raw PNG bytes for SDKs that accept binary image data.
func (p *ImageProcessor) VisionPNGBytes(path string) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page image %s: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > VisionMaxDimension || bounds.Dy() > VisionMaxDimension {
		img = imaging.Fit(img, VisionMaxDimension, VisionMaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for vision: %w", err)
	}
	return buf.Bytes(), nil
}
