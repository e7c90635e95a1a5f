// Package pdf provides PDF page extraction for uploaded comics.
// It rasterizes each page to a PNG under the transient pages directory
// and produces WebP variants for the reader UI.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/media"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// Extractor converts an uploaded PDF into one image per page
type Extractor struct {
	pagesDir  string
	processor *media.ImageProcessor
	logger    *logging.ChanneledLogger
}

// NewExtractor creates a page extractor writing under pagesDir
func NewExtractor(pagesDir string, processor *media.ImageProcessor, logger *logging.ChanneledLogger) *Extractor {
	return &Extractor{
		pagesDir:  pagesDir,
		processor: processor,
		logger:    logger,
	}
}

// ValidateUpload rejects non-PDF or oversized files before any work is done.
func ValidateUpload(filename string, size, maxBytes int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return errs.NewValidation("only PDF files are allowed")
	}
	if size <= 0 {
		return errs.NewValidation("empty file")
	}
	if size > maxBytes {
		return errs.NewValidation("file too large: %d bytes exceeds %d byte limit", size, maxBytes)
	}
	return nil
}

// ExtractPages rasterizes every page of the PDF at pdfPath into PNGs under
// a per-comic subdirectory of the pages dir, and returns the image paths
// in page order.
func (e *Extractor) ExtractPages(ctx context.Context, pdfPath string) ([]string, error) {
	start := time.Now()

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", pdfPath, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, errs.NewValidation("PDF has no pages")
	}

	comicName := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	outputDir := filepath.Join(e.pagesDir, comicName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pages directory: %w", err)
	}

	paths := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.Image(pageNum)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", pageNum+1, err)
		}

		optimized := e.processor.OptimizeForDisplay(img)

		pagePath := filepath.Join(outputDir, fmt.Sprintf("page_%03d.png", pageNum+1))
		if err := e.processor.SavePagePNG(optimized, pagePath); err != nil {
			return nil, fmt.Errorf("failed to save page %d: %w", pageNum+1, err)
		}

		if _, err := e.processor.SaveWebPVariant(optimized, pagePath); err != nil {
			e.logger.PDF().Warn("WebP variant generation failed", "page", pageNum+1, "error", err.Error())
		}

		paths = append(paths, pagePath)
	}

	e.logger.PDF().Info("Extracted comic pages",
		"pdf", filepath.Base(pdfPath),
		"pages", pageCount,
		"duration", time.Since(start),
	)

	return paths, nil
}

// CleanupPages removes the extracted page images and their directory.
func (e *Extractor) CleanupPages(pagePaths []string) {
	for _, path := range pagePaths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.PDF().Warn("Failed to remove page image", "path", path, "error", err.Error())
		}
		webpPath := path[:len(path)-len(filepath.Ext(path))] + ".webp"
		if err := os.Remove(webpPath); err != nil && !os.IsNotExist(err) {
			e.logger.PDF().Debug("No webp variant to remove", "path", webpPath)
		}
	}

	if len(pagePaths) > 0 {
		dir := filepath.Dir(pagePaths[0])
		if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
			if err := os.Remove(dir); err != nil {
				e.logger.PDF().Warn("Failed to remove pages directory", "dir", dir, "error", err.Error())
			}
		}
	}
}
