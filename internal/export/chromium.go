// Package export renders the planner's paginated document surface. It
// drives a headless Chromium at the served day-grid page and prints it to
// PDF, so the export shows exactly the geometry the screen surface shows.
package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Default parameters for the planner page capture.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 960
	DefaultTimeoutSec = 30

	// A4 portrait, in inches, chromium's PrintToPDF unit.
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// Options defines parameters for one export run.
type Options struct {
	// URL of the day-grid page, e.g. "http://127.0.0.1:8080/?days=7".
	URL string

	// PDFPath is where the paginated document is written.
	PDFPath string

	// PreviewPath, if non-empty, additionally writes a full-page PNG
	// screenshot (used by the web UI's preview).
	PreviewPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Landscape rotates the PDF page orientation.
	Landscape bool

	// Timeout bounds the entire export. If zero, DefaultTimeoutSec is used.
	Timeout time.Duration
}

// Run navigates to opts.URL, waits until the page signals that layout data
// has been fetched and painted (the root element flips to
// data-ready="true"), then prints the document to PDF and optionally
// captures a PNG preview.
func Run(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("export: URL is required")
	}
	if opts.PDFPath == "" {
		return fmt.Errorf("export: PDFPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var pdf, png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}
	if opts.PreviewPath != "" {
		tasks = append(tasks, chromedp.FullScreenshot(&png, 100))
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("export: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.PDFPath, pdf, 0o644); err != nil {
		return fmt.Errorf("export: failed to write PDF: %w", err)
	}
	if opts.PreviewPath != "" {
		if err := os.WriteFile(opts.PreviewPath, png, 0o644); err != nil {
			return fmt.Errorf("export: failed to write PNG preview: %w", err)
		}
	}
	return nil
}
