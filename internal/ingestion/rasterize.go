package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/single_threaded"
	"github.com/ledongthuc/pdf"

	"github.com/smeasylife/highlog-ai/internal/apperr"
)

const rasterDPI = 150

// Rasterizer produces one PNG image per PDF page, in order, at a fixed
// DPI. go-pdfium's single-threaded pool matches the ingestion worker's
// access pattern: one document rasterized start-to-finish per activity
// invocation, never concurrently within a process.
type Rasterizer struct {
	pool pdfium.Pool
}

// NewRasterizer initializes the single-threaded pdfium worker pool.
func NewRasterizer() (*Rasterizer, error) {
	pool, err := single_threaded.Init(single_threaded.Config{})
	if err != nil {
		return nil, fmt.Errorf("ingestion: init pdfium pool: %w", err)
	}
	return &Rasterizer{pool: pool}, nil
}

// Close releases the pdfium worker pool.
func (r *Rasterizer) Close() error {
	return r.pool.Close()
}

// RasterizePages renders every page of the PDF at fixed DPI, preserving
// page order.
func (r *Rasterizer) RasterizePages(ctx context.Context, pdfBytes []byte) ([][]byte, error) {
	instance, err := r.pool.GetInstance(0)
	if err != nil {
		return nil, apperr.Storage(err, "acquire pdfium instance")
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &pdfBytes})
	if err != nil {
		return nil, apperr.InvalidRequest("open pdf: %v", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return nil, apperr.Storage(err, "get page count")
	}

	pages := make([][]byte, 0, pageCount.PageCount)
	for i := 0; i < pageCount.PageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page, err := instance.RenderPageInDPI(&requests.RenderPageInDPI{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i},
			},
			DPI: rasterDPI,
		})
		if err != nil {
			return nil, apperr.Storage(err, "render page %d", i)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, page.Result.Image); err != nil {
			return nil, apperr.Storage(err, "encode page %d", i)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}

// pageText extracts verbatim page text as a fallback source when OCR
// confidence is unavailable; currently unused by the main pipeline but
// kept available for a future text-layer shortcut on digitally-native
// PDFs.
func pageText(pdfBytes []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("ingestion: open pdf text layer: %w", err)
	}
	texts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}
