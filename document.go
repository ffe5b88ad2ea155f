// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sassoftware/pdf-pager/logger"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// Document is an opened, paginated document. RenderPage may be called from
// any goroutine; the viewer never issues two calls at once.
type Document interface {
	PageCount() int
	// PageSize returns the unscaled size of page p in points.
	PageSize(ctx context.Context, p int) (Size, error)
	RenderPage(ctx context.Context, p int, scale float64) (*Raster, error)
	Close() error
}

// Opener decodes raw bytes into a Document.
type Opener interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, data []byte) (Document, error)

func (f OpenerFunc) Open(ctx context.Context, data []byte) (Document, error) {
	return f(ctx, data)
}

// PDFOpener decodes PDF bytes with pdfcpu. Page content is not interpreted;
// rasters come from Rasterizer.
type PDFOpener struct {
	Rasterizer *Rasterizer
}

func NewPDFOpener() *PDFOpener {
	return &PDFOpener{Rasterizer: NewRasterizer()}
}

func (o *PDFOpener) Open(ctx context.Context, data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		if isPasswordErr(err) {
			return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if len(dims) == 0 {
		return nil, ErrEmptyDocument
	}

	sizes := make([]Size, len(dims))
	for i, d := range dims {
		sizes[i] = Size{W: d.Width, H: d.Height}
	}
	logger.Debug(fmt.Sprintf("PDF decoded: pages=%d first=%.0fx%.0f", len(sizes), sizes[0].W, sizes[0].H), true)

	rz := o.Rasterizer
	if rz == nil {
		rz = NewRasterizer()
	}
	return &pdfDocument{sizes: sizes, rasterizer: rz}, nil
}

func isPasswordErr(err error) bool {
	return errors.Is(err, pdfcpu.ErrWrongPassword) || errors.Is(err, pdfcpu.ErrUnknownEncryption)
}

type pdfDocument struct {
	sizes      []Size
	rasterizer *Rasterizer
}

func (d *pdfDocument) PageCount() int { return len(d.sizes) }

func (d *pdfDocument) PageSize(ctx context.Context, p int) (Size, error) {
	if p < 1 || p > len(d.sizes) {
		return Size{}, fmt.Errorf("page %d of %d: %w", p, len(d.sizes), ErrPageOutOfRange)
	}
	return d.sizes[p-1], nil
}

func (d *pdfDocument) RenderPage(ctx context.Context, p int, scale float64) (*Raster, error) {
	size, err := d.PageSize(ctx, p)
	if err != nil {
		return nil, err
	}
	return d.rasterizer.Render(ctx, p, size, scale)
}

func (d *pdfDocument) Close() error { return nil }
