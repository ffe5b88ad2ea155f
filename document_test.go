// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal, well-formed PDF with one empty page per entry
// of sizes.
func buildPDF(sizes ...Size) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(sizes))
	for i := range sizes {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(sizes)))
	for _, s := range sizes {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> >>", s.W, s.H))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestPDFOpener_Open(t *testing.T) {
	data := buildPDF(Size{W: 612, H: 792}, Size{W: 612, H: 792}, Size{W: 842, H: 595})

	doc, err := NewPDFOpener().Open(context.Background(), data)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 3, doc.PageCount())

	size, err := doc.PageSize(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Size{W: 612, H: 792}, size)

	size, err = doc.PageSize(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, Size{W: 842, H: 595}, size)

	_, err = doc.PageSize(context.Background(), 4)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	r, err := doc.RenderPage(context.Background(), 2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 306, r.Image.Bounds().Dx())
	assert.Equal(t, 396, r.Image.Bounds().Dy())
}

func TestPDFOpener_OpenInvalid(t *testing.T) {
	opener := NewPDFOpener()

	_, err := opener.Open(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = opener.Open(context.Background(), []byte("this is not a pdf"))
	assert.Error(t, err)

	data := buildPDF(Size{W: 612, H: 792})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = opener.Open(ctx, data)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsPasswordErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "wrong password", err: fmt.Errorf("read: %w", pdfcpu.ErrWrongPassword), want: true},
		{name: "unknown encryption", err: pdfcpu.ErrUnknownEncryption, want: true},
		{name: "encrypt in message", err: errors.New("pdfcpu: corrupt encrypt dict entry"), want: false},
		{name: "password in message", err: errors.New("invalid password field in form"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPasswordErr(tt.err))
		})
	}
}

func TestViewer_OpenPDF(t *testing.T) {
	surface := NewMemorySurface(Size{W: 800, H: 600})
	v, err := NewViewer(testConfig(), NewPDFOpener(), surface, nil)
	require.NoError(t, err)
	defer v.Close()

	data := buildPDF(Size{W: 200, H: 300}, Size{W: 200, H: 300}, Size{W: 200, H: 300}, Size{W: 200, H: 300})
	require.NoError(t, v.Open(testCtx(t), "/tmp/Report.PDF", data))
	waitIdle(t, v)

	st := status(t, v)
	assert.Equal(t, "Report", st.Document)
	assert.Equal(t, 4, st.Pages)
	assert.Equal(t, []int{1, 2, 3, 4}, st.Resident)
	assert.Zero(t, st.RenderFailures)

	r, ok := surface.Mounted(1)
	require.True(t, ok)
	assert.Equal(t, 200, r.Image.Bounds().Dx())
}
