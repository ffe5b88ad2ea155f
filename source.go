// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/sassoftware/pdf-pager/logger"
)

// ErrNotPDF is returned for import names without a .pdf extension.
var ErrNotPDF = errors.New("not a pdf file")

// maxSourceBytes bounds a single import.
const maxSourceBytes = 512 << 20

// ParseGCSURI splits gs://bucket/object. ok is false for anything else.
func ParseGCSURI(src string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(src, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// ReadSource loads the bytes of src, either gs://bucket/object through
// client or a local file path. name is the base file name, ready for
// Viewer.Open. client may be nil for local paths.
func ReadSource(ctx context.Context, client *storage.Client, src string) (name string, data []byte, err error) {
	if bucket, object, ok := ParseGCSURI(src); ok {
		name = path.Base(object)
		if !isPDFName(name) {
			return "", nil, fmt.Errorf("%s: %w", src, ErrNotPDF)
		}
		if client == nil {
			return "", nil, fmt.Errorf("%s: no storage client", src)
		}
		r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("open %s: %w", src, err)
		}
		defer r.Close()
		data, err = readLimited(r)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", src, err)
		}
		logger.Debug(fmt.Sprintf("Read object: bucket=%s object=%s bytes=%d", bucket, object, len(data)), true)
		return name, data, nil
	}

	name = filepath.Base(src)
	if !isPDFName(name) {
		return "", nil, fmt.Errorf("%s: %w", src, ErrNotPDF)
	}
	f, err := os.Open(src)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err = readLimited(f)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", src, err)
	}
	logger.Debug(fmt.Sprintf("Read file: path=%s bytes=%d", src, len(data)), true)
	return name, data, nil
}

func isPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("source exceeds %d bytes", maxSourceBytes)
	}
	return data, nil
}
