// Package storage stores uploaded receipt files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxReceiptSize is the largest receipt accepted for upload
const MaxReceiptSize = 10 << 20

// ErrReceiptTooLarge is returned when an upload exceeds MaxReceiptSize
var ErrReceiptTooLarge = fmt.Errorf("receipt exceeds %d bytes", MaxReceiptSize)

var errEmptyReceipt = errors.New("receipt is empty")

// receiptKey builds receipts/<yyyy>/<mm>/<uuid><ext> under prefix
func receiptKey(prefix, filename string, now time.Time) string {
	key := path.Join("receipts", now.UTC().Format("2006/01"), uuid.NewString()+safeExt(filename))
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// safeExt keeps a short lowercase alphanumeric extension of filename
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func contentTypeOf(filename, contentType string) string {
	if contentType != "" {
		return contentType
	}
	if ct := mime.TypeByExtension(safeExt(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// readReceipt reads r fully, enforcing MaxReceiptSize
func readReceipt(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReceiptSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}
	if len(data) == 0 {
		return nil, errEmptyReceipt
	}
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}
	return data, nil
}
