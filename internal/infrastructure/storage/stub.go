package storage

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	appfinance "github.com/lhajoosten/ExpenseAI/internal/application/finance"
)

// StubReceiptStorage keeps receipts in memory for development and tests
type StubReceiptStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredReceipt
}

// StoredReceipt is a receipt held by StubReceiptStorage
type StoredReceipt struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewStubReceiptStorage creates an empty stub store serving URLs under baseURL
func NewStubReceiptStorage(baseURL string) *StubReceiptStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/files"
	}
	return &StubReceiptStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]StoredReceipt),
	}
}

// Upload keeps the receipt in memory and returns a URL under BaseURL
func (s *StubReceiptStorage) Upload(_ context.Context, r io.Reader, filename, contentType string) (string, error) {
	data, err := readReceipt(r)
	if err != nil {
		return "", err
	}
	key := receiptKey("", filename, time.Now())

	s.mu.Lock()
	s.objects[key] = StoredReceipt{
		Filename:    filename,
		ContentType: contentTypeOf(filename, contentType),
		Data:        data,
	}
	s.mu.Unlock()
	return s.BaseURL + "/" + key, nil
}

// Remove deletes the receipt stored at url. Unknown URLs are ignored.
func (s *StubReceiptStorage) Remove(_ context.Context, url string) error {
	s.mu.Lock()
	delete(s.objects, strings.TrimPrefix(url, s.BaseURL+"/"))
	s.mu.Unlock()
	return nil
}

// Get returns the receipt stored at url
func (s *StubReceiptStorage) Get(url string) (StoredReceipt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[strings.TrimPrefix(url, s.BaseURL+"/")]
	return obj, ok
}

// Len returns the number of stored receipts
func (s *StubReceiptStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ appfinance.FileStorage = (*StubReceiptStorage)(nil)
