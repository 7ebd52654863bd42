package storage

import (
	"context"
	"fmt"

	appfinance "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewReceiptStorage builds the receipt store selected by cfg.Backend
func NewReceiptStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (appfinance.FileStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case config.StorageS3:
		s, err := NewS3ReceiptStorage(ctx, cfg, WithLogger(logger.Named("s3_storage")))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 receipt storage", zap.String("bucket", s.Bucket()))
		return s, nil
	case config.StorageStub, "":
		logger.Warn("Using in-memory receipt storage; uploads are lost on restart")
		return NewStubReceiptStorage(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
