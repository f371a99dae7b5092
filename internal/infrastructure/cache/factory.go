package cache

import (
	"fmt"

	"github.com/netpass/backend/internal/domain/shared"
	"github.com/netpass/backend/internal/infrastructure/config"
)

// NewDedupStore builds the processed-notification store selected by
// admission.dedup_backend
func NewDedupStore(cfg *config.Config) (shared.IdempotencyStore, error) {
	switch cfg.Admission.DedupBackend {
	case "memory":
		return NewMemoryDedupStore(), nil
	case "redis":
		return NewRedisDedupStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("cache: unknown dedup backend %q", cfg.Admission.DedupBackend)
	}
}
