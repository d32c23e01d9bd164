package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/adapters/kv"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
)

// KVFactory creates key-value stores based on configuration
type KVFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewKVFactory creates a new key-value store factory
func NewKVFactory(cfg *config.Config, logger *zap.Logger) *KVFactory {
	return &KVFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateKeyValueStore creates a key-value store based on the configuration
func (f *KVFactory) CreateKeyValueStore() (core.KeyValueStore, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	switch cacheCfg.Type {
	case "memory":
		return kv.NewMemoryStore(f.logger, cacheCfg.CleanupFreq), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return kv.NewSQLiteStore(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFreq)
	case "mysql":
		return kv.NewMySQLStore(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFreq)
	case "redis":
		return kv.NewRedisStore(cacheCfg.RedisAddr, "", 0, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}
