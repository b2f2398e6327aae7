package embedding

import (
	"fmt"

	"github.com/hyperjump/kioku/internal/config"
	"go.uber.org/zap"
)

// New builds the embedder selected by cfg. When the ONNX provider cannot be
// initialized the hash embedder is used instead and a warning is logged.
func New(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "", config.ProviderHash:
		return NewHashEmbedder(cfg.Dimensions), nil
	case config.ProviderONNX:
		e, err := newONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			logger.Warn("onnx embedder unavailable, falling back to hash embedder",
				zap.String("model_path", cfg.ModelPath), zap.Error(err))
			return NewHashEmbedder(cfg.Dimensions), nil
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// ProviderName reports which provider backs e.
func ProviderName(e Embedder) string {
	if _, ok := e.(*HashEmbedder); ok {
		return config.ProviderHash
	}
	return config.ProviderONNX
}
