package embedding

import (
	"context"
	"fmt"

	"github.com/caretracestack/caretrace-engine/internal/config"
)

// Embedder turns free text into a dense vector suitable for similarity
// search. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds an Embedder from configuration. Only the ollama provider is
// supported today; the factory exists so adding a hosted provider does not
// touch call sites.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(cfg.Model, cfg.BaseURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
