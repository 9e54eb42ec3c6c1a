package embedding

import "context"

// Embedder convierte texto libre en un vector numérico.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
