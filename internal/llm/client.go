package llm

import "context"

// Client define la interfaz para generar respuestas con un LLM local.
// Load carga el modelo en memoria; Generate falla si no está cargado.
type Client interface {
	Load() error
	Loaded() bool
	Generate(ctx context.Context, prompt string) (string, error)
	Close()
}
