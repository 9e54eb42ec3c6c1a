package vectorstore

import (
	"context"
	"errors"

	"rag-chat/internal/domain"
)

// ErrNotConnected se devuelve cuando se opera sobre el índice antes de Connect.
var ErrNotConnected = errors.New("vector store not connected")

// Store define las operaciones sobre el índice vectorial de documentos.
// Search devuelve pasajes ordenados por distancia creciente (más cercano primero).
type Store interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Search(ctx context.Context, query string, k int) ([]domain.Passage, error)
	AddDocument(ctx context.Context, id, content string, metadata map[string]any) error
	GetAll(ctx context.Context) ([]domain.Document, error)
	Count(ctx context.Context) (int, error)
	DeleteBySource(ctx context.Context, sourceFile string) error
	Disconnect() error
}
