package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"go.uber.org/zap"

	"rag-chat/internal/domain"
	"rag-chat/internal/embedding"
)

// ChromaStore implementa Store sobre una colección de ChromaDB (API v2).
// La métrica de distancia se fija al crear la colección vía hnsw:space.
type ChromaStore struct {
	url            string
	collectionName string
	distance       string
	embedder       embedding.Embedder
	logger         *zap.Logger

	mu         sync.Mutex
	client     chromago.Client
	collection chromago.Collection
}

// NewChromaStore construye un adaptador sin conectar todavía.
func NewChromaStore(url, collectionName, distance string, embedder embedding.Embedder, logger *zap.Logger) *ChromaStore {
	return &ChromaStore{
		url:            url,
		collectionName: collectionName,
		distance:       distance,
		embedder:       embedder,
		logger:         logger,
	}
}

// Connect crea el cliente HTTP y obtiene o crea la colección configurada.
// Es idempotente: una segunda llamada sobre un store conectado no hace nada.
func (s *ChromaStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection != nil {
		return nil
	}

	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(s.url))
	if err != nil {
		return fmt.Errorf("create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		s.collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", s.distance),
			),
		),
	)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			s.logger.Warn("close chroma client", zap.Error(closeErr))
		}
		return fmt.Errorf("get or create collection %q: %w", s.collectionName, err)
	}

	s.client = client
	s.collection = collection
	s.logger.Info("connected to chroma",
		zap.String("url", s.url),
		zap.String("collection", s.collectionName),
		zap.String("distance", s.distance),
	)
	return nil
}

// IsConnected informa si la colección está lista para operar.
func (s *ChromaStore) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection != nil
}

// Search embebe la consulta y devuelve hasta k pasajes con su distancia.
func (s *ChromaStore) Search(ctx context.Context, query string, k int) ([]domain.Passage, error) {
	collection, err := s.current()
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("query chroma: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	passages := make([]domain.Passage, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		passage := domain.Passage{Text: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			passage.Metadata = metadataToMap(metadataGroups[0][i], s.logger)
		}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			passage.Distance = float64(distanceGroups[0][i])
		}
		passages = append(passages, passage)
	}
	return passages, nil
}

// AddDocument embebe el contenido e inserta un registro con su metadata.
func (s *ChromaStore) AddDocument(ctx context.Context, id, content string, metadata map[string]any) error {
	collection, err := s.current()
	if err != nil {
		return err
	}

	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	err = collection.Add(ctx,
		chromago.WithIDs(chromago.DocumentID(id)),
		chromago.WithTexts(content),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithMetadatas(metadataFromMap(metadata)),
	)
	if err != nil {
		return fmt.Errorf("add document to chroma: %w", err)
	}
	return nil
}

// GetAll devuelve todos los documentos almacenados con su metadata.
func (s *ChromaStore) GetAll(ctx context.Context) ([]domain.Document, error) {
	collection, err := s.current()
	if err != nil {
		return nil, err
	}

	results, err := collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get documents from chroma: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	all := make([]domain.Document, 0, len(documents))
	for i := range documents {
		doc := domain.Document{
			ID:   string(ids[i]),
			Text: documents[i].ContentString(),
		}
		if i < len(metadatas) && metadatas[i] != nil {
			doc.Metadata = metadataToMap(metadatas[i], s.logger)
		}
		all = append(all, doc)
	}
	return all, nil
}

// Count devuelve la cantidad de registros en la colección.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	collection, err := s.current()
	if err != nil {
		return 0, err
	}
	count, err := collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count collection: %w", err)
	}
	return int(count), nil
}

// DeleteBySource elimina todos los registros cuyo source_file coincida.
func (s *ChromaStore) DeleteBySource(ctx context.Context, sourceFile string) error {
	collection, err := s.current()
	if err != nil {
		return err
	}
	where := chromago.EqString("source_file", sourceFile)
	if err := collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("delete documents for %q: %w", sourceFile, err)
	}
	return nil
}

// Disconnect libera el cliente y la colección.
func (s *ChromaStore) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.collection = nil
	return err
}

func (s *ChromaStore) current() (chromago.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return nil, ErrNotConnected
	}
	return s.collection, nil
}

func metadataFromMap(metadata map[string]any) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(metadata))
	for key, value := range metadata {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(key, v))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(key, int64(v)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(key, v))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(key, v))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(key, v))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(key, fmt.Sprint(v)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// metadataToMap convierte DocumentMetadata en un mapa genérico vía JSON.
func metadataToMap(metadata chromago.DocumentMetadata, logger *zap.Logger) map[string]any {
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		logger.Warn("marshal document metadata", zap.Error(err))
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(jsonBytes, &m); err != nil {
		logger.Warn("unmarshal document metadata", zap.Error(err))
		return map[string]any{}
	}
	return m
}
