package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"rag-chat/internal/vectorstore"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

// IndexingService mantiene el índice vectorial sincronizado con un
// directorio de documentos: corta cada archivo en chunks y los inserta con
// metadata suficiente para etiquetar fuentes y detectar cambios.
type IndexingService struct {
	store  vectorstore.Store
	logger *zap.Logger
}

func NewIndexingService(store vectorstore.Store, logger *zap.Logger) *IndexingService {
	return &IndexingService{store: store, logger: logger}
}

// ScanAndIndex recorre el directorio una vez: indexa archivos nuevos o
// modificados (por hash de contenido) y elimina del índice los borrados.
func (s *IndexingService) ScanAndIndex(ctx context.Context, dir string) error {
	indexed, err := s.indexState(ctx)
	if err != nil {
		return fmt.Errorf("read index state: %w", err)
	}
	s.logger.Info("starting directory scan", zap.String("dir", dir), zap.Int("indexed_files", len(indexed)))

	local := make(map[string]bool)
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		local[path] = true

		hash, err := fileHash(path)
		if err != nil {
			s.logger.Warn("hash file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if prev, ok := indexed[path]; ok {
			if prev == hash {
				return nil
			}
			s.logger.Info("file changed, reindexing", zap.String("path", path))
			if err := s.store.DeleteBySource(ctx, path); err != nil {
				s.logger.Error("delete old chunks", zap.String("path", path), zap.Error(err))
				return nil
			}
		}
		if err := s.indexFile(ctx, path, hash); err != nil {
			s.logger.Error("index file", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}

	for path := range indexed {
		if !local[path] {
			s.logger.Info("file removed, deleting from index", zap.String("path", path))
			if err := s.store.DeleteBySource(ctx, path); err != nil {
				s.logger.Error("delete chunks", zap.String("path", path), zap.Error(err))
			}
		}
	}
	s.logger.Info("directory scan finished", zap.String("dir", dir))
	return nil
}

// Watch observa el directorio y reindexa en caliente hasta que el contexto
// se cancele. Create y Write se tratan igual porque muchos editores guardan
// escribiendo un archivo temporal y renombrándolo.
func (s *IndexingService) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.logger.Info("watching documents directory", zap.String("dir", dir))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSupportedFile(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				s.logger.Info("file modified, reindexing", zap.String("path", event.Name))
				hash, err := fileHash(event.Name)
				if err != nil {
					s.logger.Warn("hash file", zap.String("path", event.Name), zap.Error(err))
					continue
				}
				if err := s.store.DeleteBySource(ctx, event.Name); err != nil {
					s.logger.Error("delete old chunks", zap.String("path", event.Name), zap.Error(err))
				}
				if err := s.indexFile(ctx, event.Name, hash); err != nil {
					s.logger.Error("index file", zap.String("path", event.Name), zap.Error(err))
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				s.logger.Info("file removed, deleting from index", zap.String("path", event.Name))
				if err := s.store.DeleteBySource(ctx, event.Name); err != nil {
					s.logger.Error("delete chunks", zap.String("path", event.Name), zap.Error(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", zap.Error(err))
		case <-ctx.Done():
			s.logger.Info("watcher shutting down")
			return nil
		}
	}
}

func (s *IndexingService) indexFile(ctx context.Context, path, hash string) error {
	content, err := ExtractText(path)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil {
		return fmt.Errorf("split text: %w", err)
	}
	s.logger.Info("file split", zap.String("path", path), zap.Int("chunks", len(chunks)))

	for i, chunk := range chunks {
		metadata := map[string]any{
			"filename":    filepath.Base(path),
			"source_file": path,
			"file_hash":   hash,
			"chunk_num":   i,
		}
		id := fmt.Sprintf("%s-chunk%d", uuid.NewString(), i)
		if err := s.store.AddDocument(ctx, id, chunk, metadata); err != nil {
			return fmt.Errorf("add chunk %d of %s: %w", i, path, err)
		}
	}
	return nil
}

// indexState reconstruye el mapa archivo -> hash a partir de la metadata de
// los chunks ya almacenados.
func (s *IndexingService) indexState(ctx context.Context) (map[string]string, error) {
	state := make(map[string]string)
	documents, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range documents {
		path, okPath := doc.Metadata["source_file"].(string)
		hash, okHash := doc.Metadata["file_hash"].(string)
		if okPath && okHash {
			if _, exists := state[path]; !exists {
				state[path] = hash
			}
		}
	}
	return state, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
