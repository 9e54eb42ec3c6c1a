package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rag-chat/internal/config"
	"rag-chat/internal/embedding"
	"rag-chat/internal/service"
	"rag-chat/internal/vectorstore"
)

// Carga masiva de documentos al índice vectorial, fuera del proceso del API.
func main() {
	dir := flag.String("dir", "", "directory with documents to index (defaults to DOCUMENTS_DIR)")
	watch := flag.Bool("watch", false, "keep watching the directory after the initial scan")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	target := *dir
	if target == "" {
		target = cfg.DocumentsDir
	}
	if target == "" {
		logger.Fatal("no documents directory: pass -dir or set DOCUMENTS_DIR")
	}

	ctx := context.Background()
	embedder := embedding.NewOllamaEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	store := vectorstore.NewChromaStore(cfg.ChromaURL, cfg.ChromaCollection, cfg.ChromaDistance, embedder, logger)

	if err := store.Connect(ctx); err != nil {
		logger.Fatal("connect vector store", zap.Error(err))
	}
	defer func() {
		if err := store.Disconnect(); err != nil {
			logger.Warn("disconnect vector store", zap.Error(err))
		}
	}()

	indexer := service.NewIndexingService(store, logger)
	if err := indexer.ScanAndIndex(ctx, target); err != nil {
		logger.Fatal("scan failed", zap.Error(err))
	}

	if *watch {
		if err := indexer.Watch(ctx, target); err != nil {
			logger.Fatal("watch failed", zap.Error(err))
		}
	}
}
