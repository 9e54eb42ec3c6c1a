package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rag-chat/internal/config"
	"rag-chat/internal/embedding"
	apihttp "rag-chat/internal/http"
	"rag-chat/internal/llm"
	"rag-chat/internal/repository"
	"rag-chat/internal/service"
	"rag-chat/internal/vectorstore"
	"rag-chat/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	embedder := embedding.NewOllamaEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	store := vectorstore.NewChromaStore(cfg.ChromaURL, cfg.ChromaCollection, cfg.ChromaDistance, embedder, logger)
	llmClient := llm.NewLlamaClient(cfg.LLMModelPath, cfg.LLMContextSize, cfg.LLMGPULayers, cfg.LLMThreads, logger)
	engine := service.NewRAGEngine(store, llmClient, logger)
	defer engine.Close()

	repo := repository.NewFileSessionRepository(cfg.SessionsFile, logger)
	chatSvc := service.NewChatService(repo, engine, logger)

	sessionHandler := apihttp.NewSessionHandler(logger, chatSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	documentHandler := apihttp.NewDocumentHandler(logger, store)
	router := apihttp.NewRouter(logger, sessionHandler, chatHandler, documentHandler)

	if err := web.Register(router); err != nil {
		logger.Fatal("register web ui", zap.Error(err))
	}

	// El índice de documentos se mantiene en segundo plano si hay un
	// directorio configurado; el chat no depende de que esto funcione.
	if cfg.DocumentsDir != "" {
		indexer := service.NewIndexingService(store, logger)
		go func() {
			if err := store.Connect(ctx); err != nil {
				logger.Error("indexer connect failed", zap.Error(err))
				return
			}
			if err := indexer.ScanAndIndex(ctx, cfg.DocumentsDir); err != nil {
				logger.Error("initial scan failed", zap.Error(err))
			}
			if err := indexer.Watch(ctx, cfg.DocumentsDir); err != nil {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}
