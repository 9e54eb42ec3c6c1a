package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
	"go.uber.org/zap"
)

// Presupuesto fijo de generación por turno.
const maxTokens = 512

// Marcadores de fin de turno / fin de instrucción del formato Mistral.
var stopWords = []string{"</s>", "[INST]"}

// ErrNotLoaded se devuelve al generar sin haber cargado el modelo.
var ErrNotLoaded = errors.New("llm model not loaded")

// LlamaClient implementa Client sobre llama.cpp con un modelo GGUF local.
type LlamaClient struct {
	modelPath   string
	contextSize int
	gpuLayers   int
	threads     int
	logger      *zap.Logger

	mu    sync.Mutex
	model *llama.LLama
}

// NewLlamaClient construye un cliente sin cargar el modelo todavía.
func NewLlamaClient(modelPath string, contextSize, gpuLayers, threads int, logger *zap.Logger) *LlamaClient {
	return &LlamaClient{
		modelPath:   modelPath,
		contextSize: contextSize,
		gpuLayers:   gpuLayers,
		threads:     threads,
		logger:      logger,
	}
}

// Load carga el modelo en memoria. Falla si el archivo no existe.
// Es idempotente: con el modelo ya cargado no hace nada.
func (c *LlamaClient) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return nil
	}
	if _, err := os.Stat(c.modelPath); err != nil {
		return fmt.Errorf("llm model not found at %s: %w", c.modelPath, err)
	}

	model, err := llama.New(
		c.modelPath,
		llama.SetContext(c.contextSize),
		llama.SetGPULayers(c.gpuLayers),
		llama.SetMMap(true),
	)
	if err != nil {
		return fmt.Errorf("load llm model: %w", err)
	}

	c.model = model
	c.logger.Info("llm model loaded",
		zap.String("path", c.modelPath),
		zap.Int("context_size", c.contextSize),
		zap.Int("gpu_layers", c.gpuLayers),
	)
	return nil
}

// Loaded informa si el modelo está en memoria.
func (c *LlamaClient) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model != nil
}

// Generate ejecuta una inferencia completa. La llamada es bloqueante y está
// acotada solo por el presupuesto de tokens y los stop words.
func (c *LlamaClient) Generate(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return "", ErrNotLoaded
	}

	out, err := c.model.Predict(
		prompt,
		llama.SetTokens(maxTokens),
		llama.SetThreads(c.threads),
		llama.SetStopWords(stopWords...),
	)
	if err != nil {
		return "", fmt.Errorf("llm predict: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Close libera el modelo.
func (c *LlamaClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != nil {
		c.model.Free()
		c.model = nil
	}
}
